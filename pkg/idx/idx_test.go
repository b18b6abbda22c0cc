package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, s)
	}
}

func TestFromHeader(t *testing.T) {
	known := idx.New()
	require.Equal(t, known, idx.FromHeader(" "+known.String()+" "))

	// garbage gets replaced rather than propagated
	fresh := idx.FromHeader("nope")
	require.NotEqual(t, idx.Zero, fresh)
	_, err := idx.Parse(fresh.String())
	require.NoError(t, err)
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())
	require.Less(t, a.String(), b.String())

	// same millisecond still sorts in creation order
	at := time.Unix(1700000000, 0).UTC()
	first, second := idx.NewAt(at), idx.NewAt(at)
	require.Less(t, first.String(), second.String())
}
