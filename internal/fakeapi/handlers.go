package fakeapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

const dateLayout = time.DateOnly

// pathInt reads a positive integer path value.
func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// currentUser loads the account behind the verified bearer token.
func currentUser(r *http.Request, store *Store) (User, bool) {
	sub := httpx.UserIDFromContext(r.Context())
	if sub == "" {
		return User{}, false
	}
	u, err := store.UserBySubject(sub)
	if err != nil {
		return User{}, false
	}
	return u, true
}

// writeStoreError maps store errors to the API's status codes.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotEnrolled):
		httpx.WriteMessage(w, http.StatusNotFound, notFound)
	case errors.Is(err, ErrAlreadyExists):
		httpx.WriteMessage(w, http.StatusConflict, "Already exists")
	default:
		slogx.FromContext(r.Context()).Error("store failure", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
