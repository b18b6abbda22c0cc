package classrecord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/credstore"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const resourcePath = "/api/resource"

func makeToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jwtx.NewJTI(),
		},
		Role: role,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

// fakeAPI accepts exactly one access token on resourcePath and rotates it on
// refresh.
type fakeAPI struct {
	mu          sync.Mutex
	validToken  string
	nextAccess  string
	nextRefresh string
	requestIDs  []string
	bodies      []string

	rejectAll     bool
	refreshStatus int
	refreshDelay  time.Duration
	refreshGate   chan struct{}

	dispatches atomic.Int32
	refreshes  atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == DefaultEndpoints().RefreshToken {
		f.refreshes.Add(1)
		if f.refreshGate != nil {
			<-f.refreshGate
		}
		time.Sleep(f.refreshDelay)

		if f.refreshStatus != 0 {
			w.WriteHeader(f.refreshStatus)
			_, _ = io.WriteString(w, `{"message":"invalid refresh token"}`)
			return
		}

		var in refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.validToken = f.nextAccess
		out := refreshResponse{AccessToken: f.nextAccess, RefreshToken: f.nextRefresh}
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(out)
		return
	}

	f.dispatches.Add(1)
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requestIDs = append(f.requestIDs, r.Header.Get("X-Request-ID"))
	f.bodies = append(f.bodies, string(body))
	ok := !f.rejectAll && r.Header.Get("Authorization") == "Bearer "+f.validToken
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Forbidden"}`)
		return
	}
	_, _ = io.WriteString(w, `{"ok":true}`)
}

type harness struct {
	api     *fakeAPI
	client  *Client
	sess    *credstore.Session
	backend *credstore.MemoryBackend
	expired atomic.Int32
}

func newHarness(t *testing.T, api *fakeAPI) *harness {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	h := &harness{api: api, backend: credstore.NewMemoryBackend()}
	h.sess = credstore.NewSession(credstore.New(h.backend, []byte("device-secret")))
	h.client = New(Config{
		BaseURL:   srv.URL,
		APIKey:    "key",
		SecretKey: "secret",
		Endpoints: DefaultEndpoints(),
	}, h.sess, WithSessionExpiredHook(func(context.Context) { h.expired.Add(1) }))
	return h
}

func (h *harness) seed(t *testing.T, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.sess.SetTokens(ctx, access, refresh))
	require.NoError(t, h.sess.SetProfile(ctx, credstore.Profile{FirstName: "A", LastName: "B", Username: "ab"}))
}

func (h *harness) requireCleared(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, key := range []string{
		credstore.KeyAccessToken, credstore.KeyRefreshToken,
		credstore.KeyFirstName, credstore.KeyLastName, credstore.KeyUsername,
	} {
		_, ok, err := h.backend.Get(ctx, key)
		require.NoError(t, err)
		require.False(t, ok, "key %q survived", key)
	}
}

func TestSend_AttachesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sess := credstore.NewSession(credstore.New(credstore.NewMemoryBackend(), []byte("s")))
	token := makeToken(t, "student", time.Now().Add(time.Hour))
	require.NoError(t, sess.SetTokens(context.Background(), token, "r"))

	c := New(Config{BaseURL: srv.URL + "/", APIKey: "key", SecretKey: "secret"}, sess)
	resp, err := c.Send(context.Background(), Request{Path: "/x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "Bearer "+token, got.Get("Authorization"))
	require.Equal(t, "key", got.Get(HeaderAPIKey))
	require.Equal(t, "secret", got.Get(HeaderSecretKey))
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestSend_NoTokenDispatchesAnonymously(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	t.Cleanup(srv.Close)

	sess := credstore.NewSession(credstore.New(credstore.NewMemoryBackend(), []byte("s")))
	c := New(Config{BaseURL: srv.URL}, sess)

	resp, err := c.Send(context.Background(), Request{Method: http.MethodPost, Path: "/login", Body: map[string]string{"a": "b"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, auth)
}

func TestSend_FreshTokenPassesThrough(t *testing.T) {
	token := makeToken(t, "teacher", time.Now().Add(time.Hour))
	h := newHarness(t, &fakeAPI{validToken: token})
	h.seed(t, token, "r1")

	resp, err := h.client.Send(context.Background(), Request{Path: resourcePath})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"ok":true}`, string(resp.Body))

	require.EqualValues(t, 1, h.api.dispatches.Load())
	require.EqualValues(t, 0, h.api.refreshes.Load())
}

func TestSend_RetriesOnceAfter403(t *testing.T) {
	ctx := context.Background()
	old := makeToken(t, "teacher", time.Now().Add(time.Hour))
	fresh := makeToken(t, "teacher", time.Now().Add(2*time.Hour))

	h := newHarness(t, &fakeAPI{validToken: "server-revoked", nextAccess: fresh, nextRefresh: "r2"})
	h.seed(t, old, "r1")

	resp, err := h.client.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   resourcePath,
		Body:   map[string]int{"studentId": 42},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.EqualValues(t, 1, h.api.refreshes.Load())
	require.EqualValues(t, 2, h.api.dispatches.Load())

	require.Len(t, h.api.requestIDs, 2)
	require.Equal(t, h.api.requestIDs[0], h.api.requestIDs[1])
	require.Equal(t, h.api.bodies[0], h.api.bodies[1])
	require.JSONEq(t, `{"studentId":42}`, h.api.bodies[1])

	access, _ := h.sess.AccessToken(ctx)
	refresh, _ := h.sess.RefreshToken(ctx)
	require.Equal(t, fresh, access)
	require.Equal(t, "r2", refresh)
	require.Zero(t, h.expired.Load())
}

func TestSend_RetryStillForbiddenIsReturned(t *testing.T) {
	ctx := context.Background()
	old := makeToken(t, "student", time.Now().Add(time.Hour))
	fresh := makeToken(t, "student", time.Now().Add(2*time.Hour))

	h := newHarness(t, &fakeAPI{rejectAll: true, nextAccess: fresh})
	h.seed(t, old, "r1")

	resp, err := h.client.Send(ctx, Request{Path: resourcePath})
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.EqualValues(t, 1, h.api.refreshes.Load())
	require.EqualValues(t, 2, h.api.dispatches.Load())

	// The refresh itself succeeded so the session survives.
	access, ok := h.sess.AccessToken(ctx)
	require.True(t, ok)
	require.Equal(t, fresh, access)
	require.Zero(t, h.expired.Load())
}

func TestSend_RefreshFailureAfter403TearsDown(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeAPI
		refresh string
		calls   int32
	}{
		{
			name:    "refresh rejected",
			api:     &fakeAPI{validToken: "server-revoked", refreshStatus: http.StatusUnauthorized},
			refresh: "r1",
			calls:   1,
		},
		{
			name:    "refresh returns no access token",
			api:     &fakeAPI{validToken: "server-revoked", nextAccess: ""},
			refresh: "r1",
			calls:   1,
		},
		{
			name:    "no refresh token stored",
			api:     &fakeAPI{validToken: "server-revoked"},
			refresh: "",
			calls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.api)
			h.seed(t, makeToken(t, "student", time.Now().Add(time.Hour)), tt.refresh)

			resp, err := h.client.Send(context.Background(), Request{Path: resourcePath})
			require.NoError(t, err)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
			require.JSONEq(t, `{"message":"Forbidden"}`, string(resp.Body))

			require.EqualValues(t, 1, h.api.dispatches.Load(), "must not re-dispatch")
			require.Equal(t, tt.calls, h.api.refreshes.Load())
			require.EqualValues(t, 1, h.expired.Load())
			h.requireCleared(t)
		})
	}
}

func TestSend_ExpiredTokenRefreshesBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	expiring := makeToken(t, "teacher", time.Now().Add(5*time.Second))
	fresh := makeToken(t, "teacher", time.Now().Add(time.Hour))

	h := newHarness(t, &fakeAPI{validToken: expiring, nextAccess: fresh})
	h.seed(t, expiring, "r1")

	resp, err := h.client.Send(ctx, Request{Path: resourcePath})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.EqualValues(t, 1, h.api.refreshes.Load())
	require.EqualValues(t, 1, h.api.dispatches.Load())

	// No refresh_token in the response keeps the old one.
	refresh, ok := h.sess.RefreshToken(ctx)
	require.True(t, ok)
	require.Equal(t, "r1", refresh)
}

func TestSend_ExpiredTokenRefreshFailureNeverDispatches(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"inside expiry buffer", func(t *testing.T) string { return makeToken(t, "student", time.Now().Add(5*time.Second)) }},
		{"already expired", func(t *testing.T) string { return makeToken(t, "student", time.Now().Add(-time.Minute)) }},
		{"undecodable", func(*testing.T) string { return "not-a-jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeAPI{refreshStatus: http.StatusForbidden})
			h.seed(t, tt.token(t), "r1")

			resp, err := h.client.Send(context.Background(), Request{Path: resourcePath})
			require.Nil(t, resp)
			require.ErrorIs(t, err, ErrSessionExpired)
			require.True(t, IsSessionExpired(err))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
			require.Equal(t, "Token expired", apiErr.Message)

			require.EqualValues(t, 1, h.api.refreshes.Load())
			require.Zero(t, h.api.dispatches.Load())
			require.EqualValues(t, 1, h.expired.Load())
			h.requireCleared(t)
		})
	}
}

func TestSend_ConcurrentRefreshesCollapse(t *testing.T) {
	const callers = 10

	expiring := makeToken(t, "teacher", time.Now().Add(time.Second))
	fresh := makeToken(t, "teacher", time.Now().Add(time.Hour))

	h := newHarness(t, &fakeAPI{
		validToken:   expiring,
		nextAccess:   fresh,
		nextRefresh:  "r2",
		refreshDelay: 50 * time.Millisecond,
	})
	h.seed(t, expiring, "r1")

	var wg sync.WaitGroup
	statuses := make(chan int, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.client.Send(context.Background(), Request{Path: resourcePath})
			if err != nil {
				statuses <- -1
				return
			}
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		require.Equal(t, http.StatusOK, status)
	}
	require.EqualValues(t, 1, h.api.refreshes.Load())
	require.EqualValues(t, callers, h.api.dispatches.Load())
}

func TestSend_CancelledWaiterLeavesRefreshRunning(t *testing.T) {
	expiring := makeToken(t, "teacher", time.Now().Add(time.Second))
	fresh := makeToken(t, "teacher", time.Now().Add(time.Hour))

	gate := make(chan struct{})
	h := newHarness(t, &fakeAPI{validToken: expiring, nextAccess: fresh, refreshGate: gate})
	h.seed(t, expiring, "r1")

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := h.client.Send(ctx, Request{Path: resourcePath})
		errs <- err
	}()

	require.Eventually(t, func() bool { return h.api.refreshes.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	require.ErrorIs(t, <-errs, context.Canceled)
	close(gate)

	require.Eventually(t, func() bool {
		access, _ := h.sess.AccessToken(context.Background())
		return access == fresh
	}, time.Second, 5*time.Millisecond)

	require.Zero(t, h.expired.Load())
	require.Zero(t, h.api.dispatches.Load())
}

func TestSend_TransportErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sess := credstore.NewSession(credstore.New(credstore.NewMemoryBackend(), []byte("s")))
	c := New(Config{BaseURL: url}, sess)

	resp, err := c.Send(context.Background(), Request{Path: "/x"})
	require.Error(t, err)
	require.Nil(t, resp)
	require.False(t, IsSessionExpired(err))
}

func TestDecodeJSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var out MessageResponse
		err := decodeJSON(&Response{StatusCode: http.StatusOK, Body: []byte(`{"message":"hi"}`)}, &out)
		require.NoError(t, err)
		require.Equal(t, "hi", out.Message)
	})

	t.Run("api error carries message", func(t *testing.T) {
		err := decodeJSON(&Response{StatusCode: http.StatusNotFound, Body: []byte(`{"message":"Subject not found"}`)}, nil)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Equal(t, "Subject not found", apiErr.Message)
	})

	t.Run("api error without body", func(t *testing.T) {
		err := decodeJSON(&Response{StatusCode: http.StatusBadGateway}, nil)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "HTTP 502: Bad Gateway", apiErr.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		var out MessageResponse
		err := decodeJSON(&Response{StatusCode: http.StatusOK, Body: []byte(`{`)}, &out)
		require.Error(t, err)
	})
}
