package classrecord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/classrecord/pkg/idx"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

// Request is a single API call. Path is the URL fragment after BaseURL.
// Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Send dispatches r through the authenticated pipeline. Responses are
// returned whatever their status; only transport failures, a locally
// expired session that cannot be refreshed, and request encoding problems
// produce an error.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	reqID := idx.New().String()
	ctx = slogx.WithRequestID(slogx.WithContext(ctx, c.log(ctx)), reqID)
	log := slogx.FromContext(ctx)

	token, ok := c.sess.AccessToken(ctx)
	if ok && jwtx.ExpiredAt(token, c.now(), c.cfg.ExpiryBuffer) {
		log.Debug("access token expired locally, refreshing")

		token, err = c.refresh(ctx, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.expire(ctx, err)
			return nil, ErrSessionExpired
		}
	}

	resp, err := c.dispatch(ctx, r, body, token, reqID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}

	log.Debug("forbidden, refreshing and retrying once")

	fresh, err := c.refresh(ctx, token)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.expire(ctx, err)
		return resp, nil
	}

	return c.dispatch(ctx, r, body, fresh, reqID)
}

func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("classrecord: encode request body: %w", err)
	}
	return b, nil
}

func (c *Client) dispatch(
	ctx context.Context,
	r Request,
	body []byte,
	token, reqID string,
) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.url(r.Path)
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setKeyHeaders(req.Header)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(slogx.RequestIDHeader, reqID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// refresh obtains an access token to replace stale. Concurrent callers share
// one refresh. The shared refresh runs detached from any single caller's
// cancellation; a cancelled caller simply stops waiting for it.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		// Double-check: a refresh that finished since stale was read has
		// already produced a usable token.
		if current, ok := c.sess.AccessToken(detached); ok && current != stale &&
			!jwtx.ExpiredAt(current, c.now(), c.cfg.ExpiryBuffer) {
			return current, nil
		}
		return c.doRefresh(detached)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	refreshToken, ok := c.sess.RefreshToken(ctx)
	if !ok || refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.url(c.cfg.Endpoints.RefreshToken), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setKeyHeaders(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, parseErrorResponse(resp.StatusCode, body))
	}

	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrRefreshFailed, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrRefreshFailed)
	}

	if err := c.sess.SetTokens(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return "", fmt.Errorf("%w: persist tokens: %w", ErrRefreshFailed, err)
	}

	slogx.FromContext(ctx).Debug("access token refreshed", "rotated", out.RefreshToken != "")
	return out.AccessToken, nil
}

// expire tears down the session after an unrecoverable refresh failure.
func (c *Client) expire(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)
	log := slogx.FromContext(ctx)

	log.Warn("session expired", "error", cause)
	if err := c.sess.Clear(ctx); err != nil {
		log.Error("failed to clear session", "error", err)
	}

	if c.onExpired != nil {
		c.onExpired(ctx)
	}
}

// IsSessionExpired reports whether err means the user has to log in again.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotLoggedIn)
}
