package classrecord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the class record API. The server
// reports failures as {"message": "..."}.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classrecord: %d: %s", e.StatusCode, e.Message)
}

var (
	// ErrSessionExpired is returned by Send when the access token expired
	// locally and could not be refreshed. The session has been cleared by the
	// time a caller sees it.
	ErrSessionExpired = &APIError{StatusCode: http.StatusForbidden, Message: "Token expired"}

	ErrNoRefreshToken = errors.New("classrecord: no refresh token")
	ErrRefreshFailed  = errors.New("classrecord: refresh failed")
	ErrNotLoggedIn    = errors.New("classrecord: not logged in")
)

// parseErrorResponse builds an *APIError from a response body. Bodies that
// are not JSON or carry no message fall back to the status text.
func parseErrorResponse(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return &APIError{StatusCode: status, Message: payload.Message}
		}
		if payload.Error != "" {
			return &APIError{StatusCode: status, Message: payload.Error}
		}
	}

	return &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}
