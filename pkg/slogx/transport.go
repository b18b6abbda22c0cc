package slogx

import (
	"net/http"
	"time"
)

// Transport is the client-side counterpart of HTTPMiddleware. It logs every
// outbound dispatch at debug level using the logger found in the request
// context. Header values are never logged since they carry credentials.
type Transport struct {
	// Base is the wrapped transport. nil means http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	log := FromContext(req.Context())
	start := time.Now()

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Debug("http_dispatch_failed",
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	log.Debug("http_dispatch",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
