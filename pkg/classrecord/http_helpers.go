package classrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// withIDs appends each id to path as its own segment.
func withIDs(path string, ids ...int) string {
	var b strings.Builder
	b.WriteString(path)
	for _, id := range ids {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// do sends a request through the pipeline and decodes a 2xx JSON body into
// target. target may be nil when the body is not needed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, target any) error {
	resp, err := c.Send(ctx, Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, target)
}

// decodeJSON decodes a successful response into target. Non-2xx statuses
// become an *APIError.
func decodeJSON(resp *Response, target any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, resp.Body)
	}

	if target == nil || len(resp.Body) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
