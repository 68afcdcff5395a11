package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

const maxErrorBody = 1 << 20

// client is the plumbing shared by the three transports. Authorization,
// tenant scoping and classification live in its http.Client's RoundTripper.
type client struct {
	name    string
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
}

func (c *client) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	var u *url.URL
	if ref.IsAbs() {
		u = ref
	} else {
		u = c.baseURL.JoinPath(ref.Path)
		u.RawQuery = ref.RawQuery
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// do sends the request and returns the response for 2xx statuses. Any other
// status is drained into an *APIError.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u, err := c.resolve(path, query)
	if err != nil {
		return nil, fmt.Errorf("[transport %s %s] %w", c.name, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("[transport %s %s] %w", c.name, method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[transport %s %s %s] %w", c.name, method, u.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := newAPIError(resp.StatusCode, raw)
	c.logger.Debug().
		Str("transport", c.name).
		Str("method", method).
		Str("path", u.Path).
		Int("status", resp.StatusCode).
		Bool("sessionInvalidated", apiErr.SessionInvalidated).
		Msg("request failed")
	return nil, apiErr
}

// decodeJSON decodes a success body into out. A nil out or an empty body
// discards the payload.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if w, ok := out.(*[]byte); ok {
		*w = raw
		return nil
	}
	return json.Unmarshal(raw, out)
}

func encodeJSON(in any) (io.Reader, error) {
	if in == nil {
		return nil, nil
	}
	switch v := in.(type) {
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return strings.NewReader(v), nil
	case io.Reader:
		return v, nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}
