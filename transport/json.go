package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// JSONClient exchanges JSON bodies. out may be nil to discard the response
// or a *[]byte to receive it raw.
type JSONClient struct {
	client
}

func (c *JSONClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out)
}

func (c *JSONClient) Post(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPost, path, nil, in, out)
}

func (c *JSONClient) Put(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPut, path, nil, in, out)
}

func (c *JSONClient) Patch(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPatch, path, nil, in, out)
}

func (c *JSONClient) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodDelete, path, query, nil, out)
}

func (c *JSONClient) send(ctx context.Context, method, path string, query url.Values, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return fmt.Errorf("[JSONClient %s] encoding body: %w", method, err)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, out); err != nil {
		return fmt.Errorf("[JSONClient %s] decoding response: %w", method, err)
	}
	return nil
}
