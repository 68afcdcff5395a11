package transport

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Blob is a binary response such as an exported report.
type Blob struct {
	ContentType string
	Filename    string
	Data        []byte
}

// BlobClient returns raw response bodies. Request bodies are JSON.
type BlobClient struct {
	client
}

func (c *BlobClient) Get(ctx context.Context, path string, query url.Values) (*Blob, error) {
	return c.send(ctx, http.MethodGet, path, query, nil)
}

func (c *BlobClient) Post(ctx context.Context, path string, in any) (*Blob, error) {
	return c.send(ctx, http.MethodPost, path, nil, in)
}

func (c *BlobClient) Put(ctx context.Context, path string, in any) (*Blob, error) {
	return c.send(ctx, http.MethodPut, path, nil, in)
}

func (c *BlobClient) Delete(ctx context.Context, path string, query url.Values) (*Blob, error) {
	return c.send(ctx, http.MethodDelete, path, query, nil)
}

func (c *BlobClient) send(ctx context.Context, method, path string, query url.Values, in any) (*Blob, error) {
	body, err := encodeJSON(in)
	if err != nil {
		return nil, fmt.Errorf("[BlobClient %s] encoding body: %w", method, err)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[BlobClient %s] reading response: %w", method, err)
	}
	return &Blob{
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filename(resp.Header.Get("Content-Disposition")),
		Data:        data,
	}, nil
}

func filename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return safeFilename(params["filename"])
}

// safeFilename keeps only the final element of a server supplied name so it
// can never address a path outside the working directory.
func safeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}
