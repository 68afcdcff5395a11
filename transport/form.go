package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
)

// File is one multipart file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Form is a multipart/form-data body.
type Form struct {
	Fields map[string]string
	Files  []File
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// FormClient sends multipart/form-data bodies and decodes JSON responses.
type FormClient struct {
	client
}

func (c *FormClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out)
}

func (c *FormClient) Post(ctx context.Context, path string, form *Form, out any) error {
	return c.send(ctx, http.MethodPost, path, nil, form, out)
}

func (c *FormClient) Put(ctx context.Context, path string, form *Form, out any) error {
	return c.send(ctx, http.MethodPut, path, nil, form, out)
}

func (c *FormClient) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodDelete, path, query, nil, out)
}

func (c *FormClient) send(ctx context.Context, method, path string, query url.Values, form *Form, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if form != nil {
		var err error
		if body, contentType, err = form.encode(); err != nil {
			return fmt.Errorf("[FormClient %s] encoding form: %w", method, err)
		}
	}

	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, out); err != nil {
		return fmt.Errorf("[FormClient %s] decoding response: %w", method, err)
	}
	return nil
}
