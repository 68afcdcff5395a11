package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-erp-client/auth"
	clienterrors "github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage/repofake"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/transport"
	"github.com/jrsteele09/go-erp-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) OnSessionInvalidated() {
	c.calls.Add(1)
}

type echo struct {
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	Query       map[string][]string `json:"query"`
	Auth        string              `json:"auth"`
	ContentType string              `json:"contentType"`
	Body        string              `json:"body"`
	Fields      map[string]string   `json:"fields"`
	Files       map[string]string   `json:"files"`
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		e := echo{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
		}
		if strings.HasPrefix(e.ContentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			e.Fields = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				e.Fields[k] = v[0]
			}
			e.Files = map[string]string{}
			for k, fhs := range r.MultipartForm.File {
				f, err := fhs[0].Open()
				if err != nil {
					continue
				}
				raw, _ := io.ReadAll(f)
				_ = f.Close()
				e.Files[k] = fhs[0].Filename + ":" + string(raw)
			}
		} else {
			raw, _ := io.ReadAll(r.Body)
			e.Body = string(raw)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e)
	})
	mux.HandleFunc("/api/reports/stock", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="stock.pdf"`)
		w.Header().Set("X-Seen-Query", r.URL.RawQuery)
		_, _ = w.Write([]byte("%PDF-1.7"))
	})
	mux.HandleFunc("/api/expired", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Token expired, please login again","code":"TOKEN_EXPIRED"}`)
	})
	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"internal error"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSet(t *testing.T, baseURL string, selection tenants.Selection) (*transport.Set, *countingInvalidator) {
	t.Helper()
	ctx := context.Background()
	repo := repofake.NewFakeRepo()
	tokens := token.NewStore(repo)
	actors := users.NewActorStore(repo)
	selections := tenants.NewSelectionStore(repo)
	require.NoError(t, tokens.Set(ctx, "A1", "R1"))
	require.NoError(t, actors.Set(ctx, &users.Actor{ID: "u1", Roles: users.Roles("Administrator")}))
	require.NoError(t, selections.Set(ctx, selection))

	decorator, err := auth.NewDecorator(
		tokens,
		auth.NewStoredTenantContext(actors, selections, tokens),
		auth.NewRequestPolicy(),
		tenants.NewResolver(users.NewRestrictedRolePolicy()),
	)
	require.NoError(t, err)

	inv := &countingInvalidator{}
	set, err := transport.NewSet(baseURL, decorator, inv)
	require.NoError(t, err)
	return set, inv
}

func TestJSONClient(t *testing.T) {
	srv := newBackend(t)
	set, _ := newSet(t, srv.URL+"/api", tenants.Selection{ID: tenants.AllDivisions, IsAllDivisions: true})
	ctx := context.Background()

	var got echo
	require.NoError(t, set.JSON.Get(ctx, "/echo", url.Values{"page": {"2"}}, &got))
	require.Equal(t, http.MethodGet, got.Method)
	require.Equal(t, "Bearer A1", got.Auth)
	require.Equal(t, map[string][]string{"page": {"2"}, "divisionId": {"all"}}, got.Query)

	got = echo{}
	require.NoError(t, set.JSON.Post(ctx, "echo", map[string]int{"qty": 3}, &got))
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "application/json", got.ContentType)
	require.JSONEq(t, `{"qty":3}`, got.Body)

	got = echo{}
	require.NoError(t, set.JSON.Put(ctx, "echo?divisionId=4", map[string]int{"qty": 4}, &got))
	require.Equal(t, map[string][]string{"divisionId": {"4"}}, got.Query)

	got = echo{}
	require.NoError(t, set.JSON.Patch(ctx, "echo", nil, &got))
	require.Equal(t, http.MethodPatch, got.Method)

	require.NoError(t, set.JSON.Delete(ctx, "echo", nil, nil))
}

func TestFormClient(t *testing.T) {
	srv := newBackend(t)
	set, _ := newSet(t, srv.URL+"/api", tenants.Selection{ID: "12"})

	var got echo
	err := set.Form.Post(context.Background(), "echo", &transport.Form{
		Fields: map[string]string{"name": "Main store"},
		Files: []transport.File{
			{Field: "logo", Filename: "logo.png", ContentType: "image/png", Content: strings.NewReader("png-bytes")},
		},
	}, &got)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got.ContentType, "multipart/form-data"))
	require.Equal(t, map[string]string{"name": "Main store"}, got.Fields)
	require.Equal(t, map[string]string{"logo": "logo.png:png-bytes"}, got.Files)
	require.Equal(t, map[string][]string{"divisionId": {"12"}}, got.Query)
	require.Equal(t, "Bearer A1", got.Auth)
}

func TestBlobClient(t *testing.T) {
	srv := newBackend(t)
	set, _ := newSet(t, srv.URL+"/api", tenants.Selection{ID: tenants.AllDivisions, IsAllDivisions: true})

	blob, err := set.Blob.Get(context.Background(), "reports/stock", nil)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", blob.ContentType)
	require.Equal(t, "stock.pdf", blob.Filename)
	require.Equal(t, []byte("%PDF-1.7"), blob.Data)
}

func TestBlobClient_FilenameStaysLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", r.URL.Query().Get("disposition"))
	}))
	defer srv.Close()
	set, _ := newSet(t, srv.URL, tenants.Selection{ID: "12"})

	tests := []struct {
		name        string
		disposition string
		expected    string
	}{
		{name: "plain", disposition: `attachment; filename="stock.pdf"`, expected: "stock.pdf"},
		{name: "parent traversal", disposition: `attachment; filename="../../.bashrc"`, expected: ".bashrc"},
		{name: "absolute path", disposition: `attachment; filename="/etc/cron.d/x"`, expected: "x"},
		{name: "backslashes", disposition: `attachment; filename="..\\..\\boot.ini"`, expected: "boot.ini"},
		{name: "dot dot only", disposition: `attachment; filename=".."`, expected: ""},
		{name: "dot only", disposition: `attachment; filename="."`, expected: ""},
		{name: "root", disposition: `attachment; filename="/"`, expected: ""},
		{name: "empty", disposition: `attachment; filename=""`, expected: ""},
		{name: "absent", disposition: "", expected: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := set.Blob.Get(context.Background(), "reports/stock", url.Values{"disposition": {tc.disposition}})
			require.NoError(t, err)
			require.Equal(t, tc.expected, blob.Filename)
		})
	}
}

func TestBlobClient_ShowAllDivisions(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.RawQuery)
	}))
	defer srv.Close()

	set, _ := newSet(t, srv.URL, tenants.Selection{ID: tenants.AllDivisions, IsAllDivisions: true})
	_, err := set.Blob.Get(context.Background(), "reports/stock", nil)
	require.NoError(t, err)
	require.Equal(t, "showAllDivisions=true", seen.Load())
}

func TestTransports_InvalidateIdentically(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()

	calls := map[string]func(set *transport.Set) error{
		transport.NameJSON: func(set *transport.Set) error {
			return set.JSON.Get(ctx, "expired", nil, nil)
		},
		transport.NameForm: func(set *transport.Set) error {
			return set.Form.Post(ctx, "expired", &transport.Form{Fields: map[string]string{"a": "b"}}, nil)
		},
		transport.NameBlob: func(set *transport.Set) error {
			_, err := set.Blob.Get(ctx, "expired", nil)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			set, inv := newSet(t, srv.URL+"/api", tenants.Selection{ID: "1"})

			err := call(set)
			var apiErr *transport.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
			require.Equal(t, "TOKEN_EXPIRED", apiErr.Code)
			require.True(t, apiErr.SessionInvalidated)
			require.ErrorIs(t, err, clienterrors.ErrSessionInvalidated)
			require.Equal(t, int32(1), inv.calls.Load())
		})
	}
}

func TestAPIError_NotInvalidating(t *testing.T) {
	srv := newBackend(t)
	set, inv := newSet(t, srv.URL+"/api", tenants.Selection{ID: "1"})

	err := set.JSON.Get(context.Background(), "broken", nil, nil)
	var apiErr *transport.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "internal error", apiErr.Message)
	require.False(t, apiErr.SessionInvalidated)
	require.NotErrorIs(t, err, clienterrors.ErrSessionInvalidated)
	require.Equal(t, "api error 500: internal error", apiErr.Error())
	require.Equal(t, int32(0), inv.calls.Load())
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	set, inv := newSet(t, baseURL, tenants.Selection{ID: "1"})
	err := set.JSON.Get(context.Background(), "sales", nil, nil)
	require.Error(t, err)
	var apiErr *transport.APIError
	require.False(t, errors.As(err, &apiErr))
	require.Equal(t, int32(0), inv.calls.Load())
}

func TestRequestLog(t *testing.T) {
	srv := newBackend(t)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	repo := repofake.NewFakeRepo()
	tokens := token.NewStore(repo)
	decorator, err := auth.NewDecorator(
		tokens,
		auth.NewStoredTenantContext(users.NewActorStore(repo), tenants.NewSelectionStore(repo), tokens),
		auth.NewRequestPolicy(),
		tenants.NewResolver(users.NewRestrictedRolePolicy()),
	)
	require.NoError(t, err)
	set, err := transport.NewSet(srv.URL+"/api", decorator, &countingInvalidator{},
		transport.WithRequestLog(true),
		transport.WithLogger(logger),
	)
	require.NoError(t, err)

	require.NoError(t, set.JSON.Get(context.Background(), "echo", url.Values{"page": {"1"}}, nil))
	require.Contains(t, buf.String(), "/api/echo?page=1")
	require.Contains(t, buf.String(), `"status":200`)
}

func TestNewSet_InvalidBaseURL(t *testing.T) {
	_, err := transport.NewSet("not a url", nil, nil)
	require.Error(t, err)
}
