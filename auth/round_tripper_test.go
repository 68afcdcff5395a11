package auth_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-erp-client/auth"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) OnSessionInvalidated() {
	c.calls.Add(1)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestRoundTripper_ClassifiesResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Query", r.URL.RawQuery)
		w.Header().Set("X-Seen-Authorization", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/expired":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Token expired, please login again"}`))
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"internal error"}`))
		}
	}))
	defer srv.Close()

	f := newFixture(t)
	f.login(t)
	f.selectDivision(t, tenants.Selection{ID: "5"})

	inv := &countingInvalidator{}
	rt, err := auth.NewRoundTripper("json", f.decorator, inv)
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ok", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, "divisionId=5", resp.Header.Get("X-Seen-Query"))
	require.Equal(t, "Bearer A1", resp.Header.Get("X-Seen-Authorization"))
	require.Empty(t, req.URL.RawQuery, "caller request must not be mutated")
	require.Empty(t, req.Header.Get("Authorization"))
	require.Equal(t, int32(0), inv.calls.Load())

	resp, err = client.Get(srv.URL + "/fail")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, int32(0), inv.calls.Load())

	resp, err = client.Get(srv.URL + "/expired")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.JSONEq(t, `{"message":"Token expired, please login again"}`, string(body))
	require.Equal(t, int32(1), inv.calls.Load())

	resp, err = client.Get(srv.URL + "/unauthorized")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, int32(2), inv.calls.Load())
}

func TestRoundTripper_NetworkFailureDoesNotInvalidate(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	inv := &countingInvalidator{}

	rt, err := auth.NewRoundTripper("blob", f.decorator, inv, auth.WithBase(failingTransport{}))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://erp.local/api/sales", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	require.Equal(t, int32(0), inv.calls.Load())
}

func TestRoundTripper_BlobEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Query", r.URL.RawQuery)
	}))
	defer srv.Close()

	f := newFixture(t)
	f.login(t)
	f.selectDivision(t, tenants.Selection{ID: tenants.AllDivisions, IsAllDivisions: true})

	rt, err := auth.NewRoundTripper("blob", f.decorator, &countingInvalidator{}, auth.WithAllEncoding(tenants.EncodeShowAllDivisions))
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: rt}).Get(srv.URL + "/reports/stock.xlsx")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, "showAllDivisions=true", resp.Header.Get("X-Seen-Query"))
}
