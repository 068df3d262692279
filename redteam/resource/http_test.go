package resource

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/redteamerr"
)

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPConnector_Open(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		want       string
		wantStatus int
		wantErr    bool
	}{
		{
			name: "plain json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"CVE_Items":[]}`))
			},
			want: `{"CVE_Items":[]}`,
		},
		{
			name: "gzip content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/x-gzip")
				_, _ = w.Write(gzipped(t, "inflated"))
			},
			want: "inflated",
		},
		{
			name: "generic content type sniffed as gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write(gzipped(t, "sniffed"))
			},
			want: "sniffed",
		},
		{
			name: "generic content type left alone when not gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write([]byte("raw bytes"))
			},
			want: "raw bytes",
		},
		{
			name: "corrupt gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/gzip")
				_, _ = w.Write([]byte("not gzip at all"))
			},
			wantErr: true,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr:    true,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr:    true,
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "truncated body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", "1000")
				_, _ = w.Write([]byte("partial"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.handler)
			c := NewHTTPConnector(server.URL+"/feed", Config{TLSVerify: true})

			got, err := c.Open(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)

				var fe *redteamerr.FetchError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, server.URL+"/feed", fe.Location)
				assert.Equal(t, tt.wantStatus, fe.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestHTTPConnector_BasicAuthAndUserAgent(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "analyst" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(r.UserAgent()))
	})

	c := NewHTTPConnector(server.URL, Config{Username: "analyst", Password: "secret", UserAgent: "redteam/test"})
	got, err := c.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "redteam/test", string(got))

	_, err = NewHTTPConnector(server.URL, Config{}).Open(context.Background())
	require.Error(t, err)
}

func TestHTTPConnector_Exists(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	})

	exists, err := NewHTTPConnector(server.URL+"/present", Config{}).Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = NewHTTPConnector(server.URL+"/missing", Config{}).Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHTTPConnector_ReadOnly(t *testing.T) {
	c := NewHTTPConnector("https://example.com/feed.json", Config{})
	assert.ErrorIs(t, c.Write(context.Background(), []byte("x")), redteamerr.ErrUnsupported)
	assert.ErrorIs(t, c.Delete(context.Background()), redteamerr.ErrUnsupported)
}

func TestHTTPConnector_CancelledContext(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("never seen"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPConnector(server.URL, Config{}).Open(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShouldInflate(t *testing.T) {
	gz := gzipped(t, "x")
	tests := []struct {
		name        string
		contentType string
		payload     []byte
		want        bool
	}{
		{name: "gzip", contentType: "application/gzip", payload: []byte("x"), want: true},
		{name: "x-gzip with params", contentType: "application/x-gzip; charset=binary", payload: gz, want: true},
		{name: "empty type sniffed", contentType: "", payload: gz, want: true},
		{name: "octet stream plain", contentType: "application/octet-stream", payload: []byte("x")},
		{name: "json never sniffed", contentType: "application/json", payload: gz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldInflate(tt.contentType, tt.payload))
		})
	}
}
