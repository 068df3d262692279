package file

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-progress"
)

func TestGetter_GetFile(t *testing.T) {
	testCases := []struct {
		name          string
		prepareClient func(*http.Client)
		assert        assert.ErrorAssertionFunc
	}{
		{
			name:   "client trusts server's CA",
			assert: assert.NoError,
		},
		{
			name:          "client doesn't trust server's CA",
			prepareClient: removeTrustedCAs,
			assert:        assertUnknownAuthorityError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requestPath := "/foo"

			server := newTestServer(t, withResponseForPath(t, requestPath, testFileContent))
			t.Cleanup(server.Close)

			httpClient := getClient(t, server)
			if tc.prepareClient != nil {
				tc.prepareClient(httpClient)
			}

			getter := NewGetter("redteam-test", httpClient)
			requestURL := createRequestURL(t, server, requestPath)

			tempDir := t.TempDir()
			tempFile := path.Join(tempDir, "some-destination-file")

			err := getter.GetFile(context.Background(), tempFile, requestURL)
			tc.assert(t, err)
		})
	}
}

func TestGetter_GetFile_InflatesGzip(t *testing.T) {
	requestPath := "/archive-2020-01.mbox.gz"

	server := newTestServer(t, withResponseForPath(t, requestPath, gzipped(t, testFileContent)))
	t.Cleanup(server.Close)

	getter := NewGetter("redteam-test", getClient(t, server))
	requestURL := createRequestURL(t, server, requestPath)

	dst := filepath.Join(t.TempDir(), "archive.mbox")
	require.NoError(t, getter.GetFile(context.Background(), dst, requestURL))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, testFileContent, got)
}

func TestGetter_GetFile_BasicAuth(t *testing.T) {
	requestPath := "/private/archive.mbox"

	mux := func(mux *http.ServeMux) {
		mux.HandleFunc(requestPath, func(w http.ResponseWriter, req *http.Request) {
			user, pass, ok := req.BasicAuth()
			if !ok || user != "reader" || pass != "s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write(testFileContent)
		})
	}
	server := newTestServer(t, mux)
	t.Cleanup(server.Close)
	requestURL := createRequestURL(t, server, requestPath)

	t.Run("without credentials", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "archive.mbox")
		err := NewGetter("redteam-test", getClient(t, server)).GetFile(context.Background(), dst, requestURL)
		require.Error(t, err)
	})

	t.Run("with credentials", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "archive.mbox")
		g := NewGetter("redteam-test", getClient(t, server), WithBasicAuth("reader", "s3cret"))
		require.NoError(t, g.GetFile(context.Background(), dst, requestURL))

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, testFileContent, got)
	})
}

func TestGetter_GetFile_TracksProgress(t *testing.T) {
	requestPath := "/archive.mbox"

	server := newTestServer(t, withResponseForPath(t, requestPath, testFileContent))
	t.Cleanup(server.Close)

	monitor := progress.NewManual(-1)
	dst := filepath.Join(t.TempDir(), "archive.mbox")
	err := NewGetter("redteam-test", getClient(t, server)).GetFile(context.Background(), dst, createRequestURL(t, server, requestPath), monitor)
	require.NoError(t, err)

	assert.Equal(t, int64(len(testFileContent)), monitor.Current())
}

func TestGetter_GetFile_TooManyMonitors(t *testing.T) {
	err := NewGetter("", nil).GetFile(context.Background(), t.TempDir(), "http://localhost/x", progress.NewManual(1), progress.NewManual(1))
	require.Error(t, err)
}

func assertUnknownAuthorityError(t assert.TestingT, err error, _ ...interface{}) bool {
	return assert.ErrorAs(t, err, &x509.UnknownAuthorityError{})
}

func removeTrustedCAs(client *http.Client) {
	client.Transport.(*http.Transport).TLSClientConfig.RootCAs = nil
}

func gzipped(t *testing.T, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

type muxOption func(mux *http.ServeMux)

func withResponseForPath(t *testing.T, path string, response []byte) muxOption {
	t.Helper()

	return func(mux *http.ServeMux) {
		mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			t.Logf("server handling request: %s %s", req.Method, req.URL)

			_, err := w.Write(response)
			if err != nil {
				t.Fatal(err)
			}
		})
	}
}

func newTestServer(t *testing.T, muxOptions ...muxOption) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for _, option := range muxOptions {
		option(mux)
	}

	server := httptest.NewTLSServer(mux)
	t.Logf("new TLS server listening at %s", getHost(t, server))

	return server
}

func createRequestURL(t *testing.T, server *httptest.Server, path string) string {
	t.Helper()

	// TODO: Figure out how to get this value from the server without hardcoding it here
	const testServerCertificateName = "example.com"

	serverURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	// Set URL hostname to value from TLS certificate
	serverURL.Host = fmt.Sprintf("%s:%s", testServerCertificateName, serverURL.Port())

	serverURL.Path = path

	return serverURL.String()
}

// getClient returns an http.Client that can be used to contact the test TLS server.
func getClient(t *testing.T, server *httptest.Server) *http.Client {
	t.Helper()

	httpClient := server.Client()
	transport := httpClient.Transport.(*http.Transport)

	serverHost := getHost(t, server)

	transport.DialContext = func(_ context.Context, _, addr string) (net.Conn, error) {
		t.Logf("client dialing %q for host %q", serverHost, addr)

		// Ensure the client dials our test server
		return net.Dial("tcp", serverHost)
	}

	return httpClient
}

// getHost extracts the host value from a server URL string.
// e.g. given a server with URL "http://1.2.3.4:5000/foo", getHost returns "1.2.3.4:5000"
func getHost(t *testing.T, server *httptest.Server) string {
	t.Helper()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	return u.Hostname() + ":" + u.Port()
}

var testFileContent = []byte("This is the content of a test file!\n")
