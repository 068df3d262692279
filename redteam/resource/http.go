package resource

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
)

var _ Connector = (*HTTPConnector)(nil)

// HTTPConnector reads a remote http(s) location. It is read-only.
type HTTPConnector struct {
	location  string
	client    *http.Client
	username  string
	password  string
	userAgent string
}

func NewHTTPConnector(location string, cfg Config) *HTTPConnector {
	return &HTTPConnector{
		location:  location,
		client:    newHTTPClient(cfg),
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
	}
}

func newHTTPClient(cfg Config) *http.Client {
	client := cleanhttp.DefaultPooledClient()
	if transport, ok := client.Transport.(*http.Transport); ok {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{} //nolint:gosec // verification toggled below
		}
		transport.TLSClientConfig.InsecureSkipVerify = !cfg.TLSVerify //nolint:gosec // operator controlled
	}
	client.Timeout = cfg.Timeout
	return client
}

func (c *HTTPConnector) Location() string { return c.location }

func (c *HTTPConnector) Kind() Kind { return HTTPKind }

// Client exposes the configured client so downloads made on behalf of this location share its TLS settings.
func (c *HTTPConnector) Client() *http.Client { return c.client }

func (c *HTTPConnector) newRequest(ctx context.Context, method string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.location, nil)
	if err != nil {
		return nil, redteamerr.NewFetchError(c.location, err)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *HTTPConnector) Open(ctx context.Context) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, redteamerr.NewFetchError(c.location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &redteamerr.FetchError{
			Location:   c.location,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		// never hand back a partial body
		return nil, redteamerr.NewFetchError(c.location, fmt.Errorf("incomplete read: %w", err))
	}

	if shouldInflate(resp.Header.Get("Content-Type"), payload) {
		inflated, err := gunzip(payload)
		if err != nil {
			return nil, redteamerr.NewFetchError(c.location, err)
		}
		payload = inflated
	}

	log.WithFields("location", c.location, "status", resp.StatusCode, "size", humanize.Bytes(uint64(len(payload)))).Debug("fetched resource")
	return payload, nil
}

func (c *HTTPConnector) Exists(ctx context.Context) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodHead)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, redteamerr.NewFetchError(c.location, err)
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusBadRequest, nil
}

func (c *HTTPConnector) Write(context.Context, []byte) error {
	return fmt.Errorf("unable to write %q: %w", c.location, redteamerr.ErrUnsupported)
}

func (c *HTTPConnector) Delete(context.Context) error {
	return fmt.Errorf("unable to delete %q: %w", c.location, redteamerr.ErrUnsupported)
}
