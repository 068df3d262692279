package file

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-getter"
	"github.com/wagoodman/go-progress"
)

// archives larger than this are refused when inflated by the getter
const fileSizeLimit = 2 * humanize.GByte

type Getter interface {
	// GetFile downloads the given URL into the given path. The URL must reference a single file. Single file
	// compressed payloads (e.g. `.gz`) are inflated into the destination.
	GetFile(ctx context.Context, dst, src string, monitor ...*progress.Manual) error
}

type HashiGoGetter struct {
	httpGetter getter.HttpGetter
}

// GetterOption adjusts the headers sent with every HTTP(S) request.
type GetterOption func(header http.Header)

// WithBasicAuth sends the given credentials with every request. Empty credentials send nothing.
func WithBasicAuth(username, password string) GetterOption {
	return func(header http.Header) {
		if username == "" && password == "" {
			return
		}
		req := http.Request{Header: header}
		req.SetBasicAuth(username, password)
	}
}

// NewGetter creates and returns a new Getter. Providing an http.Client is optional. If one is provided,
// it will be used for all HTTP(S) getting; otherwise, go-getter's default getters will be used.
func NewGetter(userAgent string, httpClient *http.Client, opts ...GetterOption) *HashiGoGetter {
	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}
	for _, opt := range opts {
		opt(header)
	}
	return &HashiGoGetter{
		httpGetter: getter.HttpGetter{
			Client: httpClient,
			Header: header,
		},
	}
}

func (g HashiGoGetter) GetFile(ctx context.Context, dst, src string, monitors ...*progress.Manual) error {
	if len(monitors) > 1 {
		return fmt.Errorf("multiple monitors provided, which is not allowed")
	}

	return getterClient(ctx, dst, src, g.httpGetter, monitors).Get()
}

func getterClient(ctx context.Context, dst, src string, httpGetter getter.HttpGetter, monitors []*progress.Manual) *getter.Client {
	return &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		Getters: map[string]getter.Getter{
			"http":  &httpGetter,
			"https": &httpGetter,
			"file":  new(getter.FileGetter),
		},
		Options: mapToGetterClientOptions(monitors),
	}
}

func withProgress(monitor *progress.Manual) func(client *getter.Client) error {
	return getter.WithProgress(
		&progressAdapter{monitor: monitor},
	)
}

func mapToGetterClientOptions(monitors []*progress.Manual) []getter.ClientOption {
	var result []getter.ClientOption

	for _, monitor := range monitors {
		result = append(result, withProgress(monitor))
	}

	result = append(result, getter.WithDecompressors(getter.LimitedDecompressors(0, int64(fileSizeLimit))))

	return result
}

type readCloser struct {
	progress.Reader
}

func (c *readCloser) Close() error { return nil }

type progressAdapter struct {
	monitor *progress.Manual
}

func (a *progressAdapter) TrackProgress(_ string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	a.monitor.Set(currentSize)
	a.monitor.SetTotal(totalSize)
	return &readCloser{
		Reader: *progress.NewProxyReader(stream, a.monitor),
	}
}
