package resource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/internal/log"
)

// Kind identifies which connector serves a location.
type Kind string

const (
	DatabaseKind  Kind = "database"
	HTTPKind      Kind = "http"
	DirectoryKind Kind = "directory"
	FileKind      Kind = "file"
)

var databasePrefixes = []string{"sqlite://", "arangodb://", "arangodbs://"}

// Config carries the options shared by all connectors.
type Config struct {
	TLSVerify bool
	// CachePath, when set, is the local file that mirrors the contents of the location.
	CachePath string
	Username  string
	Password  string
	// Timeout bounds a single network request; zero leaves it to the transport.
	Timeout   time.Duration
	UserAgent string
	// Fs is the filesystem used by local connectors and the cache (defaults to the OS filesystem).
	Fs afero.Fs
}

func (c Config) fs() afero.Fs {
	if c.Fs == nil {
		return afero.NewOsFs()
	}
	return c.Fs
}

// Connector reads and writes the bytes behind a location.
type Connector interface {
	Location() string
	Kind() Kind
	// Open returns the full contents of the location. Remote gzip payloads are inflated.
	Open(ctx context.Context) ([]byte, error)
	Exists(ctx context.Context) (bool, error)
	Write(ctx context.Context, content []byte) error
	Delete(ctx context.Context) error
}

// Route decides which kind of connector serves the given location.
func Route(location string) Kind {
	return route(afero.NewOsFs(), location)
}

func route(fs afero.Fs, location string) Kind {
	lower := strings.ToLower(location)
	for _, prefix := range databasePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return DatabaseKind
		}
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return HTTPKind
	}
	if file.IsDir(fs, location) {
		return DirectoryKind
	}
	return FileKind
}

// NewConnector builds the connector that serves the given location.
func NewConnector(location string, cfg Config) (Connector, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("no location given")
	}

	fs := cfg.fs()
	kind := route(fs, location)
	log.WithFields("location", location, "kind", kind).Trace("routing location")

	switch kind {
	case DatabaseKind:
		return NewDatabaseConnector(location, cfg)
	case HTTPKind:
		return NewHTTPConnector(location, cfg), nil
	case DirectoryKind:
		return NewDirectoryConnector(fs, location), nil
	default:
		return NewFileConnector(fs, location), nil
	}
}

// Resource is a location whose contents are optionally mirrored by a local cache.
type Resource struct {
	Connector
	cache *Cached
}

// New wraps the connector for the location with the cache decorator when a cache path is configured.
func New(location string, cfg Config) (*Resource, error) {
	conn, err := NewConnector(location, cfg)
	if err != nil {
		return nil, err
	}
	return newResource(conn, cfg), nil
}

func newResource(conn Connector, cfg Config) *Resource {
	r := &Resource{Connector: conn}
	if cfg.CachePath != "" {
		r.cache = NewCached(conn, NewFileConnector(cfg.fs(), cfg.CachePath))
	}
	return r
}

// Read returns the contents of the location, served from the cache when one is configured and present.
func (r *Resource) Read(ctx context.Context) ([]byte, error) {
	if r.cache != nil {
		return r.cache.Read(ctx)
	}
	return r.Open(ctx)
}

// Update always fetches from the location, refreshing the cache when one is configured.
func (r *Resource) Update(ctx context.Context) ([]byte, error) {
	if r.cache != nil {
		return r.cache.Update(ctx)
	}
	return r.Open(ctx)
}

// DeleteCache removes the local mirror, if any.
func (r *Resource) DeleteCache(ctx context.Context) error {
	if r.cache != nil {
		return r.cache.DeleteCache(ctx)
	}
	return nil
}

func (r *Resource) Cached() bool {
	return r.cache != nil
}
