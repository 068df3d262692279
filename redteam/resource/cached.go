package resource

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/internal/log"
)

var _ Connector = (*Cached)(nil)

// Cached decorates a connector with a local mirror of its contents.
type Cached struct {
	Connector
	cache Connector
}

func NewCached(conn Connector, cache Connector) *Cached {
	return &Cached{Connector: conn, cache: cache}
}

// CacheLocation is where the mirror is kept.
func (c *Cached) CacheLocation() string {
	return c.cache.Location()
}

// Open behaves like Read.
func (c *Cached) Open(ctx context.Context) ([]byte, error) {
	return c.Read(ctx)
}

// Read returns the cache contents when present, otherwise it updates the cache from the location.
func (c *Cached) Read(ctx context.Context) ([]byte, error) {
	exists, err := c.cache.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		log.WithFields("cache", c.cache.Location()).Debug("reading from cache")
		return c.cache.Open(ctx)
	}
	return c.Update(ctx)
}

// Update drops the cache, fetches from the location and repopulates the cache. A failed fetch leaves the cache
// absent.
func (c *Cached) Update(ctx context.Context) ([]byte, error) {
	if err := c.DeleteCache(ctx); err != nil {
		return nil, err
	}

	log.WithFields("location", c.Connector.Location()).Debug("reading from source")
	data, err := c.Connector.Open(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Write(ctx, data); err != nil {
		return nil, fmt.Errorf("unable to populate cache %q: %w", c.cache.Location(), err)
	}
	fields := log.WithFields("cache", c.cache.Location(), "size", humanize.Bytes(uint64(len(data))))
	if fc, ok := c.cache.(*FileConnector); ok {
		if digest, err := file.Digest(fc.fs, fc.path); err == nil {
			fields = log.WithFields("cache", c.cache.Location(), "size", humanize.Bytes(uint64(len(data))), "digest", digest)
		}
	}
	fields.Debug("cache updated")
	return data, nil
}

func (c *Cached) DeleteCache(ctx context.Context) error {
	exists, err := c.cache.Exists(ctx)
	if err != nil || !exists {
		return err
	}
	log.WithFields("cache", c.cache.Location()).Debug("deleting cache")
	return c.cache.Delete(ctx)
}
