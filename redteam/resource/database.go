package resource

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
	"github.com/kevensen/frtsdk/redteam/store/arango"
	"github.com/kevensen/frtsdk/redteam/store/sqlite"
)

var _ Connector = (*DatabaseConnector)(nil)

const (
	sqliteScheme = "sqlite://"
	memoryPath   = ":memory:"
)

// DatabaseConnector bootstraps the store behind a database location. Opening it connects (and migrates) the
// store, which is then available through Store.
type DatabaseConnector struct {
	location string
	cfg      Config
	sqlite   *sqlite.Config
	arango   *arango.Config

	lock  sync.Mutex
	store store.Store
}

func NewDatabaseConnector(location string, cfg Config) (*DatabaseConnector, error) {
	c := &DatabaseConnector{location: location, cfg: cfg}

	if strings.HasPrefix(strings.ToLower(location), sqliteScheme) {
		path := location[len(sqliteScheme):]
		if path == memoryPath {
			path = ""
		}
		c.sqlite = &sqlite.Config{Path: path}
		return c, nil
	}

	ac, err := arango.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	ac.TLSVerify = cfg.TLSVerify
	if cfg.Username != "" && ac.Username == "" {
		ac.Username = cfg.Username
		ac.Password = cfg.Password
	}
	c.arango = &ac
	return c, nil
}

func (c *DatabaseConnector) Location() string { return c.location }

// SQLitePath returns the store file of an on-disk sqlite location.
func (c *DatabaseConnector) SQLitePath() (string, bool) {
	if c.sqlite == nil || c.sqlite.Path == "" {
		return "", false
	}
	return c.sqlite.Path, true
}

func (c *DatabaseConnector) Kind() Kind { return DatabaseKind }

// Open connects the store. It returns no payload.
func (c *DatabaseConnector) Open(ctx context.Context) ([]byte, error) {
	_, err := c.Connect(ctx)
	return nil, err
}

// Connect opens the store on first use and returns it on every call thereafter.
func (c *DatabaseConnector) Connect(ctx context.Context) (store.Store, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.store != nil {
		return c.store, nil
	}

	var (
		s   store.Store
		err error
	)
	switch {
	case c.sqlite != nil:
		s, err = sqlite.New(*c.sqlite)
	default:
		s, err = arango.New(ctx, *c.arango)
	}
	if err != nil {
		return nil, redteamerr.NewFetchError(c.location, err)
	}
	c.store = s
	return s, nil
}

// Store returns the connected store, or nil if Open has not been called.
func (c *DatabaseConnector) Store() store.Store {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.store
}

func (c *DatabaseConnector) Exists(ctx context.Context) (bool, error) {
	if c.sqlite != nil {
		if c.sqlite.Path == "" {
			return c.Store() != nil, nil
		}
		return file.Exists(c.cfg.fs(), c.sqlite.Path), nil
	}
	return arango.Ping(ctx, *c.arango) == nil, nil
}

func (c *DatabaseConnector) Write(context.Context, []byte) error {
	return fmt.Errorf("unable to write to %q: %w", c.location, redteamerr.ErrUnsupported)
}

// Delete closes the store and, for sqlite, removes the DB file.
func (c *DatabaseConnector) Delete(context.Context) error {
	if err := c.Close(); err != nil {
		return err
	}
	if c.sqlite == nil {
		return fmt.Errorf("unable to delete %q: %w", c.location, redteamerr.ErrUnsupported)
	}
	if c.sqlite.Path == "" {
		return nil
	}
	if err := c.cfg.fs().Remove(c.sqlite.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to delete %q: %w", c.sqlite.Path, err)
	}
	return nil
}

func (c *DatabaseConnector) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// OpenStore connects the store behind a database location.
func OpenStore(ctx context.Context, location string, cfg Config) (store.Store, error) {
	if Route(location) != DatabaseKind {
		return nil, fmt.Errorf("%q is not a database location", location)
	}
	c, err := NewDatabaseConnector(location, cfg)
	if err != nil {
		return nil, err
	}
	return c.Connect(ctx)
}
