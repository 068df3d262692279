package arango

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/store"
)

const (
	sourcesCollection  = "sources"
	statusesCollection = "source_statuses"
	cveItemsCollection = "cve_items"
	messagesCollection = "advisory_messages"
	cvrfsCollection    = "cvrfs"
	countersCollection = "counters"
)

var collectionNames = []string{
	sourcesCollection,
	statusesCollection,
	cveItemsCollection,
	messagesCollection,
	cvrfsCollection,
	countersCollection,
}

type indexConfig struct {
	Collection string
	Name       string
	Fields     []string
	Unique     bool
}

var indexes = []indexConfig{
	{Collection: sourcesCollection, Name: "source_id", Fields: []string{"id"}, Unique: true},
	{Collection: sourcesCollection, Name: "source_section", Fields: []string{"section"}, Unique: true},
	{Collection: sourcesCollection, Name: "source_location", Fields: []string{"location"}, Unique: true},
	{Collection: statusesCollection, Name: "status_source_id", Fields: []string{"source_id"}},
	{Collection: messagesCollection, Name: "message_cves", Fields: []string{"cves[*]"}},
	{Collection: messagesCollection, Name: "message_date", Fields: []string{"message_date"}},
}

var _ store.Store = (*Store)(nil)

// Store is the ArangoDB backed implementation of store.Store. Set membership on advisory documents is enforced by
// keeping the fact keys alongside the facts on the document itself.
type Store struct {
	ctx    context.Context
	client arangodb.Client
	db     arangodb.Database
	cfg    Config
}

func connectionConfig(cfg Config) connection.HttpConfiguration {
	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !cfg.TLSVerify, //nolint:gosec // operator controlled
	}

	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(cfg.Username, cfg.Password),
		Endpoint:       connection.NewRoundRobinEndpoints([]string{cfg.Endpoint}),
		ContentType:    connection.ApplicationJSON,
		Transport:      transport,
	}
}

// New connects to the server (retrying with exponential backoff), then ensures the database, collections and
// indexes exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := ensureDatabase(ctx, client, cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &Store{
		ctx:    ctx,
		client: client,
		db:     db,
		cfg:    cfg,
	}

	if err := s.ensureCollections(); err != nil {
		return nil, err
	}

	return s, nil
}

func connect(ctx context.Context, cfg Config) (arangodb.Client, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	var client arangodb.Client
	err := backoff.RetryNotify(func() error {
		client = arangodb.NewClient(connection.NewHttpConnection(connectionConfig(cfg)))

		versionInfo, err := client.Version(ctx)
		if err != nil {
			return err
		}

		log.WithFields("endpoint", cfg.Endpoint, "version", versionInfo.Version).Debug("connected to arangodb")
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		log.WithFields("endpoint", cfg.Endpoint, "retry-in", next).Warnf("unable to connect to arangodb: %v", err)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to arangodb at %q: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// Ping reports whether the server answers a version request, without retrying.
func Ping(ctx context.Context, cfg Config) error {
	client := arangodb.NewClient(connection.NewHttpConnection(connectionConfig(cfg)))
	if _, err := client.Version(ctx); err != nil {
		return fmt.Errorf("arangodb at %q is unreachable: %w", cfg.Endpoint, err)
	}
	return nil
}

func ensureDatabase(ctx context.Context, client arangodb.Client, name string) (arangodb.Database, error) {
	dbs, err := client.Databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list databases: %w", err)
	}

	for _, info := range dbs {
		if info.Name() == name {
			db, err := client.GetDatabase(ctx, name, &arangodb.GetDatabaseOptions{})
			if err != nil {
				return nil, fmt.Errorf("unable to open database %q: %w", name, err)
			}
			return db, nil
		}
	}

	log.WithFields("database", name).Info("creating arangodb database")
	db, err := client.CreateDatabase(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create database %q: %w", name, err)
	}
	return db, nil
}

func (s *Store) ensureCollections() error {
	collections := make(map[string]arangodb.Collection)
	for _, name := range collectionNames {
		exists, err := s.db.CollectionExists(s.ctx, name)
		if err != nil {
			return fmt.Errorf("unable to check for collection %q: %w", name, err)
		}

		var col arangodb.Collection
		if exists {
			col, err = s.db.GetCollection(s.ctx, name, &arangodb.GetCollectionOptions{})
		} else {
			col, err = s.db.CreateCollection(s.ctx, name, nil)
		}
		if err != nil {
			return fmt.Errorf("unable to prepare collection %q: %w", name, err)
		}
		collections[name] = col
	}

	sparse := false
	for _, idx := range indexes {
		unique := idx.Unique
		_, _, err := collections[idx.Collection].EnsurePersistentIndex(s.ctx, idx.Fields, &arangodb.CreatePersistentIndexOptions{
			Unique: &unique,
			Sparse: &sparse,
			Name:   idx.Name,
		})
		if err != nil {
			return fmt.Errorf("unable to create index %q on %q: %w", idx.Name, idx.Collection, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	// the HTTP connection holds no server side resources
	return nil
}

// documentKey maps an arbitrary identifier (e.g. an RFC 5322 message id) onto the restricted _key alphabet.
func documentKey(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func (s *Store) exec(query string, bindVars map[string]interface{}) error {
	cursor, err := s.db.Query(s.ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return err
	}
	return cursor.Close()
}

func (s *Store) deleteCollection(name string) error {
	if err := s.exec(`FOR d IN @@col REMOVE d IN @@col`, map[string]interface{}{"@col": name}); err != nil {
		return fmt.Errorf("failed to delete all %s: %w", name, err)
	}
	return nil
}

// queryAll runs the query and decodes every result document.
func queryAll[T any](s *Store, query string, bindVars map[string]interface{}) ([]T, error) {
	cursor, err := s.db.Query(s.ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer log.CloseAndLogError(cursor, "arangodb cursor")

	var results []T
	for cursor.HasMore() {
		var result T
		if _, err := cursor.ReadDocument(s.ctx, &result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// queryOne returns the first result of the query and whether there was one.
func queryOne[T any](s *Store, query string, bindVars map[string]interface{}) (T, bool, error) {
	var zero T
	results, err := queryAll[T](s, query, bindVars)
	if err != nil || len(results) == 0 {
		return zero, false, err
	}
	return results[0], true, nil
}

func (s *Store) exists(collection, key string) (bool, error) {
	found, _, err := queryOne[bool](s, `RETURN DOCUMENT(@col, @key) != null`, map[string]interface{}{
		"col": collection,
		"key": key,
	})
	return found, err
}

// nextID atomically increments and returns the named counter.
func (s *Store) nextID(name string) (int64, error) {
	id, ok, err := queryOne[int64](s, `
		UPSERT { _key: @name }
		INSERT { _key: @name, value: 1 }
		UPDATE { value: OLD.value + 1 } IN counters
		RETURN NEW.value`, map[string]interface{}{"name": name})
	if err != nil {
		return 0, fmt.Errorf("unable to allocate %s id: %w", name, err)
	}
	if !ok {
		return 0, fmt.Errorf("unable to allocate %s id: no value returned", name)
	}
	return id, nil
}
