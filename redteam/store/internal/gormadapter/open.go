package gormadapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/kevensen/frtsdk/internal/log"
)

var commonStatements = []string{
	`PRAGMA foreign_keys = ON`,
}

var writerStatements = []string{
	// every fact is committed independently, so favor durability of each write over bulk speed
	`PRAGMA synchronous = NORMAL`,
	`PRAGMA journal_mode = WAL`,
}

var readConnectionOptions = []string{
	"mode=ro",
}

type config struct {
	debug      bool
	path       string
	writable   bool
	truncate   bool
	models     []any
	memory     bool
	statements []string
}

type Option func(*config)

func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// WithTruncate removes any existing DB file before opening (implies writable).
func WithTruncate(truncate bool) Option {
	return func(c *config) {
		c.truncate = truncate
		if truncate {
			c.writable = true
		}
	}
}

func WithStatements(statements ...string) Option {
	return func(c *config) {
		c.statements = append(c.statements, statements...)
	}
}

// WithWritable opens the DB for writing and migrates the given models.
func WithWritable(write bool, models []any) Option {
	return func(c *config) {
		c.writable = write
		c.models = append(c.models, models...)
	}
}

func newConfig(path string, opts []Option) config {
	c := config{}
	c.apply(path, opts)
	return c
}

func (c *config) apply(path string, opts []Option) {
	for _, o := range opts {
		o(c)
	}
	c.memory = len(path) == 0
	c.path = path
}

func (c config) connectionString() string {
	if c.memory {
		// a private in-memory DB per connection pool; the pool is limited to one connection in Open
		return ":memory:"
	}

	conn := fmt.Sprintf("file:%s?cache=shared", c.path)
	if !c.writable {
		for _, o := range readConnectionOptions {
			conn += fmt.Sprintf("&%s", o)
		}
	}
	return conn
}

// Open a new connection to a sqlite3 database file (or an in-memory DB when the path is empty).
func Open(path string, options ...Option) (*gorm.DB, error) {
	cfg := newConfig(path, options)

	if cfg.memory {
		cfg.writable = true
	}

	if cfg.truncate && !cfg.memory {
		if err := deleteDB(path); err != nil {
			return nil, err
		}
	}

	if cfg.writable && !cfg.memory {
		if err := ensureParent(path); err != nil {
			return nil, err
		}
	}

	dbObj, err := gorm.Open(sqlite.Open(cfg.connectionString()), &gorm.Config{Logger: &logAdapter{
		debug:         cfg.debug,
		slowThreshold: 400 * time.Millisecond,
	}})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to DB: %w", err)
	}

	if cfg.memory {
		sqlDB, err := dbObj.DB()
		if err != nil {
			return nil, fmt.Errorf("unable to access DB connection pool: %w", err)
		}
		// every new connection would otherwise see a brand new empty in-memory DB
		sqlDB.SetMaxOpenConns(1)
	}

	return cfg.prepareDB(dbObj)
}

func (c config) prepareDB(dbObj *gorm.DB) (*gorm.DB, error) {
	if c.writable && !c.memory {
		log.Debug("using writable DB statements")
		if err := c.applyStatements(dbObj, writerStatements); err != nil {
			return nil, fmt.Errorf("unable to apply DB writer statements: %w", err)
		}
	}

	if err := c.applyStatements(dbObj, commonStatements); err != nil {
		return nil, fmt.Errorf("unable to apply DB common statements: %w", err)
	}

	if len(c.statements) > 0 {
		if err := c.applyStatements(dbObj, c.statements); err != nil {
			return nil, fmt.Errorf("unable to apply DB custom statements: %w", err)
		}
	}

	if len(c.models) > 0 && c.writable {
		log.Debug("applying DB migrations")
		if err := dbObj.AutoMigrate(c.models...); err != nil {
			return nil, fmt.Errorf("unable to migrate: %w", err)
		}
	}

	if c.debug {
		dbObj = dbObj.Debug()
	}

	return dbObj, nil
}

func (c config) applyStatements(db *gorm.DB, statements []string) error {
	for _, sqlStmt := range statements {
		if err := db.Exec(sqlStmt).Error; err != nil {
			return fmt.Errorf("unable to execute (%s): %w", sqlStmt, err)
		}
		if !strings.HasPrefix(sqlStmt, "PRAGMA") {
			continue
		}

		name, value, err := pragmaNameValue(sqlStmt)
		if err != nil {
			return err
		}

		// sqlite does not report bad pragma keys or values, so read the value back to be sure it took effect
		var result string
		if err := db.Raw("PRAGMA " + name + ";").Scan(&result).Error; err != nil {
			return fmt.Errorf("unable to verify PRAGMA %q: %w", name, err)
		}

		if !pragmaValueMatches(value, result) {
			return fmt.Errorf("PRAGMA %q was not set to %q (%q)", name, value, result)
		}
	}
	return nil
}

func pragmaValueMatches(want, got string) bool {
	if strings.EqualFold(want, got) {
		return true
	}
	switch strings.ToUpper(want) {
	case "ON":
		return got == "1"
	case "OFF":
		return got == "0"
	case "NORMAL":
		return got == "1"
	}
	return false
}

func pragmaNameValue(sqlStmt string) (string, string, error) {
	sqlStmt = strings.TrimSuffix(strings.TrimSpace(sqlStmt), ";")
	if strings.Contains(sqlStmt, ";") {
		return "", "", fmt.Errorf("PRAGMA statements should not contain semicolons: %q", sqlStmt)
	}

	fields := strings.SplitN(strings.TrimPrefix(sqlStmt, "PRAGMA"), "=", 2)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("unable to parse PRAGMA statement: %q", sqlStmt)
	}

	name := strings.ToLower(strings.TrimSpace(fields[0]))
	if name == "" {
		return "", "", fmt.Errorf("unable to parse name from PRAGMA statement: %q", sqlStmt)
	}

	return name, strings.TrimSpace(fields[1]), nil
}

func ensureParent(path string) error {
	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0700); err != nil {
		return fmt.Errorf("unable to create parent directory %q for DB file: %w", parent, err)
	}
	return nil
}

func deleteDB(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("unable to remove existing DB file: %w", err)
		}
	}
	return ensureParent(path)
}
