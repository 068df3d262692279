package arango

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const defaultDatabase = "redteam"

type Config struct {
	// Endpoint is the http(s) URL of the coordinator.
	Endpoint  string
	Database  string
	Username  string
	Password  string
	TLSVerify bool
	// MaxElapsedTime bounds how long connecting is retried (zero retries until the context is done).
	MaxElapsedTime time.Duration
}

// ParseLocation converts a database location of the form arangodb[s]://user:pass@host:port/database into a Config.
func ParseLocation(location string) (Config, error) {
	u, err := url.Parse(location)
	if err != nil {
		return Config{}, fmt.Errorf("invalid arangodb location %q: %w", location, err)
	}

	var scheme string
	switch u.Scheme {
	case "arangodb":
		scheme = "http"
	case "arangodbs":
		scheme = "https"
	default:
		return Config{}, fmt.Errorf("unsupported arangodb scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return Config{}, fmt.Errorf("arangodb location %q is missing a host", location)
	}

	cfg := Config{
		Endpoint:       scheme + "://" + u.Host,
		Database:       strings.Trim(u.Path, "/"),
		TLSVerify:      true,
		MaxElapsedTime: 2 * time.Minute,
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	return cfg, nil
}
