package config

import (
	"path/filepath"
	"strings"

	"github.com/kevensen/frtsdk/redteam/source"
	"github.com/kevensen/frtsdk/redteam/store"
)

// Source is a configured source location.
type Source struct {
	Section  string `yaml:"section" json:"section" mapstructure:"section"`
	Location string `yaml:"location" json:"location" mapstructure:"location"`
	Kind     string `yaml:"kind" json:"kind" mapstructure:"kind"`
	// TLSVerify defaults to fetch.tls-verify when not given.
	TLSVerify *bool `yaml:"tls-verify" json:"tls-verify" mapstructure:"tls-verify"`
	// Cache is the local mirror of the location. A relative path is taken from fetch.cache-dir, and "false" disables
	// the mirror.
	Cache string `yaml:"cache" json:"cache" mapstructure:"cache"`
}

// SourceDefinitions converts the configured sources for the source registry.
func (cfg Application) SourceDefinitions() []source.Definition {
	defs := make([]source.Definition, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		verify := cfg.Fetch.TLSVerify
		if s.TLSVerify != nil {
			verify = *s.TLSVerify
		}
		defs = append(defs, source.Definition{
			Section:   s.Section,
			Location:  s.Location,
			Kind:      store.SourceKind(strings.ToLower(strings.TrimSpace(s.Kind))),
			TLSVerify: verify,
			Cache:     cfg.cachePath(s.Cache),
		})
	}
	return defs
}

func (cfg Application) cachePath(p string) string {
	switch strings.TrimSpace(p) {
	case "", "false":
		return ""
	}
	if filepath.IsAbs(p) || cfg.Fetch.CacheDir == "" {
		return p
	}
	return filepath.Join(cfg.Fetch.CacheDir, p)
}
