package config

import (
	"fmt"
	"path"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/kevensen/frtsdk/internal"
	"github.com/kevensen/frtsdk/internal/version"
	"github.com/kevensen/frtsdk/redteam/resource"
)

// fetch holds the options used for every source location.
type fetch struct {
	TLSVerify bool          `yaml:"tls-verify" json:"tls-verify" mapstructure:"tls-verify"`
	CacheDir  string        `yaml:"cache-dir" json:"cache-dir" mapstructure:"cache-dir"`
	Username  string        `yaml:"username" json:"username" mapstructure:"username"`
	Password  string        `yaml:"password" json:"-" mapstructure:"password"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

func (cfg fetch) loadDefaultValues(v *viper.Viper) {
	v.SetDefault("fetch.tls-verify", true)
	v.SetDefault("fetch.cache-dir", path.Join(xdg.CacheHome, internal.ApplicationName))
	v.SetDefault("fetch.username", "")
	v.SetDefault("fetch.password", "")
	v.SetDefault("fetch.timeout", 0)
}

func (cfg *fetch) parseConfigValues() error {
	if cfg.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative (got %s)", cfg.Timeout)
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return fmt.Errorf("fetch.username and fetch.password must be given together")
	}
	return nil
}

func (cfg fetch) ToResourceConfig() resource.Config {
	return resource.Config{
		TLSVerify: cfg.TLSVerify,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Timeout:   cfg.Timeout,
		UserAgent: fmt.Sprintf("%s %s", internal.ApplicationName, version.FromBuild().Version),
	}
}
