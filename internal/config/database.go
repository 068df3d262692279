package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/kevensen/frtsdk/internal"
	"github.com/kevensen/frtsdk/redteam/resource"
)

type database struct {
	// Location is a sqlite:// or arangodb:// location.
	Location string `yaml:"location" json:"location" mapstructure:"location"`
}

func (cfg database) loadDefaultValues(v *viper.Viper) {
	v.SetDefault("db.location", "sqlite://"+path.Join(xdg.DataHome, internal.ApplicationName, internal.ApplicationName+".db"))
}

func (cfg *database) parseConfigValues() error {
	cfg.Location = strings.TrimSpace(cfg.Location)
	if resource.Route(cfg.Location) != resource.DatabaseKind {
		return fmt.Errorf("db.location must be a sqlite:// or arangodb:// location (got %q)", cfg.Location)
	}
	return nil
}
