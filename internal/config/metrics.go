package config

import "github.com/spf13/viper"

type metrics struct {
	// Textfile is where counters are written after each run, in the node exporter textfile format.
	Textfile string `yaml:"textfile" json:"textfile" mapstructure:"textfile"`
}

func (cfg metrics) loadDefaultValues(v *viper.Viper) {
	v.SetDefault("metrics.textfile", "")
}
