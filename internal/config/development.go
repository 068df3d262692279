package config

import "github.com/spf13/viper"

type development struct {
	ProfileCPU bool `yaml:"profile-cpu" json:"profile-cpu" mapstructure:"profile-cpu"`
	ProfileMem bool `yaml:"profile-mem" json:"profile-mem" mapstructure:"profile-mem"`
	// ProfileDir is where profiles are written.
	ProfileDir string `yaml:"profile-dir" json:"profile-dir" mapstructure:"profile-dir"`
}

func (cfg development) loadDefaultValues(v *viper.Viper) {
	v.SetDefault("dev.profile-cpu", false)
	v.SetDefault("dev.profile-mem", false)
	v.SetDefault("dev.profile-dir", ".")
}
