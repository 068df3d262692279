package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevensen/frtsdk/redteam/store"
)

const fullConfig = `
log:
  level: debug
db:
  location: sqlite:///var/lib/redteam/redteam.db
fetch:
  tls-verify: false
  cache-dir: /var/cache/redteam
  timeout: 30s
sources:
  - section: source:nvd:cve:2020
    location: https://nvd.example/nvdcve-1.0-2020.json.gz
    tls-verify: true
    cache: nvdcve-1.0-2020.json.gz
  - section: source:package-announce:fedora:2020-03
    location: https://lists.example/2020-March.txt.gz
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadApplicationConfig(t *testing.T) {
	cfg, err := LoadApplicationConfig(viper.New(), CliOnlyOptions{ConfigPath: writeConfig(t, fullConfig)})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, cfg.Log.LevelOpt)
	assert.Equal(t, "sqlite:///var/lib/redteam/redteam.db", cfg.DB.Location)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	require.Len(t, cfg.Sources, 2)

	defs := cfg.SourceDefinitions()
	require.Len(t, defs, 2)
	assert.True(t, defs[0].TLSVerify)
	assert.Equal(t, "/var/cache/redteam/nvdcve-1.0-2020.json.gz", defs[0].Cache)
	assert.False(t, defs[1].TLSVerify, "unset tls-verify follows fetch.tls-verify")
	assert.Empty(t, defs[1].Cache)
	assert.Equal(t, store.SourceKind(""), defs[1].Kind)
}

func TestLoadApplicationConfig_Defaults(t *testing.T) {
	cfg, err := LoadApplicationConfig(viper.New(), CliOnlyOptions{ConfigPath: writeConfig(t, "quiet: false\n")})
	require.NoError(t, err)

	assert.Equal(t, logrus.WarnLevel, cfg.Log.LevelOpt)
	assert.True(t, cfg.Fetch.TLSVerify)
	assert.Contains(t, cfg.DB.Location, "sqlite://")
	assert.Empty(t, cfg.Sources)
}

func TestLoadApplicationConfig_Env(t *testing.T) {
	t.Setenv("REDTEAM_DB_LOCATION", "arangodb://localhost:8529/redteam")
	cfg, err := LoadApplicationConfig(viper.New(), CliOnlyOptions{ConfigPath: writeConfig(t, "quiet: false\n")})
	require.NoError(t, err)
	assert.Equal(t, "arangodb://localhost:8529/redteam", cfg.DB.Location)
}

func TestLoadApplicationConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		options CliOnlyOptions
	}{
		{name: "verbosity and level", config: "log:\n  level: info\n", options: CliOnlyOptions{Verbosity: 2}},
		{name: "bad level", config: "log:\n  level: loud\n"},
		{name: "bad db location", config: "db:\n  location: /tmp/redteam.db\n"},
		{name: "duplicate section", config: "sources:\n  - section: source:nvd:cve:2020\n    location: a\n  - section: source:nvd:cve:2020\n    location: b\n"},
		{name: "partial credentials", config: "fetch:\n  username: me\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := test.options
			opts.ConfigPath = writeConfig(t, test.config)
			_, err := LoadApplicationConfig(viper.New(), opts)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevelOption(t *testing.T) {
	tests := []struct {
		name string
		cfg  Application
		want logrus.Level
	}{
		{name: "quiet", cfg: Application{Quiet: true, CliOptions: CliOnlyOptions{Verbosity: 3}}, want: logrus.PanicLevel},
		{name: "-v", cfg: Application{CliOptions: CliOnlyOptions{Verbosity: 1}}, want: logrus.InfoLevel},
		{name: "-vv", cfg: Application{CliOptions: CliOnlyOptions{Verbosity: 2}}, want: logrus.DebugLevel},
		{name: "-vvvv", cfg: Application{CliOptions: CliOnlyOptions{Verbosity: 4}}, want: logrus.TraceLevel},
		{name: "config", cfg: Application{Log: logging{Level: "ERROR"}}, want: logrus.ErrorLevel},
		{name: "default", want: logrus.WarnLevel},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := test.cfg
			require.NoError(t, cfg.parseLogLevelOption())
			assert.Equal(t, test.want, cfg.Log.LevelOpt)
		})
	}
}
