package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kevensen/frtsdk/internal"
	"github.com/kevensen/frtsdk/internal/config"
)

var persistentOpts = config.CliOnlyOptions{}

// profiler is stopped once the command finishes (when dev profiling is enabled).
var profiler interface{ Stop() }

var rootCmd = &cobra.Command{
	Use:   internal.ApplicationName,
	Short: "Incrementally ingest security advisories and aggregate them into CVRF documents",
	Long: strings.ReplaceAll(`Tracks vulnerability feeds and package announcement archives as sources,
synchronizes them into a local store, and aggregates advisories into CVRF documents:
    APP sources load            register the sources from the application config
    APP sync                    fetch every failed or never synced source
    APP cvrf refresh            fold new advisory messages into CVRF documents
    APP cvrf show ADVISORY      render a CVRF document as JSON
`, "APP", internal.ApplicationName),
	SilenceUsage:     true,
	SilenceErrors:    true,
	PersistentPreRun: startProfiling,
}

func init() {
	setRootFlags(rootCmd.PersistentFlags())
}

func setRootFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&persistentOpts.ConfigPath, "config", "c", "", "application config file")
	flags.CountVarP(&persistentOpts.Verbosity, "verbose", "v", "increase verbosity (-v = info, -vv = debug)")
	flags.BoolP("quiet", "q", false, "suppress all logging output")
}

func bindRootConfigOptions(flags *pflag.FlagSet) error {
	if err := viper.BindPFlag("quiet", flags.Lookup("quiet")); err != nil {
		return fmt.Errorf("unable to bind flag 'quiet': %w", err)
	}
	return nil
}

func startProfiling(_ *cobra.Command, _ []string) {
	switch {
	case appConfig.Dev.ProfileCPU:
		profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(appConfig.Dev.ProfileDir), profile.Quiet)
	case appConfig.Dev.ProfileMem:
		profiler = profile.Start(profile.MemProfile, profile.ProfilePath(appConfig.Dev.ProfileDir), profile.Quiet)
	}
}

// finishRun runs after every command, including the ones that failed.
func finishRun() {
	if profiler != nil {
		profiler.Stop()
	}
	writeMetrics()
}
