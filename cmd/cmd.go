package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/internal"
	"github.com/kevensen/frtsdk/internal/config"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/internal/logger"
	"github.com/kevensen/frtsdk/internal/metrics"
	"github.com/kevensen/frtsdk/internal/version"
	"github.com/kevensen/frtsdk/redteam"
)

var (
	appConfig         *config.Application
	eventBus          *partybus.Bus
	eventSubscription *partybus.Subscription
)

func init() {
	cobra.OnInitialize(
		initRootCmdConfigOptions,
		initAppConfig,
		initLogging,
		logAppConfig,
		logAppVersion,
		initEventBus,
		initMetrics,
	)
}

func Execute() {
	err := rootCmd.Execute()
	finishRun()
	if err != nil {
		_ = stderrPrintLnf(err.Error())
		os.Exit(1)
	}
}

func initRootCmdConfigOptions() {
	if err := bindRootConfigOptions(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

func initAppConfig() {
	cfg, err := config.LoadApplicationConfig(viper.GetViper(), persistentOpts)
	if err != nil {
		fmt.Printf("failed to load application config: \n\t%+v\n", err)
		os.Exit(1)
	}
	appConfig = cfg
}

func initLogging() {
	cfg := logger.LogrusConfig{
		EnableConsole: (appConfig.Log.FileLocation == "" || appConfig.CliOptions.Verbosity > 0) && !appConfig.Quiet,
		EnableFile:    appConfig.Log.FileLocation != "",
		Level:         appConfig.Log.LevelOpt,
		Structured:    appConfig.Log.Structured,
		FileLocation:  appConfig.Log.FileLocation,
	}

	logWrapper := logger.NewLogrusLogger(cfg)
	if cfg.Structured {
		// structured entries are usually shipped elsewhere, so they carry the application name
		redteam.SetLogger(logWrapper.Nested("app", internal.ApplicationName))
		return
	}
	redteam.SetLogger(logWrapper)
}

func logAppConfig() {
	log.Debugf("application config:\n%+v", color.Magenta.Sprint(appConfig.String()))
}

func logAppVersion() {
	versionInfo := version.FromBuild()
	log.Infof("%s version: %s", internal.ApplicationName, versionInfo.Version)

	var fields map[string]interface{}
	bytes, err := json.Marshal(versionInfo)
	if err != nil {
		return
	}
	err = json.Unmarshal(bytes, &fields)
	if err != nil {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for idx, field := range keys {
		value := fields[field]
		branch := "├──"
		if idx == len(fields)-1 {
			branch = "└──"
		}
		log.Debugf("  %s %s: %s", branch, field, value)
	}
}

func initEventBus() {
	eventBus = partybus.NewBus()
	eventSubscription = eventBus.Subscribe()

	redteam.SetBus(eventBus)
}

func initMetrics() {
	metrics.Set(metrics.New())
}

// writeMetrics dumps the counters of this run when a textfile is configured.
func writeMetrics() {
	if appConfig == nil || appConfig.Metrics.Textfile == "" {
		return
	}
	if err := metrics.Current().WriteTextfile(appConfig.Metrics.Textfile); err != nil {
		log.Warnf("%+v", err)
	}
}
