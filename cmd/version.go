package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/internal"
	"github.com/kevensen/frtsdk/internal/version"
)

var outputFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "show the version",
	Args:  cobra.NoArgs,
	RunE:  printVersion,
}

func init() {
	versionCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "format to show version information (available=[text, json])")

	rootCmd.AddCommand(versionCmd)
}

func printVersion(_ *cobra.Command, _ []string) error {
	versionInfo := version.FromBuild()
	switch outputFormat {
	case "text":
		fmt.Println("Application:   ", internal.ApplicationName)
		fmt.Println("Version:       ", versionInfo.Version)
		fmt.Println("BuildDate:     ", versionInfo.BuildDate)
		fmt.Println("GitCommit:     ", versionInfo.GitCommit)
		fmt.Println("GitDescription:", versionInfo.GitDescription)
		fmt.Println("Platform:      ", versionInfo.Platform)
		fmt.Println("GoVersion:     ", versionInfo.GoVersion)
		fmt.Println("Compiler:      ", versionInfo.Compiler)
	case "json":
		out, err := encodeJSON(&struct {
			version.Version
			Application string `json:"application"`
		}{
			Version:     versionInfo,
			Application: internal.ApplicationName,
		})
		if err != nil {
			return fmt.Errorf("failed to show version information: %w", err)
		}
		fmt.Print(out)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
	return nil
}
