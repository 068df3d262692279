package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/redteam/nvd"
)

var feedOpts = struct {
	All    bool
	Update bool
}{}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "inspect the published vulnerability feeds",
}

var feedURLsCmd = &cobra.Command{
	Use:   "urls",
	Short: "list the vulnerability feed locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, stream := range nvd.NewCatalog().Streams(feedOpts.All, feedOpts.Update) {
			fmt.Printf("%s\t%s\n", stream.Section(), stream.URL)
		}
		return nil
	},
}

func init() {
	feedURLsCmd.Flags().BoolVar(&feedOpts.All, "all", false, "list every yearly feed instead of only the recent feed")
	feedURLsCmd.Flags().BoolVar(&feedOpts.Update, "update", false, "include the modified feed")

	feedCmd.AddCommand(feedURLsCmd)
	rootCmd.AddCommand(feedCmd)
}
