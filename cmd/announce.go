package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/redteam/announce"
)

var announceOpts = struct {
	All    bool
	CentOS bool
}{}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "inspect the package announcement archives",
}

var announceURLsCmd = &cobra.Command{
	Use:   "urls",
	Short: "list the monthly package announcement archive locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := announce.NewCatalog()
		archives := catalog.Fedora(announceOpts.All)
		if announceOpts.CentOS {
			archives = catalog.CentOS(announceOpts.All)
		}
		for _, a := range archives {
			fmt.Printf("%s\t%s\n", a.Section(), a.URL)
		}
		return nil
	},
}

func init() {
	announceURLsCmd.Flags().BoolVar(&announceOpts.All, "all", false, "list every archive since the list began instead of the last month")
	announceURLsCmd.Flags().BoolVar(&announceOpts.CentOS, "centos", false, "list the CentOS archives instead of the Fedora archives")

	announceCmd.AddCommand(announceURLsCmd)
	rootCmd.AddCommand(announceCmd)
}
