package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/redteam/product"
)

var productOpts = struct {
	Name string
}{}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "inspect the packages a product repository ships",
}

var productRPMsCmd = &cobra.Command{
	Use:   "rpms LOCATION",
	Short: "list the rpm builds of a repository (a local repository tree, a primary.xml file or url, optionally gzipped)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := listRPMs(cmd.Context(), args[0], productOpts.Name)
		if err != nil {
			return err
		}
		cmd.Print(out)
		return nil
	},
}

func listRPMs(ctx context.Context, location, name string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rpms, err := product.Repodata(ctx, location, appConfig.Fetch.ToResourceConfig())
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(rpms))
	for _, r := range product.Filter(rpms, name) {
		rows = append(rows, []string{r.Name, r.Epoch, r.Version, r.Release, r.Arch})
	}
	return renderTable([]string{"Name", "Epoch", "Version", "Release", "Arch"}, rows), nil
}

func init() {
	productRPMsCmd.Flags().StringVar(&productOpts.Name, "name", "", "only list builds whose full name contains this text")

	productCmd.AddCommand(productRPMsCmd)
	rootCmd.AddCommand(productCmd)
}
