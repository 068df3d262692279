package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/redteam/source"
	"github.com/kevensen/frtsdk/redteam/store"
)

var sourcesOpts = struct {
	Clean  bool
	Status string
	ID     int64
}{}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "manage the registered advisory sources",
}

var sourcesLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "register the sources from the application config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(loadSources, nil)
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "list the registered sources and their last status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(listSources, nil)
	},
}

var sourcesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "mark a source (or every source) as never synced",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var id *int64
		if cmd.Flags().Changed("id") {
			id = &sourcesOpts.ID
		}
		return run(func(ctx context.Context, s store.Store) (string, error) {
			return resetSources(s, id)
		}, nil)
	},
}

var sourcesHistoryCmd = &cobra.Command{
	Use:   "history ID",
	Short: "show the status history of a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := source.ParseID(args[0])
		if err != nil {
			return err
		}
		return run(func(ctx context.Context, s store.Store) (string, error) {
			return sourceHistory(s, id)
		}, nil)
	},
}

func init() {
	sourcesLoadCmd.Flags().BoolVar(&sourcesOpts.Clean, "clean", false, "drop every registered source (and its history) first")
	sourcesListCmd.Flags().StringVar(&sourcesOpts.Status, "status", source.AllStatuses,
		fmt.Sprintf("only list sources whose last status matches, options=%v", []string{source.AllStatuses, "never-synced", "failed", "success"}))
	sourcesResetCmd.Flags().Int64Var(&sourcesOpts.ID, "id", 0, "the source to reset (defaults to every source)")

	sourcesCmd.AddCommand(sourcesLoadCmd, sourcesListCmd, sourcesResetCmd, sourcesHistoryCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func loadSources(ctx context.Context, s store.Store) (string, error) {
	defs := appConfig.SourceDefinitions()
	if len(defs) == 0 {
		return "", fmt.Errorf("no sources configured (see the 'sources' section of the application config)")
	}

	result, err := source.NewRegistry(s).Load(ctx, defs, sourcesOpts.Clean)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d sources created, %d updated\n", len(result.Created), len(result.Updated)), nil
}

func listSources(_ context.Context, s store.Store) (string, error) {
	summaries, err := source.NewRegistry(s).List(sourcesOpts.Status)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(summaries))
	for _, sum := range summaries {
		rows = append(rows, []string{
			fmt.Sprint(sum.SourceID),
			sum.Section,
			sum.Location,
			string(sum.LastStatus),
			humanize.Time(sum.LastStatusDate),
		})
	}
	return renderTable([]string{"ID", "Section", "Location", "Status", "Since"}, rows), nil
}

func resetSources(s store.Store, id *int64) (string, error) {
	n, err := source.NewRegistry(s).Reset(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s sources reset to %q\n", humanize.Comma(int64(n)), store.NeverSynced), nil
}

func sourceHistory(s store.Store, id int64) (string, error) {
	history, err := source.NewRegistry(s).History(id)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, []string{string(h.Status), h.Date.Format("2006-01-02 15:04:05"), humanize.Time(h.Date)})
	}
	return renderTable([]string{"Status", "Date", "Age"}, rows), nil
}

func renderTable(header []string, rows [][]string) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(true)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
	return buf.String()
}
