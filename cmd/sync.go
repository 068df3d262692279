package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/source"
	"github.com/kevensen/frtsdk/redteam/store"
)

var syncOpts = struct {
	source.Options
	ID int64
}{}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "fetch the selected sources and ingest their advisories",
	Long: `Fetches every selected source in turn. Vulnerability feeds are diffed into the store and mailing list
archives are mined for advisory messages. Without a selection every failed source is retried first, then every
source that was never synced.

An interrupt (ctrl-c) abandons the source being fetched and moves on to the next one; a second interrupt on the
same source cancels the run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := syncOpts.Options
		if cmd.Flags().Changed("id") {
			id := syncOpts.ID
			opts.SourceID = &id
		}

		var orchestrator *source.Orchestrator
		ready := make(chan struct{})
		interrupt := func() bool {
			select {
			case <-ready:
				return orchestrator.Interrupt()
			default:
				return false
			}
		}

		return run(func(ctx context.Context, s store.Store) (string, error) {
			orchestrator = source.NewOrchestrator(s, source.ResourceFetcher(appConfig.Fetch.ToResourceConfig()))
			close(ready)
			return syncSources(ctx, orchestrator, opts)
		}, interrupt)
	},
}

func init() {
	flags := syncCmd.Flags()
	flags.BoolVar(&syncOpts.NeverSynced, "never-synced", false, "sync sources that were never synced")
	flags.BoolVar(&syncOpts.Failed, "failed", false, "sync sources whose last sync failed")
	flags.BoolVar(&syncOpts.Success, "success", false, "sync sources whose last sync succeeded")
	flags.Int64Var(&syncOpts.ID, "id", 0, "sync a single source")
	flags.BoolVar(&syncOpts.SkipFailures, "skip-failures", false, "keep going when a source cannot be fetched")

	rootCmd.AddCommand(syncCmd)
}

func syncSources(ctx context.Context, o *source.Orchestrator, opts source.Options) (string, error) {
	report, err := o.Sync(ctx, opts)
	if err != nil {
		if report != nil {
			log.WithFields("run", report.RunID).Debug(summarizeSync(report))
		}
		return "", err
	}
	return summarizeSync(report), nil
}

func summarizeSync(report *source.Report) string {
	var sb strings.Builder
	for _, res := range report.Results {
		status := string(res.Status)
		if status == "" {
			status = "interrupted"
		}
		fmt.Fprintf(&sb, "%-12s %s", status, res.Source.Location)
		switch {
		case res.Diff != nil:
			fmt.Fprintf(&sb, " (%d added, %d modified, %d skipped)", len(res.Diff.Added), len(res.Diff.Modified), len(res.Diff.Skipped))
		case res.Messages != nil:
			fmt.Fprintf(&sb, " (%d added, %d dropped, %d skipped)", len(res.Messages.Added), len(res.Messages.Dropped), len(res.Messages.Skipped))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "run %s: %d synced, %d failed, %d interrupted\n",
		report.RunID, report.Count(store.Success), report.Count(store.Failed), report.Interrupted())
	return sb.String()
}
