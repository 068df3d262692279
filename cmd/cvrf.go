package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/cvrf"
	"github.com/kevensen/frtsdk/redteam/store"
)

var cvrfOpts = struct {
	Clean bool
	CVEs  bool
	File  string
}{}

var cvrfCmd = &cobra.Command{
	Use:   "cvrf",
	Short: "aggregate advisories into CVRF documents and query them",
}

var cvrfRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "fold every stored advisory message into its CVRF document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(refreshCVRF, nil)
	},
}

var cvrfShowCmd = &cobra.Command{
	Use:   "show ADVISORY_ID",
	Short: "render a CVRF document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, s store.Store) (string, error) {
			doc, err := cvrf.Assemble(ctx, s, strings.TrimSpace(args[0]))
			if err != nil {
				return "", err
			}
			out, err := encodeJSON(doc)
			if err != nil || cvrfOpts.File == "" {
				return out, err
			}
			return writeReport(cvrfOpts.File, out)
		}, nil)
	},
}

var cvrfListCmd = &cobra.Command{
	Use:   "list",
	Short: "list the aggregated CVRF documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(listCVRF, nil)
	},
}

var cvrfPackageCmd = &cobra.Command{
	Use:   "package NAME",
	Short: "list the advisories (or CVEs) that name a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, s store.Store) (string, error) {
			lookup := cvrf.AdvisoriesForPackage
			if cvrfOpts.CVEs {
				lookup = cvrf.CVEsForPackage
			}
			ids, err := lookup(s, strings.TrimSpace(args[0]))
			if err != nil {
				return "", err
			}
			if len(ids) == 0 {
				return "", nil
			}
			return strings.Join(ids, "\n") + "\n", nil
		}, nil)
	},
}

var cvrfCVECmd = &cobra.Command{
	Use:   "cve CVE_ID",
	Short: "render the vulnerability view of a CVE as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, s store.Store) (string, error) {
			vuln, err := cvrf.AssembleVulnerability(ctx, s, strings.TrimSpace(args[0]))
			if err != nil {
				return "", err
			}
			return encodeJSON(vuln)
		}, nil)
	},
}

func init() {
	cvrfRefreshCmd.Flags().BoolVar(&cvrfOpts.Clean, "clean", false, "drop every CVRF document before aggregating")
	cvrfShowCmd.Flags().StringVarP(&cvrfOpts.File, "file", "f", "", "write the document to the given file instead of stdout")
	cvrfPackageCmd.Flags().BoolVar(&cvrfOpts.CVEs, "cves", false, "list the CVEs fixed for the package instead of the advisories")

	cvrfCmd.AddCommand(cvrfRefreshCmd, cvrfShowCmd, cvrfListCmd, cvrfPackageCmd, cvrfCVECmd)
	rootCmd.AddCommand(cvrfCmd)
}

func refreshCVRF(ctx context.Context, s store.Store) (string, error) {
	result, err := cvrf.Refresh(ctx, s, cvrf.Options{Clean: cvrfOpts.Clean})
	if err != nil {
		return "", err
	}
	for _, skipped := range result.Skipped {
		log.Warnf("skipped: %v", skipped)
	}
	return fmt.Sprintf("%d created, %d revised, %d unchanged, %d skipped\n",
		len(result.Created), len(result.Revised), len(result.Unchanged), len(result.Skipped)), nil
}

func listCVRF(_ context.Context, s store.Store) (string, error) {
	ids, err := s.AdvisoryIDs()
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		doc, err := s.GetCVRF(id)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{
			doc.AdvisoryID,
			fmt.Sprint(doc.Revision),
			humanize.Time(doc.RevisionDate),
			fmt.Sprint(len(doc.CVEs)),
			doc.Summary,
		})
	}
	return renderTable([]string{"Advisory", "Revision", "Revised", "CVEs", "Summary"}, rows), nil
}

// writeReport writes the report to the given file and returns a short note in its place.
func writeReport(path, report string) (string, error) {
	w, closer, err := file.GetWriter(afero.NewOsFs(), io.Discard, path)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, report); err != nil {
		_ = closer()
		return "", fmt.Errorf("unable to write %q: %w", path, err)
	}
	if err := closer(); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %s to %s\n", humanize.Bytes(uint64(len(report))), path), nil
}

func encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("unable to encode: %w", err)
	}
	return buf.String(), nil
}
