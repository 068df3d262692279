package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store/sqlite"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "inspect the advisory store",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the schema version and row counts of the sqlite store (without locking it)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := dbStatus(appConfig.DB.Location)
		if err != nil {
			return err
		}
		cmd.Print(out)
		return nil
	},
}

func dbStatus(location string) (string, error) {
	conn, err := resource.NewDatabaseConnector(location, resource.Config{})
	if err != nil {
		return "", err
	}
	path, ok := conn.SQLitePath()
	if !ok {
		return "", fmt.Errorf("db status needs an on-disk sqlite:// location (got %q)", location)
	}

	status, err := sqlite.Inspect(path)
	if err != nil {
		return "", err
	}

	tables := make([]string, 0, len(status.Rows))
	for name := range status.Rows {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	rows := make([][]string, 0, len(tables))
	for _, name := range tables {
		rows = append(rows, []string{name, humanize.Comma(int64(status.Rows[name]))})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Location:   %s\n", status.Path)
	fmt.Fprintf(&sb, "Built:      %s\n", status.BuildTimestamp)
	fmt.Fprintf(&sb, "Schema:     %s (compatible: %t)\n\n", status.SchemaVersion, status.Compatible)
	sb.WriteString(renderTable([]string{"Table", "Rows"}, rows))
	return sb.String(), nil
}

func init() {
	dbCmd.AddCommand(dbStatusCmd)
	rootCmd.AddCommand(dbCmd)
}
