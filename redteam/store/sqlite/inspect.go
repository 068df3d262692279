package sqlite

import (
	"fmt"

	"github.com/alicebob/sqlittle"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/store"
)

// Status summarizes a store file.
type Status struct {
	Path           string         `json:"path"`
	BuildTimestamp string         `json:"build_timestamp"`
	SchemaVersion  string         `json:"schema_version"`
	Compatible     bool           `json:"compatible"`
	Rows           map[string]int `json:"rows"`
}

// counted tables and a column each table is scanned by
var countedTables = []struct {
	name   string
	column string
}{
	{name: store.Source{}.TableName(), column: "section"},
	{name: store.SourceStatus{}.TableName(), column: "status"},
	{name: store.CveItem{}.TableName(), column: "cve_id"},
	{name: store.AdvisoryMessage{}.TableName(), column: "message_id"},
	{name: store.CVRF{}.TableName(), column: "advisory_id"},
	{name: cvrfFact{}.TableName(), column: "kind"},
}

// Inspect reads the id and the row counts of a store file without going through the SQL engine, so a store in use
// by another process can be looked at without taking any lock on it. Writes still sitting in the write-ahead log
// of a live store are not counted.
func Inspect(path string) (*Status, error) {
	db, err := sqlittle.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open store %q: %w", path, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithFields("path", path, "error", err).Warn("unable to close store")
		}
	}()

	status := &Status{Path: path, Rows: make(map[string]int)}

	var scanErr error
	total := 0
	err = db.Select(idTableName, func(row sqlittle.Row) {
		total++
		if err := row.Scan(&status.BuildTimestamp, &status.SchemaVersion); err != nil {
			scanErr = err
		}
	}, "build_timestamp", "schema_version")
	if err != nil {
		return nil, fmt.Errorf("unable to query for store id: %w", err)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if total > 1 {
		return nil, fmt.Errorf("discovered more than one store id")
	}

	for _, t := range countedTables {
		n := 0
		if err := db.Select(t.name, func(sqlittle.Row) { n++ }, t.column); err != nil {
			return nil, fmt.Errorf("unable to count %s: %w", t.name, err)
		}
		status.Rows[t.name] = n
	}

	if total == 1 {
		status.Compatible, err = compatibleSchema(status.SchemaVersion)
		if err != nil {
			return nil, err
		}
	}
	return status, nil
}
