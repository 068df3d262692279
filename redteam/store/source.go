package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SyncStatus is the synchronization label carried by a Source.
type SyncStatus string

const (
	NeverSynced SyncStatus = "never synced"
	Failed      SyncStatus = "failed"
	Success     SyncStatus = "success"
)

// SyncStatuses lists every label in the order sources are queued when filtering by more than one.
var SyncStatuses = []SyncStatus{NeverSynced, Failed, Success}

func ParseSyncStatus(s string) (SyncStatus, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", " ")
	for _, st := range SyncStatuses {
		if string(st) == normalized {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown sync status %q", s)
}

// SourceKind describes how the payload behind a source location is interpreted.
type SourceKind string

const (
	URLKind     SourceKind = "url"
	MailboxKind SourceKind = "mbox"
)

const (
	// NVDSourceType selects the vulnerability feed diff engine.
	NVDSourceType = "nvd"
	// AnnounceSourceType selects the advisory message extractor.
	AnnounceSourceType = "package-announce"
)

// Source is a configured feed location. Sources are identified by their configuration section which follows the
// form "source:<type>:<subtype>:<date>".
type Source struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Section   string         `gorm:"column:section;uniqueIndex;not null" json:"section"`
	Location  string         `gorm:"column:location;uniqueIndex;not null" json:"location"`
	Kind      SourceKind     `gorm:"column:kind;not null" json:"kind"`
	TLSVerify bool           `gorm:"column:tls_verify" json:"tls_verify"`
	Cache     string         `gorm:"column:cache" json:"cache,omitempty"`
	Statuses  []SourceStatus `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Source) TableName() string {
	return "sources"
}

func (s Source) sectionField(idx int) string {
	fields := strings.Split(s.Section, ":")
	if idx < 0 {
		idx = len(fields) + idx
	}
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// Type is the source type named by the section (e.g. "nvd" or "package-announce").
func (s Source) Type() string {
	return s.sectionField(1)
}

func (s Source) SubType() string {
	return s.sectionField(2)
}

func (s Source) Date() string {
	if len(strings.Split(s.Section, ":")) < 4 {
		return ""
	}
	return s.sectionField(-1)
}

// LastStatus returns the most recently appended status, or nil when the source has no history loaded.
func (s Source) LastStatus() *SourceStatus {
	if len(s.Statuses) == 0 {
		return nil
	}
	statuses := make([]SourceStatus, len(s.Statuses))
	copy(statuses, s.Statuses)
	SortStatuses(statuses)
	last := statuses[len(statuses)-1]
	return &last
}

// Status returns the label of the most recent status (sources without history are considered never synced).
func (s Source) Status() SyncStatus {
	if last := s.LastStatus(); last != nil {
		return last.Status
	}
	return NeverSynced
}

// SourceStatus is an immutable status transition record.
type SourceStatus struct {
	ID       int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SourceID int64      `gorm:"column:source_id;index;not null" json:"source_id"`
	Status   SyncStatus `gorm:"column:status;not null" json:"status"`
	Date     time.Time  `gorm:"column:date;not null" json:"date"`
}

func (SourceStatus) TableName() string {
	return "source_statuses"
}

// SortStatuses orders statuses by insertion (id), independent of the recorded dates.
func SortStatuses(statuses []SourceStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].ID < statuses[j].ID
	})
}
