package store

import (
	"io"
	"time"
)

type SourceStoreReader interface {
	GetSource(id int64) (*Source, error)
	GetSourceBySection(section string) (*Source, error)
	// AllSources returns every source (with status history) ordered by id.
	AllSources() ([]Source, error)
	SourceHistory(id int64) ([]SourceStatus, error)
}

type SourceStoreWriter interface {
	// AddSource persists a new source, assigning its id.
	AddSource(s *Source) error
	UpdateSource(s Source) error
	// AddStatus appends a status transition for the given source.
	AddStatus(sourceID int64, status SyncStatus, date time.Time) (*SourceStatus, error)
	DeleteSources() error
}

type CveItemStoreReader interface {
	CveItemExists(id string) (bool, error)
	// GetCveItem returns a NotFoundError when there is no record for the given id.
	GetCveItem(id string) (*CveItem, error)
	CveItemCount() (int64, error)
}

type CveItemStoreWriter interface {
	UpsertCveItem(item CveItem) error
	DeleteCveItems() error
}

type AdvisoryMessageStoreReader interface {
	MessageExists(id string) (bool, error)
	GetMessage(id string) (*AdvisoryMessage, error)
	// AllMessages returns every stored message ordered by message date.
	AllMessages() ([]AdvisoryMessage, error)
	MessagesForCVE(cveID string) ([]AdvisoryMessage, error)
}

type AdvisoryMessageStoreWriter interface {
	// AddMessage stores the message unless one with the same id exists, reporting whether it was written.
	AddMessage(m AdvisoryMessage) (bool, error)
	DeleteMessages() error
}

type CVRFStoreReader interface {
	CVRFExists(advisoryID string) (bool, error)
	// GetCVRF returns the document with all accumulated sets, or a NotFoundError.
	GetCVRF(advisoryID string) (*CVRF, error)
	AdvisoryIDs() ([]string, error)
}

type CVRFStoreWriter interface {
	// UpsertCVRF writes the document header (summary, revision and dates). Accumulated sets are left untouched.
	UpsertCVRF(c CVRF) error
	// AddToSet adds the fact to the document, reporting whether it was not already a member.
	AddToSet(advisoryID string, fact Fact) (bool, error)
	DeleteCVRFs() error
}

type SourceStore interface {
	SourceStoreReader
	SourceStoreWriter
}

type CveItemStore interface {
	CveItemStoreReader
	CveItemStoreWriter
}

type AdvisoryMessageStore interface {
	AdvisoryMessageStoreReader
	AdvisoryMessageStoreWriter
}

type CVRFStore interface {
	CVRFStoreReader
	CVRFStoreWriter
}

type Reader interface {
	SourceStoreReader
	CveItemStoreReader
	AdvisoryMessageStoreReader
	CVRFStoreReader
}

type Writer interface {
	SourceStoreWriter
	CveItemStoreWriter
	AdvisoryMessageStoreWriter
	CVRFStoreWriter
}

type Store interface {
	Reader
	Writer
	io.Closer
}
