package nvd

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/nvdtools/cvefeed/nvd/schema"
	"github.com/hashicorp/go-multierror"
	"github.com/scylladb/go-set/strset"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/kevensen/frtsdk/internal/bus"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/internal/metrics"
	"github.com/kevensen/frtsdk/redteam/event"
	"github.com/kevensen/frtsdk/redteam/event/monitor"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

var errDuplicateItem = errors.New("vulnerability id repeated within the feed")

// Result partitions the well-formed ids of a feed batch. Items that could not be processed are reported in Skipped
// and are not part of the partition.
type Result struct {
	Added     []string
	Modified  []string
	Unchanged []string
	Skipped   []error
}

// Err combines the per-item failures, if any.
func (r Result) Err() error {
	var errs error
	for _, err := range r.Skipped {
		errs = multierror.Append(errs, err)
	}
	return errs
}

func (r Result) Total() int {
	return len(r.Added) + len(r.Modified) + len(r.Unchanged)
}

type diffProgress struct {
	processed *progress.Manual
	added     *progress.Manual
	modified  *progress.Manual
	skipped   *progress.Manual
}

func newDiffProgress(total int) diffProgress {
	p := diffProgress{
		processed: progress.NewManual(int64(total)),
		added:     progress.NewManual(-1),
		modified:  progress.NewManual(-1),
		skipped:   progress.NewManual(-1),
	}

	bus.Publish(partybus.Event{
		Type: event.FeedDiffStarted,
		Value: monitor.FeedDiff{
			RecordsProcessed: p.processed,
			Added:            p.added,
			Modified:         p.modified,
			Skipped:          p.skipped,
		},
	})
	return p
}

func (p diffProgress) done(err error) {
	for _, m := range []*progress.Manual{p.processed, p.added, p.modified, p.skipped} {
		if err != nil {
			m.SetError(err)
		}
		m.SetCompleted()
	}
}

// Process reconciles a feed against the stored records. A record is added when no record with its id is stored,
// modified when its last-modified timestamp is strictly later than the stored one, and unchanged otherwise.
// Added and modified records are written in full; unchanged records are never written.
func Process(ctx context.Context, s store.CveItemStore, feed *schema.NVDCVEFeedJSON10) (result Result, err error) {
	if feed == nil {
		return result, nil
	}

	prog := newDiffProgress(len(feed.CVEItems))
	defer func() { prog.done(err) }()

	seen := strset.New()
	for _, item := range feed.CVEItems {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("feed processing stopped: %w", ctxErr)
		}
		prog.processed.Increment()

		record, convErr := toCveItem(item)
		if convErr != nil {
			log.WithFields("id", ItemID(item)).Warnf("skipping feed item: %v", convErr)
			result.Skipped = append(result.Skipped, convErr)
			prog.skipped.Increment()
			continue
		}

		if seen.Has(record.CVEID) {
			dupErr := &redteamerr.MalformedInputError{ID: record.CVEID, Field: "cve.CVE_data_meta.ID", Err: errDuplicateItem}
			log.WithFields("id", record.CVEID).Debug("skipping repeated feed item")
			result.Skipped = append(result.Skipped, dupErr)
			prog.skipped.Increment()
			continue
		}
		seen.Add(record.CVEID)

		classification, err := reconcile(s, record)
		if err != nil {
			return result, err
		}

		switch classification {
		case added:
			result.Added = append(result.Added, record.CVEID)
			prog.added.Increment()
		case modified:
			result.Modified = append(result.Modified, record.CVEID)
			prog.modified.Increment()
		default:
			result.Unchanged = append(result.Unchanged, record.CVEID)
		}
	}

	log.WithFields("added", len(result.Added), "modified", len(result.Modified), "unchanged", len(result.Unchanged), "skipped", len(result.Skipped)).
		Info("feed reconciled")

	metrics.FeedRecords(string(added), len(result.Added))
	metrics.FeedRecords(string(modified), len(result.Modified))
	metrics.FeedRecords(string(unchanged), len(result.Unchanged))
	metrics.FeedRecords("skipped", len(result.Skipped))

	return result, nil
}

type classification string

const (
	added     classification = "added"
	modified  classification = "modified"
	unchanged classification = "unchanged"
)

func reconcile(s store.CveItemStore, record store.CveItem) (classification, error) {
	existing, err := s.GetCveItem(record.CVEID)
	switch {
	case redteamerr.IsNotFound(err):
		if err := s.UpsertCveItem(record); err != nil {
			return "", err
		}
		return added, nil
	case err != nil:
		return "", err
	}

	if !record.LastModifiedDate.After(existing.LastModifiedDate) {
		return unchanged, nil
	}

	if err := s.UpsertCveItem(record); err != nil {
		return "", err
	}
	return modified, nil
}
