package cvrf

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
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

// RefreshStore is what an aggregation pass reads messages from and folds documents into.
type RefreshStore interface {
	store.AdvisoryMessageStoreReader
	store.CVRFStore
}

type Options struct {
	// Clean drops every document before aggregating.
	Clean bool
	Now   func() time.Time
}

// Result accounts for every advisory id touched by a pass.
type Result struct {
	Created   []string
	Revised   []string
	Unchanged []string
	Skipped   []error
}

func (r Result) Err() error {
	var errs error
	for _, err := range r.Skipped {
		errs = multierror.Append(errs, err)
	}
	return errs
}

type advisoryGroup struct {
	id       string
	messages []store.AdvisoryMessage
}

// Refresh folds every stored advisory message into the document for its advisory id. A document created by the pass
// starts at revision 1; an existing document is revised once when the pass adds at least one fact it did not have.
func Refresh(ctx context.Context, s RefreshStore, opts Options) (result Result, err error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if opts.Clean {
		log.Debug("dropping all advisory documents")
		if err := s.DeleteCVRFs(); err != nil {
			return result, fmt.Errorf("unable to clean advisory documents: %w", err)
		}
	}

	messages, err := s.AllMessages()
	if err != nil {
		return result, err
	}

	groups, skipped := groupByAdvisory(messages)
	result.Skipped = append(result.Skipped, skipped...)

	processed := progress.NewManual(int64(len(messages)))
	created := progress.NewManual(-1)
	revised := progress.NewManual(-1)
	bus.Publish(partybus.Event{
		Type: event.AggregationStarted,
		Value: monitor.Aggregation{
			MessagesProcessed: processed,
			Created:           created,
			Revised:           revised,
		},
	})
	defer func() {
		for _, m := range []*progress.Manual{processed, created, revised} {
			if err != nil {
				m.SetError(err)
			}
			m.SetCompleted()
		}
	}()
	processed.Add(int64(len(skipped)))

	for _, g := range groups {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("aggregation stopped: %w", ctxErr)
		}

		outcome, err := fold(s, g, now())
		processed.Add(int64(len(g.messages)))
		if err != nil {
			return result, err
		}

		switch outcome {
		case createdOutcome:
			result.Created = append(result.Created, g.id)
			created.Increment()
		case revisedOutcome:
			result.Revised = append(result.Revised, g.id)
			revised.Increment()
		default:
			result.Unchanged = append(result.Unchanged, g.id)
		}
	}

	log.WithFields("created", len(result.Created), "revised", len(result.Revised), "unchanged", len(result.Unchanged), "skipped", len(result.Skipped)).
		Info("advisory documents refreshed")

	metrics.CVRFRevisions("created", len(result.Created))
	metrics.CVRFRevisions("revised", len(result.Revised))
	metrics.CVRFRevisions("unchanged", len(result.Unchanged))

	return result, nil
}

type foldOutcome int

const (
	unchangedOutcome foldOutcome = iota
	createdOutcome
	revisedOutcome
)

// groupByAdvisory keeps the order in which advisory ids first appear. Messages without vulnerability ids carry
// nothing to aggregate.
func groupByAdvisory(messages []store.AdvisoryMessage) ([]advisoryGroup, []error) {
	var groups []advisoryGroup
	var skipped []error
	index := make(map[string]int)
	for _, m := range messages {
		if m.AdvisoryID == "" {
			skipped = append(skipped, &redteamerr.MalformedInputError{ID: m.MessageID, Field: "advisory"})
			continue
		}
		if len(m.CVEs) == 0 {
			log.WithFields("id", m.MessageID, "advisory", m.AdvisoryID).Trace("no vulnerability ids; not aggregated")
			continue
		}
		i, ok := index[m.AdvisoryID]
		if !ok {
			i = len(groups)
			index[m.AdvisoryID] = i
			groups = append(groups, advisoryGroup{id: m.AdvisoryID})
		}
		groups[i].messages = append(groups[i].messages, m)
	}
	return groups, skipped
}

func fold(s RefreshStore, g advisoryGroup, now time.Time) (foldOutcome, error) {
	doc, err := s.GetCVRF(g.id)
	isNew := redteamerr.IsNotFound(err)
	if err != nil && !isNew {
		return unchangedOutcome, err
	}

	if isNew {
		doc = &store.CVRF{
			AdvisoryID:         g.id,
			Revision:           1,
			RevisionDate:       now,
			InitialReleaseDate: initialRelease(g.messages, now),
		}
		// the header exists before any fact so that an interrupted pass leaves a document to revise
		if err := s.UpsertCVRF(*doc); err != nil {
			return unchangedOutcome, err
		}
	}

	header := *doc
	var added int
	for _, m := range g.messages {
		facts, err := store.FactsFor(m)
		if err != nil {
			return unchangedOutcome, fmt.Errorf("unable to derive facts for message %q: %w", m.MessageID, err)
		}
		for _, f := range facts {
			ok, err := s.AddToSet(g.id, f)
			if err != nil {
				return unchangedOutcome, err
			}
			if ok && f.Kind.Revises() {
				added++
			}
		}

		if m.Summary != "" {
			header.Summary = m.Summary
		}
		if m.AdvisoryDate != nil {
			d := *m.AdvisoryDate
			header.AdvisoryDate = &d
		}
	}

	outcome := unchangedOutcome
	switch {
	case isNew:
		outcome = createdOutcome
	case added > 0:
		header.Revision++
		header.RevisionDate = now
		outcome = revisedOutcome
	}

	fields := log.WithFields("advisory", g.id, "revision", header.Revision, "facts-added", added)
	if isNew || headerChanged(*doc, header) {
		if err := s.UpsertCVRF(header); err != nil {
			return unchangedOutcome, err
		}
		fields.Debug("advisory document written")
	} else {
		fields.Trace("advisory document unchanged")
	}
	return outcome, nil
}

func initialRelease(messages []store.AdvisoryMessage, fallback time.Time) time.Time {
	for _, m := range messages {
		if m.AdvisoryDate != nil {
			return *m.AdvisoryDate
		}
	}
	for _, m := range messages {
		if !m.MessageDate.IsZero() {
			return m.MessageDate
		}
	}
	return fallback
}

func headerChanged(before, after store.CVRF) bool {
	if before.Summary != after.Summary || before.Revision != after.Revision {
		return true
	}
	switch {
	case before.AdvisoryDate == nil && after.AdvisoryDate == nil:
		return false
	case before.AdvisoryDate == nil || after.AdvisoryDate == nil:
		return true
	}
	return !before.AdvisoryDate.Equal(*after.AdvisoryDate)
}
