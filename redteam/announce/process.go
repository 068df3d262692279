package announce

import (
	"context"
	"fmt"

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
	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store"
)

// Result accounts for every message of a batch by id: stored, dropped as not security relevant, or already known.
// Messages that could not be extracted are reported in Skipped.
type Result struct {
	Added     []string
	Dropped   []string
	Duplicate []string
	Skipped   []error
}

func (r Result) Err() error {
	var errs error
	for _, err := range r.Skipped {
		errs = multierror.Append(errs, err)
	}
	return errs
}

// Process extracts and stores the security-relevant messages of a batch. Messages whose id has already been stored
// (or seen earlier in the batch) are never extracted again.
func (e *Extractor) Process(ctx context.Context, s store.AdvisoryMessageStore, messages []resource.Message) (result Result, err error) {
	processed := progress.NewManual(int64(len(messages)))
	added := progress.NewManual(-1)
	dropped := progress.NewManual(-1)
	bus.Publish(partybus.Event{
		Type: event.MessageExtractionStarted,
		Value: monitor.Extraction{
			MessagesProcessed: processed,
			Added:             added,
			Dropped:           dropped,
		},
	})
	defer func() {
		for _, m := range []*progress.Manual{processed, added, dropped} {
			if err != nil {
				m.SetError(err)
			}
			m.SetCompleted()
		}
	}()

	seen := strset.New()
	for _, msg := range messages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("message processing stopped: %w", ctxErr)
		}
		processed.Increment()

		if msg.ID == "" {
			result.Skipped = append(result.Skipped, &redteamerr.MalformedInputError{Field: "Message-Id"})
			continue
		}

		if seen.Has(msg.ID) {
			result.Duplicate = append(result.Duplicate, msg.ID)
			continue
		}
		seen.Add(msg.ID)

		exists, err := s.MessageExists(msg.ID)
		if err != nil {
			return result, err
		}
		if exists {
			result.Duplicate = append(result.Duplicate, msg.ID)
			continue
		}

		if !e.IsSecurityRelevant(msg) {
			log.WithFields("id", msg.ID, "subject", msg.Subject).Trace("dropping message")
			result.Dropped = append(result.Dropped, msg.ID)
			dropped.Increment()
			continue
		}

		extracted, err := e.Extract(msg)
		if err != nil {
			log.WithFields("id", msg.ID).Debugf("skipping message: %v", err)
			result.Skipped = append(result.Skipped, err)
			continue
		}

		written, err := s.AddMessage(*extracted)
		if err != nil {
			return result, err
		}
		if !written {
			result.Duplicate = append(result.Duplicate, msg.ID)
			continue
		}
		result.Added = append(result.Added, msg.ID)
		added.Increment()
	}

	log.WithFields("added", len(result.Added), "dropped", len(result.Dropped), "duplicate", len(result.Duplicate), "skipped", len(result.Skipped)).
		Info("messages extracted")

	metrics.Messages("added", len(result.Added))
	metrics.Messages("dropped", len(result.Dropped))
	metrics.Messages("duplicate", len(result.Duplicate))
	metrics.Messages("skipped", len(result.Skipped))

	return result, nil
}
