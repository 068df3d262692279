package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/kevensen/frtsdk/internal/bus"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/internal/metrics"
	"github.com/kevensen/frtsdk/redteam/announce"
	"github.com/kevensen/frtsdk/redteam/event"
	"github.com/kevensen/frtsdk/redteam/event/monitor"
	"github.com/kevensen/frtsdk/redteam/nvd"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/resource"
	"github.com/kevensen/frtsdk/redteam/store"
)

// Store is everything a sync run reads and writes.
type Store interface {
	store.SourceStore
	store.CveItemStore
	store.AdvisoryMessageStore
}

// Fetcher retrieves the current payload behind a source.
type Fetcher func(ctx context.Context, src store.Source) ([]byte, error)

// ResourceFetcher fetches through the resource layer, always going to the location and refreshing the source cache
// when one is configured.
func ResourceFetcher(cfg resource.Config) Fetcher {
	return func(ctx context.Context, src store.Source) ([]byte, error) {
		c := cfg
		c.TLSVerify = src.TLSVerify
		c.CachePath = src.Cache

		var r *resource.Resource
		var err error
		if src.Kind == store.MailboxKind {
			r, err = resource.NewMailbox(src.Location, c)
		} else {
			r, err = resource.New(src.Location, c)
		}
		if err != nil {
			return nil, redteamerr.NewFetchError(src.Location, err)
		}
		return r.Update(ctx)
	}
}

type Options struct {
	NeverSynced  bool
	Failed       bool
	Success      bool
	SourceID     *int64
	SkipFailures bool
}

func (o Options) defaulted() bool {
	return !o.NeverSynced && !o.Failed && !o.Success && o.SourceID == nil
}

// SourceResult is the outcome for a single queued source. Status is empty when the source was interrupted, since
// its status is left as it was.
type SourceResult struct {
	Source   store.Source
	Status   store.SyncStatus
	Diff     *nvd.Result
	Messages *announce.Result
	Err      error
}

type Report struct {
	RunID   string
	Results []SourceResult
}

func (r Report) Count(status store.SyncStatus) int {
	var n int
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

func (r Report) Interrupted() int {
	var n int
	for _, res := range r.Results {
		if redteamerr.IsInterrupted(res.Err) {
			n++
		}
	}
	return n
}

// Orchestrator synchronizes sources one at a time, routing each payload to the diff engine or the message extractor
// by source type.
type Orchestrator struct {
	registry  *Registry
	store     Store
	extractor *announce.Extractor
	fetch     Fetcher

	lock        sync.Mutex
	cancel      context.CancelFunc
	interrupted bool
}

func NewOrchestrator(s Store, fetch Fetcher) *Orchestrator {
	return &Orchestrator{
		registry:  NewRegistry(s),
		store:     s,
		extractor: announce.NewExtractor(),
		fetch:     fetch,
	}
}

// Interrupt abandons the source currently being synchronized; the run continues with the next queued source. It
// returns false when there is nothing to interrupt or the current source was already interrupted, in which case the
// caller should cancel the whole run.
func (o *Orchestrator) Interrupt() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.cancel == nil || o.interrupted {
		return false
	}
	o.interrupted = true
	o.cancel()
	return true
}

func (o *Orchestrator) begin(ctx context.Context) context.Context {
	o.lock.Lock()
	defer o.lock.Unlock()
	srcCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.interrupted = false
	return srcCtx
}

func (o *Orchestrator) end() {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
	o.cancel = nil
	o.interrupted = false
}

// Queue resolves the sources a sync with the given options would process, in order. Filters are applied as never
// synced, failed, success, then the explicit id; with no selection the queue is every failed then every never synced
// source. A source selected twice is queued once.
func (o *Orchestrator) Queue(opts Options) ([]store.Source, error) {
	var filters []store.SyncStatus
	if opts.defaulted() {
		filters = []store.SyncStatus{store.Failed, store.NeverSynced}
	} else {
		if opts.NeverSynced {
			filters = append(filters, store.NeverSynced)
		}
		if opts.Failed {
			filters = append(filters, store.Failed)
		}
		if opts.Success {
			filters = append(filters, store.Success)
		}
	}

	var queue []store.Source
	seen := make(map[int64]struct{})
	enqueue := func(s store.Source) {
		if _, ok := seen[s.ID]; ok {
			return
		}
		seen[s.ID] = struct{}{}
		queue = append(queue, s)
	}

	for _, f := range filters {
		sources, err := o.registry.Sources(string(f))
		if err != nil {
			return nil, err
		}
		for _, s := range sources {
			enqueue(s)
		}
	}

	if opts.SourceID != nil {
		src, err := o.registry.Get(*opts.SourceID)
		if err != nil {
			return nil, err
		}
		enqueue(*src)
	}
	return queue, nil
}

// Sync processes the selected sources sequentially. A source that cannot be fetched is marked failed and, unless
// SkipFailures is set, ends the run with its FetchError. An interrupted source is dropped from the queue with its
// status untouched.
func (o *Orchestrator) Sync(ctx context.Context, opts Options) (*Report, error) {
	queue, err := o.Queue(opts)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, redteamerr.ErrNoSources
	}

	report := &Report{RunID: uuid.New().String()}
	log.WithFields("run", report.RunID, "sources", len(queue)).Info("syncing sources")

	processed := progress.NewManual(int64(len(queue)))
	failed := progress.NewManual(-1)
	interrupted := progress.NewManual(-1)
	bus.Publish(partybus.Event{
		Type: event.SyncStarted,
		Value: monitor.Sync{
			RunID:            report.RunID,
			SourcesProcessed: processed,
			Failed:           failed,
			Interrupted:      interrupted,
		},
	})
	defer func() {
		for _, m := range []*progress.Manual{processed, failed, interrupted} {
			if err != nil {
				m.SetError(err)
			}
			m.SetCompleted()
		}
	}()

	for _, src := range queue {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("sync run %s cancelled: %w", report.RunID, ctxErr)
			return report, err
		}

		result, syncErr := o.syncOne(ctx, report.RunID, src)
		report.Results = append(report.Results, result)
		processed.Increment()

		switch {
		case syncErr == nil:
		case redteamerr.IsInterrupted(syncErr):
			interrupted.Increment()
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = fmt.Errorf("sync run %s cancelled: %w", report.RunID, ctxErr)
				return report, err
			}
			log.WithFields("location", src.Location).Warn("source interrupted; skipping")
		case result.Status == store.Failed:
			failed.Increment()
			if !opts.SkipFailures {
				log.WithFields("location", src.Location).Warn("not skipping failure; stopping sync")
				err = syncErr
				return report, err
			}
			log.WithFields("location", src.Location).Warnf("skipping failed source: %v", syncErr)
		default:
			err = syncErr
			return report, err
		}
	}

	log.WithFields("run", report.RunID, "success", report.Count(store.Success), "failed", report.Count(store.Failed), "interrupted", report.Interrupted()).
		Info("sync finished")
	return report, nil
}

func (o *Orchestrator) syncOne(ctx context.Context, runID string, src store.Source) (result SourceResult, err error) {
	result.Source = src
	srcCtx := o.begin(ctx)
	defer o.end()

	bus.Publish(partybus.Event{
		Type: event.SourceSyncStarted,
		Value: monitor.SourceSync{
			RunID:    runID,
			SourceID: src.ID,
			Location: src.Location,
			Type:     src.Type(),
		},
	})
	defer func() {
		result.Err = err
		bus.Publish(partybus.Event{
			Type: event.SourceSyncFinished,
			Value: monitor.SourceSync{
				RunID:    runID,
				SourceID: src.ID,
				Location: src.Location,
				Type:     src.Type(),
				Status:   string(result.Status),
				Err:      err,
			},
		})
	}()

	fields := log.WithFields("id", src.ID, "location", src.Location, "type", src.Type())
	fields.Debug("fetching source")

	payload, err := o.fetch(srcCtx, src)
	if srcCtx.Err() != nil {
		return result, &redteamerr.InterruptedError{Location: src.Location}
	}
	if err != nil {
		return o.fail(result, err)
	}
	fields.Debugf("fetched %s", humanize.Bytes(uint64(len(payload))))

	switch src.Type() {
	case store.NVDSourceType:
		feed, decodeErr := nvd.DecodeFeed(payload)
		if decodeErr != nil {
			return o.fail(result, redteamerr.NewFetchError(src.Location, decodeErr))
		}
		diff, processErr := nvd.Process(srcCtx, o.store, feed)
		result.Diff = &diff
		err = processErr
	case store.AnnounceSourceType:
		messages, readErr := resource.ReadMessages(bytes.NewReader(payload))
		if readErr != nil {
			return o.fail(result, redteamerr.NewFetchError(src.Location, readErr))
		}
		extracted, processErr := o.extractor.Process(srcCtx, o.store, messages)
		result.Messages = &extracted
		err = processErr
	default:
		return o.fail(result, fmt.Errorf("source %q: %w", src.Section, redteamerr.ErrUnsupported))
	}

	if err != nil {
		// writes already issued for this source stay committed
		if srcCtx.Err() != nil && errors.Is(err, context.Canceled) {
			return result, &redteamerr.InterruptedError{Location: src.Location}
		}
		return result, err
	}

	if err := o.registry.SetStatus(src.ID, store.Success); err != nil {
		return result, err
	}
	result.Status = store.Success
	metrics.SourceSynced(src.Type(), string(store.Success))
	fields.Info("source synced")
	return result, nil
}

// fail marks the source failed. Errors that are not already fetch errors are reported as one for the source location.
func (o *Orchestrator) fail(result SourceResult, cause error) (SourceResult, error) {
	src := result.Source
	if !redteamerr.IsFetchError(cause) {
		cause = redteamerr.NewFetchError(src.Location, cause)
	}
	log.WithFields("location", src.Location).Warnf("failed to sync source: %v", cause)

	if err := o.registry.SetStatus(src.ID, store.Failed); err != nil {
		return result, err
	}
	result.Status = store.Failed
	metrics.SourceSynced(src.Type(), string(store.Failed))
	return result, cause
}
