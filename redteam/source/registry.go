package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
	"github.com/kevensen/frtsdk/redteam/store"
)

// AllStatuses selects every source regardless of its last status.
const AllStatuses = "all"

// Definition is a configured source as read from the application config.
type Definition struct {
	Section   string
	Location  string
	Kind      store.SourceKind
	TLSVerify bool
	Cache     string
}

func (d Definition) validate() error {
	fields := strings.Split(d.Section, ":")
	if len(fields) < 2 || fields[0] != "source" || fields[1] == "" {
		return fmt.Errorf("invalid source section %q: expected source:<type>:<subtype>:<date>", d.Section)
	}
	switch fields[1] {
	case store.NVDSourceType, store.AnnounceSourceType:
	default:
		return fmt.Errorf("source section %q: unsupported source type %q", d.Section, fields[1])
	}
	if strings.TrimSpace(d.Location) == "" {
		return fmt.Errorf("source section %q: no location given", d.Section)
	}
	switch d.Kind {
	case "", store.URLKind, store.MailboxKind:
	default:
		return fmt.Errorf("source section %q: unsupported kind %q", d.Section, d.Kind)
	}
	return nil
}

// kind defaults by source type: mailing list archives are mailboxes, everything else is a plain url.
func (d Definition) kind() store.SourceKind {
	if d.Kind != "" {
		return d.Kind
	}
	if strings.HasPrefix(d.Section, "source:"+store.AnnounceSourceType+":") {
		return store.MailboxKind
	}
	return store.URLKind
}

// Summary is the listing view of a source.
type Summary struct {
	SourceID       int64
	Section        string
	Location       string
	LastStatus     store.SyncStatus
	LastStatusDate time.Time
}

func summarize(s store.Source) Summary {
	sum := Summary{
		SourceID:   s.ID,
		Section:    s.Section,
		Location:   s.Location,
		LastStatus: s.Status(),
	}
	if last := s.LastStatus(); last != nil {
		sum.LastStatusDate = last.Date
	}
	return sum
}

// LoadResult reports which sources a load created and which it updated, by id.
type LoadResult struct {
	Created []int64
	Updated []int64
}

// Registry keeps the configured sources and their status history.
type Registry struct {
	store store.SourceStore
	now   func() time.Time
}

func NewRegistry(s store.SourceStore) *Registry {
	return &Registry{
		store: s,
		now:   time.Now,
	}
}

// Load creates a source for every new section and refreshes the settings of sections already known. Statuses are
// never touched for existing sources. With clean, every source and its history are dropped first.
func (r *Registry) Load(ctx context.Context, defs []Definition, clean bool) (*LoadResult, error) {
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
	}

	if clean {
		log.Debug("dropping all sources")
		if err := r.store.DeleteSources(); err != nil {
			return nil, fmt.Errorf("unable to clean sources: %w", err)
		}
	}

	result := &LoadResult{}
	for _, d := range defs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		existing, err := r.store.GetSourceBySection(d.Section)
		switch {
		case redteamerr.IsNotFound(err):
			src := &store.Source{
				Section:   d.Section,
				Location:  d.Location,
				Kind:      d.kind(),
				TLSVerify: d.TLSVerify,
				Cache:     d.Cache,
			}
			if err := r.store.AddSource(src); err != nil {
				return result, err
			}
			if _, err := r.store.AddStatus(src.ID, store.NeverSynced, r.now()); err != nil {
				return result, err
			}
			log.WithFields("id", src.ID, "section", src.Section, "location", src.Location).Debug("source created")
			result.Created = append(result.Created, src.ID)
		case err != nil:
			return result, err
		default:
			existing.Location = d.Location
			existing.Kind = d.kind()
			existing.TLSVerify = d.TLSVerify
			existing.Cache = d.Cache
			if err := r.store.UpdateSource(*existing); err != nil {
				return result, err
			}
			log.WithFields("id", existing.ID, "section", existing.Section, "location", existing.Location).Debug("source updated")
			result.Updated = append(result.Updated, existing.ID)
		}
	}

	log.WithFields("created", len(result.Created), "updated", len(result.Updated)).Info("sources loaded")
	return result, nil
}

// Sources returns every source whose last status matches, ordered by id. The "all" filter matches every source.
func (r *Registry) Sources(filter string) ([]store.Source, error) {
	all, err := r.store.AllSources()
	if err != nil {
		return nil, err
	}
	if filter == "" || filter == AllStatuses {
		return all, nil
	}

	status, err := store.ParseSyncStatus(filter)
	if err != nil {
		return nil, err
	}

	var matched []store.Source
	for _, s := range all {
		if s.Status() == status {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (r *Registry) List(filter string) ([]Summary, error) {
	sources, err := r.Sources(filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(sources))
	for _, s := range sources {
		summaries = append(summaries, summarize(s))
	}
	return summaries, nil
}

func (r *Registry) Get(id int64) (*store.Source, error) {
	return r.store.GetSource(id)
}

// Reset marks a single source (or every source when id is nil) as never synced, so the next default sync picks it up.
func (r *Registry) Reset(id *int64) (int, error) {
	var targets []store.Source
	if id != nil {
		src, err := r.store.GetSource(*id)
		if err != nil {
			return 0, err
		}
		targets = append(targets, *src)
	} else {
		all, err := r.store.AllSources()
		if err != nil {
			return 0, err
		}
		targets = all
	}

	for _, s := range targets {
		fields := log.WithFields("id", s.ID, "location", s.Location, "from", s.Status())
		if err := r.SetStatus(s.ID, store.NeverSynced); err != nil {
			return 0, err
		}
		fields.Debug("source status reset")
	}
	return len(targets), nil
}

// SetStatus appends a status transition to the history of the source.
func (r *Registry) SetStatus(id int64, status store.SyncStatus) error {
	if _, err := r.store.AddStatus(id, status, r.now()); err != nil {
		return fmt.Errorf("unable to set status for source %d: %w", id, err)
	}
	return nil
}

func (r *Registry) History(id int64) ([]store.SourceStatus, error) {
	if _, err := r.store.GetSource(id); err != nil {
		return nil, err
	}
	return r.store.SourceHistory(id)
}

// ParseID parses a source id as given on the command line.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid source id %q", s)
	}
	return id, nil
}
