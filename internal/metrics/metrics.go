package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kevensen/frtsdk/internal"
)

// Collectors holds the counters recorded over a single run of the application.
type Collectors struct {
	registry      *prometheus.Registry
	sourceSyncs   *prometheus.CounterVec
	feedRecords   *prometheus.CounterVec
	messages      *prometheus.CounterVec
	cvrfRevisions *prometheus.CounterVec
}

func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		sourceSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: internal.ApplicationName,
			Name:      "source_sync_total",
			Help:      "Source sync attempts by source type and resulting status.",
		}, []string{"type", "status"}),
		feedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: internal.ApplicationName,
			Name:      "feed_records_total",
			Help:      "Vulnerability feed records by diff classification.",
		}, []string{"classification"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: internal.ApplicationName,
			Name:      "messages_total",
			Help:      "Archived mailing list messages by extraction outcome.",
		}, []string{"outcome"}),
		cvrfRevisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: internal.ApplicationName,
			Name:      "cvrf_revisions_total",
			Help:      "Advisory documents written by aggregation outcome.",
		}, []string{"outcome"}),
	}

	c.registry.MustRegister(c.sourceSyncs, c.feedRecords, c.messages, c.cvrfRevisions)
	return c
}

func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current values in the text exposition format (for the node exporter textfile collector).
func (c *Collectors) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("unable to write metrics to %q: %w", path, err)
	}
	return nil
}

var (
	lock    sync.RWMutex
	current = New()
)

// Set replaces the collectors that the package level helpers record into.
func Set(c *Collectors) {
	lock.Lock()
	defer lock.Unlock()
	current = c
}

func Current() *Collectors {
	lock.RLock()
	defer lock.RUnlock()
	return current
}

func SourceSynced(sourceType, status string) {
	Current().sourceSyncs.WithLabelValues(sourceType, status).Inc()
}

func FeedRecords(classification string, count int) {
	Current().feedRecords.WithLabelValues(classification).Add(float64(count))
}

func Messages(outcome string, count int) {
	Current().messages.WithLabelValues(outcome).Add(float64(count))
}

func CVRFRevisions(outcome string, count int) {
	Current().cvrfRevisions.WithLabelValues(outcome).Add(float64(count))
}
