package parsers

import (
	"fmt"

	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/redteam/event"
	"github.com/kevensen/frtsdk/redteam/event/monitor"
)

type ErrBadPayload struct {
	Type  partybus.EventType
	Field string
	Value interface{}
}

func (e *ErrBadPayload) Error() string {
	return fmt.Sprintf("event='%s' has bad event payload field='%v': '%+v'", string(e.Type), e.Field, e.Value)
}

func newPayloadErr(t partybus.EventType, field string, value interface{}) error {
	return &ErrBadPayload{
		Type:  t,
		Field: field,
		Value: value,
	}
}

func checkEventType(actual, expected partybus.EventType) error {
	if actual != expected {
		return newPayloadErr(expected, "Type", actual)
	}
	return nil
}

func ParseSyncStarted(e partybus.Event) (*monitor.Sync, error) {
	if err := checkEventType(e.Type, event.SyncStarted); err != nil {
		return nil, err
	}

	mon, ok := e.Value.(monitor.Sync)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &mon, nil
}

func ParseSourceSyncStarted(e partybus.Event) (*monitor.SourceSync, error) {
	return parseSourceSync(e, event.SourceSyncStarted)
}

func ParseSourceSyncFinished(e partybus.Event) (*monitor.SourceSync, error) {
	return parseSourceSync(e, event.SourceSyncFinished)
}

func parseSourceSync(e partybus.Event, expected partybus.EventType) (*monitor.SourceSync, error) {
	if err := checkEventType(e.Type, expected); err != nil {
		return nil, err
	}

	src, ok := e.Value.(monitor.SourceSync)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &src, nil
}

func ParseFeedDiffStarted(e partybus.Event) (*monitor.FeedDiff, error) {
	if err := checkEventType(e.Type, event.FeedDiffStarted); err != nil {
		return nil, err
	}

	mon, ok := e.Value.(monitor.FeedDiff)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &mon, nil
}

func ParseMessageExtractionStarted(e partybus.Event) (*monitor.Extraction, error) {
	if err := checkEventType(e.Type, event.MessageExtractionStarted); err != nil {
		return nil, err
	}

	mon, ok := e.Value.(monitor.Extraction)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &mon, nil
}

func ParseAggregationStarted(e partybus.Event) (*monitor.Aggregation, error) {
	if err := checkEventType(e.Type, event.AggregationStarted); err != nil {
		return nil, err
	}

	mon, ok := e.Value.(monitor.Aggregation)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &mon, nil
}

func ParseDownloadStarted(e partybus.Event) (*monitor.Download, error) {
	if err := checkEventType(e.Type, event.DownloadStarted); err != nil {
		return nil, err
	}

	mon, ok := e.Value.(monitor.Download)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &mon, nil
}

func ParseNonRootCommandFinished(e partybus.Event) (*string, error) {
	if err := checkEventType(e.Type, event.NonRootCommandFinished); err != nil {
		return nil, err
	}

	result, ok := e.Value.(string)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &result, nil
}
