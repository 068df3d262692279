package monitor

import "github.com/wagoodman/go-progress"

type Sync struct {
	RunID            string
	SourcesProcessed progress.Progressable
	Failed           progress.Monitorable
	Interrupted      progress.Monitorable
}

// SourceSync describes a single source as it is picked up and once it has been settled. Status and Err are only
// populated on the finished event.
type SourceSync struct {
	RunID    string
	SourceID int64
	Location string
	Type     string
	Status   string
	Err      error
}
