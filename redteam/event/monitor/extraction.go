package monitor

import "github.com/wagoodman/go-progress"

type Extraction struct {
	MessagesProcessed progress.Progressable
	Added             progress.Monitorable
	Dropped           progress.Monitorable
}

type Aggregation struct {
	MessagesProcessed progress.Progressable
	Created           progress.Monitorable
	Revised           progress.Monitorable
}
