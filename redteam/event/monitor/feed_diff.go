package monitor

import "github.com/wagoodman/go-progress"

type FeedDiff struct {
	RecordsProcessed progress.Progressable
	Added            progress.Monitorable
	Modified         progress.Monitorable
	Skipped          progress.Monitorable
}
