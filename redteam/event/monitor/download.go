package monitor

import "github.com/wagoodman/go-progress"

// Download tracks the bytes received for a remote archive. The size is unknown until the server reports it.
type Download struct {
	Location string
	Progress progress.Progressable
}
