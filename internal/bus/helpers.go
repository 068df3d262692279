package bus

import (
	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/redteam/event"
)

// Report publishes the final output of a command for the UI to present.
func Report(report string) {
	Publish(partybus.Event{
		Type:  event.NonRootCommandFinished,
		Value: report,
	})
}
