// Package bus holds the publisher that library code reports progress events to. Nothing is published until a
// publisher is set.
package bus

import (
	"sync"

	"github.com/wagoodman/go-partybus"
)

var (
	lock      sync.RWMutex
	publisher partybus.Publisher
)

func Set(p partybus.Publisher) {
	lock.Lock()
	defer lock.Unlock()
	publisher = p
}

func Publish(e partybus.Event) {
	lock.RLock()
	p := publisher
	lock.RUnlock()
	if p != nil {
		p.Publish(e)
	}
}
