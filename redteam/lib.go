package redteam

import (
	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/internal/bus"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/logger"
)

func SetLogger(l logger.Logger) {
	log.Log = l
}

func SetBus(b *partybus.Bus) {
	bus.Set(b)
}
