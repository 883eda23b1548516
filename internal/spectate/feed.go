package spectate

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/townsim/server/internal/world"
)

// SnapshotSource is the read side of the world the feed needs.
type SnapshotSource interface {
	Snapshot() world.Snapshot
}

// Feed turns render callbacks into snapshot broadcasts, one every N frames.
// Render is called from the scheduler goroutine outside the world lock.
type Feed struct {
	src   SnapshotSource
	hub   *Hub
	every uint64
	frame uint64
	log   *zap.Logger
}

func NewFeed(src SnapshotSource, hub *Hub, everyFrames int, log *zap.Logger) *Feed {
	if everyFrames < 1 {
		everyFrames = 1
	}
	return &Feed{src: src, hub: hub, every: uint64(everyFrames), log: log}
}

func (f *Feed) Render() {
	f.frame++
	if f.frame%f.every != 0 || f.hub.Clients() == 0 {
		return
	}
	payload, err := json.Marshal(f.src.Snapshot())
	if err != nil {
		f.log.Error("encode snapshot", zap.Error(err))
		return
	}
	f.hub.Broadcast(payload)
}
