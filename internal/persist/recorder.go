package persist

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/townsim/server/internal/config"
	"github.com/townsim/server/internal/core/event"
)

const maxBatch = 256

type record struct {
	entry  *LedgerEntry
	report *DayReport
}

// Recorder copies treasury movements and day reports from the event bus into
// the ledger. Handlers only enqueue; a full queue drops the record and counts
// it. Run drains the queue in batches on its own goroutine.
type Recorder struct {
	repo     *LedgerRepo
	runID    string
	queue    chan record
	interval time.Duration
	log      *zap.Logger

	day     atomic.Int64
	dropped atomic.Int64
}

func NewRecorder(repo *LedgerRepo, bus *event.Bus, cfg config.LedgerConfig, log *zap.Logger) *Recorder {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	r := &Recorder{
		repo:     repo,
		runID:    uuid.NewString(),
		queue:    make(chan record, size),
		interval: interval,
		log:      log,
	}
	r.day.Store(1)

	event.Subscribe(bus, r.onSoulsChanged)
	event.Subscribe(bus, r.onDayPassed)
	return r
}

func (r *Recorder) RunID() string  { return r.runID }
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

func (r *Recorder) onSoulsChanged(ev event.SoulsChanged) {
	r.enqueue(record{entry: &LedgerEntry{
		RunID:   r.runID,
		Day:     int(r.day.Load()),
		Delta:   ev.Delta,
		Balance: ev.Balance,
		Reason:  ev.Reason,
		AtMs:    time.Now().UnixMilli(),
	}})
}

func (r *Recorder) onDayPassed(ev event.DayPassed) {
	r.day.Store(int64(ev.Day))
	r.enqueue(record{report: &DayReport{
		RunID:      r.runID,
		Day:        ev.Day,
		Population: ev.Population,
		Souls:      ev.Souls,
		AtMs:       time.Now().UnixMilli(),
	}})
}

func (r *Recorder) enqueue(rec record) {
	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
	}
}

// Run flushes queued records every interval, or sooner when a batch fills,
// until ctx is cancelled. Whatever is still queued then is written before
// Run returns.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var entries []LedgerEntry
	var reports []DayReport
	flush := func(ctx context.Context) {
		if len(entries) == 0 && len(reports) == 0 {
			return
		}
		if err := r.repo.WriteBatch(ctx, entries, reports); err != nil {
			r.log.Error("ledger flush failed",
				zap.Int("entries", len(entries)),
				zap.Int("reports", len(reports)),
				zap.Error(err))
		} else {
			r.log.Debug("ledger flushed",
				zap.Int("entries", len(entries)),
				zap.Int("reports", len(reports)))
		}
		entries, reports = entries[:0], reports[:0]
	}
	add := func(rec record) {
		if rec.entry != nil {
			entries = append(entries, *rec.entry)
		}
		if rec.report != nil {
			reports = append(reports, *rec.report)
		}
	}

	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case rec := <-r.queue:
					add(rec)
				default:
					break drain
				}
			}
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(shutdown)
			cancel()
			if n := r.dropped.Load(); n > 0 {
				r.log.Warn("ledger records dropped", zap.Int64("count", n))
			}
			return
		case rec := <-r.queue:
			add(rec)
			if len(entries)+len(reports) >= maxBatch {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
