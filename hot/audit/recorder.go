// Package audit writes the append-only execution trail. Recording happens
// off the invocation path: Record hands the entry to a background worker
// and returns immediately, so a slow or failing audit write can never slow
// down or fail an invocation.
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vandanapadala-pg/hotcommands/db"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

const (
	defaultBufferSize   = 256
	defaultPersistLimit = 5 * time.Second
)

// Recorder accepts execution records and persists them asynchronously.
type Recorder struct {
	store  *Store
	logger *zap.SugaredLogger

	queue chan *types.ExecutionRecord
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool

	dropped int64
}

// NewRecorder starts the background persist worker. bufferSize <= 0 uses
// the default. Close must be called to drain pending records.
func NewRecorder(store *Store, logger *zap.SugaredLogger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		queue:  make(chan *types.ExecutionRecord, bufferSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues one execution record. Never blocks: when the buffer is
// full or the recorder is closed the record is dropped with a warning.
func (r *Recorder) Record(rec *types.ExecutionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.drop(rec, "recorder closed")
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.drop(rec, "buffer full")
	}
}

func (r *Recorder) drop(rec *types.ExecutionRecord, reason string) {
	r.dropped++
	if r.logger != nil {
		r.logger.Warnw("Dropped execution record",
			"execution_id", rec.ID,
			"command_id", rec.CommandID,
			"reason", reason,
		)
	}
}

// Dropped reports how many records were discarded instead of persisted.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting records, drains the buffer, and waits for the
// worker to finish persisting.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.queue)
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), defaultPersistLimit)
		err := r.store.Insert(ctx, rec)
		cancel()
		if err == nil || r.logger == nil {
			continue
		}
		if db.IsDatabaseClosed(err) {
			// Shutdown race: the database went away while the queue drained
			r.logger.Debugw("Discarded execution record, database closed",
				"execution_id", rec.ID,
				"command_id", rec.CommandID,
			)
			continue
		}
		// Audit failure is logged, never surfaced to the invoker
		r.logger.Warnw("Failed to persist execution record",
			"execution_id", rec.ID,
			"command_id", rec.CommandID,
			"error", err,
		)
	}
}
