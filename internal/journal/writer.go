package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"soundpills/internal/logging"
	"soundpills/internal/spawn"
)

// maxBatch bounds the events written per transaction.
const maxBatch = 128

type eventKind int

const (
	eventSpawn eventKind = iota
	eventExpire
)

type event struct {
	kind   eventKind
	entity spawn.Entity
}

// Writer records store lifecycle events asynchronously. It implements
// spawn.Observer; events that do not fit in the buffer are dropped and
// counted rather than blocking the caller.
type Writer struct {
	store     *Store
	sessionID string
	clock     clockwork.Clock
	logger    *slog.Logger

	mu      sync.RWMutex
	closed  bool
	events  chan event
	done    chan struct{}
	dropped atomic.Int64
	written atomic.Int64
}

// NewWriter builds a writer for one session. Call Run to start it.
func NewWriter(store *Store, sessionID string, bufferSize int, clock clockwork.Clock, logger *slog.Logger) *Writer {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Writer{
		store:     store,
		sessionID: sessionID,
		clock:     clock,
		logger:    logging.NewComponentLogger(logger, "journal"),
		events:    make(chan event, bufferSize),
		done:      make(chan struct{}),
	}
}

func (w *Writer) OnSpawn(e spawn.Entity) { w.enqueue(event{kind: eventSpawn, entity: e}) }

func (w *Writer) OnExpire(e spawn.Entity) { w.enqueue(event{kind: eventExpire, entity: e}) }

func (w *Writer) enqueue(ev event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.events <- ev:
	default:
		if n := w.dropped.Add(1); n == 1 || n%100 == 0 {
			logging.WarnWithContext(w.logger, "journal buffer full; dropping events", "journal_overflow",
				logging.Int64("dropped", n),
				logging.String(logging.FieldErrorHint, "raise journal.buffer_size"),
				logging.String(logging.FieldImpact, "session history is incomplete"),
			)
		}
	}
}

// Run writes events until Close is called and the buffer is drained. Writes
// outlive ctx cancellation so the final events are kept.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	writeCtx := context.WithoutCancel(ctx)
	for ev := range w.events {
		batch := []event{ev}
	drain:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-w.events:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		w.flush(writeCtx, batch)
	}
}

func (w *Writer) flush(ctx context.Context, batch []event) {
	var spawned []spawn.Entity
	var expired []string
	for _, ev := range batch {
		switch ev.kind {
		case eventSpawn:
			spawned = append(spawned, ev.entity)
		case eventExpire:
			expired = append(expired, ev.entity.ID)
		}
	}
	if err := w.store.RecordSpawns(ctx, w.sessionID, spawned); err != nil {
		logging.WarnWithContext(w.logger, "journal spawn write failed", "journal_write_failed",
			logging.Error(err),
			logging.Int("events", len(spawned)),
			logging.String(logging.FieldImpact, "spawns missing from session history"),
		)
	} else {
		w.written.Add(int64(len(spawned)))
	}
	if err := w.store.RecordExpiries(ctx, w.sessionID, expired, w.clock.Now()); err != nil {
		logging.WarnWithContext(w.logger, "journal expiry write failed", "journal_write_failed",
			logging.Error(err),
			logging.Int("events", len(expired)),
			logging.String(logging.FieldImpact, "expiry times missing from session history"),
		)
	}
}

// Close stops accepting events and waits for Run to drain the buffer. Run
// must have been started.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
	w.mu.Unlock()
	<-w.done
}

// Dropped returns the number of events discarded on overflow.
func (w *Writer) Dropped() int64 { return w.dropped.Load() }

// Written returns the number of spawns persisted.
func (w *Writer) Written() int64 { return w.written.Load() }
