package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink persists accepted events. Implementations must tolerate concurrent
// Insert calls.
type Sink interface {
	Insert(ctx context.Context, ev Event) error
}

// Recorder accepts events without ever blocking or failing the caller.
// Events flow through a bounded buffer to a single writer goroutine; a full
// buffer drops the event with a log line, and sink failures are logged and
// swallowed.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
	events chan Event
	now    func() time.Time

	// OnDrop, when set, is called once per dropped event.
	OnDrop func()

	closeOnce sync.Once
	done      chan struct{}
	drained   chan struct{}
}

const (
	recorderBuffer   = 256
	sinkWriteTimeout = 5 * time.Second
)

// NewRecorder starts the background writer.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	r := &Recorder{
		sink:    sink,
		logger:  logger,
		events:  make(chan Event, recorderBuffer),
		now:     time.Now,
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go r.run()
	return r
}

// Record submits an event. It never blocks and never returns an error;
// auditing is observability, not a business invariant.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}
	select {
	case r.events <- ev:
	default:
		if r.OnDrop != nil {
			r.OnDrop()
		}
		if r.logger != nil {
			r.logger.Warn("audit buffer full, dropping event",
				slog.String("action", ev.Action))
		}
	}
}

// Close stops accepting events and drains the buffer.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		<-r.drained
	})
}

func (r *Recorder) run() {
	defer close(r.drained)
	for {
		select {
		case ev := <-r.events:
			r.write(ev)
		case <-r.done:
			for {
				select {
				case ev := <-r.events:
					r.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()
	if err := r.sink.Insert(ctx, ev); err != nil && r.logger != nil {
		r.logger.Error("audit write failed",
			slog.String("action", ev.Action),
			slog.Any("error", err))
	}
}
