package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *captureSink) Insert(_ context.Context, ev Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestRecorderWritesEvents(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink, nil)

	r.Record(context.Background(), Event{Action: ActionAuthLogin, ActorID: "u1"})
	r.Close()

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, ActionAuthLogin, events[0].Action)
	assert.False(t, events[0].CreatedAt.IsZero(), "recorder should stamp CreatedAt")
}

func TestRecorderPreservesExplicitCreatedAt(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink, nil)

	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r.Record(context.Background(), Event{Action: ActionAuthLogin, CreatedAt: stamp})
	r.Close()

	events := sink.all()
	require.Len(t, events, 1)
	assert.True(t, events[0].CreatedAt.Equal(stamp))
}

func TestRecorderNeverBlocksWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := &captureSink{block: block}
	r := NewRecorder(sink, nil)
	drops := 0
	r.OnDrop = func() { drops++ }

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < recorderBuffer*2; i++ {
			r.Record(context.Background(), Event{Action: ActionAuthLogin})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
	assert.Positive(t, drops, "expected drops once the buffer filled")

	close(block)
	r.Close()
}

func TestRecorderSwallowsSinkFailures(t *testing.T) {
	sink := &captureSink{err: errors.New("insert failed")}
	r := NewRecorder(sink, nil)

	// Must not panic or surface the failure to the caller.
	r.Record(context.Background(), Event{Action: ActionAuthLogin})
	r.Close()
}

func TestRecorderCloseDrains(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink, nil)

	for i := 0; i < 10; i++ {
		r.Record(context.Background(), Event{Action: ActionAuthLogin})
	}
	r.Close()

	assert.Len(t, sink.all(), 10)
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	r := NewRecorder(&captureSink{}, nil)
	r.Close()
	r.Close()
}
