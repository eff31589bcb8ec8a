package observer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

var channelSeq atomic.Uint64

// ChannelObserver forwards one session's events to a buffered channel.
// Delivery never blocks the publisher: when the buffer is full the
// event is dropped and counted.
type ChannelObserver struct {
	name      string
	sessionID string
	events    chan CaptureEvent

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewChannelObserver creates an observer for sessionID's events.
// An empty sessionID receives every event.
func NewChannelObserver(sessionID string, buffer int) *ChannelObserver {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelObserver{
		name:      fmt.Sprintf("channel_observer_%d", channelSeq.Add(1)),
		sessionID: sessionID,
		events:    make(chan CaptureEvent, buffer),
	}
}

// Events returns the receive side; it is closed by Close
func (o *ChannelObserver) Events() <-chan CaptureEvent {
	return o.events
}

// OnEvent queues the event if it belongs to the watched session
func (o *ChannelObserver) OnEvent(ctx context.Context, event CaptureEvent) {
	if o.sessionID != "" && event.SessionID != o.sessionID {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.events <- event:
	default:
		o.dropped++
	}
}

// Dropped returns how many events did not fit in the buffer
func (o *ChannelObserver) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Close stops delivery and closes the channel. Safe to call twice.
func (o *ChannelObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.events)
	}
}

// GetObserverName returns the observer name
func (o *ChannelObserver) GetObserverName() string {
	return o.name
}
