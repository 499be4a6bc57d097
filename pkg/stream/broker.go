package stream

import (
	"context"
	"sync"

	"github.com/graphlapse/graphlapse/pkg/engine"
)

// FrameEvent is one computed layout frame, broadcast to watchers of its
// session.
type FrameEvent struct {
	SessionID string         `json:"sessionId"`
	Frame     int64          `json:"frame"`
	Output    *engine.Output `json:"output"`
}

// Broker fans frame events out to in-process subscribers, one topic per
// session. Slow subscribers drop frames rather than stalling the producer;
// a layout consumer only ever wants the newest frame anyway.
type Broker struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
}

// Subscription is one watcher's handle on a session's frame feed.
type Subscription struct {
	sessionID string
	channel   chan *FrameEvent
	broker    *Broker
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe registers a watcher for one session's frames. Returns nil after
// shutdown.
func (b *Broker) Subscribe(ctx context.Context, sessionID string) *Subscription {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		sessionID: sessionID,
		channel:   make(chan *FrameEvent, 16),
		broker:    b,
		ctx:       subCtx,
		cancel:    cancel,
	}

	b.mu.Lock()
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[*Subscription]bool)
	}
	b.subscribers[sessionID][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub
}

// Publish delivers an event to every watcher of its session. Sends happen
// outside the lock on a snapshot of the subscriber set, so a slow or
// concurrently-unsubscribing watcher cannot block delivery to the rest.
func (b *Broker) Publish(event *FrameEvent) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	b.mu.RLock()
	sessionSubs := b.subscribers[event.SessionID]
	if len(sessionSubs) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(sessionSubs))
	for sub := range sessionSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.channel <- event:
		default:
			// Buffer full; the watcher catches up on the next frame.
		}
	}
}

// SubscriberCount returns the number of watchers on a session.
func (b *Broker) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionID])
}

// TotalSubscribers returns the number of watchers across all sessions.
func (b *Broker) TotalSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, subs := range b.subscribers {
		total += len(subs)
	}
	return total
}

// Shutdown closes every subscription and rejects future ones.
func (b *Broker) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for sessionID := range b.subscribers {
		for sub := range b.subscribers[sessionID] {
			sub.close()
		}
		delete(b.subscribers, sessionID)
	}
	b.mu.Unlock()
}

// Channel returns the subscription's frame feed. Closed on unsubscribe or
// broker shutdown.
func (s *Subscription) Channel() <-chan *FrameEvent {
	return s.channel
}

// Unsubscribe detaches the watcher and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	if s.broker.subscribers[s.sessionID] != nil {
		delete(s.broker.subscribers[s.sessionID], s)
		if len(s.broker.subscribers[s.sessionID]) == 0 {
			delete(s.broker.subscribers, s.sessionID)
		}
	}

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
