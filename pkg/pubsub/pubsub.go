// Package pubsub fans layout events out to in-process listeners: the
// WebSocket hub, the frame feed and the terminal UI.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Topic names an event stream.
type Topic string

const (
	TopicNodeSelected    Topic = "node.selected"
	TopicPathUpdated     Topic = "path.updated"
	TopicCatalogImported Topic = "catalog.imported"
	TopicControlsChanged Topic = "controls.changed"
	TopicFrame           Topic = "frame"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 64

// ErrShutdown is returned when subscribing to a closed bus.
var ErrShutdown = errors.New("pubsub: shut down")

// Event is one published message.
type Event struct {
	Topic   Topic     `json:"topic"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// PubSub provides publish/subscribe functionality for real-time updates.
// Publishing never blocks: a subscriber whose queue is full misses the
// event and the drop is counted.
type PubSub struct {
	subscribers map[Topic]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     atomic.Uint64
}

// Subscription represents a subscription to one or more topics
type Subscription struct {
	topics  []Topic
	channel chan Event
	ps      *PubSub
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPubSub creates a new PubSub instance with DefaultBuffer queues.
func NewPubSub() *PubSub {
	return NewPubSubWithBuffer(DefaultBuffer)
}

// NewPubSubWithBuffer creates a PubSub whose subscriptions queue up to n
// events.
func NewPubSubWithBuffer(n int) *PubSub {
	if n <= 0 {
		n = DefaultBuffer
	}
	return &PubSub{
		subscribers: make(map[Topic]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      n,
	}
}

// Subscribe creates a subscription to the given topics. It ends when ctx is
// cancelled, Unsubscribe is called or the bus shuts down; the channel is
// closed in every case.
func (ps *PubSub) Subscribe(ctx context.Context, topics ...Topic) (*Subscription, error) {
	ps.shutdownMu.Lock()
	defer ps.shutdownMu.Unlock()
	if ps.isShutdown {
		return nil, ErrShutdown
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topics:  topics,
		channel: make(chan Event, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	for _, topic := range topics {
		if ps.subscribers[topic] == nil {
			ps.subscribers[topic] = make(map[*Subscription]bool)
		}
		ps.subscribers[topic][sub] = true
	}
	ps.mu.Unlock()

	// Monitor context cancellation
	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends payload to every subscriber of topic.
func (ps *PubSub) Publish(topic Topic, payload any) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.shutdownMu.Unlock()

	// Snapshot so a concurrent Unsubscribe cannot modify the map mid-range.
	ps.mu.RLock()
	topicSubs := ps.subscribers[topic]
	if len(topicSubs) == 0 {
		ps.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	ps.mu.RUnlock()

	ev := Event{Topic: topic, Time: time.Now().UTC(), Payload: payload}
	for _, sub := range subs {
		if !sub.send(ev) {
			ps.dropped.Add(1)
		}
	}
}

// GetSubscriberCount returns the number of subscribers for a topic
func (ps *PubSub) GetSubscriberCount(topic Topic) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Dropped returns the number of events skipped because a queue was full.
func (ps *PubSub) Dropped() uint64 {
	return ps.dropped.Load()
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic := range ps.subscribers {
		for sub := range ps.subscribers[topic] {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's event channel
func (s *Subscription) Channel() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	for _, topic := range s.topics {
		if s.ps.subscribers[topic] != nil {
			delete(s.ps.subscribers[topic], s)
			if len(s.ps.subscribers[topic]) == 0 {
				delete(s.ps.subscribers, topic)
			}
		}
	}
	s.ps.mu.Unlock()

	s.close()
}

func (s *Subscription) send(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.channel <- ev:
		return true
	default:
		return false
	}
}

// close closes the subscription channel safely (idempotent)
func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.channel)
	}
}
