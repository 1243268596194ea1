package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Channel():
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
	return Event{}
}

// TestBasicPubSub tests basic publish/subscribe functionality
func TestBasicPubSub(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	sub, err := ps.Subscribe(context.Background(), TopicNodeSelected)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	ps.Publish(TopicNodeSelected, "gov")

	ev := receive(t, sub)
	if ev.Topic != TopicNodeSelected || ev.Payload != "gov" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Time.IsZero() {
		t.Error("event time not set")
	}
}

func TestMultipleTopicsAndIsolation(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()
	ctx := context.Background()

	both, _ := ps.Subscribe(ctx, TopicPathUpdated, TopicControlsChanged)
	frames, _ := ps.Subscribe(ctx, TopicFrame)

	ps.Publish(TopicPathUpdated, 1)
	ps.Publish(TopicControlsChanged, 2)

	if ev := receive(t, both); ev.Payload != 1 {
		t.Errorf("first event = %+v", ev)
	}
	if ev := receive(t, both); ev.Payload != 2 {
		t.Errorf("second event = %+v", ev)
	}
	select {
	case ev := <-frames.Channel():
		t.Errorf("frame subscriber received %+v", ev)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	sub, _ := ps.Subscribe(context.Background(), TopicFrame, TopicPathUpdated)
	if ps.GetSubscriberCount(TopicFrame) != 1 || ps.GetSubscriberCount(TopicPathUpdated) != 1 {
		t.Fatal("subscription not registered")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()

	if n := ps.GetSubscriberCount(TopicFrame); n != 0 {
		t.Errorf("subscriber count = %d after unsubscribe", n)
	}
	if _, ok := <-sub.Channel(); ok {
		t.Error("channel should be closed")
	}
	ps.Publish(TopicFrame, "after")
}

func TestContextCancellation(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := ps.Subscribe(ctx, TopicFrame)
	cancel()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	ps := NewPubSubWithBuffer(2)
	defer ps.Shutdown()

	sub, _ := ps.Subscribe(context.Background(), TopicFrame)
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			ps.Publish(TopicFrame, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	if got := ps.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if ev := receive(t, sub); ev.Payload != 0 {
		t.Errorf("oldest event = %v, want 0", ev.Payload)
	}
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		sub, _ := ps.Subscribe(context.Background(), TopicFrame)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ps.Publish(TopicFrame, j)
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
}

func TestShutdown(t *testing.T) {
	ps := NewPubSub()
	sub, _ := ps.Subscribe(context.Background(), TopicFrame)

	ps.Shutdown()
	ps.Shutdown()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed on shutdown")
	}

	if _, err := ps.Subscribe(context.Background(), TopicFrame); !errors.Is(err, ErrShutdown) {
		t.Errorf("Subscribe after shutdown error = %v, want ErrShutdown", err)
	}
	ps.Publish(TopicFrame, "ignored")
}
