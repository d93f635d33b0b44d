package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns every event currently buffered on ch without waiting.
func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func kinds(events []*Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestCoordinator() *Coordinator {
	return NewCoordinator(Options{
		Now: func() time.Time { return time.Unix(1700000000, 0) },
	})
}

func connect(t *testing.T, c *Coordinator, id, name string) *Client {
	t.Helper()

	client := NewClient(id, 64)
	if _, err := c.Connect(client, name); err != nil {
		t.Fatalf("connect %s: %v", id, err)
	}
	return client
}
