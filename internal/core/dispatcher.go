package core

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// MemberSource provides the member ids of a room.
type MemberSource interface {
	Members(room string) []string
}

// DispatchStats are cumulative delivery counters.
type DispatchStats struct {
	Connections int
	Delivered   uint64
	Dropped     uint64
}

// Dispatcher delivers events to the outbound channels of attached connections.
// Delivery never blocks: a full buffer drops the event for that recipient only.
type Dispatcher struct {
	mu      sync.RWMutex
	clients map[string]*Client
	members MemberSource
	log     *zerolog.Logger

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher creates a dispatcher resolving room membership through members.
func NewDispatcher(members MemberSource, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		clients: make(map[string]*Client),
		members: members,
		log:     logger,
	}
}

// Attach makes client reachable by its id.
func (d *Dispatcher) Attach(client *Client) {
	d.mu.Lock()
	d.clients[client.ID] = client
	d.mu.Unlock()
}

// Detach forgets a connection. Later deliveries to it are silent no-ops.
func (d *Dispatcher) Detach(id string) {
	d.mu.Lock()
	delete(d.clients, id)
	d.mu.Unlock()
}

// Broadcast sends event to every member of room except exclude (empty excludes nobody).
// Membership is snapshotted once at call time.
func (d *Dispatcher) Broadcast(room string, event *Event, exclude string) int {
	sent := 0
	for _, id := range d.members.Members(room) {
		if exclude != "" && id == exclude {
			continue
		}
		if d.SendTo(id, event) {
			sent++
		}
	}
	return sent
}

// SendTo delivers event to exactly one connection. Returns false if it was not delivered.
func (d *Dispatcher) SendTo(id string, event *Event) bool {
	d.mu.RLock()
	client, ok := d.clients[id]
	d.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.Events <- event:
		d.delivered.Add(1)
		return true
	default:
		// Drop if slow consumer.
		d.dropped.Add(1)
		d.log.Debug().Str("client_id", id).Stringer("event", event.Kind).Msg("outbound buffer full, event dropped")
		return false
	}
}

// Stats returns the current delivery counters.
func (d *Dispatcher) Stats() DispatchStats {
	d.mu.RLock()
	n := len(d.clients)
	d.mu.RUnlock()

	return DispatchStats{
		Connections: n,
		Delivered:   d.delivered.Load(),
		Dropped:     d.dropped.Load(),
	}
}
