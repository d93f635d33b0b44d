package core

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// NameLookup resolves a connection id to its display name.
type NameLookup interface {
	Lookup(id string) (string, bool)
}

// Room groups connections subscribed to the same channel, in join order.
type Room struct {
	Name    string
	members []string
	index   map[string]struct{}
}

// NewRoom constructs a room with no members.
func NewRoom(name string) *Room {
	return &Room{
		Name:  name,
		index: make(map[string]struct{}),
	}
}

// AddMember appends a connection. Returns true if newly added.
func (r *Room) AddMember(id string) bool {
	if _, exists := r.index[id]; exists {
		return false
	}
	r.index[id] = struct{}{}
	r.members = append(r.members, id)
	return true
}

// RemoveMember deletes a connection keeping the order of the rest. Returns true if removed.
func (r *Room) RemoveMember(id string) bool {
	if _, exists := r.index[id]; !exists {
		return false
	}
	delete(r.index, id)
	r.members = slices.DeleteFunc(r.members, func(m string) bool { return m == id })
	return true
}

// Has reports whether id is a member.
func (r *Room) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Empty returns true if no connections are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// RoomInfo is a point-in-time view of a room.
type RoomInfo struct {
	Name  string
	Count int
}

// RoomRegistry maps room names to their members.
// Empty rooms are dropped, so an emptied room looks exactly like one that never existed.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	names NameLookup
}

// NewRoomRegistry creates a registry resolving display names through names.
func NewRoomRegistry(names NameLookup) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*Room),
		names: names,
	}
}

// Join adds id to room, creating the room on first use.
func (g *RoomRegistry) Join(room, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[room]
	if !ok {
		r = NewRoom(room)
		g.rooms[room] = r
	}
	return r.AddMember(id)
}

// Leave removes id from room if present.
func (g *RoomRegistry) Leave(room, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaveLocked(room, id)
}

// LeaveAll removes id from every room and returns those rooms sorted by name.
func (g *RoomRegistry) LeaveAll(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var left []string
	for name, r := range g.rooms {
		if r.Has(id) {
			left = append(left, name)
		}
	}
	for _, name := range left {
		g.leaveLocked(name, id)
	}
	slices.Sort(left)
	return left
}

func (g *RoomRegistry) leaveLocked(room, id string) bool {
	r, ok := g.rooms[room]
	if !ok {
		return false
	}
	removed := r.RemoveMember(id)
	if r.Empty() {
		delete(g.rooms, room)
	}
	return removed
}

// Members returns a snapshot of the member ids of room in join order.
func (g *RoomRegistry) Members(room string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[room]
	if !ok {
		return nil
	}
	return slices.Clone(r.members)
}

// Roster returns the display names of room members in join order.
// Members whose session is already gone are skipped.
func (g *RoomRegistry) Roster(room string) []string {
	members := g.Members(room)
	return lo.FilterMap(members, func(id string, _ int) (string, bool) {
		return g.names.Lookup(id)
	})
}

// Count returns the number of members in room, 0 if it does not exist.
func (g *RoomRegistry) Count(room string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if r, ok := g.rooms[room]; ok {
		return len(r.members)
	}
	return 0
}

// IsMember reports whether id currently belongs to room.
func (g *RoomRegistry) IsMember(room, id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[room]
	return ok && r.Has(id)
}

// Rooms lists every non-empty room sorted by name.
func (g *RoomRegistry) Rooms() []RoomInfo {
	g.mu.RLock()
	infos := lo.MapToSlice(g.rooms, func(name string, r *Room) RoomInfo {
		return RoomInfo{Name: name, Count: len(r.members)}
	})
	g.mu.RUnlock()

	slices.SortFunc(infos, func(a, b RoomInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}
