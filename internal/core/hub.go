package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRoom is the room every connection joins on connect.
const DefaultRoom = "general"

const (
	unknownName = "Unknown"
	guestPrefix = "Guest_"
)

// Hub is the inbound intent API consumed by the transport layer.
type Hub interface {
	Connect(client *Client, proposedName string) (string, error)
	Disconnect(id string)
	Handle(id string, cmd Command) error
	Roster(room string) []string
	Rooms() []RoomInfo
	Stats() Stats
}

// Stats is a point-in-time view of hub activity.
type Stats struct {
	Sessions  int
	Rooms     int
	Delivered uint64
	Dropped   uint64
}

// Options configure a Coordinator.
type Options struct {
	DefaultRoom string
	Logger      *zerolog.Logger
	Now         func() time.Time
}

type commandHandler func(id string, cmd Command) error

// Coordinator owns the session store and room registry and turns intents into broadcasts.
// Every mutation and the roster computed from it run under mu, so rosters always
// describe post-mutation state and concurrent intents cannot interleave.
type Coordinator struct {
	mu          sync.Mutex
	sessions    *SessionStore
	rooms       *RoomRegistry
	dispatcher  *Dispatcher
	handlers    map[CommandKind]commandHandler
	defaultRoom string
	now         func() time.Time
	log         *zerolog.Logger
}

// NewCoordinator wires fresh stores and a dispatcher together.
func NewCoordinator(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = DefaultRoom
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sessions := NewSessionStore()
	rooms := NewRoomRegistry(sessions)
	c := &Coordinator{
		sessions:    sessions,
		rooms:       rooms,
		dispatcher:  NewDispatcher(rooms, logger),
		defaultRoom: opts.DefaultRoom,
		now:         opts.Now,
		log:         logger,
	}
	c.handlers = map[CommandKind]commandHandler{
		CommandSendMessage:  func(id string, cmd Command) error { return c.SendMessage(id, cmd.Text, cmd.Room) },
		CommandJoinRoom:     func(id string, cmd Command) error { return c.JoinRoom(id, cmd.Room) },
		CommandLeaveRoom:    func(id string, cmd Command) error { return c.LeaveRoom(id, cmd.Room) },
		CommandGetRoomUsers: func(id string, cmd Command) error { return c.GetRoomUsers(id, cmd.Room) },
	}
	return c
}

// Handle routes an intent to its handler.
func (c *Coordinator) Handle(id string, cmd Command) error {
	h, ok := c.handlers[cmd.Kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Kind)
	}
	return h(id, cmd)
}

// Connect registers a connection, puts it in the default room and announces it.
// Returns the display name actually assigned.
func (c *Coordinator) Connect(client *Client, proposedName string) (string, error) {
	name := strings.TrimSpace(proposedName)
	if name == "" {
		name = GuestName(client.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sessions.Create(client.ID, name); err != nil {
		return "", fmt.Errorf("connect %s: %w", client.ID, err)
	}
	c.dispatcher.Attach(client)
	c.joinLocked(c.defaultRoom, client.ID)
	users := c.rooms.Roster(c.defaultRoom)

	c.log.Info().Str("client_id", client.ID).Str("user", name).Int("users", len(users)).
		Msgf("connected and joined %q", c.defaultRoom)

	c.dispatcher.Broadcast(c.defaultRoom, &Event{
		Kind: EventUserJoined,
		Room: c.defaultRoom,
		User: name,
		Text: name + " joined the chat",
	}, client.ID)
	c.dispatcher.Broadcast(c.defaultRoom, &Event{
		Kind:  EventUserList,
		Room:  c.defaultRoom,
		Users: users,
	}, "")
	return name, nil
}

// SendMessage posts text to room, or to the default room when room is empty.
func (c *Coordinator) SendMessage(id, text, room string) error {
	if room == "" {
		room = c.defaultRoom
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	name, err := c.sessions.Get(id)
	if err != nil {
		return c.tolerate(id, err)
	}
	msg, err := NewMessage(room, name, text, c.now())
	if err != nil {
		c.dispatcher.SendTo(id, NewErrorEvent(ErrCodeEmptyMessage, "Message text required"))
		return err
	}

	c.log.Debug().Str("room", room).Str("user", name).Msg("message")
	c.dispatcher.Broadcast(room, &Event{
		Kind:    EventNewMessage,
		Room:    room,
		User:    name,
		Message: msg,
	}, "")
	return nil
}

// JoinRoom subscribes the connection to room and sends it the room roster.
func (c *Coordinator) JoinRoom(id, room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, err := c.sessions.Get(id)
	if err != nil {
		return c.tolerate(id, err)
	}
	if room == "" {
		c.dispatcher.SendTo(id, NewErrorEvent(ErrCodeMissingRoomName, "Room name required"))
		return ErrMissingRoomName
	}

	c.joinLocked(room, id)
	users := c.rooms.Roster(room)

	c.log.Info().Str("client_id", id).Str("user", name).Int("users", len(users)).Msgf("joined room %q", room)

	c.dispatcher.Broadcast(room, &Event{
		Kind: EventUserJoinedRoom,
		Room: room,
		User: name,
		Text: name + " joined " + room,
	}, id)
	c.dispatcher.SendTo(id, &Event{
		Kind:  EventRoomJoined,
		Room:  room,
		Users: users,
		Text:  "You joined " + room,
	})
	return nil
}

// LeaveRoom unsubscribes the connection from room. An empty room name is ignored.
// A live connection always belongs to the default room, so leaving it is refused
// with an error event to the sender.
func (c *Coordinator) LeaveRoom(id, room string) error {
	if room == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	name, err := c.sessions.Get(id)
	if err != nil {
		return c.tolerate(id, err)
	}
	if room == c.defaultRoom {
		c.dispatcher.SendTo(id, NewErrorEvent(ErrCodeDefaultRoom, "Cannot leave "+room))
		return ErrLeaveDefaultRoom
	}

	c.rooms.Leave(room, id)
	c.sessions.RemoveRoom(id, room)

	c.log.Info().Str("client_id", id).Str("user", name).Msgf("left room %q", room)

	c.dispatcher.Broadcast(room, &Event{
		Kind: EventUserLeftRoom,
		Room: room,
		User: name,
		Text: name + " left " + room,
	}, "")
	c.dispatcher.SendTo(id, &Event{
		Kind: EventRoomLeft,
		Room: room,
		Text: "You left " + room,
	})
	return nil
}

// GetRoomUsers sends the roster of room (default room when empty) to the asking connection.
func (c *Coordinator) GetRoomUsers(id, room string) error {
	if room == "" {
		room = c.defaultRoom
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.sessions.Get(id); err != nil {
		return c.tolerate(id, err)
	}
	c.dispatcher.SendTo(id, &Event{
		Kind:  EventRoomUserList,
		Room:  room,
		Users: c.rooms.Roster(room),
	})
	return nil
}

// Disconnect tears a connection down and refreshes every room it was in.
// Safe to call more than once.
func (c *Coordinator) Disconnect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, err := c.sessions.Get(id)
	if err != nil {
		name = unknownName
	}
	left := c.rooms.LeaveAll(id)
	c.sessions.Remove(id)
	c.dispatcher.Detach(id)

	if err == nil {
		c.log.Info().Str("client_id", id).Str("user", name).Strs("rooms", left).Msg("disconnected")
	}

	for _, room := range left {
		c.dispatcher.Broadcast(room, &Event{
			Kind: EventUserLeft,
			Room: room,
			User: name,
			Text: name + " left the chat",
		}, "")
		c.dispatcher.Broadcast(room, &Event{
			Kind:  EventUserList,
			Room:  room,
			Users: c.rooms.Roster(room),
		}, "")
	}
}

// Roster returns the display names currently in room.
func (c *Coordinator) Roster(room string) []string {
	return c.rooms.Roster(room)
}

// Rooms lists the non-empty rooms.
func (c *Coordinator) Rooms() []RoomInfo {
	return c.rooms.Rooms()
}

// Stats summarises sessions, rooms and delivery counters.
func (c *Coordinator) Stats() Stats {
	ds := c.dispatcher.Stats()
	return Stats{
		Sessions:  c.sessions.Len(),
		Rooms:     len(c.rooms.Rooms()),
		Delivered: ds.Delivered,
		Dropped:   ds.Dropped,
	}
}

// joinLocked keeps both sides of the membership relation in step.
func (c *Coordinator) joinLocked(room, id string) {
	c.rooms.Join(room, id)
	if err := c.sessions.AddRoom(id, room); err != nil {
		c.rooms.Leave(room, id)
	}
}

func (c *Coordinator) tolerate(id string, err error) error {
	c.log.Debug().Err(err).Str("client_id", id).Msg("intent for unknown connection ignored")
	return err
}

// GuestName derives the display name used when a connection supplies none.
func GuestName(id string) string {
	if len(id) > 6 {
		id = id[:6]
	}
	return guestPrefix + id
}
