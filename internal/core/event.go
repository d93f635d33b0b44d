package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserJoined tells the default room that a connection arrived.
	EventUserJoined EventKind = iota
	// EventUserLeft tells a room that a connection went away.
	EventUserLeft
	// EventUserList carries a fresh roster of a room.
	EventUserList
	// EventNewMessage carries a chat message posted to a room.
	EventNewMessage
	// EventUserJoinedRoom tells room members that someone joined the room.
	EventUserJoinedRoom
	// EventUserLeftRoom tells room members that someone left the room.
	EventUserLeftRoom
	// EventRoomJoined confirms a join to the joining connection.
	EventRoomJoined
	// EventRoomLeft confirms a leave to the leaving connection.
	EventRoomLeft
	// EventRoomUserList answers a roster query.
	EventRoomUserList
	// EventError notifies a single connection about a domain error.
	EventError
)

var eventNames = [...]string{
	EventUserJoined:     "user_joined",
	EventUserLeft:       "user_left",
	EventUserList:       "user_list",
	EventNewMessage:     "new_message",
	EventUserJoinedRoom: "user_joined_room",
	EventUserLeftRoom:   "user_left_room",
	EventRoomJoined:     "room_joined",
	EventRoomLeft:       "room_left",
	EventRoomUserList:   "room_user_list",
	EventError:          "error",
}

// String returns the wire name of the event.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to clients to describe what happened in the system.
// A single Event value is shared by every recipient of a broadcast and must not be mutated.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Text    string // human readable notice, e.g. "alice joined the chat"
	Users   []string
	Message Message // for EventNewMessage
	Error   *CoreError
}

// Count is the roster size carried by roster events.
func (e *Event) Count() int {
	return len(e.Users)
}
