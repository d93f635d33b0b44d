package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage delivers a chat message to room participants.
	CommandSendMessage CommandKind = iota
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandGetRoomUsers asks for the roster of a room.
	CommandGetRoomUsers
)

func (k CommandKind) String() string {
	switch k {
	case CommandSendMessage:
		return "send_message"
	case CommandJoinRoom:
		return "join_room"
	case CommandLeaveRoom:
		return "leave_room"
	case CommandGetRoomUsers:
		return "get_room_users"
	default:
		return "unknown"
	}
}

// Command represents an intent requested by a client, already decoded by the transport.
type Command struct {
	Kind CommandKind
	Room string
	Text string
}
