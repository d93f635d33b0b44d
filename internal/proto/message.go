package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeSendMessage  = "send_message"
	InboundTypeJoinRoom     = "join_room_event"
	InboundTypeLeaveRoom    = "leave_room_event"
	InboundTypeGetRoomUsers = "get_room_users"

	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventUserList       = "user_list"
	EventNewMessage     = "new_message"
	EventUserJoinedRoom = "user_joined_room"
	EventUserLeftRoom   = "user_left_room"
	EventRoomJoined     = "room_joined"
	EventRoomLeft       = "room_left"
	EventRoomUserList   = "room_user_list"
	EventError          = "error"
)

// MessageData is a chat message from the client.
type MessageData struct {
	Text string `json:"text"`
	Room string `json:"room,omitempty"`
}

// RoomData names the room a join, leave or roster query refers to.
type RoomData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// UserJoined tells the default room about a new connection.
type UserJoined struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// UserLeft tells a room that a connection went away.
type UserLeft struct {
	Username string `json:"username"`
	Room     string `json:"room"`
	Message  string `json:"message"`
}

// UserList is a roster snapshot pushed to a room.
type UserList struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
	Room  string   `json:"room,omitempty"`
}

// NewMessage is a chat message fanned out to a room.
type NewMessage struct {
	Username  string  `json:"username"`
	Text      string  `json:"text"`
	Room      string  `json:"room"`
	Timestamp float64 `json:"timestamp"`
}

// UserRoomChange announces a join or leave of a non-default room.
type UserRoomChange struct {
	Username string `json:"username"`
	Room     string `json:"room"`
	Message  string `json:"message"`
}

// RoomJoined confirms a join to the joining connection.
type RoomJoined struct {
	Room    string   `json:"room"`
	Users   []string `json:"users"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
}

// RoomLeft confirms a leave to the leaving connection.
type RoomLeft struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// RoomUserList answers a roster query.
type RoomUserList struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// Error describes an error addressed to a single client.
type Error struct {
	Message string `json:"message"`
}
