package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

var inboundKinds = map[string]core.CommandKind{
	proto.InboundTypeSendMessage:  core.CommandSendMessage,
	proto.InboundTypeJoinRoom:     core.CommandJoinRoom,
	proto.InboundTypeLeaveRoom:    core.CommandLeaveRoom,
	proto.InboundTypeGetRoomUsers: core.CommandGetRoomUsers,
}

// inboundToCommand decodes an envelope into a core command.
// A non-nil *proto.Error is meant for the sender; the connection stays open.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	kind, ok := inboundKinds[inbound.Type]
	if !ok {
		return nil, &proto.Error{Message: "unknown message type"}
	}

	switch kind {
	case core.CommandSendMessage:
		var msg proto.MessageData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, &proto.Error{Message: "invalid message data"}
		}
		return &core.Command{Kind: kind, Room: msg.Room, Text: msg.Text}, nil
	default:
		var room proto.RoomData
		if err := decodeData(inbound.Data, &room); err != nil {
			return nil, &proto.Error{Message: "invalid message data"}
		}
		return &core.Command{Kind: kind, Room: room.Room}, nil
	}
}

// decodeData tolerates a missing or null payload.
func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Event: event.Kind.String()}

	switch event.Kind {
	case core.EventUserJoined:
		out.Data = proto.UserJoined{Username: event.User, Message: event.Text}
	case core.EventUserLeft:
		out.Data = proto.UserLeft{Username: event.User, Room: event.Room, Message: event.Text}
	case core.EventUserList:
		out.Data = proto.UserList{Users: users(event), Count: event.Count(), Room: event.Room}
	case core.EventNewMessage:
		out.Data = proto.NewMessage{
			Username:  event.Message.From,
			Text:      event.Message.Text,
			Room:      event.Message.Room,
			Timestamp: unixSeconds(event.Message.CreatedAt),
		}
	case core.EventUserJoinedRoom, core.EventUserLeftRoom:
		out.Data = proto.UserRoomChange{Username: event.User, Room: event.Room, Message: event.Text}
	case core.EventRoomJoined:
		out.Data = proto.RoomJoined{Room: event.Room, Users: users(event), Count: event.Count(), Message: event.Text}
	case core.EventRoomLeft:
		out.Data = proto.RoomLeft{Room: event.Room, Message: event.Text}
	case core.EventRoomUserList:
		out.Data = proto.RoomUserList{Room: event.Room, Users: users(event), Count: event.Count()}
	case core.EventError:
		if event.Error == nil {
			out.Data = proto.Error{Message: "unknown error"}
		} else {
			out.Data = proto.Error{Message: event.Error.Message}
		}
	}
	return out
}

// users never returns nil so rosters encode as [] rather than null.
func users(event *core.Event) []string {
	if event.Users == nil {
		return []string{}
	}
	return event.Users
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
