package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubConnectScenario(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	// Alice connects first: she sees only her own roster.
	alice := connect(t, hub, "a", "alice")
	events := drain(alice.Events)
	req.Equal([]EventKind{EventUserList}, kinds(events))
	req.Equal([]string{"alice"}, events[0].Users)

	// Bob connects: alice gets user_joined then user_list, bob gets only the list.
	bob := connect(t, hub, "b", "bob")
	events = drain(alice.Events)
	req.Equal([]EventKind{EventUserJoined, EventUserList}, kinds(events))
	req.Equal("bob", events[0].User)
	req.Equal("bob joined the chat", events[0].Text)
	req.Equal([]string{"alice", "bob"}, events[1].Users)
	req.Equal(2, events[1].Count())
	req.Equal("general", events[1].Room)

	events = drain(bob.Events)
	req.Equal([]EventKind{EventUserList}, kinds(events))
	req.Equal([]string{"alice", "bob"}, events[0].Users)

	// Alice talks: both receive the message, sender included.
	req.NoError(hub.SendMessage("a", "hi", "general"))
	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		req.Equal("alice", ev.Message.From)
		req.Equal("hi", ev.Message.Text)
		req.Equal("general", ev.Message.Room)
		req.Equal(int64(1700000000), ev.Message.CreatedAt.Unix())
	}

	// Bob disconnects: alice gets user_left then the shrunken roster.
	hub.Disconnect("b")
	events = drain(alice.Events)
	req.Equal([]EventKind{EventUserLeft, EventUserList}, kinds(events))
	req.Equal("bob", events[0].User)
	req.Equal("general", events[0].Room)
	req.Equal("bob left the chat", events[0].Text)
	req.Equal([]string{"alice"}, events[1].Users)
	req.Empty(drain(bob.Events))
}

func TestHubGuestName(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	client := NewClient("abcdef123456", 8)
	name, err := hub.Connect(client, "  ")
	req.NoError(err)
	req.Equal("Guest_abcdef", name)
	req.Equal([]string{"Guest_abcdef"}, hub.Roster("general"))
}

func TestHubDuplicateConnect(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	connect(t, hub, "a", "alice")
	_, err := hub.Connect(NewClient("a", 8), "mallory")
	req.ErrorIs(err, ErrDuplicateConnection)
	req.Equal([]string{"alice"}, hub.Roster("general"))
}

func TestHubRosterAfterConnectContainsNameOnce(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	drain(alice.Events)

	req.NoError(hub.GetRoomUsers("a", ""))
	ev := mustEvent(t, alice.Events, EventRoomUserList)
	req.Equal("general", ev.Room)
	req.Equal([]string{"alice"}, ev.Users)
}

func TestHubEmptyMessageErrorsToSenderOnly(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	bob := connect(t, hub, "b", "bob")
	drain(alice.Events)
	drain(bob.Events)

	for _, text := range []string{"", "   \t"} {
		err := hub.SendMessage("a", text, "general")
		req.ErrorIs(err, ErrEmptyMessage)

		events := drain(alice.Events)
		req.Equal([]EventKind{EventError}, kinds(events))
		req.Equal("Message text required", events[0].Error.Message)
		req.Empty(drain(bob.Events))
	}
}

func TestHubJoinAndLeaveRoom(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	bob := connect(t, hub, "b", "bob")

	// A brand-new room is empty until someone joins it.
	req.NoError(hub.GetRoomUsers("a", "dev"))
	ev := mustEvent(t, alice.Events, EventRoomUserList)
	req.Empty(ev.Users)
	req.Zero(ev.Count())
	drain(alice.Events)
	drain(bob.Events)

	req.NoError(hub.JoinRoom("a", "dev"))
	events := drain(alice.Events)
	req.Equal([]EventKind{EventRoomJoined}, kinds(events))
	req.Equal([]string{"alice"}, events[0].Users)
	req.Equal("You joined dev", events[0].Text)
	req.Empty(drain(bob.Events))

	req.NoError(hub.JoinRoom("b", "dev"))
	joined := mustEvent(t, alice.Events, EventUserJoinedRoom)
	req.Equal("bob", joined.User)
	req.Equal("dev", joined.Room)
	req.Equal("bob joined dev", joined.Text)
	confirm := mustEvent(t, bob.Events, EventRoomJoined)
	req.Equal([]string{"alice", "bob"}, confirm.Users)

	// Messages to dev stay in dev.
	carol := connect(t, hub, "c", "carol")
	drain(alice.Events)
	drain(bob.Events)
	drain(carol.Events)
	req.NoError(hub.SendMessage("b", "standup?", "dev"))
	req.Len(drain(alice.Events), 1)
	req.Len(drain(bob.Events), 1)
	req.Empty(drain(carol.Events))

	// Bob leaves dev: remaining members are told, bob gets a confirmation.
	req.NoError(hub.LeaveRoom("b", "dev"))
	left := mustEvent(t, alice.Events, EventUserLeftRoom)
	req.Equal("bob left dev", left.Text)
	events = drain(bob.Events)
	req.Equal([]EventKind{EventRoomLeft}, kinds(events))
	req.Equal("You left dev", events[0].Text)
	req.Equal([]string{"alice"}, hub.Roster("dev"))
}

func TestHubMissingRoomName(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	drain(alice.Events)

	req.ErrorIs(hub.JoinRoom("a", ""), ErrMissingRoomName)
	events := drain(alice.Events)
	req.Equal([]EventKind{EventError}, kinds(events))
	req.Equal("Room name required", events[0].Error.Message)

	// Leaving without a room name is silent.
	req.NoError(hub.LeaveRoom("a", ""))
	req.Empty(drain(alice.Events))
}

func TestHubLeaveDefaultRoomIsRefused(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	bob := connect(t, hub, "b", "bob")
	drain(alice.Events)
	drain(bob.Events)

	// When alice tries to leave the default room
	err := hub.LeaveRoom("a", "general")

	// Then only alice gets an error and membership is untouched
	req.ErrorIs(err, ErrLeaveDefaultRoom)
	events := drain(alice.Events)
	req.Equal([]EventKind{EventError}, kinds(events))
	req.Equal(ErrCodeDefaultRoom, events[0].Error.Code)
	req.Equal("Cannot leave general", events[0].Error.Message)
	req.Empty(drain(bob.Events))
	req.Equal([]string{"alice", "bob"}, hub.Roster("general"))
	req.Equal([]string{"general"}, hub.sessions.Rooms("a"))
}

func TestHubDisconnectIsIdempotent(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	connect(t, hub, "b", "bob")
	req.NoError(hub.JoinRoom("b", "dev"))
	drain(alice.Events)

	hub.Disconnect("b")
	first := kinds(drain(alice.Events))
	req.Equal([]EventKind{EventUserLeft, EventUserList}, first)

	hub.Disconnect("b")
	req.Empty(drain(alice.Events))
	req.Equal([]string{"alice"}, hub.Roster("general"))
	req.Empty(hub.Roster("dev"))
	req.Equal([]RoomInfo{{Name: "general", Count: 1}}, hub.Rooms())
}

func TestHubIntentsAfterDisconnectAreRejected(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	hub.Disconnect("a")

	req.ErrorIs(hub.JoinRoom("a", "dev"), ErrUnknownConnection)
	req.ErrorIs(hub.SendMessage("a", "hi", ""), ErrUnknownConnection)
	req.ErrorIs(hub.GetRoomUsers("a", ""), ErrUnknownConnection)
	req.ErrorIs(hub.LeaveRoom("a", "dev"), ErrUnknownConnection)
	req.Empty(hub.Rooms())

	drain(alice.Events)
	req.Empty(drain(alice.Events))
}

func TestHubHandleDispatchTable(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	alice := connect(t, hub, "a", "alice")
	drain(alice.Events)

	req.NoError(hub.Handle("a", Command{Kind: CommandJoinRoom, Room: "dev"}))
	mustEvent(t, alice.Events, EventRoomJoined)

	req.NoError(hub.Handle("a", Command{Kind: CommandSendMessage, Text: "yo"}))
	ev := mustEvent(t, alice.Events, EventNewMessage)
	req.Equal("general", ev.Room)

	req.NoError(hub.Handle("a", Command{Kind: CommandGetRoomUsers, Room: "dev"}))
	mustEvent(t, alice.Events, EventRoomUserList)

	req.NoError(hub.Handle("a", Command{Kind: CommandLeaveRoom, Room: "dev"}))
	mustEvent(t, alice.Events, EventRoomLeft)

	err := hub.Handle("a", Command{Kind: CommandKind(99)})
	req.True(errors.Is(err, ErrUnknownCommand))
}

func TestHubConcurrentConnectsSeeEachOther(t *testing.T) {
	req := require.New(t)

	for round := 0; round < 50; round++ {
		hub := newTestCoordinator()
		a, b := NewClient("a", 16), NewClient("b", 16)

		var wg sync.WaitGroup
		for _, c := range []*Client{a, b} {
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				if _, err := hub.Connect(c, "user-"+c.ID); err != nil {
					t.Errorf("connect %s: %v", c.ID, err)
				}
			}(c)
		}
		wg.Wait()

		// The last user_list each client saw must contain both users.
		for _, c := range []*Client{a, b} {
			var last *Event
			for _, ev := range drain(c.Events) {
				if ev.Kind == EventUserList {
					last = ev
				}
			}
			req.NotNil(last, "round %d client %s", round, c.ID)
			req.ElementsMatch([]string{"user-a", "user-b"}, last.Users, "round %d client %s", round, c.ID)
		}
	}
}

// Membership must agree in both directions after any mix of concurrent intents.
func TestHubBidirectionalMembershipUnderLoad(t *testing.T) {
	req := require.New(t)
	hub := newTestCoordinator()

	const workers = 16
	rooms := []string{"dev", "ops", "random"}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%02d", i)
			client := NewClient(id, 4)
			if _, err := hub.Connect(client, id); err != nil {
				t.Errorf("connect %s: %v", id, err)
				return
			}
			for j := 0; j < 30; j++ {
				room := rooms[(i+j)%len(rooms)]
				switch j % 4 {
				case 0, 1:
					_ = hub.JoinRoom(id, room)
				case 2:
					_ = hub.LeaveRoom(id, room)
				case 3:
					_ = hub.SendMessage(id, "ping", room)
				}
				drain(client.Events)
			}
			if i%2 == 0 {
				hub.Disconnect(id)
				hub.Disconnect(id)
			}
		}(i)
	}
	wg.Wait()

	for _, info := range hub.Rooms() {
		for _, id := range hub.rooms.Members(info.Name) {
			req.Contains(hub.sessions.Rooms(id), info.Name)
		}
	}
	for i := 0; i < workers; i++ {
		id := fmt.Sprintf("c%02d", i)
		for _, room := range hub.sessions.Rooms(id) {
			req.True(hub.rooms.IsMember(room, id), "%s missing from %s", id, room)
		}
		if i%2 == 0 {
			req.Empty(hub.sessions.Rooms(id))
		} else {
			req.Contains(hub.sessions.Rooms(id), "general")
		}
	}
	req.Equal(workers/2, hub.Stats().Sessions)
}
