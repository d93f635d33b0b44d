package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-presence/internal/log"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

type options struct {
	addr     string
	user     string
	token    string
	room     string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Interactive terminal client for the presence hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.addr, "addr", "ws://localhost:5000/ws", "WebSocket address")
	flags.StringVar(&opts.user, "user", "", "display name (server assigns a guest name when empty)")
	flags.StringVar(&opts.token, "token", "", "identity token from POST /api/token")
	flags.StringVar(&opts.room, "room", "", "room messages are sent to (default room when empty)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "client log level")

	cmd.AddCommand(newSmokeCmd(&opts))
	return cmd
}

func dialURL(opts options) (string, error) {
	u, err := url.Parse(opts.addr)
	if err != nil {
		return "", fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	if opts.user != "" {
		q.Set("username", opts.user)
	}
	if opts.token != "" {
		q.Set("token", opts.token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	logger := log.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, opts.logLevel)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	target, err := dialURL(opts)
	if err != nil {
		return err
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, target, nil)
	dialCancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Fprintf(out, "Connected to %s\n", opts.addr)
	fmt.Fprintln(out, "Type messages and press Enter to send. Commands: /join ROOM, /leave ROOM, /room ROOM, /users [ROOM], /quit")

	if opts.room != "" {
		if err := send(ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: opts.room}); err != nil {
			return err
		}
	}

	go func() {
		defer cancel()
		readLoop(ctx, conn, out, logger)
	}()

	writeLoop(ctx, conn, in, out, opts.room, logger)

	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readLoop(ctx context.Context, conn *websocket.Conn, out io.Writer, logger *zerolog.Logger) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			logger.Error().Err(err).Msg("read error")
			return
		}
		if line, ok := render(f); ok {
			fmt.Fprintln(out, line)
		} else {
			logger.Warn().Str("event", f.Event).RawJSON("data", f.Data).Msg("unrenderable event")
		}
	}
}

// render formats one server event for the terminal.
func render(f frame) (string, bool) {
	switch f.Event {
	case proto.EventNewMessage:
		var evt proto.NewMessage
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		ts := time.Unix(0, int64(evt.Timestamp*float64(time.Second))).Format("15:04:05")
		return fmt.Sprintf("%s [%s] %s: %s", ts, evt.Room, evt.Username, evt.Text), true
	case proto.EventUserJoined:
		var evt proto.UserJoined
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return "* " + evt.Message, true
	case proto.EventUserLeft:
		var evt proto.UserLeft
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return fmt.Sprintf("* [%s] %s", evt.Room, evt.Message), true
	case proto.EventUserJoinedRoom, proto.EventUserLeftRoom:
		var evt proto.UserRoomChange
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return fmt.Sprintf("* [%s] %s", evt.Room, evt.Message), true
	case proto.EventUserList:
		var evt proto.UserList
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return fmt.Sprintf("[%s] online (%d): %s", evt.Room, evt.Count, strings.Join(evt.Users, ", ")), true
	case proto.EventRoomJoined:
		var evt proto.RoomJoined
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return fmt.Sprintf("%s (%d): %s", evt.Message, evt.Count, strings.Join(evt.Users, ", ")), true
	case proto.EventRoomLeft:
		var evt proto.RoomLeft
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return evt.Message, true
	case proto.EventRoomUserList:
		var evt proto.RoomUserList
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return fmt.Sprintf("[%s] users (%d): %s", evt.Room, evt.Count, strings.Join(evt.Users, ", ")), true
	case proto.EventError:
		var evt proto.Error
		if json.Unmarshal(f.Data, &evt) != nil {
			return "", false
		}
		return "! " + evt.Message, true
	}
	return "", false
}

func writeLoop(ctx context.Context, conn *websocket.Conn, in io.Reader, out io.Writer, room string, logger *zerolog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			typ, data, quit := parseLine(text, &room)
			if quit {
				return
			}
			if typ == "" {
				fmt.Fprintf(out, "now sending to %s\n", roomLabel(room))
				continue
			}
			if err := send(ctx, conn, typ, data); err != nil {
				logger.Error().Err(err).Msg("send error")
				return
			}
		}
	}
}

// parseLine turns a line of input into an inbound message.
// An empty type with quit unset means the line only changed local state.
func parseLine(text string, room *string) (typ string, data any, quit bool) {
	if !strings.HasPrefix(text, "/") {
		return proto.InboundTypeSendMessage, proto.MessageData{Text: text, Room: *room}, false
	}

	verb, arg, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "quit", "exit":
		return "", nil, true
	case "join":
		if arg != "" {
			*room = arg
		}
		return proto.InboundTypeJoinRoom, proto.RoomData{Room: arg}, false
	case "leave":
		if arg == "" {
			arg = *room
		}
		if arg == *room {
			*room = ""
		}
		return proto.InboundTypeLeaveRoom, proto.RoomData{Room: arg}, false
	case "users":
		if arg == "" {
			arg = *room
		}
		return proto.InboundTypeGetRoomUsers, proto.RoomData{Room: arg}, false
	case "room":
		*room = arg
		return "", nil, false
	}
	return proto.InboundTypeSendMessage, proto.MessageData{Text: text, Room: *room}, false
}

func roomLabel(room string) string {
	if room == "" {
		return "the default room"
	}
	return room
}
