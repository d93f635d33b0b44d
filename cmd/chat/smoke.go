package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

func newSmokeCmd(parent *options) *cobra.Command {
	var (
		text    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Connect, send one message and wait for it to come back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return smoke(ctx, *parent, text, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&text, "text", "hello from smoke test", "message text to send")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "total timeout for the run")
	return cmd
}

func smoke(ctx context.Context, opts options, text string, out io.Writer) error {
	target, err := dialURL(opts)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if opts.room != "" {
		if err := send(ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: opts.room}); err != nil {
			return err
		}
	}
	if err := send(ctx, conn, proto.InboundTypeSendMessage, proto.MessageData{Text: text, Room: opts.room}); err != nil {
		return err
	}

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if line, ok := render(f); ok {
			fmt.Fprintln(out, line)
		}

		switch f.Event {
		case proto.EventNewMessage:
			return nil
		case proto.EventError:
			return fmt.Errorf("server rejected smoke message: %s", f.Data)
		}
	}
}
