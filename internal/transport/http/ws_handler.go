package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub core.Hub
	jwt *auth.JWTConfig
	cfg *config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub core.Hub, jwtConfig *auth.JWTConfig, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, jwt: jwtConfig, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	name, err := h.displayName(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake rejected")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	client := core.NewClient(utils.NewID(), h.cfg.OutboundBuffer)
	if _, err := h.hub.Connect(client, name); err != nil {
		h.log.Error().Err(err).Str("client_id", client.ID).Msg("hub connect")
		conn.Close(websocket.StatusInternalError, "connect failed")
		return
	}
	defer h.hub.Disconnect(client.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.cfg.RateLimitBurst, h.cfg.RateLimitInterval)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// displayName prefers a signed token over the plain username parameter.
func (h *WSHandler) displayName(r *stdhttp.Request) (string, error) {
	query := r.URL.Query()
	token := query.Get("token")
	if token == "" {
		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			token = bearer
		}
	}
	if token == "" {
		return query.Get("username"), nil
	}

	claims, err := auth.ValidateToken(h.jwt, token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			h.reply(client, core.NewErrorEvent(core.ErrCodeRateLimited, "rate limit exceeded"))
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.reply(client, core.NewErrorEvent(core.ErrCodeBadRequest, protoErr.Message))
			continue
		}
		if err := h.hub.Handle(client.ID, *cmd); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Stringer("command", cmd.Kind).Msg("intent rejected")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reply queues a transport-level event for this connection only, dropping it if the buffer is full.
func (h *WSHandler) reply(client *core.Client, event *core.Event) {
	select {
	case client.Events <- event:
	default:
		h.log.Debug().Str("client_id", client.ID).Msg("outbound buffer full, reply dropped")
	}
}
