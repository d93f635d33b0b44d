package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
)

const wsPath = "/ws"

// NewServer builds an HTTP server exposing the websocket endpoint and the REST API.
func NewServer(hub core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	rooms := NewRoomHandlers(hub, logger)
	tokens := NewAPIHandlers(jwtConfig, logger)

	api := router.Group("/api")
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:room/users", rooms.RoomUsers)
	api.GET("/stats", rooms.Stats)
	api.POST("/token", tokens.IssueToken)

	// The websocket route stays outside gin: its response writer refuses to hijack
	// once the upgrade headers are recorded.
	mux := stdhttp.NewServeMux()
	mux.Handle(wsPath, NewWSHandler(hub, jwtConfig, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
