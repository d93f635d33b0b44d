package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/core"
)

// RoomHandlers provides read-only HTTP views of live rooms.
type RoomHandlers struct {
	hub core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RoomUsersResponse mirrors the room_user_list event payload.
type RoomUsersResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// StatsResponse summarises hub activity.
type StatsResponse struct {
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
}

// ListRooms handles listing rooms that currently have members.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.hub.Rooms()
	response := lo.Map(rooms, func(r core.RoomInfo, _ int) RoomResponse {
		return RoomResponse{Name: r.Name, Count: r.Count}
	})

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// RoomUsers returns the roster of a room. Unknown rooms yield an empty roster.
// GET /api/rooms/:room/users
func (h *RoomHandlers) RoomUsers(c *gin.Context) {
	room := c.Param("room")
	users := h.hub.Roster(room)
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, RoomUsersResponse{Room: room, Users: users, Count: len(users)})
}

// Stats handles hub statistics.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	s := h.hub.Stats()
	c.JSON(http.StatusOK, StatsResponse{
		Connections: s.Sessions,
		Rooms:       s.Rooms,
		Delivered:   s.Delivered,
		Dropped:     s.Dropped,
	})
}
