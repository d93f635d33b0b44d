package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
)

// APIHandlers provides HTTP handlers for identity tokens.
type APIHandlers struct {
	jwt *auth.JWTConfig
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(jwtConfig *auth.JWTConfig, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		jwt: jwtConfig,
		log: logger,
	}
}

// TokenRequest represents the token request body.
type TokenRequest struct {
	Username string `json:"username" binding:"required,min=1,max=32"`
}

// TokenResponse represents the token response body.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IssueToken signs a token carrying the requested display name.
// POST /api/token
func (h *APIHandlers) IssueToken(c *gin.Context) {
	if !h.jwt.Enabled() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "tokens disabled"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid token request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := auth.GenerateToken(h.jwt, req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidUsername) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid username"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", req.Username).Msg("token issued")
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
