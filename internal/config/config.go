package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	DefaultRoom       string        `mapstructure:"default_room" yaml:"default_room" validate:"required,max=64"`
	OutboundBuffer    int           `mapstructure:"outbound_buffer" yaml:"outbound_buffer" validate:"gt=0"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	RateLimitBurst    int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=0"`
	RateLimitInterval time.Duration `mapstructure:"rate_limit_interval" yaml:"rate_limit_interval" validate:"required_with=RateLimitBurst"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl" validate:"gte=0"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DefaultRoom:       "general",
		OutboundBuffer:    32,
		MaxMessageBytes:   64 << 10,
		RateLimitBurst:    20,
		RateLimitInterval: 10 * time.Second,
		JWTIssuer:         "wirechat-presence",
		TokenTTL:          24 * time.Hour,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Zero RateLimitBurst is skipped too; callers that need to force it to 0 set it directly.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DefaultRoom != "" {
		c.DefaultRoom = other.DefaultRoom
	}
	if other.OutboundBuffer != 0 {
		c.OutboundBuffer = other.OutboundBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitBurst != 0 {
		c.RateLimitBurst = other.RateLimitBurst
	}
	if other.RateLimitInterval != 0 {
		c.RateLimitInterval = other.RateLimitInterval
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.TokenTTL != 0 {
		c.TokenTTL = other.TokenTTL
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
