package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WIRECHAT"
	envConfigDefaultPath = "WIRECHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load resolves configuration and returns it together with the config file path used.
// Precedence: defaults < config file < WIRECHAT_* env vars. Caller overrides and
// Validate are applied by the caller afterwards. A missing file is created from defaults.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range settings(cfg) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := readOrCreate(v, configPath, cfg, logger); err != nil {
		return cfg, configPath, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, configPath, nil
}

func readOrCreate(v *viper.Viper, path string, defaults Config, logger *zerolog.Logger) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	if writeErr := writeDefaultConfig(path, defaults); writeErr != nil {
		// Defaults and env still apply without a file.
		logger.Warn().Err(writeErr).Str("path", path).Msg("failed to write default config")
		return nil
	}
	logger.Info().Str("path", path).Msg("created default config")

	if readErr := v.ReadInConfig(); readErr != nil {
		logger.Warn().Err(readErr).Str("path", path).Msg("failed to read config after writing default")
	}
	return nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings(cfg))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// settings flattens cfg into config-file keys. Durations are written as strings
// so the generated file stays human-editable; viper decodes them back.
func settings(cfg Config) map[string]any {
	return map[string]any{
		"addr":                cfg.Addr,
		"read_header_timeout": cfg.ReadHeaderTimeout.String(),
		"shutdown_timeout":    cfg.ShutdownTimeout.String(),
		"log_level":           cfg.LogLevel,
		"default_room":        cfg.DefaultRoom,
		"outbound_buffer":     cfg.OutboundBuffer,
		"max_message_bytes":   cfg.MaxMessageBytes,
		"rate_limit_burst":    cfg.RateLimitBurst,
		"rate_limit_interval": cfg.RateLimitInterval.String(),
		"jwt_secret":          cfg.JWTSecret,
		"jwt_issuer":          cfg.JWTIssuer,
		"jwt_audience":        cfg.JWTAudience,
		"token_ttl":           cfg.TokenTTL.String(),
	}
}
