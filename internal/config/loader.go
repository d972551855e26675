package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads the server configuration.
// Search order: customPath -> ~/.arena/config.yaml -> ./configs/arena.yaml ->
// embedded default. A file overlays the built-in defaults, so partial configs
// keep every unmentioned setting. Environment overrides are applied last in
// every case.
func Load(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		applyEnv(&cfg)
		return cfg, nil
	}

	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				applyEnv(&cfg)
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile("configs/arena.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			applyEnv(&cfg)
			return cfg, nil
		}
	}

	// No file found: the embedded YAML over the hardcoded defaults.
	_ = yaml.Unmarshal(defaultArenaYAML, &cfg)
	applyEnv(&cfg)
	return cfg, nil
}

// userConfigPath returns the path to a user config file, or empty if home is
// unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".arena", filename)
}

// applyEnv overrides individual settings from ARENA_* environment variables.
func applyEnv(cfg *Config) {
	envFloat("ARENA_FIELD_WIDTH", &cfg.Field.Width)
	envFloat("ARENA_FIELD_HEIGHT", &cfg.Field.Height)
	envFloat("ARENA_BALL_RADIUS", &cfg.Ball.Radius)
	envFloat("ARENA_BALL_SPEED", &cfg.Ball.Speed)
	envFloat("ARENA_PADDLE_LENGTH", &cfg.Paddle.Length)
	envFloat("ARENA_PADDLE_WIDTH", &cfg.Paddle.Width)
	envFloat("ARENA_PADDLE_SPEED", &cfg.Paddle.Speed)
	envFloat("ARENA_PADDLE_OFFSET", &cfg.Paddle.Offset)
	envInt("ARENA_PHYSICS_HZ", &cfg.Loop.PhysicsHz)
	envInt("ARENA_BROADCAST_HZ", &cfg.Loop.BroadcastHz)
	envInt("ARENA_MAX_SCORE", &cfg.Rules.MaxScore)
	envInt("ARENA_SEND_BUFFER", &cfg.Server.SendBuffer)
	envString("ARENA_ADDR", &cfg.Server.Addr)
	envString("ARENA_DB", &cfg.Server.DBPath)
	envString("ARENA_INVITE_URL", &cfg.Server.InviteURL)
}

func envFloat(name string, dst *float64) {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			*dst = v
		}
	}
}

func envInt(name string, dst *int) {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*dst = v
		}
	}
}

func envString(name string, dst *string) {
	if raw := os.Getenv(name); raw != "" {
		*dst = raw
	}
}
