package config

import (
	_ "embed"
)

//go:embed defaults/arena.yaml
var defaultArenaYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Field: FieldConfig{
			Width:  800,
			Height: 600,
		},
		Ball: BallConfig{
			Radius: 10,
			Speed:  10,
		},
		Paddle: PaddleConfig{
			Length: 100,
			Width:  10,
			Speed:  10,
			Offset: 20,
		},
		Loop: LoopConfig{
			PhysicsHz:   60,
			BroadcastHz: 30,
		},
		Rules: RulesConfig{
			MaxScore: 5,
		},
		Server: ServerConfig{
			Addr:       ":8081",
			DBPath:     "~/.arena/results.db",
			SendBuffer: 64,
		},
	}
}
