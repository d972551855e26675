// Package config provides YAML-based configuration loading with environment
// overrides and difficulty presets for the match server.
package config

// Config is the full server configuration.
type Config struct {
	Field  FieldConfig  `yaml:"field"`
	Ball   BallConfig   `yaml:"ball"`
	Paddle PaddleConfig `yaml:"paddle"`
	Loop   LoopConfig   `yaml:"loop"`
	Rules  RulesConfig  `yaml:"rules"`
	Server ServerConfig `yaml:"server"`
}

// FieldConfig defines the playing area.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// BallConfig defines ball geometry and serve speed (units per physics tick).
type BallConfig struct {
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"`
}

// PaddleConfig defines paddle geometry and movement speed.
type PaddleConfig struct {
	Length float64 `yaml:"length"`
	Width  float64 `yaml:"width"`
	Speed  float64 `yaml:"speed"`
	Offset float64 `yaml:"offset"` // Distance from the field edge
}

// LoopConfig defines the two tick rates of the match loop.
type LoopConfig struct {
	PhysicsHz   int `yaml:"physics_hz"`
	BroadcastHz int `yaml:"broadcast_hz"`
}

// RulesConfig defines the win condition.
type RulesConfig struct {
	MaxScore int `yaml:"max_score"`
}

// ServerConfig defines the network front and collaborator endpoints.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	DBPath     string `yaml:"db"`
	InviteURL  string `yaml:"invite_url"`
	SendBuffer int    `yaml:"send_buffer"`
}
