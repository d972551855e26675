package config

import (
	"time"

	"github.com/vovakirdan/pong-arena/internal/pong"
)

// Difficulty is a named AI opponent preset.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates a difficulty name. The empty string maps to
// medium.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch Difficulty(raw) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(raw), true
	case "":
		return DifficultyMedium, true
	default:
		return "", false
	}
}

// AIProfile returns the opponent tuning for a preset: how quickly it replans
// and how large its aiming error is relative to paddle length.
func (d Difficulty) AIProfile() pong.AIProfile {
	switch d {
	case DifficultyEasy:
		return pong.AIProfile{Reaction: 1200 * time.Millisecond, ErrorFrac: 0.70}
	case DifficultyHard:
		return pong.AIProfile{Reaction: 300 * time.Millisecond, ErrorFrac: 0.20}
	default:
		return pong.AIProfile{Reaction: 700 * time.Millisecond, ErrorFrac: 0.50}
	}
}
