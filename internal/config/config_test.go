package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCustomPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "arena.yaml")
	content := []byte(`
field:
  width: 1024
  height: 768
rules:
  max_score: 11
server:
  addr: ":9000"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Field.Width != 1024 || cfg.Field.Height != 768 {
		t.Errorf("Field = %+v", cfg.Field)
	}
	if cfg.Rules.MaxScore != 11 {
		t.Errorf("MaxScore = %d, want 11", cfg.Rules.MaxScore)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
	}
}

// A config file naming only some settings must overlay the defaults, not
// replace them: a zero physics rate would break every match loop.
func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "arena.yaml")
	content := []byte("server:\n  addr: \":9999\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Server.Addr)
	}

	def := Default()
	if cfg.Loop.PhysicsHz != def.Loop.PhysicsHz || cfg.Loop.BroadcastHz != def.Loop.BroadcastHz {
		t.Errorf("Loop = %+v, want defaults %+v", cfg.Loop, def.Loop)
	}
	if cfg.Field.Width != def.Field.Width || cfg.Field.Height != def.Field.Height {
		t.Errorf("Field = %+v, want defaults %+v", cfg.Field, def.Field)
	}
	if cfg.Rules.MaxScore != def.Rules.MaxScore {
		t.Errorf("MaxScore = %d, want %d", cfg.Rules.MaxScore, def.Rules.MaxScore)
	}
	if cfg.Ball.Speed != def.Ball.Speed || cfg.Paddle.Length != def.Paddle.Length {
		t.Error("Ball/paddle settings must keep their defaults")
	}
}

func TestLoadMissingCustomPathFails(t *testing.T) {
	if _, err := Load("/nonexistent/arena.yaml"); err == nil {
		t.Error("Load() with a missing explicit path should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARENA_MAX_SCORE", "7")
	t.Setenv("ARENA_BALL_SPEED", "14.5")
	t.Setenv("ARENA_ADDR", ":7777")
	t.Setenv("ARENA_PHYSICS_HZ", "not-a-number") // ignored

	cfg := Default()
	applyEnv(&cfg)

	if cfg.Rules.MaxScore != 7 {
		t.Errorf("MaxScore = %d, want 7", cfg.Rules.MaxScore)
	}
	if cfg.Ball.Speed != 14.5 {
		t.Errorf("Ball.Speed = %v, want 14.5", cfg.Ball.Speed)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("Addr = %q, want :7777", cfg.Server.Addr)
	}
	if cfg.Loop.PhysicsHz != 60 {
		t.Errorf("Malformed env var must not change PhysicsHz, got %d", cfg.Loop.PhysicsHz)
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := []struct {
		raw  string
		want Difficulty
		ok   bool
	}{
		{"easy", DifficultyEasy, true},
		{"medium", DifficultyMedium, true},
		{"hard", DifficultyHard, true},
		{"", DifficultyMedium, true},
		{"nightmare", "", false},
		{"Easy", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDifficulty(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseDifficulty(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDifficultyProfilesOrdered(t *testing.T) {
	easy := DifficultyEasy.AIProfile()
	medium := DifficultyMedium.AIProfile()
	hard := DifficultyHard.AIProfile()

	if !(hard.Reaction < medium.Reaction && medium.Reaction < easy.Reaction) {
		t.Error("Harder presets must react faster")
	}
	if !(hard.ErrorFrac < medium.ErrorFrac && medium.ErrorFrac < easy.ErrorFrac) {
		t.Error("Harder presets must aim more precisely")
	}
}
