package session

import (
	"context"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// aiHandler drives solo play against the scripted opponent on seat 2.
type aiHandler struct {
	s *Session
}

func (h *aiHandler) handle(_ context.Context, msg *protocol.Message) error {
	s := h.s
	switch msg.Type {
	case protocol.TypeNewGame:
		// Validate before touching any state: a bad difficulty changes nothing.
		difficulty, ok := config.ParseDifficulty(msg.Difficulty)
		if !ok {
			return userErrorf("invalid difficulty %q", msg.Difficulty)
		}

		if m := s.Match(); m != nil {
			m.Stop()
		}
		m := s.newMatch(match.ModeAI)
		m.EnableAI(difficulty.AIProfile())
		m.Connect(1, s.player, s.conn)
		m.Connect(2, match.PlayerInfo{Name: "Computer"}, nil)
		s.deps.Registry.AddMatch(m)
		s.setMatch(m)
		m.StartCountdown()
		return nil

	case protocol.TypeNextGame:
		if m := s.Match(); m != nil {
			m.Stop()
			s.setMatch(nil)
		}
		return nil

	default:
		return userErrorf("unsupported message type %q", msg.Type)
	}
}

func (h *aiHandler) onClose() {
	if m := h.s.Match(); m != nil {
		m.Stop()
	}
}
