package session

import (
	"context"

	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// localHandler drives ad-hoc local play: one connection, both paddles.
type localHandler struct {
	s *Session
}

func (h *localHandler) handle(_ context.Context, msg *protocol.Message) error {
	s := h.s
	switch msg.Type {
	case protocol.TypeNewGame:
		// A new game always replaces whatever match this connection held.
		if m := s.Match(); m != nil {
			m.Stop()
		}
		m := s.newMatch(match.ModeLocal)
		m.Connect(1, s.player, s.conn)
		m.Connect(2, match.PlayerInfo{Name: "Player 2"}, nil)
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

func (h *localHandler) onClose() {
	if m := h.s.Match(); m != nil {
		m.Stop()
	}
}
