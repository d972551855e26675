package session

import (
	"context"

	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/registry"
)

// remoteHandler implements global one-on-one matchmaking through the single
// waiting-remote-player slot.
type remoteHandler struct {
	s *Session
}

func (h *remoteHandler) handle(_ context.Context, msg *protocol.Message) error {
	s := h.s
	switch msg.Type {
	case protocol.TypeNewGame:
		m, outcome := s.deps.Registry.MatchRemote(s.player, s.conn, func() *match.Match {
			m := s.newMatch(match.ModeRemote)
			m.Connect(1, s.player, s.conn)
			return m
		})
		s.setMatch(m)

		switch outcome {
		case registry.OutcomeReconnected:
			if slot, ok := m.Rebind(s.player.ID, s.conn); ok {
				m.SendSetup(slot)
			}
		case registry.OutcomePaired:
			m.Connect(2, s.player, s.conn)
			s.logger.Info("remote match paired", "match", m.ID())
			m.StartCountdown()
		case registry.OutcomeCreated:
			m.SendSetup(1)
		}
		return nil

	case protocol.TypeNextGame:
		h.teardown()
		return nil

	default:
		return userErrorf("unsupported message type %q", msg.Type)
	}
}

// teardown fully deregisters this user: the match stops (its cleanup purges
// the user's registry row) and the waiting slot is cleared if it was theirs.
func (h *remoteHandler) teardown() {
	s := h.s
	s.deps.Registry.ClearWaitingIf(s.player.ID)
	if m := s.Match(); m != nil {
		m.Stop()
		s.setMatch(nil)
	}
	s.deps.Registry.RemoveUserMatch(s.player.ID, "")
}

func (h *remoteHandler) onClose() {
	s := h.s
	s.deps.Registry.ClearWaitingIf(s.player.ID)
	m := s.Match()
	if m == nil {
		return
	}
	// Tear the match down only when no other participant remains bound;
	// a still-connected opponent keeps it alive for reconnection.
	if m.Disconnect(s.conn) == 0 {
		m.Stop()
	}
}
