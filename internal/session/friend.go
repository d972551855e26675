package session

import (
	"context"
	"errors"

	"github.com/vovakirdan/pong-arena/internal/invite"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/registry"
)

// friendHandler implements invite-scoped matchmaking: only the two parties of
// a validated invite may fill the match registered under its id.
type friendHandler struct {
	s        *Session
	inviteID string
}

func (h *friendHandler) handle(ctx context.Context, msg *protocol.Message) error {
	s := h.s
	switch msg.Type {
	case protocol.TypeNewGame:
		if h.inviteID == "" {
			return userErrorf("missing invite id")
		}

		// Reconnection short-circuits invite validation: the invite was
		// already validated when this user first joined.
		if m, ok := s.deps.Registry.UserMatch(s.player.ID, h.inviteID); ok {
			h.bind(m)
			return nil
		}

		// Awaited foreign call, deliberately outside any registry lock.
		inv, err := s.deps.Invites.Lookup(ctx, h.inviteID)
		if errors.Is(err, invite.ErrNotFound) {
			return userErrorf("invite %s not found or expired", h.inviteID)
		}
		if err != nil {
			s.logger.Warn("invite lookup failed", "invite", h.inviteID, "error", err)
			return userErrorf("could not validate invite %s", h.inviteID)
		}
		if !inv.Involves(s.player.ID) {
			return userErrorf("you are not a participant of invite %s", h.inviteID)
		}

		m, outcome := s.deps.Registry.MatchFriend(h.inviteID, s.player, func() *match.Match {
			m := s.newMatch(match.ModeFriend)
			m.SetInviteID(h.inviteID)
			m.Connect(1, s.player, s.conn)
			return m
		})
		switch outcome {
		case registry.OutcomeCreated:
			s.setMatch(m)
			m.SendSetup(1)
		default:
			// Second participant fills the remaining seat, or reclaims a
			// disconnected one.
			h.bind(m)
		}
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

// bind attaches this connection to the invite's match: by player identity
// when this user already held a seat, otherwise through the first seat
// without a live connection. Countdown starts once both seats are held.
func (h *friendHandler) bind(m *match.Match) {
	s := h.s
	slot, ok := m.Rebind(s.player.ID, s.conn)
	if !ok {
		slot = m.OpenSeat()
		if slot == 0 {
			s.sendError("match is full")
			return
		}
		m.Connect(slot, s.player, s.conn)
	}
	s.setMatch(m)

	if m.State() == match.StateWaiting && m.LiveClients() == 2 {
		m.StartCountdown()
		return
	}
	m.SendSetup(slot)
}

func (h *friendHandler) onClose() {
	m := h.s.Match()
	if m == nil {
		return
	}
	if m.Disconnect(h.s.conn) == 0 {
		m.Stop()
	}
}
