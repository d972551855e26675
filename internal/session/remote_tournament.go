package session

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// remoteTournamentHandler drives live tournaments where every participant
// connects individually: join the shared waiting tournament, request the next
// pairing, reconnect into a running game.
type remoteTournamentHandler struct {
	s  *Session
	rt *tournament.Remote
}

func (h *remoteTournamentHandler) handle(_ context.Context, msg *protocol.Message) error {
	s := h.s
	switch msg.Type {
	case protocol.TypeNewGame:
		// Returning participants reconnect instead of joining a new pool.
		if rt, ok := s.deps.Registry.TournamentFor(s.player.ID); ok {
			h.rt = rt
			if m, ok := rt.Reconnect(s.player.ID, s.conn); ok {
				if slot, bound := m.Rebind(s.player.ID, s.conn); bound {
					s.setMatch(m)
					m.SendSetup(slot)
				}
			}
			return nil
		}

		rt := s.deps.Registry.JoinTournament(func() *tournament.Remote {
			return tournament.NewRemote(rand.New(rand.NewSource(time.Now().UnixNano())))
		})
		rt.Join(s.player, s.conn)
		h.rt = rt
		s.logger.Info("joined remote tournament")
		return nil

	case protocol.TypeNextGame:
		rt := h.rt
		if rt == nil {
			var ok bool
			rt, ok = s.deps.Registry.TournamentFor(s.player.ID)
			if !ok {
				return userErrorf("not in a tournament")
			}
			h.rt = rt
		}

		m, slot, err := rt.NextFor(s.player.ID, func(pair tournament.Pairing) *match.Match {
			m := s.newMatch(match.ModeRemoteTournament)
			m.Connect(1, pair.Player1, nil)
			m.Connect(2, pair.Player2, nil)
			m.SetFinishHandler(func(result match.Result) {
				h.advance(rt, result)
			})
			s.deps.Registry.AddMatch(m)
			return m
		})
		switch {
		case errors.Is(err, tournament.ErrNoPairing):
			return userErrorf("no pairing available yet")
		case errors.Is(err, tournament.ErrEliminated):
			return userErrorf("you have been eliminated")
		case err != nil:
			return err
		}

		m.Rebind(s.player.ID, s.conn)
		s.setMatch(m)

		if m.State() == match.StateWaiting && m.LiveClients() == 2 {
			m.StartCountdown()
		} else {
			m.SendSetup(slot)
		}
		return nil

	default:
		return userErrorf("unsupported message type %q", msg.Type)
	}
}

// advance records a finished game in the bracket and, when that was the
// final, announces the champion and removes the tournament.
func (h *remoteTournamentHandler) advance(rt *tournament.Remote, result match.Result) {
	rt.Advance(result)
	champ, ok := rt.Champion()
	if !ok {
		return
	}

	if c, live := rt.Conn(champ.ID); live {
		frame := protocol.GameResult{Type: protocol.TypeGameResult, Mode: match.ModeRemoteTournament.String()}
		frame.Data.Winner = champ.Name
		if err := c.Send(frame); err != nil {
			h.s.logger.Debug("champion frame dropped", "error", err)
		}
	}
	h.s.deps.Registry.RemoveTournament(rt)
	h.s.logger.Info("remote tournament complete", "champion", champ.Name)
}

// onClose detaches the connection from the tournament without destroying it;
// the bracket survives for reconnection until no connections remain.
func (h *remoteTournamentHandler) onClose() {
	s := h.s
	if m := s.Match(); m != nil {
		m.Disconnect(s.conn)
	}
	if h.rt == nil {
		return
	}
	if h.rt.Detach(s.player.ID) == 0 {
		h.rt.Stop()
		s.deps.Registry.RemoveTournament(h.rt)
		s.logger.Info("remote tournament abandoned")
	}
}
