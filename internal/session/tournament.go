package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// tournamentHandler drives an operator-run bracket: one connection creates
// the roster and plays every pairing on both paddles.
type tournamentHandler struct {
	s *Session

	// mu guards the bracket: handler messages and match finish hooks arrive
	// on different goroutines.
	mu   sync.Mutex
	tour *tournament.Tournament
}

func (h *tournamentHandler) handle(_ context.Context, msg *protocol.Message) error {
	s := h.s
	switch msg.Type {
	case protocol.TypeNewTournament:
		tour, err := tournament.New(msg.Players, rand.New(rand.NewSource(time.Now().UnixNano())))
		if err != nil {
			return &UserError{Message: err.Error()}
		}
		if m := s.Match(); m != nil {
			m.Stop()
			s.setMatch(nil)
		}
		h.mu.Lock()
		h.tour = tour
		h.mu.Unlock()
		// The first pairing's match starts immediately.
		return h.advance()

	case protocol.TypeNewGame:
		m := s.Match()
		if m == nil || m.State() != match.StateWaiting {
			return userErrorf("no pairing waiting to start")
		}
		m.StartCountdown()
		return nil

	case protocol.TypeNextGame:
		return h.advance()

	default:
		return userErrorf("unsupported message type %q", msg.Type)
	}
}

// advance discards any unfinished current match and sets up the next
// pairing's match, or finalizes the bracket when none remains.
func (h *tournamentHandler) advance() error {
	s := h.s
	if m := s.Match(); m != nil {
		m.Stop()
		s.setMatch(nil)
	}

	h.mu.Lock()
	tour := h.tour
	if tour == nil {
		h.mu.Unlock()
		return userErrorf("no tournament in progress")
	}
	pair, ok := tour.NextPair()
	h.mu.Unlock()

	if !ok {
		h.finalize()
		return nil
	}

	m := s.newMatch(match.ModeTournament)
	m.Connect(1, pair.Player1, s.conn)
	m.Connect(2, pair.Player2, nil)
	m.SetFinishHandler(func(result match.Result) {
		h.mu.Lock()
		if h.tour != nil {
			h.tour.AddWinner(result.Winner)
		}
		h.mu.Unlock()
	})
	s.deps.Registry.AddMatch(m)
	s.setMatch(m)
	s.logger.Info("tournament pairing ready",
		"round", pair.Round, "player1", pair.Player1.Name, "player2", pair.Player2.Name)
	m.SendSetup(1)
	return nil
}

// finalize announces the champion and tears the bracket down.
func (h *tournamentHandler) finalize() {
	h.mu.Lock()
	tour := h.tour
	h.tour = nil
	h.mu.Unlock()
	if tour == nil {
		return
	}

	frame := protocol.GameResult{Type: protocol.TypeGameResult, Mode: match.ModeTournament.String()}
	if champ, ok := tour.Champion(); ok {
		frame.Data.Winner = champ.Name
	}
	if err := h.s.conn.Send(frame); err != nil {
		h.s.logger.Debug("final result frame dropped", "error", err)
	}
	h.s.logger.Info("tournament complete", "champion", frame.Data.Winner)
}

func (h *tournamentHandler) onClose() {
	if m := h.s.Match(); m != nil {
		m.Stop()
	}
}
