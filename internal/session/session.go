// Package session implements the per-connection protocol state machine: a
// shared dispatcher that frames, validates and routes inbound messages, and
// six mode strategies (local, ai, remote, friend, tournament,
// remoteTournament) that drive match, registry and tournament lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/invite"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/registry"
)

// Conn is the outbound half of a client connection. A Conn also serves as the
// match.Client bound to a seat.
type Conn interface {
	Send(v any) error
	Close() error
}

// UserError carries a message safe to echo to the client: roster validation
// failures, invite rejections. Every other handler error is answered with a
// generic error frame.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

func userErrorf(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// Deps bundles the collaborators shared by all sessions. The registry is an
// explicit service object, not ambient state.
type Deps struct {
	Config   config.Config
	Registry *registry.Registry
	Reporter match.ResultReporter
	Invites  invite.Service
	Logger   *log.Logger
}

// handler is one mode's message strategy.
type handler interface {
	handle(ctx context.Context, msg *protocol.Message) error
	onClose()
}

// Session is one client connection's protocol state. It holds at most one
// match reference at a time.
type Session struct {
	conn    Conn
	player  match.PlayerInfo
	deps    Deps
	logger  *log.Logger
	handler handler

	mu    sync.Mutex
	match *match.Match
}

// New creates a session for one inbound connection. The mode selects the
// message strategy; inviteID scopes friend-mode sessions.
func New(mode match.Mode, conn Conn, player match.PlayerInfo, inviteID string, deps Deps) *Session {
	s := &Session{
		conn:   conn,
		player: player,
		deps:   deps,
		logger: deps.Logger.With("user", player.ID, "mode", mode.String()),
	}
	switch mode {
	case match.ModeAI:
		s.handler = &aiHandler{s: s}
	case match.ModeRemote:
		s.handler = &remoteHandler{s: s}
	case match.ModeFriend:
		s.handler = &friendHandler{s: s, inviteID: inviteID}
	case match.ModeTournament:
		s.handler = &tournamentHandler{s: s}
	case match.ModeRemoteTournament:
		s.handler = &remoteTournamentHandler{s: s}
	default:
		s.handler = &localHandler{s: s}
	}
	return s
}

// Handle processes one raw inbound frame. Parse failures and handler faults
// answer with an error frame and keep the connection open; player input is
// applied directly to the bound match and short-circuits mode dispatch.
func (s *Session) Handle(ctx context.Context, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "panic", r)
			s.sendError("internal error")
		}
	}()

	msg, err := protocol.Decode(raw)
	if err != nil {
		s.logger.Debug("unparsable frame", "error", err)
		s.sendError("invalid message")
		return
	}

	if msg.Type == protocol.TypePlayerInput {
		in, err := msg.Input()
		if err != nil {
			s.sendError("invalid message")
			return
		}
		if m := s.Match(); m != nil {
			m.ApplyInput(in.Player, in.Action)
		}
		return
	}

	if err := s.handler.handle(ctx, msg); err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			s.logger.Info("request rejected", "type", msg.Type, "reason", ue.Message)
			s.sendError(ue.Message)
			return
		}
		s.logger.Error("handler failed", "type", msg.Type, "error", err)
		s.sendError("internal error")
	}
}

// Close runs the mode's teardown. Called once when the connection ends.
func (s *Session) Close() {
	s.handler.onClose()
}

// Match returns the currently bound match, if any.
func (s *Session) Match() *match.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match
}

func (s *Session) setMatch(m *match.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.match = m
}

func (s *Session) sendError(message string) {
	if err := s.conn.Send(protocol.Error(message)); err != nil {
		s.logger.Debug("error frame dropped", "error", err)
	}
}

// newMatch builds a match wired to the session's collaborators. The caller is
// responsible for registering it (compound registry operations register
// matches themselves).
func (s *Session) newMatch(mode match.Mode) *match.Match {
	m := match.New(mode, s.settings(), s.deps.Logger)
	m.SetReporter(s.deps.Reporter)
	m.SetCleanup(s.deps.Registry.CleanupMatch)
	return m
}

// settings maps the loaded configuration onto one match's knobs.
func (s *Session) settings() match.Settings {
	cfg := s.deps.Config
	return match.Settings{
		FieldWidth:   cfg.Field.Width,
		FieldHeight:  cfg.Field.Height,
		BallRadius:   cfg.Ball.Radius,
		BallSpeed:    cfg.Ball.Speed,
		PaddleLength: cfg.Paddle.Length,
		PaddleWidth:  cfg.Paddle.Width,
		PaddleSpeed:  cfg.Paddle.Speed,
		PaddleOffset: cfg.Paddle.Offset,
		PhysicsHz:    cfg.Loop.PhysicsHz,
		BroadcastHz:  cfg.Loop.BroadcastHz,
		MaxScore:     cfg.Rules.MaxScore,
	}
}
