// Package match owns one running contest: field, ball, paddles, scores, the
// seats binding players and their connections, and the dual-rate loop that
// drives it. Matches are created by connection sessions and removed from the
// registry through their cleanup callback exactly once, when they stop.
package match

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/pong-arena/internal/pong"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Mode tags how a match was created and which session variant drives it.
type Mode int

const (
	ModeLocal Mode = iota
	ModeAI
	ModeRemote
	ModeFriend
	ModeTournament
	ModeRemoteTournament
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeAI:
		return "ai"
	case ModeRemote:
		return "remote"
	case ModeFriend:
		return "friend"
	case ModeTournament:
		return "tournament"
	case ModeRemoteTournament:
		return "remoteTournament"
	default:
		return "unknown"
	}
}

// Networked reports whether the mode pairs separate connections and therefore
// waits for both seats to hold a live connection before play.
func (m Mode) Networked() bool {
	switch m {
	case ModeRemote, ModeFriend, ModeRemoteTournament:
		return true
	default:
		return false
	}
}

// PlayerInfo is an opaque player identity. The engine never mutates it.
type PlayerInfo struct {
	ID     string
	Name   string
	Avatar string
}

// Client is the transport-neutral handle a match uses to push frames to a
// bound connection. Implementations must not block the loop.
type Client interface {
	Send(v any) error
}

// ResultReporter persists a finished match's outcome. Called fire-and-forget;
// failures are logged and swallowed, never retried.
type ResultReporter interface {
	SaveMatchResult(Result) error
}

// Result is the outcome record handed to the reporter and to finish hooks.
type Result struct {
	MatchID     string
	Mode        Mode
	Winner      PlayerInfo
	Loser       PlayerInfo
	WinnerScore int
	LoserScore  int
	Duration    time.Duration
}

// Settings are the numeric knobs of one match.
type Settings struct {
	FieldWidth   float64
	FieldHeight  float64
	BallRadius   float64
	BallSpeed    float64
	PaddleLength float64
	PaddleWidth  float64
	PaddleSpeed  float64
	PaddleOffset float64
	PhysicsHz    int
	BroadcastHz  int
	MaxScore     int
}

// State is the match lifecycle phase.
type State int

const (
	StateWaiting State = iota
	StateCountdown
	StateLive
	StateStopped
)

type seat struct {
	player PlayerInfo
	client Client
}

// Match is the aggregate root for one contest.
type Match struct {
	id       string
	mode     Mode
	settings Settings
	logger   *log.Logger

	mu        sync.Mutex
	field     pong.Field
	ball      pong.Ball
	paddles   [2]*pong.Paddle
	scores    [2]int
	countdown int
	state     State
	seats     [2]seat
	inviteID  string
	ai        *pong.Opponent
	running   bool
	stopped   bool
	rng       *rand.Rand
	startedAt time.Time

	ctx       context.Context
	cancel    func()
	reporter  ResultReporter
	onCleanup func(*Match)
	onFinish  func(Result)
}

// New creates a match in the Waiting state. The ball is held at center with
// zero velocity until the countdown completes.
func New(mode Mode, s Settings, logger *log.Logger) *Match {
	field := pong.Field{Width: s.FieldWidth, Height: s.FieldHeight}
	m := &Match{
		id:       uuid.NewString(),
		mode:     mode,
		settings: s,
		field:    field,
		state:    StateWaiting,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.logger = logger.With("match", m.id, "mode", mode.String())
	m.paddles[0] = pong.NewPaddle(field, pong.SideLeft, s.PaddleOffset, s.PaddleLength, s.PaddleWidth, s.PaddleSpeed)
	m.paddles[1] = pong.NewPaddle(field, pong.SideRight, s.PaddleOffset, s.PaddleLength, s.PaddleWidth, s.PaddleSpeed)
	m.ball = pong.Ball{Radius: s.BallRadius}
	m.ball.Hold(field)
	return m
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Mode returns the match's mode tag.
func (m *Match) Mode() Mode { return m.mode }

// SetReporter wires the result persistence collaborator.
func (m *Match) SetReporter(r ResultReporter) { m.reporter = r }

// SetCleanup wires the callback invoked exactly once when the match stops.
// Used for registry removal.
func (m *Match) SetCleanup(fn func(*Match)) { m.onCleanup = fn }

// SetFinishHandler wires an optional hook invoked after a match ends by
// reaching max score. Tournament sessions use it to advance the bracket.
func (m *Match) SetFinishHandler(fn func(Result)) { m.onFinish = fn }

// SetInviteID tags the match with the invite that created it (friend mode).
func (m *Match) SetInviteID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inviteID = id
}

// InviteID returns the invite tag, or "".
func (m *Match) InviteID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inviteID
}

// EnableAI attaches a scripted opponent to seat 2.
func (m *Match) EnableAI(profile pong.AIProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ai = pong.NewOpponent(profile, m.rng)
}

// Connect binds a player and an optional live connection to a seat (1 or 2).
func (m *Match) Connect(slot int, p PlayerInfo, c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot < 1 || slot > 2 {
		m.logger.Warn("connect to invalid seat", "slot", slot)
		return
	}
	m.seats[slot-1] = seat{player: p, client: c}
}

// Rebind attaches a fresh connection to the seat already holding the given
// player. Returns the seat number and whether the player was found.
func (m *Match) Rebind(playerID string, c Client) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seats {
		if m.seats[i].player.ID == playerID && m.seats[i].player.ID != "" {
			m.seats[i].client = c
			return i + 1, true
		}
	}
	return 0, false
}

// Disconnect detaches a connection from whichever seat holds it and returns
// the number of live connections left.
func (m *Match) Disconnect(c Client) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seats {
		if m.seats[i].client == c {
			m.seats[i].client = nil
		}
	}
	return m.liveClientsLocked()
}

// LiveClients returns how many seats hold a live connection.
func (m *Match) LiveClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveClientsLocked()
}

func (m *Match) liveClientsLocked() int {
	n := 0
	for i := range m.seats {
		if m.seats[i].client != nil {
			n++
		}
	}
	return n
}

// OpenSeat returns the first seat (1 or 2) without a live connection, or 0
// when both are held. Friend mode uses it to fill or reclaim a seat.
func (m *Match) OpenSeat() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seats {
		if m.seats[i].client == nil {
			return i + 1
		}
	}
	return 0
}

// Players returns both seat identities.
func (m *Match) Players() [2]PlayerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return [2]PlayerInfo{m.seats[0].player, m.seats[1].player}
}

// IsWaiting reports whether a networked match is still missing a live
// connection in one of its seats.
func (m *Match) IsWaiting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode.Networked() && m.state != StateStopped && m.liveClientsLocked() < 2
}

// State returns the current lifecycle phase.
func (m *Match) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Running reports whether the loop is active.
func (m *Match) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// ApplyInput sets a paddle's velocity from a player input action. The short
// dispatch path: sessions call this directly, bypassing mode handlers.
func (m *Match) ApplyInput(slot int, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot < 1 || slot > 2 || m.state == StateStopped {
		return
	}
	// Seat 2 belongs to the opponent script in AI mode.
	if m.ai != nil && slot == 2 {
		return
	}
	p := m.paddles[slot-1]
	switch action {
	case protocol.ActionUp:
		p.Vy = -p.Speed
	case protocol.ActionDown:
		p.Vy = p.Speed
	case protocol.ActionStop:
		p.Vy = 0
	}
}

// gameData builds the shared frame payload. Callers hold m.mu.
func (m *Match) gameDataLocked(withField bool) protocol.GameData {
	data := protocol.GameData{
		Ball: protocol.BallState{X: m.ball.Pos.X, Y: m.ball.Pos.Y, Radius: m.ball.Radius},
		Paddle1: protocol.PaddleState{
			X: m.paddles[0].X, Y: m.paddles[0].Y,
			Length: m.paddles[0].Length, Width: m.paddles[0].Width,
		},
		Paddle2: protocol.PaddleState{
			X: m.paddles[1].X, Y: m.paddles[1].Y,
			Length: m.paddles[1].Length, Width: m.paddles[1].Width,
		},
		Score:     protocol.ScoreState{Player1: m.scores[0], Player2: m.scores[1]},
		Countdown: m.countdown,
	}
	if withField {
		data.Field = &protocol.FieldState{Width: m.field.Width, Height: m.field.Height}
	}
	return data
}

// SendSetup pushes a full setup frame to the given seat's connection.
func (m *Match) SendSetup(slot int) {
	m.mu.Lock()
	if slot < 1 || slot > 2 {
		m.mu.Unlock()
		return
	}
	client := m.seats[slot-1].client
	frame := protocol.GameSetup{
		Type:            protocol.TypeGameSetup,
		PlayerNumber:    slot,
		Data:            m.gameDataLocked(true),
		Player1Username: m.seats[0].player.Name,
		Player2Username: m.seats[1].player.Name,
	}
	m.mu.Unlock()

	if client == nil {
		return
	}
	if err := client.Send(frame); err != nil {
		m.logger.Warn("setup frame dropped", "slot", slot, "error", err)
	}
}
