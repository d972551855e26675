package tournament

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/vovakirdan/pong-arena/internal/match"
)

// ErrNoPairing means the requesting player has no pairing yet: either their
// opponents are still playing, or the round has not filled.
var ErrNoPairing = errors.New("tournament: no pairing available yet")

// ErrEliminated means the requesting player is no longer in the bracket.
var ErrEliminated = errors.New("tournament: player eliminated")

// Remote is a live tournament whose participants each connect individually.
// Pool membership follows connection events rather than a fixed roster, and
// each participant's live connection is tracked for reconnection. Accessed by
// many sessions, so every operation is mutex-guarded.
type Remote struct {
	mu      sync.Mutex
	bracket Tournament
	started bool

	conns  map[string]match.Client // playerID -> live connection
	active map[string]*activeGame  // playerID -> game in progress
}

type activeGame struct {
	pairing Pairing
	match   *match.Match
}

// NewRemote creates an empty live tournament.
func NewRemote(rng *rand.Rand) *Remote {
	return &Remote{
		bracket: Tournament{rng: rng},
		conns:   make(map[string]match.Client),
		active:  make(map[string]*activeGame),
	}
}

// Join adds a player to the waiting pool (once play begins the pool is
// closed, so late joiners only attach a connection if already members) and
// records their live connection.
func (rt *Remote) Join(p match.PlayerInfo, c match.Client) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.conns[p.ID] = c
	if rt.started || rt.isMemberLocked(p.ID) {
		return
	}
	rt.bracket.pool = append(rt.bracket.pool, Entrant{Player: p})
}

// IsMember reports whether the player belongs to this tournament: waiting in
// the pool or bound to an active game.
func (rt *Remote) IsMember(playerID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.isMemberLocked(playerID)
}

// isMemberLocked covers all three places a live participant can sit: bound to
// a running game, waiting in the pool, or named in a pairing still queued for
// its round (the round draw drains the pool into the queue all at once).
func (rt *Remote) isMemberLocked(playerID string) bool {
	if _, ok := rt.active[playerID]; ok {
		return true
	}
	for _, e := range rt.bracket.pool {
		if e.Player.ID == playerID {
			return true
		}
	}
	for _, p := range rt.bracket.queue {
		if p.Player1.ID == playerID || p.Player2.ID == playerID {
			return true
		}
	}
	return false
}

// Reconnect rebinds a returning participant's connection and returns their
// current match, if any.
func (rt *Remote) Reconnect(playerID string, c match.Client) (*match.Match, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.conns[playerID] = c
	if g, ok := rt.active[playerID]; ok {
		return g.match, true
	}
	return nil, false
}

// NextFor hands the requesting player their next game. The first participant
// of a drawn pairing creates the match through the given factory and takes
// seat 1; the second finds it already active and takes seat 2. ErrNoPairing
// is returned while the player must wait, ErrEliminated once they are out.
func (rt *Remote) NextFor(playerID string, create func(Pairing) *match.Match) (*match.Match, int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if g, ok := rt.active[playerID]; ok {
		if g.pairing.Player1.ID == playerID {
			return g.match, 1, nil
		}
		return g.match, 2, nil
	}
	if !rt.isMemberLocked(playerID) {
		return nil, 0, ErrEliminated
	}

	// Refill the round queue from the pool if needed, then look for a
	// pairing involving this player. Pairings not involving them stay queued.
	if len(rt.bracket.queue) == 0 {
		rt.bracket.generateRound()
		if rt.bracket.round > 0 {
			rt.started = true
		}
	}
	idx := -1
	for i, p := range rt.bracket.queue {
		if p.Player1.ID == playerID || p.Player2.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, 0, ErrNoPairing
	}
	pairing := rt.bracket.queue[idx]
	rt.bracket.queue = append(rt.bracket.queue[:idx], rt.bracket.queue[idx+1:]...)

	m := create(pairing)
	g := &activeGame{pairing: pairing, match: m}
	rt.active[pairing.Player1.ID] = g
	rt.active[pairing.Player2.ID] = g

	if pairing.Player1.ID == playerID {
		return m, 1, nil
	}
	return m, 2, nil
}

// Conn returns a participant's live connection, if any.
func (rt *Remote) Conn(playerID string) (match.Client, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	c, ok := rt.conns[playerID]
	return c, ok
}

// Advance records a finished game: the winner re-enters the pool, the loser
// leaves the bracket.
func (rt *Remote) Advance(result match.Result) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.active, result.Winner.ID)
	delete(rt.active, result.Loser.ID)
	rt.bracket.AddWinner(result.Winner)
}

// Champion returns the overall winner once the bracket is exhausted.
func (rt *Remote) Champion() (match.PlayerInfo, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.started || len(rt.active) > 0 {
		return match.PlayerInfo{}, false
	}
	return rt.bracket.Champion()
}

// Detach drops a participant's connection without removing them from the
// bracket, and reports how many live connections remain.
func (rt *Remote) Detach(playerID string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.conns, playerID)
	return len(rt.conns)
}

// Stop halts every game still in progress. Used on registry shutdown.
func (rt *Remote) Stop() {
	rt.mu.Lock()
	games := make(map[*activeGame]bool)
	for _, g := range rt.active {
		games[g] = true
	}
	rt.mu.Unlock()

	for g := range games {
		g.match.Stop()
	}
}
