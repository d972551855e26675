// Package tournament implements single-elimination bracket logic: a static
// variant built from a validated roster and driven by one operator, and a
// remote variant whose pool membership follows live connections.
package tournament

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/vovakirdan/pong-arena/internal/match"
)

// Rosters must hold exactly one of these sizes.
var allowedSizes = map[int]bool{4: true, 8: true}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// Entrant is a waiting-pool member with its running score.
type Entrant struct {
	Player match.PlayerInfo
	Score  int
}

// Pairing is one scheduled game of a round. Immutable once produced.
type Pairing struct {
	Player1 match.PlayerInfo
	Player2 match.PlayerInfo
	Round   int
}

// Tournament is a single-elimination bracket. Pairings for a round are drawn
// uniformly at random without replacement from the waiting pool.
type Tournament struct {
	pool  []Entrant
	queue []Pairing
	round int
	rng   *rand.Rand
}

// ValidateRoster trims the given names and rejects rosters with empty,
// duplicate or pattern-invalid entries or a size other than 4 or 8. Returns
// the cleaned names.
func ValidateRoster(players []string) ([]string, error) {
	names := make([]string, 0, len(players))
	seen := make(map[string]bool, len(players))
	for _, raw := range players {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("tournament: empty player name")
		}
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("tournament: invalid player name %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("tournament: duplicate player name %q", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	if !allowedSizes[len(names)] {
		return nil, fmt.Errorf("tournament: roster must have 4 or 8 players, got %d", len(names))
	}
	return names, nil
}

// New builds a tournament from a roster, validating it first.
func New(players []string, rng *rand.Rand) (*Tournament, error) {
	names, err := ValidateRoster(players)
	if err != nil {
		return nil, err
	}
	t := &Tournament{rng: rng}
	for _, name := range names {
		t.pool = append(t.pool, Entrant{Player: match.PlayerInfo{ID: name, Name: name}})
	}
	return t, nil
}

// NextPair returns the next queued pairing, generating a fresh round from the
// waiting pool only when the current round's queue is empty. Returns false
// once the pool has fewer than two players and no pairings remain.
func (t *Tournament) NextPair() (Pairing, bool) {
	if len(t.queue) == 0 {
		t.generateRound()
	}
	if len(t.queue) == 0 {
		return Pairing{}, false
	}
	p := t.queue[0]
	t.queue = t.queue[1:]
	return p, true
}

// generateRound drains the pool into pairings for the next round: while two
// or more players wait, draw two at random without replacement.
func (t *Tournament) generateRound() {
	if len(t.pool) < 2 {
		return
	}
	t.round++
	for len(t.pool) >= 2 {
		p1 := t.takeRandom()
		p2 := t.takeRandom()
		t.queue = append(t.queue, Pairing{Player1: p1.Player, Player2: p2.Player, Round: t.round})
	}
}

// takeRandom removes and returns a uniformly random pool entrant.
func (t *Tournament) takeRandom() Entrant {
	i := t.rng.Intn(len(t.pool))
	e := t.pool[i]
	t.pool[i] = t.pool[len(t.pool)-1]
	t.pool = t.pool[:len(t.pool)-1]
	return e
}

// AddWinner re-enters a game's winner into the waiting pool with its score
// reset to zero.
func (t *Tournament) AddWinner(p match.PlayerInfo) {
	t.pool = append(t.pool, Entrant{Player: p})
}

// Complete reports whether the bracket is exhausted: fewer than two players
// wait and no pairings are queued.
func (t *Tournament) Complete() bool {
	return len(t.pool) < 2 && len(t.queue) == 0
}

// Champion returns the last player standing once the bracket is complete.
func (t *Tournament) Champion() (match.PlayerInfo, bool) {
	if !t.Complete() || len(t.pool) != 1 {
		return match.PlayerInfo{}, false
	}
	return t.pool[0].Player, true
}

// Round returns the current round number (0 before the first draw).
func (t *Tournament) Round() int {
	return t.round
}

// PoolSize returns the number of players waiting for a pairing.
func (t *Tournament) PoolSize() int {
	return len(t.pool)
}
