package tournament

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/match"
)

type recordClient struct{ id string }

func (recordClient) Send(any) error { return nil }

func remoteMatch() *match.Match {
	return match.New(match.ModeRemoteTournament, match.Settings{
		FieldWidth: 800, FieldHeight: 600,
		BallRadius: 10, BallSpeed: 10,
		PaddleLength: 100, PaddleWidth: 10, PaddleSpeed: 10, PaddleOffset: 20,
		PhysicsHz: 60, BroadcastHz: 30, MaxScore: 5,
	}, log.New(io.Discard))
}

func TestRemoteJoinAndMembership(t *testing.T) {
	rt := NewRemote(rand.New(rand.NewSource(1)))

	rt.Join(match.PlayerInfo{ID: "a"}, recordClient{"a"})
	rt.Join(match.PlayerInfo{ID: "b"}, recordClient{"b"})
	rt.Join(match.PlayerInfo{ID: "a"}, recordClient{"a2"}) // rejoining must not duplicate

	if !rt.IsMember("a") || !rt.IsMember("b") {
		t.Error("Joined players should be members")
	}
	if rt.IsMember("c") {
		t.Error("Unknown player should not be a member")
	}
	if rt.bracket.PoolSize() != 2 {
		t.Errorf("Pool size = %d, want 2", rt.bracket.PoolSize())
	}
}

func TestRemoteNextForPairsTwoPlayers(t *testing.T) {
	rt := NewRemote(rand.New(rand.NewSource(1)))
	rt.Join(match.PlayerInfo{ID: "a", Name: "A"}, recordClient{"a"})
	rt.Join(match.PlayerInfo{ID: "b", Name: "B"}, recordClient{"b"})

	created := 0
	factory := func(Pairing) *match.Match {
		created++
		return remoteMatch()
	}

	m1, slot1, err := rt.NextFor("a", factory)
	if err != nil {
		t.Fatalf("NextFor(a) failed: %v", err)
	}
	m2, slot2, err := rt.NextFor("b", factory)
	if err != nil {
		t.Fatalf("NextFor(b) failed: %v", err)
	}

	if created != 1 {
		t.Errorf("Factory called %d times, want 1", created)
	}
	if m1 != m2 {
		t.Error("Both players should share one match")
	}
	if slot1 == slot2 || slot1 < 1 || slot1 > 2 || slot2 < 1 || slot2 > 2 {
		t.Errorf("Slots = %d, %d, want 1 and 2 in some order", slot1, slot2)
	}

	// Asking again while the game runs returns the same match
	again, _, err := rt.NextFor("a", func(Pairing) *match.Match {
		t.Fatal("Factory must not be called for an active player")
		return nil
	})
	if err != nil || again != m1 {
		t.Error("Active player should get their current match back")
	}
}

func TestRemoteBracketAdvancesToChampion(t *testing.T) {
	rt := NewRemote(rand.New(rand.NewSource(7)))
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		rt.Join(match.PlayerInfo{ID: id, Name: id}, recordClient{id})
	}

	factory := func(Pairing) *match.Match { return remoteMatch() }

	// Round 1: both pairings form
	games := make(map[*match.Match]Pairing)
	for _, id := range ids {
		m, _, err := rt.NextFor(id, factory)
		if err != nil {
			t.Fatalf("NextFor(%s) failed: %v", id, err)
		}
		if g, ok := rt.active[id]; ok {
			games[m] = g.pairing
		}
	}
	if len(games) != 2 {
		t.Fatalf("Round 1 produced %d games, want 2", len(games))
	}

	// First pairing's player1 wins; while the other game runs the winner
	// has no pairing yet.
	var winners []match.PlayerInfo
	first := true
	for _, p := range games {
		rt.Advance(match.Result{Winner: p.Player1, Loser: p.Player2})
		winners = append(winners, p.Player1)
		if first {
			if _, _, err := rt.NextFor(p.Player1.ID, factory); err != ErrNoPairing {
				t.Errorf("Early winner NextFor error = %v, want ErrNoPairing", err)
			}
			first = false
		}
	}
	if _, ok := rt.Champion(); ok {
		t.Error("No champion before the final")
	}

	// Final round
	fm, _, err := rt.NextFor(winners[0].ID, factory)
	if err != nil {
		t.Fatalf("Final NextFor failed: %v", err)
	}
	finalPair := rt.active[winners[0].ID].pairing
	_ = fm
	rt.Advance(match.Result{Winner: finalPair.Player1, Loser: finalPair.Player2})

	champ, ok := rt.Champion()
	if !ok {
		t.Fatal("Champion should be decided after the final")
	}
	if champ.ID != finalPair.Player1.ID {
		t.Errorf("Champion = %s, want %s", champ.ID, finalPair.Player1.ID)
	}

	// Everyone else is out
	loser := finalPair.Player2
	if _, _, err := rt.NextFor(loser.ID, factory); err != ErrEliminated {
		t.Errorf("Eliminated player NextFor error = %v, want ErrEliminated", err)
	}
}

// The round draw moves every pool entrant into the pairing queue at once.
// Players whose pairing has not been consumed yet are neither active nor
// pooled, but they are still in the bracket: membership must hold and NextFor
// must hand them their queued game, not an elimination.
func TestRemoteQueuedPairingPlayersStayMembers(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		rt := NewRemote(rand.New(rand.NewSource(seed)))
		ids := []string{"a", "b", "c", "d"}
		for _, id := range ids {
			rt.Join(match.PlayerInfo{ID: id, Name: id}, recordClient{id})
		}

		// One call draws the whole round; its pairing becomes active, the
		// other pairing stays queued.
		first, _, err := rt.NextFor("a", func(Pairing) *match.Match { return remoteMatch() })
		if err != nil {
			t.Fatalf("seed %d: NextFor(a) failed: %v", seed, err)
		}

		for _, id := range ids {
			if !rt.IsMember(id) {
				t.Fatalf("seed %d: player %s lost membership while their pairing was queued", seed, id)
			}
		}

		for _, id := range ids {
			m, _, err := rt.NextFor(id, func(Pairing) *match.Match { return remoteMatch() })
			if err != nil {
				t.Fatalf("seed %d: NextFor(%s) = %v, want a match", seed, id, err)
			}
			if m == nil {
				t.Fatalf("seed %d: NextFor(%s) returned no match", seed, id)
			}
		}
		_ = first
	}
}

func TestRemoteReconnectAndDetach(t *testing.T) {
	rt := NewRemote(rand.New(rand.NewSource(1)))
	rt.Join(match.PlayerInfo{ID: "a"}, recordClient{"a"})
	rt.Join(match.PlayerInfo{ID: "b"}, recordClient{"b"})

	m, _, err := rt.NextFor("a", func(Pairing) *match.Match { return remoteMatch() })
	if err != nil {
		t.Fatalf("NextFor failed: %v", err)
	}

	got, ok := rt.Reconnect("a", recordClient{"a2"})
	if !ok || got != m {
		t.Error("Reconnect should return the active match")
	}
	if c, ok := rt.Conn("a"); !ok || c != (recordClient{"a2"}) {
		t.Error("Reconnect should replace the stored connection")
	}

	if n := rt.Detach("a"); n != 1 {
		t.Errorf("Detach left %d connections, want 1", n)
	}
	if !rt.IsMember("a") {
		t.Error("Detach must not remove bracket membership")
	}
}
