package session

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/invite"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/registry"
)

// fakeConn records the frames pushed to a client.
type fakeConn struct {
	mu     sync.Mutex
	frames []any
	closed bool
}

func (c *fakeConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) errorMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var msgs []string
	for _, f := range c.frames {
		if e, ok := f.(protocol.ErrorFrame); ok {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func (c *fakeConn) setupFrames() []protocol.GameSetup {
	c.mu.Lock()
	defer c.mu.Unlock()
	var frames []protocol.GameSetup
	for _, f := range c.frames {
		if s, ok := f.(protocol.GameSetup); ok {
			frames = append(frames, s)
		}
	}
	return frames
}

func testDeps(t *testing.T) (Deps, *invite.Static) {
	t.Helper()
	invites := invite.NewStatic()
	deps := Deps{
		Config:   config.Default(),
		Registry: registry.New(log.New(io.Discard)),
		Invites:  invites,
		Logger:   log.New(io.Discard),
	}
	t.Cleanup(deps.Registry.Shutdown)
	return deps, invites
}

func newGameFrame(difficulty string) []byte {
	if difficulty == "" {
		return []byte(`{"type":"newGame"}`)
	}
	return []byte(`{"type":"newGame","difficulty":"` + difficulty + `"}`)
}

func TestUnparsableFrameAnswersError(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeLocal, conn, match.PlayerInfo{ID: "u1", Name: "U1"}, "", deps)

	s.Handle(context.Background(), []byte(`not json`))
	s.Handle(context.Background(), []byte(`{"difficulty":"hard"}`)) // no type

	msgs := conn.errorMessages()
	if len(msgs) != 2 {
		t.Fatalf("Got %d error frames, want 2: %v", len(msgs), msgs)
	}
	for _, m := range msgs {
		if m != "invalid message" {
			t.Errorf("Error message = %q, want %q", m, "invalid message")
		}
	}
}

func TestLocalNewGameStartsCountdown(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeLocal, conn, match.PlayerInfo{ID: "u1", Name: "U1"}, "", deps)
	defer s.Close()

	s.Handle(context.Background(), newGameFrame(""))

	m := s.Match()
	if m == nil {
		t.Fatal("Session should hold a match after newGame")
	}
	if m.State() != match.StateCountdown {
		t.Errorf("State = %v, want StateCountdown", m.State())
	}
	if deps.Registry.MatchCount() != 1 {
		t.Errorf("MatchCount = %d, want 1", deps.Registry.MatchCount())
	}

	setups := conn.setupFrames()
	if len(setups) != 1 {
		t.Fatalf("Got %d setup frames, want 1", len(setups))
	}
	if setups[0].PlayerNumber != 1 || setups[0].Player2Username != "Player 2" {
		t.Errorf("Setup frame = %+v", setups[0])
	}
}

func TestLocalNewGameReplacesPreviousMatch(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeLocal, conn, match.PlayerInfo{ID: "u1", Name: "U1"}, "", deps)
	defer s.Close()

	s.Handle(context.Background(), newGameFrame(""))
	first := s.Match()
	s.Handle(context.Background(), newGameFrame(""))
	second := s.Match()

	if first == second {
		t.Fatal("newGame should create a fresh match")
	}
	if first.State() != match.StateStopped {
		t.Error("Replaced match should be stopped")
	}
	if deps.Registry.MatchCount() != 1 {
		t.Errorf("MatchCount = %d, want 1 (old match cleaned up)", deps.Registry.MatchCount())
	}
}

func TestAIBadDifficultyChangesNothing(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeAI, conn, match.PlayerInfo{ID: "u1", Name: "U1"}, "", deps)
	defer s.Close()

	s.Handle(context.Background(), newGameFrame("impossible"))

	if s.Match() != nil {
		t.Error("Session must not bind a match on invalid difficulty")
	}
	if deps.Registry.MatchCount() != 0 {
		t.Error("Registry must not record a match on invalid difficulty")
	}
	msgs := conn.errorMessages()
	if len(msgs) != 1 || msgs[0] != `invalid difficulty "impossible"` {
		t.Errorf("Error messages = %v", msgs)
	}
}

func TestAIEmptyDifficultyDefaultsToMedium(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeAI, conn, match.PlayerInfo{ID: "u1", Name: "U1"}, "", deps)
	defer s.Close()

	s.Handle(context.Background(), newGameFrame(""))

	m := s.Match()
	if m == nil {
		t.Fatal("Empty difficulty should start a medium game")
	}
	if m.State() != match.StateCountdown {
		t.Errorf("State = %v, want StateCountdown", m.State())
	}
}

func TestRemotePairingWithinOneCall(t *testing.T) {
	deps, _ := testDeps(t)
	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	alice := New(match.ModeRemote, aliceConn, match.PlayerInfo{ID: "alice", Name: "Alice"}, "", deps)
	bob := New(match.ModeRemote, bobConn, match.PlayerInfo{ID: "bob", Name: "Bob"}, "", deps)
	defer alice.Close()
	defer bob.Close()

	alice.Handle(context.Background(), newGameFrame(""))
	if alice.Match() == nil || alice.Match().State() != match.StateWaiting {
		t.Fatal("First remote player should wait")
	}
	if len(aliceConn.setupFrames()) != 1 {
		t.Fatal("Waiting player should receive a setup frame")
	}

	bob.Handle(context.Background(), newGameFrame(""))
	if bob.Match() != alice.Match() {
		t.Fatal("Second remote player should join the waiting match")
	}

	// Pairing starts the countdown inside the same call
	if st := bob.Match().State(); st != match.StateCountdown {
		t.Errorf("State = %v after pairing, want StateCountdown", st)
	}

	players := bob.Match().Players()
	if players[0].Name != "Alice" || players[1].Name != "Bob" {
		t.Errorf("Seats = %q, %q", players[0].Name, players[1].Name)
	}
}

func TestRemoteSameUserDoesNotSelfPair(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeRemote, conn, match.PlayerInfo{ID: "alice", Name: "Alice"}, "", deps)
	defer s.Close()

	s.Handle(context.Background(), newGameFrame(""))
	first := s.Match()
	s.Handle(context.Background(), newGameFrame(""))

	if s.Match() != first {
		t.Error("Same user should reconnect, not pair with themselves")
	}
	if first.State() != match.StateWaiting {
		t.Errorf("State = %v, want StateWaiting", first.State())
	}
}

func TestRemoteNextGameClearsAllState(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeRemote, conn, match.PlayerInfo{ID: "alice", Name: "Alice"}, "", deps)

	s.Handle(context.Background(), newGameFrame(""))
	s.Handle(context.Background(), []byte(`{"type":"nextGame"}`))

	if s.Match() != nil {
		t.Error("nextGame should unbind the match")
	}
	if deps.Registry.MatchCount() != 0 {
		t.Error("nextGame should remove the match")
	}
	if deps.Registry.IsWaiting("alice") {
		t.Error("nextGame should clear the waiting slot")
	}
	if deps.Registry.HasUser("alice") {
		t.Error("nextGame should purge the user record")
	}
}

func TestRemoteCloseKeepsMatchForOpponent(t *testing.T) {
	deps, _ := testDeps(t)
	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	alice := New(match.ModeRemote, aliceConn, match.PlayerInfo{ID: "alice", Name: "Alice"}, "", deps)
	bob := New(match.ModeRemote, bobConn, match.PlayerInfo{ID: "bob", Name: "Bob"}, "", deps)

	alice.Handle(context.Background(), newGameFrame(""))
	bob.Handle(context.Background(), newGameFrame(""))
	m := alice.Match()

	// Alice drops; Bob is still bound, so the match survives for her return.
	alice.Close()
	if m.State() == match.StateStopped {
		t.Fatal("Match must survive while the opponent is connected")
	}
	if deps.Registry.HasUser("alice") != true {
		t.Error("Alice's association must survive her disconnect")
	}

	// Bob drops too; nobody is left, the match dies.
	bob.Close()
	if m.State() != match.StateStopped {
		t.Error("Match should stop when the last client leaves")
	}
}

func TestFriendInviteValidation(t *testing.T) {
	deps, invites := testDeps(t)
	invites.Put(invite.Invite{ID: "inv-1", InviterID: "alice", InviteeID: "bob"})

	cases := []struct {
		name    string
		player  string
		invite  string
		wantErr string
	}{
		{"unknown invite", "alice", "inv-404", "invite inv-404 not found or expired"},
		{"missing invite id", "alice", "", "missing invite id"},
		{"outsider", "carol", "inv-1", "you are not a participant of invite inv-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &fakeConn{}
			s := New(match.ModeFriend, conn, match.PlayerInfo{ID: tc.player, Name: tc.player}, tc.invite, deps)
			defer s.Close()

			s.Handle(context.Background(), newGameFrame(""))

			if s.Match() != nil {
				t.Error("Rejected join must not bind a match")
			}
			msgs := conn.errorMessages()
			if len(msgs) != 1 || msgs[0] != tc.wantErr {
				t.Errorf("Error messages = %v, want [%q]", msgs, tc.wantErr)
			}
		})
	}
}

func TestFriendBothParticipantsStartCountdown(t *testing.T) {
	deps, invites := testDeps(t)
	invites.Put(invite.Invite{ID: "inv-1", InviterID: "alice", InviteeID: "bob"})

	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	alice := New(match.ModeFriend, aliceConn, match.PlayerInfo{ID: "alice", Name: "Alice"}, "inv-1", deps)
	bob := New(match.ModeFriend, bobConn, match.PlayerInfo{ID: "bob", Name: "Bob"}, "inv-1", deps)
	defer alice.Close()
	defer bob.Close()

	alice.Handle(context.Background(), newGameFrame(""))
	if alice.Match() == nil {
		t.Fatal("Inviter should create and bind the match")
	}
	if alice.Match().State() != match.StateWaiting {
		t.Fatal("Match should wait for the invitee")
	}

	bob.Handle(context.Background(), newGameFrame(""))
	if bob.Match() != alice.Match() {
		t.Fatal("Invitee should join the inviter's match")
	}
	if st := bob.Match().State(); st != match.StateCountdown {
		t.Errorf("State = %v after both joined, want StateCountdown", st)
	}
}

func TestPlayerInputReachesMatch(t *testing.T) {
	deps, _ := testDeps(t)
	conn := &fakeConn{}
	s := New(match.ModeLocal, conn, match.PlayerInfo{ID: "u1", Name: "U1"}, "", deps)
	defer s.Close()

	// Input with no match bound is silently dropped
	s.Handle(context.Background(), []byte(`{"type":"playerInput","data":{"player":1,"action":"up"}}`))
	if len(conn.errorMessages()) != 0 {
		t.Error("Input without a match must not produce an error frame")
	}

	s.Handle(context.Background(), newGameFrame(""))

	// Invalid slot and action are rejected
	s.Handle(context.Background(), []byte(`{"type":"playerInput","data":{"player":3,"action":"up"}}`))
	s.Handle(context.Background(), []byte(`{"type":"playerInput","data":{"player":1,"action":"warp"}}`))
	msgs := conn.errorMessages()
	if len(msgs) != 2 {
		t.Fatalf("Got %d error frames for bad input, want 2: %v", len(msgs), msgs)
	}

	// Valid input passes through without an error
	s.Handle(context.Background(), []byte(`{"type":"playerInput","data":{"player":2,"action":"down"}}`))
	if len(conn.errorMessages()) != 2 {
		t.Error("Valid input must not produce an error frame")
	}
}
