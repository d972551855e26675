// Package registry is the process-wide matchmaking bookkeeping: active
// matches, per-user match associations, the single waiting-remote-player
// slot, and live tournaments. Every session touches it concurrently, so all
// operations take the registry mutex; the compound check-then-act sequences
// of matchmaking are single locked operations.
package registry

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// WaitingPlayer is the single published remote player waiting for an opponent.
type WaitingPlayer struct {
	Player match.PlayerInfo
	Client match.Client
	Match  *match.Match
}

// userRecord associates a user with their online match and their matches
// keyed by invite id. Purged entirely once both sides are empty.
type userRecord struct {
	online *match.Match
	friend map[string]*match.Match
}

// Outcome reports how a matchmaking sequence resolved.
type Outcome int

const (
	// OutcomeReconnected means the user already had a registered match.
	OutcomeReconnected Outcome = iota
	// OutcomePaired means the user filled the second seat of an existing match.
	OutcomePaired
	// OutcomeCreated means a fresh match was created with the user in seat 1.
	OutcomeCreated
)

// Registry is the shared matchmaking structure.
type Registry struct {
	logger *log.Logger

	mu                sync.Mutex
	matches           map[string]*match.Match
	users             map[string]*userRecord
	waiting           *WaitingPlayer
	tournaments       map[*tournament.Remote]bool
	waitingTournament *tournament.Remote
}

// New creates an empty registry.
func New(logger *log.Logger) *Registry {
	return &Registry{
		logger:      logger.With("component", "registry"),
		matches:     make(map[string]*match.Match),
		users:       make(map[string]*userRecord),
		tournaments: make(map[*tournament.Remote]bool),
	}
}

// AddMatch records an active match.
func (r *Registry) AddMatch(m *match.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID()] = m
}

// CleanupMatch removes every trace of a stopped match: the active set, all
// user associations pointing at it, and the waiting slot if it referenced it.
// Wired as the match's cleanup callback, so it runs exactly once per match.
func (r *Registry) CleanupMatch(m *match.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.matches, m.ID())
	for id, rec := range r.users {
		if rec.online == m {
			rec.online = nil
		}
		for inviteID, fm := range rec.friend {
			if fm == m {
				delete(rec.friend, inviteID)
			}
		}
		if rec.online == nil && len(rec.friend) == 0 {
			delete(r.users, id)
		}
	}
	if r.waiting != nil && r.waiting.Match == m {
		r.waiting = nil
	}
}

// UserMatch returns the user's match: the online one when inviteID is empty,
// otherwise the match registered under that invite.
func (r *Registry) UserMatch(userID, inviteID string) (*match.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.users[userID]
	if !ok {
		return nil, false
	}
	if inviteID == "" {
		return rec.online, rec.online != nil
	}
	m, ok := rec.friend[inviteID]
	return m, ok
}

// SetUserMatch registers a match for a user, under an invite id or as their
// online match when inviteID is empty.
func (r *Registry) SetUserMatch(userID string, m *match.Match, inviteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setUserMatchLocked(userID, m, inviteID)
}

func (r *Registry) setUserMatchLocked(userID string, m *match.Match, inviteID string) {
	rec, ok := r.users[userID]
	if !ok {
		rec = &userRecord{friend: make(map[string]*match.Match)}
		r.users[userID] = rec
	}
	if inviteID == "" {
		rec.online = m
	} else {
		rec.friend[inviteID] = m
	}
}

// RemoveUserMatch drops one association and purges the record once both its
// online and friend associations are empty.
func (r *Registry) RemoveUserMatch(userID, inviteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.users[userID]
	if !ok {
		return
	}
	if inviteID == "" {
		rec.online = nil
	} else {
		delete(rec.friend, inviteID)
	}
	if rec.online == nil && len(rec.friend) == 0 {
		delete(r.users, userID)
	}
}

// HasUser reports whether the user still has any registered association.
func (r *Registry) HasUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok
}

// IsWaiting reports whether the waiting-remote-player slot belongs to userID.
func (r *Registry) IsWaiting(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting != nil && r.waiting.Player.ID == userID
}

// ClearWaitingIf empties the waiting slot if it references the given user.
func (r *Registry) ClearWaitingIf(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting != nil && r.waiting.Player.ID == userID {
		r.waiting = nil
	}
}

// MatchRemote runs the remote matchmaking sequence as one atomic step:
// a user with a registered online match reconnects to it; otherwise a waiting
// slot held by a different user pairs (the slot is cleared); otherwise a new
// match is created through the factory, registered, and published as the new
// waiting slot. The same user never pairs with themselves.
func (r *Registry) MatchRemote(p match.PlayerInfo, c match.Client, create func() *match.Match) (*match.Match, Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.users[p.ID]; ok && rec.online != nil {
		return rec.online, OutcomeReconnected
	}

	if r.waiting != nil && r.waiting.Player.ID != p.ID {
		w := r.waiting
		r.waiting = nil
		r.setUserMatchLocked(p.ID, w.Match, "")
		return w.Match, OutcomePaired
	}

	m := create()
	r.matches[m.ID()] = m
	r.setUserMatchLocked(p.ID, m, "")
	r.waiting = &WaitingPlayer{Player: p, Client: c, Match: m}
	r.logger.Debug("remote player waiting", "user", p.ID, "match", m.ID())
	return m, OutcomeCreated
}

// MatchFriend runs the invite-scoped join sequence atomically: reconnect to a
// match already registered for this user under the invite; otherwise join the
// match another participant created under it; otherwise create one. Invite
// validation happens before this call, outside the lock.
func (r *Registry) MatchFriend(inviteID string, p match.PlayerInfo, create func() *match.Match) (*match.Match, Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.users[p.ID]; ok {
		if m, ok := rec.friend[inviteID]; ok {
			return m, OutcomeReconnected
		}
	}

	for _, rec := range r.users {
		if m, ok := rec.friend[inviteID]; ok {
			r.setUserMatchLocked(p.ID, m, inviteID)
			return m, OutcomePaired
		}
	}

	m := create()
	r.matches[m.ID()] = m
	r.setUserMatchLocked(p.ID, m, inviteID)
	return m, OutcomeCreated
}

// JoinTournament returns the shared waiting remote tournament, creating one
// through the factory when none is waiting.
func (r *Registry) JoinTournament(create func() *tournament.Remote) *tournament.Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waitingTournament == nil {
		rt := create()
		r.tournaments[rt] = true
		r.waitingTournament = rt
		r.logger.Info("remote tournament opened")
	}
	return r.waitingTournament
}

// TournamentFor finds the live tournament the player belongs to.
func (r *Registry) TournamentFor(playerID string) (*tournament.Remote, bool) {
	r.mu.Lock()
	candidates := make([]*tournament.Remote, 0, len(r.tournaments))
	for rt := range r.tournaments {
		candidates = append(candidates, rt)
	}
	r.mu.Unlock()

	for _, rt := range candidates {
		if rt.IsMember(playerID) {
			return rt, true
		}
	}
	return nil, false
}

// RemoveTournament forgets a finished or abandoned tournament.
func (r *Registry) RemoveTournament(rt *tournament.Remote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tournaments, rt)
	if r.waitingTournament == rt {
		r.waitingTournament = nil
	}
}

// MatchCount returns the number of active matches.
func (r *Registry) MatchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// Shutdown stops every active match and tournament and clears all state.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	matches := make([]*match.Match, 0, len(r.matches))
	for _, m := range r.matches {
		matches = append(matches, m)
	}
	tournaments := make([]*tournament.Remote, 0, len(r.tournaments))
	for rt := range r.tournaments {
		tournaments = append(tournaments, rt)
	}
	r.waiting = nil
	r.waitingTournament = nil
	r.mu.Unlock()

	// Stopping re-enters the registry through cleanup callbacks, so no lock
	// may be held here.
	for _, rt := range tournaments {
		rt.Stop()
	}
	for _, m := range matches {
		m.Stop()
	}

	r.mu.Lock()
	r.matches = make(map[string]*match.Match)
	r.users = make(map[string]*userRecord)
	r.tournaments = make(map[*tournament.Remote]bool)
	r.mu.Unlock()

	r.logger.Info("registry shut down")
}
