// Package invite defines the invite-lookup collaborator used to validate
// friend-mode joins, with an HTTP client against an external service and an
// in-memory implementation for tests and standalone runs.
package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrNotFound means the invite does not exist or has expired.
var ErrNotFound = errors.New("invite: not found")

// Invite identifies the two parties of an invitation.
type Invite struct {
	ID        string `json:"id"`
	InviterID string `json:"inviterId"`
	InviteeID string `json:"inviteeId"`
}

// Involves reports whether the given user is a participant of the invite.
func (i Invite) Involves(userID string) bool {
	return userID != "" && (i.InviterID == userID || i.InviteeID == userID)
}

// Service resolves invite ids. Called synchronously during friend-mode join.
type Service interface {
	Lookup(ctx context.Context, id string) (Invite, error)
}

// HTTPService resolves invites against an external HTTP service.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

// NewHTTPService creates a client for the service at baseURL
// (GET {baseURL}/invites/{id}).
func NewHTTPService(baseURL string) *HTTPService {
	return &HTTPService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup fetches and decodes one invite.
func (s *HTTPService) Lookup(ctx context.Context, id string) (Invite, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/invites/%s", s.baseURL, id), nil)
	if err != nil {
		return Invite{}, fmt.Errorf("invite: building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Invite{}, fmt.Errorf("invite: lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return Invite{}, ErrNotFound
	default:
		return Invite{}, fmt.Errorf("invite: lookup returned status %d", resp.StatusCode)
	}

	var inv Invite
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return Invite{}, fmt.Errorf("invite: decoding response: %w", err)
	}
	return inv, nil
}

// Static is an in-memory invite store. Used in tests and when the server runs
// without an invite backend.
type Static struct {
	mu      sync.RWMutex
	invites map[string]Invite
}

// NewStatic creates an empty store.
func NewStatic() *Static {
	return &Static{invites: make(map[string]Invite)}
}

// Put registers an invite.
func (s *Static) Put(inv Invite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[inv.ID] = inv
}

// Lookup resolves an invite from the store.
func (s *Static) Lookup(_ context.Context, id string) (Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invites[id]
	if !ok {
		return Invite{}, ErrNotFound
	}
	return inv, nil
}
