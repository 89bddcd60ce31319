// Package session owns the dashboard's durable login state: the auth
// token lives in the system keyring, the user identity and selected
// team live as JSON values in the local store. A single Store instance
// is the only writer; views receive read-only projections.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/99designs/keyring"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/credential"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/store"
)

// Persisted key names. KeyAuthToken lives in the keyring; the others
// are kv rows in the local store.
const (
	KeyAuthToken    = "auth_token"
	KeyUser         = "user"
	KeySelectedTeam = "selected_team"
)

// ErrNoSession is returned by operations that require an authenticated
// session when none exists.
var ErrNoSession = errors.New("no active session")

// Store holds the session state and serializes every mutation behind
// one lock, so readers never observe a partially written or partially
// cleared session.
type Store struct {
	mu     sync.Mutex
	ring   keyring.Keyring
	kv     store.Store
	client *api.Client
	clock  func() time.Time

	session *model.Session
	team    *model.Team
}

// NewStore creates a session store over the given keyring and local
// store, and loads any persisted session.
func NewStore(ring keyring.Keyring, kv store.Store, client *api.Client) (*Store, error) {
	s := &Store{
		ring:   ring,
		kv:     kv,
		client: client,
		clock:  time.Now,
	}
	if err := s.load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// load restores session state from the keyring and kv rows. A missing
// token means logged out; partial state (token without identity) is
// treated the same way.
func (s *Store) load(ctx context.Context) error {
	token, err := credential.Get(s.ring, KeyAuthToken)
	if err != nil {
		// Missing credential: start logged out.
		return nil
	}

	userJSON, ok, err := s.kv.GetValue(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("loading session identity: %w", err)
	}
	if !ok {
		return nil
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(userJSON), &sess); err != nil {
		return fmt.Errorf("parsing persisted session: %w", err)
	}
	sess.Token = token
	s.session = &sess

	teamJSON, ok, err := s.kv.GetValue(ctx, KeySelectedTeam)
	if err != nil {
		return fmt.Errorf("loading selected team: %w", err)
	}
	if ok {
		var team model.Team
		if err := json.Unmarshal([]byte(teamJSON), &team); err != nil {
			return fmt.Errorf("parsing persisted team: %w", err)
		}
		s.team = &team
	}

	s.client.SetToken(token)
	return nil
}

// Login authenticates against the server and persists the resulting
// session. On failure the prior state is left untouched.
func (s *Store) Login(ctx context.Context, creds api.Credentials) error {
	resp, err := s.client.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}

	sess := model.Session{
		Token:     resp.Token,
		User:      resp.User,
		IssuedAt:  s.clock(),
		ExpiresAt: resp.ExpiresAt,
	}

	userJSON, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := credential.Set(s.ring, KeyAuthToken, resp.Token); err != nil {
		return err
	}
	if err := s.kv.SetValue(ctx, KeyUser, string(userJSON)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.session = &sess
	s.client.SetToken(resp.Token)
	return nil
}

// SelectTeam persists the team this session manages. Selecting a team
// requires an active session.
func (s *Store) SelectTeam(ctx context.Context, team model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated() {
		return ErrNoSession
	}

	teamJSON, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("encoding team: %w", err)
	}
	if err := s.kv.SetValue(ctx, KeySelectedTeam, string(teamJSON)); err != nil {
		return fmt.Errorf("persisting selected team: %w", err)
	}

	s.team = &team
	return nil
}

// Logout clears the token, identity, and selected team. The kv rows go
// in one transaction and the in-memory state flips under the same lock,
// so no reader sees a half-cleared session.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.DeleteValues(ctx, KeyUser, KeySelectedTeam); err != nil {
		return fmt.Errorf("clearing session state: %w", err)
	}
	if err := credential.Delete(s.ring, KeyAuthToken); err != nil {
		return err
	}

	s.session = nil
	s.team = nil
	s.client.SetToken("")
	return nil
}

// IsAuthenticated reports whether a token is present and unexpired.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated()
}

// authenticated must be called with the lock held.
func (s *Store) authenticated() bool {
	return s.session != nil &&
		s.session.Token != "" &&
		!s.session.Expired(s.clock())
}

// Current returns a copy of the active session, or false when logged out.
func (s *Store) Current() (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated() {
		return model.Session{}, false
	}
	return *s.session, true
}

// SelectedTeam returns a copy of the selected team, or false when none
// is selected.
func (s *Store) SelectedTeam() (model.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated() || s.team == nil {
		return model.Team{}, false
	}
	return *s.team, true
}
