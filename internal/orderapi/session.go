package orderapi

import "sync"

// SessionStore holds the bearer token attached to Order API requests.
// Authentication itself is an external collaborator; the store only
// keeps the credential and fans out forced logouts when the API answers
// with a 401.
type SessionStore struct {
	mu       sync.RWMutex
	token    string
	onLogout []func()
}

func NewSessionStore(token string) *SessionStore {
	return &SessionStore{token: token}
}

// Token returns the current bearer token, empty when logged out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken installs a fresh credential.
func (s *SessionStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// OnLogout registers a callback invoked when the session is discarded.
// Surfaces use it to escalate to a visible "log in again" state.
func (s *SessionStore) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Logout clears the token and notifies observers. Safe to call more
// than once; observers fire on every call.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	s.token = ""
	observers := make([]func(), len(s.onLogout))
	copy(observers, s.onLogout)
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}
