package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// View is the page a session is currently looking at.
type View string

const (
	ViewWelcome   View = "welcome"
	ViewAnalysis  View = "analysis"
	ViewScan      View = "scan"
	ViewLearn     View = "learn"
	ViewLogin     View = "login"
	ViewWatchlist View = "watchlist"
	ViewChat      View = "chat"
)

var views = map[View]bool{
	ViewWelcome: true, ViewAnalysis: true, ViewScan: true, ViewLearn: true,
	ViewLogin: true, ViewWatchlist: true, ViewChat: true,
}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	v := View(s)
	if !views[v] {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return v, nil
}

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Session is the per-visitor navigation state.
type Session struct {
	ID        string    `json:"id"`
	View      View      `json:"view"`
	User      string    `json:"user,omitempty"`
	Code      string    `json:"code,omitempty"`
	ScanPool  []string  `json:"scan_pool,omitempty"`
	ScanLimit int       `json:"scan_limit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) clone() *Session {
	c := *s
	c.ScanPool = append([]string(nil), s.ScanPool...)
	return &c
}

// Store keeps sessions in memory. Returned sessions are copies.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
	// DefaultScanLimit seeds ScanLimit on new sessions.
	DefaultScanLimit int
}

// NewStore creates an empty store.
func NewStore(defaultScanLimit int) *Store {
	return &Store{
		sessions:         make(map[string]*Session),
		now:              time.Now,
		DefaultScanLimit: defaultScanLimit,
	}
}

// New creates a session on the welcome view.
func (st *Store) New() *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		View:      ViewWelcome,
		ScanLimit: st.DefaultScanLimit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s.clone()
}

// Get returns a copy of the session with id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// Update applies fn to the stored session under the store lock.
func (st *Store) Update(id string, fn func(*Session)) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(s)
	s.ID = id
	s.UpdatedAt = st.now()
	return s.clone(), nil
}

// Expire drops sessions idle for longer than ttl and reports how many were removed.
func (st *Store) Expire(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
