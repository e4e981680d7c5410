// Package session keeps per-browser interactive state in memory.
//
// Sessions are keyed by a random cookie value and never persisted; only the
// history store survives a restart. Sessions idle for longer than the
// manager's TTL are dropped the next time a new session is issued.
package session

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/krishisahay/internal/message"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "krishisahay_session"

// State is what one browser session remembers between requests.
type State struct {
	// QueryText is the current contents of the question box.
	QueryText string

	// Language is the selected answer language.
	Language message.Language

	// Recognized is the transcript of the last uploaded recording, if any.
	Recognized string

	// LastResult is the most recent exchange of this session.
	LastResult *message.AskResult
}

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

// Manager maps session IDs to State.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	sessions  map[string]*entry
	lastSweep time.Time
}

type entry struct {
	state State
	seen  time.Time
}

// NewManager creates an empty Manager that forgets sessions idle for ttl.
// A non-positive ttl selects DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{ttl: ttl, now: time.Now, sessions: make(map[string]*entry)}
}

// Resolve returns the session ID for r, issuing a new cookie on w when the
// request carries none or an unknown one.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil {
		m.mu.Lock()
		e, ok := m.sessions[c.Value]
		if ok {
			e.seen = m.now()
		}
		m.mu.Unlock()
		if ok {
			return c.Value
		}
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.sweepLocked()
	m.sessions[id] = &entry{state: State{Language: message.Default}, seen: m.now()}
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sweepLocked drops idle sessions, at most once per TTL/4.
func (m *Manager) sweepLocked() {
	now := m.now()
	if now.Sub(m.lastSweep) < m.ttl/4 {
		return
	}
	m.lastSweep = now

	evicted := 0
	for id, e := range m.sessions {
		if now.Sub(e.seen) > m.ttl {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("idle sessions evicted", "evicted", evicted, "live", len(m.sessions))
	}
}

// Get returns a copy of the state for id. Unknown IDs yield a fresh state.
func (m *Manager) Get(id string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		return e.state
	}
	return State{Language: message.Default}
}

// Update applies fn to the state for id under the manager lock.
func (m *Manager) Update(id string, fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		e = &entry{state: State{Language: message.Default}}
		m.sessions[id] = e
	}
	e.seen = m.now()
	fn(&e.state)
}
