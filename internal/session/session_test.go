package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/krishisahay/internal/message"
)

func TestResolveIssuesCookie(t *testing.T) {
	m := NewManager(0)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	id := m.Resolve(w, r)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.Equal(t, message.Default, m.Get(id).Language)
}

func TestResolveReusesKnownCookie(t *testing.T) {
	m := NewManager(0)
	id := m.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: id})

	assert.Equal(t, id, m.Resolve(w, r))
	assert.Empty(t, w.Result().Cookies())
	assert.Len(t, m.sessions, 1)
}

func TestResolveReplacesUnknownCookie(t *testing.T) {
	m := NewManager(0)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})

	id := m.Resolve(httptest.NewRecorder(), r)
	assert.NotEqual(t, "stale", id)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager(0)
	a := m.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	b := m.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	hindi, _ := message.ParseCode("hi")

	m.Update(a, func(s *State) {
		s.QueryText = "paddy blast"
		s.Language = hindi
	})

	assert.Equal(t, "paddy blast", m.Get(a).QueryText)
	assert.Equal(t, hindi, m.Get(a).Language)
	assert.Empty(t, m.Get(b).QueryText)
	assert.Equal(t, message.Default, m.Get(b).Language)
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager(0)
	m.Update("x", func(s *State) { s.QueryText = "q" })

	st := m.Get("x")
	st.QueryText = "changed"
	assert.Equal(t, "q", m.Get("x").QueryText)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func resolveWith(m *Manager, id string) string {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != "" {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	}
	return m.Resolve(httptest.NewRecorder(), r)
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(10 * time.Minute)
	m.now = c.now

	for i := 0; i < 100; i++ {
		resolveWith(m, "")
	}
	kept := resolveWith(m, "")
	require.Len(t, m.sessions, 101)

	c.advance(6 * time.Minute)
	assert.Equal(t, kept, resolveWith(m, kept))

	c.advance(6 * time.Minute)
	fresh := resolveWith(m, "")

	assert.Len(t, m.sessions, 2)
	assert.Contains(t, m.sessions, kept)
	assert.Contains(t, m.sessions, fresh)
}

func TestEvictedCookieGetsNewSession(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(time.Minute)
	m.now = c.now

	old := resolveWith(m, "")
	m.Update(old, func(s *State) { s.QueryText = "wilt in tomato" })

	c.advance(2 * time.Minute)
	resolveWith(m, "")
	id := resolveWith(m, old)

	assert.NotEqual(t, old, id)
	assert.Empty(t, m.Get(id).QueryText)
}

func TestCookieMaxAgeMatchesTTL(t *testing.T) {
	m := NewManager(time.Hour)
	w := httptest.NewRecorder()
	m.Resolve(w, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}
