package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gymwatch/gymwatch/internal/cache"
	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/gymwatch/gymwatch/internal/repository"
)

var errStoreDown = errors.New("connection refused")

// memStore is an in-memory session, settings and user store.
type memStore struct {
	mu       sync.Mutex
	sessions []*model.Session
	settings map[string]string
	users    map[string]*model.User
	fail     bool
}

func newMemStore() *memStore {
	return &memStore{
		settings: make(map[string]string),
		users:    make(map[string]*model.User),
	}
}

func (m *memStore) setFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

func (m *memStore) failing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) CreateSession(_ context.Context, s *model.Session) error {
	if m.failing() {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	if m.failing() {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = slices.DeleteFunc(m.sessions, func(s *model.Session) bool { return s.ID == id })
	return nil
}

func (m *memStore) filter(keep func(*model.Session) bool, asc bool) []*model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Session, 0)
	for _, s := range m.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.Session) int {
		if asc {
			return a.StartTime.Compare(b.StartTime)
		}
		return b.StartTime.Compare(a.StartTime)
	})
	return out
}

func (m *memStore) ListSessions(context.Context) ([]*model.Session, error) {
	if m.failing() {
		return nil, errStoreDown
	}
	return m.filter(func(*model.Session) bool { return true }, false), nil
}

func (m *memStore) ListActiveSessions(_ context.Context, at time.Time) ([]*model.Session, error) {
	if m.failing() {
		return nil, errStoreDown
	}
	return m.filter(func(s *model.Session) bool { return s.Contains(at) }, false), nil
}

func (m *memStore) GetCurrentSession(_ context.Context, at time.Time) (*model.Session, error) {
	if m.failing() {
		return nil, errStoreDown
	}
	active := m.filter(func(s *model.Session) bool { return s.Contains(at) }, false)
	if len(active) == 0 {
		return nil, repository.ErrSessionNotFound
	}
	return active[0], nil
}

func (m *memStore) ListSessionsStartingBetween(_ context.Context, after, until time.Time) ([]*model.Session, error) {
	if m.failing() {
		return nil, errStoreDown
	}
	return m.filter(func(s *model.Session) bool {
		return s.StartTime.After(after) && !s.StartTime.After(until)
	}, true), nil
}

func (m *memStore) GetSetting(_ context.Context, key string) (*model.Setting, error) {
	if m.failing() {
		return nil, errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	if !ok {
		return nil, repository.ErrSettingNotFound
	}
	return &model.Setting{Key: key, Value: v}, nil
}

func (m *memStore) UpsertSetting(_ context.Context, key, value string) error {
	if m.failing() {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return repository.ErrEmailExists
	}
	m.users[u.Email] = u
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

// memLoginSessions is an in-memory login session store.
type memLoginSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.LoginSession
}

func newMemLoginSessions() *memLoginSessions {
	return &memLoginSessions{sessions: make(map[string]*model.LoginSession)}
}

func (c *memLoginSessions) CreateLoginSession(_ context.Context, hash string, sess *model.LoginSession, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[hash] = sess
	return nil
}

func (c *memLoginSessions) GetLoginSession(_ context.Context, hash string) (*model.LoginSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[hash]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return sess, nil
}

func (c *memLoginSessions) DeleteLoginSession(_ context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, hash)
	return nil
}

func (c *memLoginSessions) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
