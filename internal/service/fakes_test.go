package service

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

// memStore is an in-memory SessionStore and UserStore.
type memStore struct {
	mu       sync.Mutex
	sessions []*model.Session
	settings map[string]string
	users    map[string]*model.User
	fail     bool
	calls    map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		settings: make(map[string]string),
		users:    make(map[string]*model.User),
		calls:    make(map[string]int),
	}
}

func (m *memStore) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if m.fail {
		return errStoreDown
	}
	return nil
}

func (m *memStore) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) setFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

func (m *memStore) CreateSession(_ context.Context, s *model.Session) error {
	if err := m.record("CreateSession"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	if err := m.record("DeleteSession"); err != nil {
		return err
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
	if err := m.record("ListSessions"); err != nil {
		return nil, err
	}
	return m.filter(func(*model.Session) bool { return true }, false), nil
}

func (m *memStore) ListActiveSessions(_ context.Context, at time.Time) ([]*model.Session, error) {
	if err := m.record("ListActiveSessions"); err != nil {
		return nil, err
	}
	return m.filter(func(s *model.Session) bool { return s.Contains(at) }, false), nil
}

func (m *memStore) GetCurrentSession(_ context.Context, at time.Time) (*model.Session, error) {
	if err := m.record("GetCurrentSession"); err != nil {
		return nil, err
	}
	active := m.filter(func(s *model.Session) bool { return s.Contains(at) }, false)
	if len(active) == 0 {
		return nil, repository.ErrSessionNotFound
	}
	return active[0], nil
}

func (m *memStore) ListSessionsStartingBetween(_ context.Context, after, until time.Time) ([]*model.Session, error) {
	if err := m.record("ListSessionsStartingBetween"); err != nil {
		return nil, err
	}
	return m.filter(func(s *model.Session) bool {
		return s.StartTime.After(after) && !s.StartTime.After(until)
	}, true), nil
}

func (m *memStore) GetSetting(_ context.Context, key string) (*model.Setting, error) {
	if err := m.record("GetSetting"); err != nil {
		return nil, err
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
	if err := m.record("UpsertSetting"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	if err := m.record("CreateUser"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return repository.ErrEmailExists
	}
	m.users[u.Email] = u
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if err := m.record("GetUserByEmail"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

// memCache is an in-memory FlagCache and LoginSessionStore.
type memCache struct {
	mu       sync.Mutex
	flag     *bool
	sessions map[string]*model.LoginSession
}

func newMemCache() *memCache {
	return &memCache{sessions: make(map[string]*model.LoginSession)}
}

func (c *memCache) GetDangerFlag(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flag == nil {
		return false, cache.ErrCacheMiss
	}
	return *c.flag, nil
}

func (c *memCache) SetDangerFlag(_ context.Context, on bool, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flag = &on
	return nil
}

func (c *memCache) InvalidateDangerFlag(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flag = nil
	return nil
}

func (c *memCache) CreateLoginSession(_ context.Context, hash string, sess *model.LoginSession, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[hash] = sess
	return nil
}

func (c *memCache) GetLoginSession(_ context.Context, hash string) (*model.LoginSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[hash]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return sess, nil
}

func (c *memCache) DeleteLoginSession(_ context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, hash)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
