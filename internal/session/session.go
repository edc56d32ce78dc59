// Package session holds the logged-in identity and bearer token, mirrored into durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
)

// Persisted entry names.
const (
	KeyAccessToken = "accessToken"
	KeyCurrentUser = "currentUser"
)

// Storage is a durable string key-value store (store.Bucket in production).
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type State struct {
	Username    string
	AccessToken string
}

type Session struct {
	storage Storage

	mu  sync.RWMutex
	cur *State
}

func New(storage Storage) *Session {
	return &Session{storage: storage}
}

// Current returns the in-memory session; ok is false when logged out.
func (s *Session) Current() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return State{}, false
	}
	return *s.cur, true
}

func (s *Session) Token() string {
	st, _ := s.Current()
	return st.AccessToken
}

func (s *Session) LoggedIn() bool {
	_, ok := s.Current()
	return ok
}

// Restore loads the persisted entries. Both must be present (and currentUser must parse)
// for the session to be restored; otherwise the in-memory session is cleared.
// The token is not checked against the backend.
func (s *Session) Restore(ctx context.Context) (State, bool, error) {
	tok, hasTok, err := s.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		return State{}, false, fmt.Errorf("restore session: %w", err)
	}
	rawUser, hasUser, err := s.storage.Get(ctx, KeyCurrentUser)
	if err != nil {
		return State{}, false, fmt.Errorf("restore session: %w", err)
	}
	if !hasTok || !hasUser || tok == "" || rawUser == "" {
		s.setMemory(nil)
		return State{}, false, nil
	}
	var u model.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		s.setMemory(nil)
		return State{}, false, fmt.Errorf("restore session: parse %s: %w", KeyCurrentUser, err)
	}
	st := State{Username: u.Username, AccessToken: tok}
	s.setMemory(&st)
	return st, true, nil
}

// Set stores a fresh session in memory and in storage.
func (s *Session) Set(ctx context.Context, username, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("set session: empty token")
	}
	st := State{Username: username, AccessToken: token}
	s.setMemory(&st)

	rawUser, err := json.Marshal(model.User{Username: username})
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if err := s.storage.Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if err := s.storage.Set(ctx, KeyCurrentUser, string(rawUser)); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Clear drops the session from memory and storage. Clearing an empty session is fine.
func (s *Session) Clear(ctx context.Context) error {
	s.setMemory(nil)
	var errs []error
	if err := s.storage.Delete(ctx, KeyAccessToken); err != nil {
		errs = append(errs, err)
	}
	if err := s.storage.Delete(ctx, KeyCurrentUser); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) setMemory(st *State) {
	s.mu.Lock()
	s.cur = st
	s.mu.Unlock()
}

// MemoryStorage is a process-local Storage, used by tests and --ephemeral runs.
type MemoryStorage struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: map[string]string{}}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
	return nil
}

// Len reports the number of stored entries.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}
