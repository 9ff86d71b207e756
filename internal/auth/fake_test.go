// AngelaMos | 2026
// fake_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lesartilleurs/club-api/internal/core"
)

// fakeStore serializes transactions with one lock, which gives the same
// outcome as row locks for single-token tests, and rolls back on error.
type fakeStore struct {
	txMu sync.Mutex

	mu     sync.Mutex
	rows   map[string]*RefreshToken
	nextID int64

	insertErr error
	updateErr error
	deleteErr error
	inserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*RefreshToken)}
}

func (s *fakeStore) Insert(_ context.Context, token *RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.rows[token.TokenHash]; ok {
		return fmt.Errorf("insert refresh token: %w", ErrDuplicateHash)
	}

	s.nextID++
	now := time.Now().UTC()
	token.ID = s.nextID
	token.CreatedAt = now
	token.UpdatedAt = now

	stored := *token
	s.rows[token.TokenHash] = &stored
	return nil
}

func (s *fakeStore) FindByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[tokenHash]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	found := *row
	return &found, nil
}

func (s *fakeStore) Update(_ context.Context, token *RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return s.updateErr
	}

	row, ok := s.rows[token.TokenHash]
	if !ok || row.ID != token.ID {
		return fmt.Errorf("update refresh token: %w", core.ErrNotFound)
	}

	if row.RevokedAt == nil {
		row.RevokedAt = token.RevokedAt
	}
	row.LastUsedAt = token.LastUsedAt
	row.UpdatedAt = time.Now().UTC()

	token.RevokedAt = row.RevokedAt
	token.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *fakeStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return 0, s.deleteErr
	}

	var deleted int64
	for hash, row := range s.rows {
		if row.ExpiresAt.Before(cutoff) {
			delete(s.rows, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) WithTx(_ context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&fakeTx{s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *fakeStore) snapshot() map[string]RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]RefreshToken, len(s.rows))
	for k, v := range s.rows {
		out[k] = *v
	}
	return out
}

func (s *fakeStore) restore(snapshot map[string]RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = make(map[string]*RefreshToken, len(snapshot))
	for k, v := range snapshot {
		row := v
		s.rows[k] = &row
	}
}

func (s *fakeStore) get(plain string) *RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[core.HashToken(plain)]
	if !ok {
		return nil
	}
	found := *row
	return &found
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *fakeStore) liveCount(ownerID int64, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.rows {
		if row.OwnerID == ownerID && row.IsLive(now) {
			n++
		}
	}
	return n
}

type fakeTx struct {
	*fakeStore
}

func (t *fakeTx) WithTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

// fakeClock is a settable clock shared by the services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeIdentities struct {
	mu        sync.Mutex
	byEmail   map[string]*Identity
	rehashed  map[int64]string
	lastLogin map[int64]time.Time
	lookupErr error
	touchErr  error
}

func newFakeIdentities(identities ...*Identity) *fakeIdentities {
	f := &fakeIdentities{
		byEmail:   make(map[string]*Identity),
		rehashed:  make(map[int64]string),
		lastLogin: make(map[int64]time.Time),
	}
	for _, identity := range identities {
		f.byEmail[identity.Email] = identity
	}
	return f
}

func (f *fakeIdentities) GetByEmail(_ context.Context, email string) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	identity, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	found := *identity
	return &found, nil
}

func (f *fakeIdentities) GetByID(_ context.Context, id int64) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, identity := range f.byEmail {
		if identity.ID == id {
			found := *identity
			return &found, nil
		}
	}
	return nil, fmt.Errorf("get user by id: %w", core.ErrNotFound)
}

func (f *fakeIdentities) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rehashed[id] = hash
	return nil
}

func (f *fakeIdentities) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touchErr != nil {
		return f.touchErr
	}
	f.lastLogin[id] = at
	return nil
}
