package auth

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	authentity "github.com/ovaphlow/pitchfork/service-auth/internal/auth/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
)

type memRefreshRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]authentity.RefreshToken
	lookups int
	failGet error
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{rows: map[uuid.UUID]authentity.RefreshToken{}}
}

func (m *memRefreshRepo) Save(_ context.Context, rt *authentity.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt.CreatedAt = time.Now()
	m.rows[rt.UUID] = *rt
	return nil
}

func (m *memRefreshRepo) GetByToken(_ context.Context, token string) (*authentity.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failGet != nil {
		return nil, m.failGet
	}
	for _, rt := range m.rows {
		if rt.Token == token {
			out := rt
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memRefreshRepo) SetExpiry(_ context.Context, id uuid.UUID, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.rows[id]; ok {
		rt.ExpiresAt = expiresAt
		m.rows[id] = rt
	}
	return nil
}

func (m *memRefreshRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memUserStore struct {
	mu   sync.Mutex
	rows map[int64]entity.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{rows: map[int64]entity.User{}}
}

func (m *memUserStore) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == u.Email {
			return userrepo.ErrDuplicateEmail
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.rows[u.ID] = *u
	return nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == email {
			out := row
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserStore) GetByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (m *memUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[id]; ok {
		row.PasswordHash = &hash
		m.rows[id] = row
	}
	return nil
}

func (m *memUserStore) DeleteByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.Email == email {
			delete(m.rows, id)
		}
	}
	return nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int64
}

func (s *seqIDs) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

const accessTTL = 15 * time.Minute

type harness struct {
	clock   *clockwork.FakeClock
	codec   *TokenCodec
	refresh *memRefreshRepo
	store   *memUserStore
	users   *user.UserService
	svc     *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	codec, err := NewTokenCodec("HS256", "s3cret", clock)
	require.NoError(t, err)

	refresh := newMemRefreshRepo()
	store := newMemUserStore()
	hasher := user.Argon2Hasher{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}
	users := user.NewUserService(store, hasher, &seqIDs{}, nil)
	svc := NewService(users, codec, NewRefreshStore(refresh, clock, 21*24*time.Hour), accessTTL, nil)
	return &harness{clock: clock, codec: codec, refresh: refresh, store: store, users: users, svc: svc}
}

func (h *harness) signup(t *testing.T, email string, role entity.Role) *entity.User {
	t.Helper()
	u, err := h.users.CreateWithRole(context.Background(), email, "Passw0rd!", role)
	require.NoError(t, err)
	return u
}
