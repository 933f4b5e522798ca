package auth

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainauth "github.com/novadock/hangar/internal/domain/auth"
	"github.com/novadock/hangar/internal/domain/user"
	"github.com/novadock/hangar/internal/token"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
	nextID  int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*user.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return user.ErrExists
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) remove(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byEmail, email)
}

type fakeTokenStore struct {
	mu      sync.Mutex
	byValue map[string]*domainauth.Token
	nextID  int64
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byValue: map[string]*domainauth.Token{}}
}

func (f *fakeTokenStore) Save(_ context.Context, t *domainauth.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byValue[t.Value]; ok {
		existing.Expired = t.Expired
		existing.Revoked = t.Revoked
		t.ID = existing.ID
		return nil
	}
	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.byValue[t.Value] = &cp
	return nil
}

func (f *fakeTokenStore) FindByValue(_ context.Context, value string) (*domainauth.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byValue[value]
	if !ok {
		return nil, domainauth.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenStore) FindActiveForUser(_ context.Context, userID int64) ([]*domainauth.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domainauth.Token
	for _, t := range f.byValue {
		if t.UserID == userID && (!t.Expired || !t.Revoked) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) SaveAll(ctx context.Context, ts []*domainauth.Token) error {
	for _, t := range ts {
		if err := f.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTokenStore) activeCount(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.byValue {
		if t.UserID == userID && t.Active() {
			n++
		}
	}
	return n
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type testEnv struct {
	uc     *Usecase
	users  *fakeUserRepo
	tokens *fakeTokenStore
	codec  *token.Codec
	now    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	codec, err := token.NewCodec(secret, func() time.Time { return now })
	require.NoError(t, err)

	users := newFakeUserRepo()
	tokens := newFakeTokenStore()
	uc := NewUsecase(users, tokens, codec, fakeTx{}, Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, zap.NewNop(), nil)

	return &testEnv{uc: uc, users: users, tokens: tokens, codec: codec, now: &now}
}
