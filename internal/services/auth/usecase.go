package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/novadock/hangar/internal/audit"
	domainauth "github.com/novadock/hangar/internal/domain/auth"
	"github.com/novadock/hangar/internal/domain/user"
	"github.com/novadock/hangar/internal/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

const bearerPrefix = "Bearer"

// dummyHash absorbs a bcrypt comparison when the user does not exist,
// so a missing account costs the same as a wrong password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Transactor brackets the revoke-then-insert sequence of login and
// refresh in one transaction; concurrent sessions for the same user
// either see each other's revocations or redo them idempotently.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Usecase is the session manager: it orchestrates registration, login,
// refresh and logout over the user repo, the token store and the codec.
type Usecase struct {
	users  user.Repo
	tokens domainauth.Store
	codec  *token.Codec
	tx     Transactor
	cfg    Config
	log    *zap.Logger
	audit  audit.Publisher
}

func NewUsecase(users user.Repo, tokens domainauth.Store, codec *token.Codec, tx Transactor, cfg Config, log *zap.Logger, pub audit.Publisher) *Usecase {
	if pub == nil {
		pub = audit.Nop{}
	}
	return &Usecase{users: users, tokens: tokens, codec: codec, tx: tx, cfg: cfg, log: log, audit: pub}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates the user and issues the first token pair. Nothing is
// revoked: a fresh account has no prior session.
func (u *Usecase) Register(ctx context.Context, email, password, name string) (access, refresh string, err error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{Email: email, Name: name, Password: string(hash)}
	if err := u.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrExists) {
			return "", "", ErrDuplicateUser
		}
		return "", "", err
	}

	access, refresh, err = u.issuePair(ctx, newUser)
	if err != nil {
		return "", "", err
	}

	_ = u.audit.Publish(ctx, audit.Event{Kind: audit.KindRegister, UserID: newUser.ID, Email: newUser.Email, At: time.Now().UTC()})
	return access, refresh, nil
}

// Login authenticates, closes out every previously active access token
// and issues a new pair. Previously issued refresh tokens stay
// cryptographically valid: only access tokens are tracked server-side.
func (u *Usecase) Login(ctx context.Context, email, password string) (access, refresh string, err error) {
	usr, err := u.Authenticate(ctx, email, password)
	if err != nil {
		return "", "", err
	}

	access, err = u.codec.Encode(usr, u.cfg.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("encode access: %w", err)
	}
	refresh, err = u.codec.Encode(usr, u.cfg.RefreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("encode refresh: %w", err)
	}

	var revoked int
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		revoked, err = u.revokeAll(ctx, usr.ID)
		if err != nil {
			return err
		}
		return u.saveAccessToken(ctx, usr.ID, access)
	})
	if err != nil {
		return "", "", err
	}

	u.log.Info("login", zap.Int64("user_id", usr.ID), zap.Int("revoked", revoked))
	_ = u.audit.Publish(ctx, audit.Event{Kind: audit.KindLogin, UserID: usr.ID, Email: usr.Email, Revoked: revoked, At: time.Now().UTC()})
	return access, refresh, nil
}

// Authenticate verifies credentials against the stored bcrypt hash.
// Callers at the HTTP boundary collapse both failure modes into a
// generic unauthorized response; the distinction is for logs and tests.
func (u *Usecase) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	usr, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return usr, nil
}

// Refresh exchanges a valid refresh token carried in the Authorization
// header for a new access token. The refresh token itself is returned
// unchanged; it was never stored and cannot be rotated server-side.
func (u *Usecase) Refresh(ctx context.Context, authHeader string) (access, refresh string, err error) {
	raw, err := stripBearer(authHeader)
	if err != nil {
		return "", "", err
	}

	subject, err := u.codec.Subject(raw)
	if err != nil || subject == "" {
		return "", "", ErrInvalidToken
	}

	usr, err := u.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", err
	}

	if !u.codec.ValidFor(raw, usr) {
		return "", "", ErrInvalidToken
	}

	access, err = u.codec.Encode(usr, u.cfg.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("encode access: %w", err)
	}

	var revoked int
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		revoked, err = u.revokeAll(ctx, usr.ID)
		if err != nil {
			return err
		}
		return u.saveAccessToken(ctx, usr.ID, access)
	})
	if err != nil {
		return "", "", err
	}

	_ = u.audit.Publish(ctx, audit.Event{Kind: audit.KindRefresh, UserID: usr.ID, Email: usr.Email, Revoked: revoked, At: time.Now().UTC()})
	return access, raw, nil
}

// Logout closes out the exact token row named by the header. It acts on
// the literal string: a token that was never persisted cannot be logged
// out, regardless of what its claims say.
func (u *Usecase) Logout(ctx context.Context, authHeader string) error {
	raw, err := stripBearer(authHeader)
	if err != nil {
		return err
	}

	t, err := u.tokens.FindByValue(ctx, raw)
	if err != nil {
		if errors.Is(err, domainauth.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	t.Invalidate()
	if err := u.tokens.Save(ctx, t); err != nil {
		return err
	}

	_ = u.audit.Publish(ctx, audit.Event{Kind: audit.KindLogout, UserID: t.UserID, Revoked: 1, At: time.Now().UTC()})
	return nil
}

func (u *Usecase) issuePair(ctx context.Context, usr *user.User) (access, refresh string, err error) {
	access, err = u.codec.Encode(usr, u.cfg.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("encode access: %w", err)
	}
	refresh, err = u.codec.Encode(usr, u.cfg.RefreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("encode refresh: %w", err)
	}
	if err := u.saveAccessToken(ctx, usr.ID, access); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (u *Usecase) saveAccessToken(ctx context.Context, userID int64, value string) error {
	t := &domainauth.Token{
		UserID: userID,
		Value:  value,
		Type:   domainauth.TypeBearer,
	}
	if err := u.tokens.Save(ctx, t); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	return nil
}

// revokeAll flags every still-open token of the user. Flags that are
// already true stay true, so overlapping revocations are harmless.
func (u *Usecase) revokeAll(ctx context.Context, userID int64) (int, error) {
	ts, err := u.tokens.FindActiveForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("find active tokens: %w", err)
	}
	if len(ts) == 0 {
		return 0, nil
	}
	for _, t := range ts {
		t.Invalidate()
	}
	if err := u.tokens.SaveAll(ctx, ts); err != nil {
		return 0, fmt.Errorf("revoke tokens: %w", err)
	}
	return len(ts), nil
}

func stripBearer(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) || len(header) < len(bearerPrefix)+2 {
		return "", ErrInvalidToken
	}
	return header[len(bearerPrefix)+1:], nil
}
