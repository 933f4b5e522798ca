package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	domainauth "github.com/novadock/hangar/internal/domain/auth"
	"github.com/novadock/hangar/internal/domain/user"
	"github.com/novadock/hangar/internal/token"
)

type ctxKey int

const principalKey ctxKey = 1

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID int64
	Email  string
	Name   string
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromCtx(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// Outcome is the gate's decision for one request. The asymmetry is
// deliberate: structural problems (no header, unknown token) degrade to
// an anonymous forward and let downstream authorization deny, but a
// token that names a subject and then fails deeper checks aborts hard.
type Outcome int

const (
	// OutcomeSkip forwards auth-endpoint traffic untouched.
	OutcomeSkip Outcome = iota
	// OutcomeAnonymous forwards without a principal.
	OutcomeAnonymous
	// OutcomeAbort stops the request with an unauthorized response.
	OutcomeAbort
	// OutcomeAuthenticated forwards with a principal attached.
	OutcomeAuthenticated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeAnonymous:
		return "anonymous"
	case OutcomeAbort:
		return "abort"
	case OutcomeAuthenticated:
		return "authenticated"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

const authPathPrefix = "/auth"

// Gate authenticates inbound requests before any handler runs.
type Gate struct {
	users  user.Repo
	tokens domainauth.Store
	codec  *token.Codec
	log    *zap.Logger
}

func NewGate(users user.Repo, tokens domainauth.Store, codec *token.Codec, log *zap.Logger) *Gate {
	return &Gate{users: users, tokens: tokens, codec: codec, log: log}
}

// Decide runs the ordered checks for one request. It is a pure decision
// function: the middleware applies the outcome.
func (g *Gate) Decide(ctx context.Context, path, authHeader string, alreadyAuthenticated bool) (Outcome, *Principal) {
	if strings.HasPrefix(path, authPathPrefix) {
		return OutcomeSkip, nil
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) < len(bearerPrefix)+2 {
		return OutcomeAnonymous, nil
	}
	raw := authHeader[len(bearerPrefix)+1:]

	subject, err := g.codec.Subject(raw)
	if err != nil || subject == "" || alreadyAuthenticated {
		return OutcomeAbort, nil
	}

	t, err := g.tokens.FindByValue(ctx, raw)
	if err != nil {
		if !errors.Is(err, domainauth.ErrTokenNotFound) {
			g.log.Warn("token lookup", zap.Error(err))
		}
		return OutcomeAnonymous, nil
	}
	if !t.Active() {
		return OutcomeAnonymous, nil
	}

	usr, err := g.users.GetByEmail(ctx, subject)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			g.log.Warn("user lookup", zap.Error(err))
		}
		return OutcomeAnonymous, nil
	}

	if !g.codec.ValidFor(raw, usr) {
		return OutcomeAbort, nil
	}

	return OutcomeAuthenticated, &Principal{UserID: usr.ID, Email: usr.Email, Name: usr.Name}
}

// Middleware resolves the request's identity strictly before the next
// handler is invoked.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, already := PrincipalFromCtx(r.Context())
		outcome, p := g.Decide(r.Context(), r.URL.Path, r.Header.Get("Authorization"), already)
		switch outcome {
		case OutcomeSkip, OutcomeAnonymous:
			next.ServeHTTP(w, r)
		case OutcomeAbort:
			w.WriteHeader(http.StatusUnauthorized)
		case OutcomeAuthenticated:
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		}
	})
}
