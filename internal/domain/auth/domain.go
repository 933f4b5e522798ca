package auth

import "errors"

var ErrTokenNotFound = errors.New("token not found")

type TokenType string

const TypeBearer TokenType = "bearer"

// Token is the server-side record of one issued access token. Rows are
// never deleted; revocation sets both flags, so the table doubles as an
// audit ledger of every credential the service ever handed out. Refresh
// tokens are never stored, only access tokens are.
type Token struct {
	ID      int64
	UserID  int64
	Value   string
	Type    TokenType
	Expired bool
	Revoked bool
}

// Active reports whether the row can still authenticate a request.
// The embedded claims expiry is checked separately by the codec.
func (t *Token) Active() bool { return !t.Expired && !t.Revoked }

// Invalidate sets both flags. Setting flags that are already true is a
// no-op, which keeps concurrent revocations idempotent.
func (t *Token) Invalidate() {
	t.Expired = true
	t.Revoked = true
}
