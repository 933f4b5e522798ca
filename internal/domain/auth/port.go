package auth

import "context"

// Store persists issued access tokens. Save upserts by token value, so
// flag mutations go through the same call as inserts. Lookups are by
// exact string match only.
type Store interface {
	Save(ctx context.Context, t *Token) error
	FindByValue(ctx context.Context, value string) (*Token, error)
	// FindActiveForUser returns every token of the user that is not yet
	// in the fully-closed state (expired AND revoked), i.e. everything
	// that needs closing out before a new session is issued.
	FindActiveForUser(ctx context.Context, userID int64) ([]*Token, error)
	SaveAll(ctx context.Context, ts []*Token) error
}
