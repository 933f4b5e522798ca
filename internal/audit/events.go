package audit

import (
	"context"
	"time"
)

// Kind identifies the session-lifecycle transition an event records.
type Kind string

const (
	KindRegister Kind = "register"
	KindLogin    Kind = "login"
	KindRefresh  Kind = "refresh"
	KindLogout   Kind = "logout"
)

// Event is one auth-core state change, emitted after the change has
// been committed. Revoked counts the tokens closed out by the
// operation.
type Event struct {
	Kind    Kind      `json:"kind"`
	UserID  int64     `json:"user_id"`
	Email   string    `json:"email"`
	Revoked int       `json:"revoked"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop is used when auditing is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
