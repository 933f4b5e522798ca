package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/obs/retry"
)

// Async decouples publishing from the request path: Publish returns
// immediately and the delivery is retried in the background. Audit
// failures never fail a login.
type Async struct {
	inner   Publisher
	log     *zap.Logger
	timeout time.Duration
}

var _ Publisher = (*Async)(nil)

func NewAsync(inner Publisher, log *zap.Logger) *Async {
	return &Async{inner: inner, log: log, timeout: 2 * time.Minute}
}

func (a *Async) Publish(_ context.Context, ev Event) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		_ = retry.Do(ctx, func() error {
			return a.inner.Publish(ctx, ev)
		}, retry.DefaultPublishPolicy(a.log))
	}()
	return nil
}
