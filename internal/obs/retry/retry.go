package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Policy drives Do: how many attempts, how long to sleep between them,
// and which errors are worth another try.
type Policy struct {
	Name      string
	Attempts  int
	Base      time.Duration
	Max       time.Duration
	Jitter    float64
	Retryable func(error) bool
	Log       *zap.Logger
}

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Retry attempts, including the final one.",
	}, []string{"name"})
	exhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Operations that ran out of attempts.",
	}, []string{"name"})
)

// wait is exponential in the attempt number, capped at Max, with
// symmetric jitter applied last.
func (p Policy) wait(attempt int) time.Duration {
	d := float64(p.Base) * math.Pow(2, float64(attempt))
	if p.Max > 0 && d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*p.Jitter
	}
	return time.Duration(d)
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return err != nil
	}
	return p.Retryable(err)
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx ends.
// The last error is returned as-is so callers can still match on it.
func Do(ctx context.Context, fn func() error, p Policy) error {
	name := p.Name
	if name == "" {
		name = "default"
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		attemptsTotal.WithLabelValues(name).Inc()
		if err == nil {
			return nil
		}
		if !p.retryable(err) || i == attempts-1 {
			break
		}
		if p.Log != nil {
			p.Log.Warn("retrying", zap.String("name", name), zap.Int("attempt", i+1), zap.Error(err))
		}
		t := time.NewTimer(p.wait(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	exhaustedTotal.WithLabelValues(name).Inc()
	if p.Log != nil && !errors.Is(err, context.Canceled) {
		p.Log.Error("retries exhausted", zap.String("name", name), zap.Error(err))
	}
	return err
}

// DefaultPublishPolicy suits best-effort audit delivery: a handful of
// attempts with jittered backoff, logged but never surfaced to the
// request path.
func DefaultPublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "audit_publish",
		Attempts: 6,
		Base:     200 * time.Millisecond,
		Max:      30 * time.Second,
		Jitter:   0.2,
		Log:      log,
	}
}
