package quota

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RemainingUnknown is reported when the tracker fails open: the store could
// not be consulted, so no remaining count exists.
const RemainingUnknown int64 = -1

// Decision is the tracker's answer for one registration attempt.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Tracker is the capability the registration service consumes. It is an
// interface so deployments (and tests) can swap the backing store.
type Tracker interface {
	// CheckAndConsume charges the caller one unit and reports whether the
	// request may proceed. The charge and the check are a single atomic step.
	CheckAndConsume(ctx context.Context, callerKey string) (Decision, error)
}

// Config tunes a Tracker.
type Config struct {
	Quota  int64
	Window time.Duration

	// FailOpen selects the availability-over-strictness tradeoff: when the
	// store is unreachable the request is allowed rather than the whole
	// service degrading into an outage. Stricter deployments set it false,
	// which turns store errors into denials surfaced to the caller.
	FailOpen bool
}

type tracker struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

// NewTracker builds a Tracker over the given store.
func NewTracker(store Store, cfg Config, logger *zap.Logger) Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tracker{store: store, cfg: cfg, logger: logger}
}

func (t *tracker) CheckAndConsume(ctx context.Context, callerKey string) (Decision, error) {
	res, err := t.store.Consume(ctx, callerKey, t.cfg.Quota, t.cfg.Window)
	if err != nil {
		if t.cfg.FailOpen {
			// Never silent: the outage is loud in the logs even though the
			// request goes through.
			t.logger.Error("quota store unreachable, failing open",
				zap.String("caller", callerKey), zap.Error(err))
			return Decision{Allowed: true, Remaining: RemainingUnknown}, nil
		}
		return Decision{}, fmt.Errorf("quota check: %w", err)
	}

	return Decision{
		Allowed:    res.Allowed,
		Remaining:  res.Remaining,
		RetryAfter: res.ResetIn,
	}, nil
}
