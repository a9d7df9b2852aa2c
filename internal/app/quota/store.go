// Package quota enforces a per-caller registration budget over a fixed window.
package quota

import (
	"context"
	"time"
)

// Result is the outcome of one atomic charge attempt against a Store.
type Result struct {
	Allowed   bool
	Remaining int64
	ResetIn   time.Duration
}

// Store performs the atomic charge: create-with-quota-minus-one when the key
// is absent, decrement while positive, deny otherwise. Implementations must
// make the whole step atomic per key; a read followed by a write reintroduces
// the double-spend race this package exists to prevent.
type Store interface {
	Consume(ctx context.Context, key string, quota int64, window time.Duration) (Result, error)
}
