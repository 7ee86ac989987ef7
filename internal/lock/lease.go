package lock

import (
	"context"
	"errors"
)

// ErrLockLost is returned by a fenced write when the lock it depends on has expired or
// changed hands
var ErrLockLost = errors.New("booking lock expired before the write")

// Lease identifies a held Redis lock. Stores sharing that Redis check it inside their
// write transaction so that a holder which outlived its TTL cannot commit.
type Lease struct {
	Key   string
	Token string
}

type leaseContextKey struct{}

// WithLease returns a context carrying lease
func WithLease(ctx context.Context, lease Lease) context.Context {
	return context.WithValue(ctx, leaseContextKey{}, lease)
}

// LeaseFromContext returns the lease held by the caller, if any
func LeaseFromContext(ctx context.Context) (Lease, bool) {
	lease, ok := ctx.Value(leaseContextKey{}).(Lease)
	return lease, ok
}
