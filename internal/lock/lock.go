// Package lock serializes booking admission per room and date.
//
// Submissions for different keys never wait on each other. Two implementations are
// provided: an in-process keyed mutex for a single replica and a Redis lock for
// deployments that run several replicas against the same store.
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when the lock could not be acquired within the wait limit
var ErrLockTimeout = errors.New("timed out waiting for booking lock")

// Key identifies the unit of mutual exclusion
type Key struct {
	RoomID string
	Date   string
}

func (k Key) String() string {
	return k.RoomID + "|" + k.Date
}

// Locker runs fn while holding the lock for key. The lock is released on every exit
// path of fn, including panics. If the lock cannot be acquired fn is never called and
// either ErrLockTimeout or the context's error is returned.
type Locker interface {
	WithLock(ctx context.Context, key Key, fn func(ctx context.Context) error) error
}
