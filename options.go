package pvec

import (
	"time"

	"github.com/pkg/errors"
)

// Option is a functional configuration type that can be used to configure
// the behaviour of a *Vector.
type Option func(*Vector) error

// SyncInterval sets the period between background durability barriers.
//
// A shorter interval narrows the window of mutations a crash can lose, at
// the cost of more sync traffic against the log file.
func SyncInterval(d time.Duration) Option {
	return func(v *Vector) error {
		if d <= 0 {
			return errors.Errorf("non-positive sync interval %v", d)
		}
		v.interval = d
		return nil
	}
}

// OnSyncError sets the function called when a background durability
// barrier fails.
//
// The default handler prints the error and exits the process: once the
// device has refused a sync, durability promises already made to earlier
// callers cannot be kept, and carrying on would hide that. Override this
// only if the embedding program has a better way to escalate.
func OnSyncError(fn func(error)) Option {
	return func(v *Vector) error {
		if fn == nil {
			return errors.New("nil OnSyncError handler")
		}
		v.onSyncError = fn
		return nil
	}
}
