package pvec

import (
	"fmt"
	"os"
	"time"
)

// syncLoop periodically forces a durability barrier over all records
// written since the previous one, bounding how long an unforced write is
// exposed to a crash. It runs in its own goroutine from Open until Close
// signals the done channel.
func (v *Vector) syncLoop() {
	defer close(v.stopped)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// Close may have won the race since the tick fired; an
			// ErrClosed here just means there is nothing left to do.
			if err := v.Sync(); err != nil && err != ErrClosed {
				v.onSyncError(err)
			}
		case <-v.done:
			return
		}
	}
}

// exitOnSyncError is the default OnSyncError handler.
func exitOnSyncError(err error) {
	fmt.Fprintln(os.Stderr, "pvec: durability barrier failed:", err)
	os.Exit(1)
}
