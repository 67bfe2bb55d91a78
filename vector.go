package pvec

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// logFilename is the fixed name of the log file within a Vector's
// directory.
const logFilename = "vector.log"

// DefaultSyncInterval is the default period between background durability
// barriers.
const DefaultSyncInterval = time.Second

var (
	ErrTooBig     = errors.New("pvec: data too large for an entry")
	ErrOutOfRange = errors.New("pvec: position out of range")
	ErrClosed     = errors.New("pvec: vector closed")
)

// entry is one live element of the vector. The identifier is minted once
// at append time and never changes; the entry's position does, as earlier
// entries are erased.
type entry struct {
	id   uint64
	data []byte
}

// Vector is a persistent, crash-consistent vector of byte strings.
//
// Every mutation is written to the log file before the in-memory state
// is updated, so at any point between calls the in-memory vector is the
// replay of everything written so far.
type Vector struct {
	interval    time.Duration
	onSyncError func(error)

	mu      sync.Mutex
	f       *os.File
	entries []entry
	lastID  uint64
	closed  bool

	done    chan struct{}
	stopped chan struct{}
}

// Open opens the vector persisted under dir, creating the directory and
// log file if they do not exist. An existing log is replayed from the
// start before Open returns; a partially-written trailing record, left by
// a crash mid-write, is discarded silently, but any inconsistency
// truncation cannot explain fails Open with ErrCorrupt.
func Open(dir string, options ...Option) (*Vector, error) {
	if err := checkDirPerms(dir); err != nil && os.IsNotExist(errors.Cause(err)) {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, errors.Wrap(err, "mkdir all")
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	v := &Vector{
		interval:    DefaultSyncInterval,
		onSyncError: exitOnSyncError,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, option := range options {
		if err := option(v); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}

	f, err := os.OpenFile(filepath.Join(dir, logFilename), os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "open log")
	}
	if err := v.replay(f); err != nil {
		f.Close()
		return nil, err
	}
	v.f = f

	go v.syncLoop()
	return v, nil
}

// replay reconstructs the in-memory vector by reading every record in the
// log, and leaves the file positioned for appending. A truncated trailing
// record is cut off the file so new records start exactly where the last
// complete one ended.
func (v *Vector) replay(f *os.File) error {
	r := NewReader(f)
	for r.Next() {
		rec := r.Record()
		switch rec.Op {
		case OpAppend:
			v.entries = append(v.entries, entry{id: rec.ID, data: rec.Data})
			if rec.ID > v.lastID {
				v.lastID = rec.ID
			}
		case OpDelete:
			if rec.Pos >= uint64(len(v.entries)) {
				return errors.Wrapf(ErrCorrupt,
					"delete of position %d in a %d-entry vector", rec.Pos, len(v.entries))
			}
			if id := v.entries[rec.Pos].id; id != rec.ID {
				return errors.Wrapf(ErrCorrupt,
					"delete at position %d names id %d, but the entry there has id %d",
					rec.Pos, rec.ID, id)
			}
			v.entries = append(v.entries[:rec.Pos], v.entries[rec.Pos+1:]...)
		}
	}

	switch err := r.Err(); {
	case err == nil:
	case errors.Is(err, ErrPartialRecord):
		// A crash cut the last write short. The record never took
		// effect, so drop its bytes rather than leave them ahead of
		// the next append.
		if err := f.Truncate(r.Offset()); err != nil {
			return errors.Wrap(err, "truncate partial record")
		}
	default:
		return errors.Wrap(err, "replay")
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "seek to end")
	}
	return nil
}

// lock runs the given function fn while holding the *Vector's internal
// mutex.
func (v *Vector) lock(fn func() error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fn()
}

// Append stores a copy of p as a new entry at the tail of the vector and
// returns the identifier minted for it. Identifiers increase strictly
// with every append and are never reused, including across reopens.
//
// The record is handed to the filesystem before the in-memory vector is
// updated; if the write fails, the vector is unchanged.
//
// Should len(p) exceed MaxDataSize, Append returns ErrTooBig without
// touching the log.
func (v *Vector) Append(p []byte) (uint64, error) {
	if len(p) > MaxDataSize {
		return 0, ErrTooBig
	}

	var id uint64
	if err := v.lock(func() error {
		if v.closed {
			return ErrClosed
		}
		id = v.lastID + 1
		if _, err := v.f.Write(encodeAppend(id, p)); err != nil {
			return errors.Wrap(err, "write append record")
		}
		v.lastID = id

		data := make([]byte, len(p))
		copy(data, p)
		v.entries = append(v.entries, entry{id: id, data: data})
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "append")
	}
	return id, nil
}

// At returns the data of the entry at position i. It reads only the
// in-memory vector, never the log.
//
// The returned slice is a view into the vector's memory and must not be
// modified.
func (v *Vector) At(i int) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i < 0 || i >= len(v.entries) {
		return nil, errors.Wrapf(ErrOutOfRange, "at %d of %d", i, len(v.entries))
	}
	return v.entries[i].data, nil
}

// Erase removes the entry at position i, shifting every subsequent entry
// down by one. Positions are not stable across erases; recompute them
// after any call.
func (v *Vector) Erase(i int) error {
	if err := v.lock(func() error {
		if v.closed {
			return ErrClosed
		}
		if i < 0 || i >= len(v.entries) {
			return errors.Wrapf(ErrOutOfRange, "erase %d of %d", i, len(v.entries))
		}
		if _, err := v.f.Write(encodeDelete(v.entries[i].id, uint64(i))); err != nil {
			return errors.Wrap(err, "write delete record")
		}
		v.entries = append(v.entries[:i], v.entries[i+1:]...)
		return nil
	}); err != nil {
		return errors.Wrap(err, "erase")
	}
	return nil
}

// Len returns the number of live entries.
func (v *Vector) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Sync forces every record written so far to stable storage. It is called
// periodically by the background loop, and once more during Close; most
// callers never need it directly.
func (v *Vector) Sync() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	return errors.Wrap(syncFile(v.f), "sync")
}

// Close stops the background sync loop, forces a final durability barrier
// over any outstanding writes, and closes the log file. The log is kept,
// not deleted; a later Open resumes from it.
//
// Close is idempotent. Any Append or Erase after Close returns ErrClosed.
func (v *Vector) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.mu.Unlock()

	// Wait for the sync loop to exit, so the final barrier below covers
	// everything and nothing fires after the file is closed.
	close(v.done)
	<-v.stopped

	if err := syncFile(v.f); err != nil {
		v.f.Close()
		return errors.Wrap(err, "final sync")
	}
	return errors.Wrap(v.f.Close(), "close log")
}
