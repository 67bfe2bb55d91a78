// Package pvec provides a persistent vector of byte strings.
//
// A Vector behaves like an ordinary dynamic array (append, random-access
// reads, positional erase, size) but records every mutation in an
// append-only log file before applying it in memory, so the full contents
// survive a process restart or abrupt power loss. Opening a directory that
// already holds a log replays it from the start, reconstructing the vector
// exactly as the last process left it.
//
// Mutations are not individually forced to stable storage. Instead a
// background goroutine forces a durability barrier at a fixed interval
// (see SyncInterval), so a crash can lose at most the mutations issued
// since the last barrier. A record cut short by such a crash is detected
// structurally when the log is next opened: every record declares its own
// length in a fixed-width header, so a partial write always ends with
// fewer bytes than it promises. Open discards the partial tail and loads
// the complete prefix, with no error.
//
// A Vector is safe for use from multiple goroutines within one process,
// but the log admits only a single writer: nothing coordinates concurrent
// opens of the same directory.
package pvec
