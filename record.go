package pvec

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Op identifies the kind of a log record.
type Op byte

const (
	// OpAppend records the addition of a new entry at the tail of the
	// vector.
	OpAppend Op = 1

	// OpDelete records the removal of the entry at a given position.
	OpDelete Op = 2
)

// MaxDataSize is the largest payload, in bytes, that a single entry can
// hold.
const MaxDataSize = 4096

// On-disk record layout. All integer fields are little-endian.
//
//	append: [kind:1][id:8][length:2][payload:length]
//	delete: [kind:1][id:8][position:8]
const (
	opSize  = 1
	idSize  = 8
	lenSize = 2
	posSize = 8

	appendHeaderSize = opSize + idSize + lenSize
	deleteRecordSize = opSize + idSize + posSize
)

var (
	// ErrPartialRecord is reported by a Reader when the stream ends
	// before satisfying a record's own declared length. It marks a write
	// that was interrupted mid-record, not a decoding failure.
	ErrPartialRecord = errors.New("pvec: partial record at end of log")

	// ErrCorrupt is reported when the log contains an inconsistency
	// that an interrupted trailing write cannot explain.
	ErrCorrupt = errors.New("pvec: corrupt log")
)

// Record is one deserialized log record.
type Record struct {
	Op   Op
	ID   uint64
	Data []byte // payload of an append record
	Pos  uint64 // position named by a delete record
}

// encodeAppend returns the serialized form of an append record. The
// length field always matches len(data); callers enforce the MaxDataSize
// cap before encoding.
func encodeAppend(id uint64, data []byte) []byte {
	buf := make([]byte, appendHeaderSize+len(data))
	buf[0] = byte(OpAppend)
	binary.LittleEndian.PutUint64(buf[opSize:], id)
	binary.LittleEndian.PutUint16(buf[opSize+idSize:], uint16(len(data)))
	copy(buf[appendHeaderSize:], data)
	return buf
}

// encodeDelete returns the serialized form of a delete record for the
// entry with the given id at position pos.
func encodeDelete(id, pos uint64) []byte {
	buf := make([]byte, deleteRecordSize)
	buf[0] = byte(OpDelete)
	binary.LittleEndian.PutUint64(buf[opSize:], id)
	binary.LittleEndian.PutUint64(buf[opSize+idSize:], pos)
	return buf
}
