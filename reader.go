package pvec

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader sequentially decodes log records from a byte stream.
//
// It is not safe to call a Reader from multiple goroutines.
//
// Example:
//
//	r := NewReader(f)
//
//	for r.Next() {
//		fmt.Printf("%+v\n", r.Record())
//	}
//
//	if err := r.Err(); err != nil {
//		log.Println("error:", err)
//	}
//
// A Reader distinguishes a stream that ends cleanly at a record boundary
// (Err returns nil) from one that ends in the middle of a record (Err
// returns ErrPartialRecord). It never reads past the end of the stream,
// and never fails on a truncated tail; it classifies it.
type Reader struct {
	br  *bufio.Reader
	off int64
	rec Record
	err error
}

// NewReader returns a *Reader that decodes records from r, starting at
// r's current position.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next reports whether another complete record was decoded, and can be
// read with the Record method.
//
// A false return value means the stream is exhausted, or that decoding
// stopped on an error; consult Err to tell the cases apart.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	kind, err := r.br.ReadByte()
	if err == io.EOF {
		// End of stream on a record boundary: the clean case.
		return false
	} else if err != nil {
		r.err = errors.Wrap(err, "read record kind")
		return false
	}

	switch Op(kind) {
	case OpAppend:
		var hdr [idSize + lenSize]byte
		if !r.readFull(hdr[:]) {
			return false
		}
		length := binary.LittleEndian.Uint16(hdr[idSize:])
		if int(length) > MaxDataSize {
			r.err = errors.Wrapf(ErrCorrupt,
				"append record at offset %d declares a %d-byte payload", r.off, length)
			return false
		}
		data := make([]byte, length)
		if !r.readFull(data) {
			return false
		}
		r.rec = Record{
			Op:   OpAppend,
			ID:   binary.LittleEndian.Uint64(hdr[:idSize]),
			Data: data,
		}
		r.off += appendHeaderSize + int64(length)

	case OpDelete:
		var rest [idSize + posSize]byte
		if !r.readFull(rest[:]) {
			return false
		}
		r.rec = Record{
			Op:  OpDelete,
			ID:  binary.LittleEndian.Uint64(rest[:idSize]),
			Pos: binary.LittleEndian.Uint64(rest[idSize:]),
		}
		r.off += deleteRecordSize

	default:
		// Records are written front-to-back, so an interrupted write
		// can only shorten a record, never rewrite its kind byte. An
		// unknown kind is corruption, not truncation.
		r.err = errors.Wrapf(ErrCorrupt, "unknown record kind %#x at offset %d", kind, r.off)
		return false
	}
	return true
}

// readFull reads exactly len(p) bytes, classifying a short read as a
// truncated trailing record.
func (r *Reader) readFull(p []byte) bool {
	if _, err := io.ReadFull(r.br, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.err = ErrPartialRecord
		} else {
			r.err = errors.Wrap(err, "read record")
		}
		return false
	}
	return true
}

// Record returns the most-recently decoded record. Successive calls to
// Record, without calling Next, return the same record.
func (r *Reader) Record() Record {
	return r.rec
}

// Offset returns the byte offset just past the last complete record.
// After Next has returned false, this is where a recovering writer should
// resume appending.
func (r *Reader) Offset() int64 {
	return r.off
}

// Err returns the error that stopped decoding. It is nil when the stream
// ended cleanly at a record boundary, and ErrPartialRecord when the
// stream ended mid-record.
func (r *Reader) Err() error {
	return r.err
}
