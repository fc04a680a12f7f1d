package node

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame's declared length so a malformed or
// hostile peer cannot make a handler allocate unbounded memory.
const maxFrameSize = 16 * 1024 * 1024

// WriteFrame writes data to w preceded by its 8-byte big-endian length, per
// spec.md §6's framing contract.
func WriteFrame(w io.Writer, data []byte) error {
	var lenPrefix [8]byte
	binary.BigEndian.PutUint64(lenPrefix[:], uint64(len(data)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("node: write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("node: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenPrefix [8]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(lenPrefix[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("node: frame of %d bytes exceeds %d byte limit", n, maxFrameSize)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("node: read frame body: %w", err)
	}
	return data, nil
}
