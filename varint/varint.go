// Package varint implements the LEB128-style unsigned varint codec shared by
// every on-disk entry encoder in the model package.
//
// The wire format is the one encoding/binary already speaks (7 bits per byte,
// LSB first, continuation bit in the high bit); this package exists to name
// the fatal-decode contract explicitly and give every encoder one call site
// to depend on, the way indexes/uints.go centralizes fixed-width packing in
// the teacher repo.
package varint

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// ErrInvalidData is returned when a varint does not fit a 64-bit value: more
// than the 10 bytes a uint64 can need, or a 10th byte carrying bits past
// bit 63.
var ErrInvalidData = errors.New("varint: invalid data")

// Append writes v to buf in unsigned varint form and returns the extended slice.
func Append(buf []byte, v uint64) []byte {
	return binary.AppendUvarint(buf, v)
}

// Take reads one varint from the front of buf, returning the value and the
// remaining bytes. It fails with ErrInvalidData on overflow or a truncated
// encoding.
func Take(buf []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, nil, ErrInvalidData
	}
	return v, buf[n:], nil
}

// Read decodes one varint from r, the streaming counterpart of Take used
// when an entry is parsed from an io.Reader rather than a byte slice.
func Read(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, ErrInvalidData
	}
	return v, nil
}

// Reader adapts an io.Reader without ReadByte into an io.ByteReader, mirroring
// the Cursor-backed readers used throughout the original entry codecs.
func Reader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
