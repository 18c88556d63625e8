// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"encoding/binary"
	"io"
)

// Wire discipline: every integer, regardless of its logical width, occupies
// exactly 8 bytes on the wire in big-endian (network) byte order. A signed
// 32-bit value is sign-extended into the full 8 bytes before it is written
// and truncated back to 32 bits (preserving sign) after it is read. This is
// a deliberate choice, not an accident of a 64-bit host calling htonl on a
// wide buffer: see the i32 discussion in the package doc comment.
const wordLen = 8

// putUint64 writes v as 8 big-endian bytes.
func putUint64(w io.Writer, v uint64) error {
	var buf [wordLen]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return writeFull(w, buf[:])
}

// getUint64 reads 8 big-endian bytes and returns them as v.
func getUint64(r io.Reader) (uint64, error) {
	var buf [wordLen]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// putInt32 sign-extends v into 8 bytes and writes them big-endian.
func putInt32(w io.Writer, v int32) error {
	return putUint64(w, uint64(int64(v)))
}

// getInt32 reads 8 big-endian bytes as a signed 64-bit value and truncates
// it to 32 bits, preserving the two's-complement sign.
func getInt32(r io.Reader) (int32, error) {
	u, err := getUint64(r)
	if err != nil {
		return 0, err
	}
	return int32(int64(u)), nil
}

// putBytes writes b verbatim with no length prefix and no transformation.
// Callers that need the length on the wire send it separately (putUint64).
func putBytes(w io.Writer, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return writeFull(w, b)
}

// getBytes reads exactly n octets and returns them. A read of zero bytes
// returns a nil slice, matching the payload invariant that an empty blob
// and an absent blob are indistinguishable on the wire.
func getBytes(r io.Reader, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if err := readFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// writeFull writes all of p or returns the short-write/IO error it hit.
// There is no framer-style retry-on-would-block here: the spec's transport
// model is purely blocking, with timeouts enforced by the socket deadline
// rather than a non-blocking control-flow contract (see DESIGN.md).
func writeFull(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// readFull reads exactly len(p) bytes into p or returns the underlying
// error (including io.ErrUnexpectedEOF/io.EOF from io.ReadFull).
func readFull(r io.Reader, p []byte) error {
	_, err := io.ReadFull(r, p)
	return err
}
