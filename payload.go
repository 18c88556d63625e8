// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mrpc is a minimal Remote Procedure Call library: a client-side
// stub that looks up named procedures on a remote server and invokes them,
// and a server-side stub that registers procedure handlers and dispatches
// incoming requests to them. Communication uses a custom length-prefixed
// binary framing over IPv6 TCP. Payloads carry one signed 32-bit integer
// plus an opaque byte blob.
//
// Wire format: every integer is 8 bytes, big-endian, including the 32-bit
// data1 field (sign-extended into the full 8 bytes on the wire and
// truncated back on read). This is a deliberate simplification of the
// original C implementation, which canonicalized integers to 8 bytes by
// calling htonl on a 64-bit buffer — a construct that only behaves as
// intended on little-endian hosts and was almost certainly not what its
// author meant. mrpc tightens this into an explicit, intentional 8-byte
// wide wire format rather than preserving the original's bug.
//
// The library does not marshal arbitrary typed arguments, retry failed
// calls, multiplex concurrent calls over one connection, authenticate
// peers, or provide backpressure beyond what the underlying stream offers.
package mrpc

import "io"

// Payload is the generic record exchanged between client and handler:
// Data1 is a small signed integer, Data2 is an opaque byte blob. The wire
// invariant is that a zero-length Data2 and an absent Data2 are the same
// thing — mrpc represents both as a nil slice.
type Payload struct {
	Data1 int32
	Data2 []byte
}

// Free is a documented no-op retained for API symmetry with the original
// C library's rpc_data_free. Go's garbage collector reclaims a Payload
// once it is unreferenced; callers porting code from the original need
// not special-case mrpc, but there is nothing left to release.
func (p *Payload) Free() {}

// defaultMaxBlobLen is the declared maximum blob length a side will
// advertise during size negotiation unless overridden via
// WithServerMaxBlobLen or WithClientMaxBlobLen. It matches the 32-bit bound the original implementation
// assumed when bridging hosts of differing pointer width (spec.md §4.3).
const defaultMaxBlobLen = 1<<32 - 1

// writePayload serializes p onto rw as the sender's half of the payload
// frame sequence from spec.md §4.3/§6:
//
//	present_flag, shape_flag, data1,
//	[read] peer_max, pivot, quot, rem,
//	[read] overflow_flag,
//	data2 (if any)
//
// A nil p is encoded as present_flag = -1 and nothing further.
func writePayload(rw io.ReadWriter, p *Payload, ownMax uint64) error {
	if p == nil {
		if err := putInt32(rw, -1); err != nil {
			return newTransportError("write", err)
		}
		return nil
	}
	if err := putInt32(rw, 0); err != nil {
		return newTransportError("write", err)
	}

	dataLen := uint64(len(p.Data2))
	// Payload has no separate data2_len field: length of Data2 is the sole
	// source of truth, so the shape invariant (data2_len == 0 iff the blob
	// is absent) holds by construction and the shape flag is always 0.
	if err := putInt32(rw, 0); err != nil {
		return newTransportError("write", err)
	}

	if err := putInt32(rw, p.Data1); err != nil {
		return newTransportError("write", err)
	}

	peerMax, err := getUint64(rw)
	if err != nil {
		return newTransportError("read", err)
	}
	pivot := ownMax
	if peerMax < pivot {
		pivot = peerMax
	}
	if pivot == 0 {
		return newProtocolError("negotiated pivot is zero")
	}
	if err := putUint64(rw, pivot); err != nil {
		return newTransportError("write", err)
	}

	quot := dataLen / pivot
	rem := dataLen % pivot
	if quot > 1<<31-1 {
		return ErrTooLong
	}
	if err := putInt32(rw, int32(quot)); err != nil {
		return newTransportError("write", err)
	}
	if err := putUint64(rw, rem); err != nil {
		return newTransportError("write", err)
	}

	overflow, err := getInt32(rw)
	if err != nil {
		return newTransportError("read", err)
	}
	if overflow != 0 {
		return newProtocolError("receiver cannot allocate blob")
	}

	if dataLen > 0 {
		if err := putBytes(rw, p.Data2); err != nil {
			return newTransportError("write", err)
		}
	}
	return nil
}

// readPayload deserializes the receiver's half of the payload frame
// sequence. present_flag == -1 (sender transmitted a null payload) is only
// a legitimate, non-error outcome when allowNull is true: a handler's
// response may be absent, but a call's request payload is not optional,
// so the CALL-request read site must reject it instead of handing a nil
// Payload to a handler that assumes one is present.
func readPayload(rw io.ReadWriter, ownMax uint64, allowNull bool) (*Payload, error) {
	present, err := getInt32(rw)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	if present == -1 {
		if !allowNull {
			return nil, newProtocolError("null payload")
		}
		return nil, nil
	}
	if present != 0 {
		return nil, newProtocolError("invalid present flag")
	}

	shape, err := getInt32(rw)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	if shape != 0 {
		return nil, newProtocolError("sender reported shape invariant violation")
	}

	data1, err := getInt32(rw)
	if err != nil {
		return nil, newTransportError("read", err)
	}

	if err := putUint64(rw, ownMax); err != nil {
		return nil, newTransportError("write", err)
	}
	pivot, err := getUint64(rw)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	quot, err := getInt32(rw)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	if quot < 0 {
		return nil, newProtocolError("negative quotient")
	}
	rem, err := getUint64(rw)
	if err != nil {
		return nil, newTransportError("read", err)
	}

	dataLen, overflowed := mulAddOverflows(pivot, uint64(quot), rem)
	overflow := overflowed || dataLen > ownMax
	if overflow {
		if err := putInt32(rw, -1); err != nil {
			return nil, newTransportError("write", err)
		}
		return nil, ErrTooLong
	}
	if err := putInt32(rw, 0); err != nil {
		return nil, newTransportError("write", err)
	}

	data2, err := getBytes(rw, dataLen)
	if err != nil {
		return nil, newTransportError("read", err)
	}

	return &Payload{Data1: data1, Data2: data2}, nil
}

// mulAddOverflows computes pivot*quot + rem, reporting whether the
// computation overflowed a uint64. readPayload uses it for the receiver's
// overflow check, and also rejects any total above its own declared
// maximum blob length (ownMax); a length beyond that declared maximum is
// refused even when the host could allocate it.
func mulAddOverflows(pivot, quot, rem uint64) (sum uint64, overflow bool) {
	if quot != 0 && pivot > (^uint64(0))/quot {
		return 0, true
	}
	prod := pivot * quot
	sum = prod + rem
	if sum < prod {
		return 0, true
	}
	return sum, false
}
