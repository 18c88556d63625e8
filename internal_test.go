// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"bytes"
	"errors"
	"io"
	"math"
	"net"
	"testing"
)

func TestWire_Uint64RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 255, 256, math.MaxInt32, math.MaxUint64, math.MaxUint64 - 1}
	for _, v := range cases {
		var buf bytes.Buffer
		if err := putUint64(&buf, v); err != nil {
			t.Fatalf("putUint64(%d): %v", v, err)
		}
		if buf.Len() != wordLen {
			t.Fatalf("putUint64(%d): wrote %d bytes, want %d", v, buf.Len(), wordLen)
		}
		got, err := getUint64(&buf)
		if err != nil {
			t.Fatalf("getUint64(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("getUint64: got %d, want %d", got, v)
		}
	}
}

func TestWire_Int32RoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 127, -128, math.MaxInt32, math.MinInt32}
	for _, v := range cases {
		var buf bytes.Buffer
		if err := putInt32(&buf, v); err != nil {
			t.Fatalf("putInt32(%d): %v", v, err)
		}
		if buf.Len() != wordLen {
			t.Fatalf("putInt32(%d): wrote %d bytes, want %d", v, buf.Len(), wordLen)
		}
		got, err := getInt32(&buf)
		if err != nil {
			t.Fatalf("getInt32(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("getInt32: got %d, want %d", got, v)
		}
	}
}

func TestWire_Int32NegativeIsSignExtended(t *testing.T) {
	var buf bytes.Buffer
	if err := putInt32(&buf, -1); err != nil {
		t.Fatalf("putInt32(-1): %v", err)
	}
	want := bytes.Repeat([]byte{0xff}, wordLen)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("putInt32(-1) wrote %x, want %x", buf.Bytes(), want)
	}
}

func TestWire_GetUint64ShortRead(t *testing.T) {
	_, err := getUint64(bytes.NewReader([]byte{1, 2, 3}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestWire_BytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	data := []byte("hello, mrpc")
	if err := putBytes(&buf, data); err != nil {
		t.Fatalf("putBytes: %v", err)
	}
	got, err := getBytes(&buf, uint64(len(data)))
	if err != nil {
		t.Fatalf("getBytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("getBytes: got %q, want %q", got, data)
	}
}

func TestWire_GetBytesZeroLenReturnsNil(t *testing.T) {
	got, err := getBytes(bytes.NewReader(nil), 0)
	if err != nil {
		t.Fatalf("getBytes(0): %v", err)
	}
	if got != nil {
		t.Fatalf("getBytes(0) = %#v, want nil", got)
	}
}

func TestDJB2_KnownValue(t *testing.T) {
	// h0 = 5381; h_i = h_{i-1}*33 + byte. Verified by hand for "a": 5381*33+97.
	want := uint64(5381)*33 + uint64('a')
	if got := djb2("a"); got != want {
		t.Fatalf("djb2(\"a\") = %d, want %d", got, want)
	}
}

func TestDJB2_DifferentNamesUsuallyDiffer(t *testing.T) {
	if djb2("add2") == djb2("sub2") {
		t.Fatalf("djb2 collision between add2 and sub2, pick different fixtures")
	}
}

func TestValidProcedureName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"add2", true},
		{"a", true},
		{"", false},
		{"has space", true},
		{"has\ttab", false},
		{"has\nnewline", false},
		{string([]byte{127}), false},
		{string([]byte{31}), false},
		{string([]byte{32}), true},
		{string([]byte{126}), true},
	}
	for _, c := range cases {
		if got := validProcedureName(c.name); got != c.ok {
			t.Errorf("validProcedureName(%q) = %v, want %v", c.name, got, c.ok)
		}
	}
}

func TestRegistry_RegisterAndFind(t *testing.T) {
	r := NewRegistry()
	handler := func(p *Payload) *Payload { return p }
	if err := r.Register("add2", handler); err != nil {
		t.Fatalf("Register: %v", err)
	}

	byName, ok := r.FindByName("add2")
	if !ok {
		t.Fatalf("FindByName(add2): miss")
	}
	byID, ok := r.FindByID(djb2("add2"))
	if !ok {
		t.Fatalf("FindByID: miss")
	}
	if byName != byID {
		t.Fatalf("FindByName and FindByID returned different entries")
	}
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := NewRegistry()
	handler := func(p *Payload) *Payload { return p }
	if err := r.Register("add2", handler); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("add2", handler); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("second Register: got %v, want ErrDuplicateName", err)
	}
}

func TestRegistry_InvalidNameRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", func(p *Payload) *Payload { return p }); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Register(\"\"): got %v, want ErrInvalidName", err)
	}
}

func TestRegistry_FindMiss(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.FindByName("nope"); ok {
		t.Fatalf("FindByName(nope): want miss, got hit")
	}
	if _, ok := r.FindByID(12345); ok {
		t.Fatalf("FindByID(12345): want miss, got hit")
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	in := &Payload{Data1: 7, Data2: []byte("hello")}

	errCh := make(chan error, 1)
	go func() {
		errCh <- writePayload(c1, in, defaultMaxBlobLen)
	}()

	out, err := readPayload(c2, defaultMaxBlobLen, false)
	if err != nil {
		t.Fatalf("readPayload: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("writePayload: %v", err)
	}

	if out.Data1 != in.Data1 {
		t.Fatalf("Data1 = %d, want %d", out.Data1, in.Data1)
	}
	if !bytes.Equal(out.Data2, in.Data2) {
		t.Fatalf("Data2 = %q, want %q", out.Data2, in.Data2)
	}
}

// TestPayload_NilRoundTrip covers the response direction, where a null
// payload is a legitimate "handler produced nothing" outcome.
func TestPayload_NilRoundTrip(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- writePayload(c1, nil, defaultMaxBlobLen)
	}()

	out, err := readPayload(c2, defaultMaxBlobLen, true)
	if err != nil {
		t.Fatalf("readPayload: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("writePayload: %v", err)
	}
	if out != nil {
		t.Fatalf("readPayload(nil) = %#v, want nil", out)
	}
}

// TestPayload_NullRequestRejected covers the request direction: a null
// payload is a protocol failure, not a legitimate "no request body"
// outcome, since a CALL handler's argument is not optional.
func TestPayload_NullRequestRejected(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- writePayload(c1, nil, defaultMaxBlobLen)
	}()

	out, err := readPayload(c2, defaultMaxBlobLen, false)
	<-errCh
	if err == nil {
		t.Fatalf("readPayload(allowNull=false) on a null payload: want error, got nil, %#v", out)
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("readPayload(allowNull=false) error = %v (%T), want *ProtocolError", err, err)
	}
	if out != nil {
		t.Fatalf("readPayload(allowNull=false) on a null payload: out = %#v, want nil", out)
	}
}

func TestPayload_EmptyBlobDistinctFromAbsent(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	in := &Payload{Data1: 1, Data2: []byte{}}

	errCh := make(chan error, 1)
	go func() {
		errCh <- writePayload(c1, in, defaultMaxBlobLen)
	}()

	out, err := readPayload(c2, defaultMaxBlobLen, false)
	if err != nil {
		t.Fatalf("readPayload: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("writePayload: %v", err)
	}
	if out == nil {
		t.Fatalf("readPayload returned nil, want a non-nil Payload with an empty blob")
	}
	if len(out.Data2) != 0 {
		t.Fatalf("Data2 = %v, want empty", out.Data2)
	}
}

func TestPayload_PivotBoundary(t *testing.T) {
	// ownMax smaller than peerMax forces pivot = ownMax; exercise a blob
	// exactly at, one under, and one over the pivot.
	const ownMax = 16
	for _, n := range []int{0, 1, ownMax - 1, ownMax, ownMax + 1, ownMax*3 + 2} {
		c1, c2 := net.Pipe()
		in := &Payload{Data1: int32(n), Data2: bytes.Repeat([]byte{'x'}, n)}

		errCh := make(chan error, 1)
		go func() {
			errCh <- writePayload(c1, in, 1<<20)
		}()

		out, err := readPayload(c2, ownMax, false)
		writeErr := <-errCh
		c1.Close()
		c2.Close()

		if n > ownMax {
			if err == nil {
				t.Errorf("n=%d: readPayload succeeded, want ErrTooLong", n)
			}
			continue
		}
		if err != nil {
			t.Fatalf("n=%d: readPayload: %v", n, err)
		}
		if writeErr != nil {
			t.Fatalf("n=%d: writePayload: %v", n, writeErr)
		}
		if len(out.Data2) != n {
			t.Fatalf("n=%d: got %d bytes, want %d", n, len(out.Data2), n)
		}
	}
}

func TestMulAddOverflows(t *testing.T) {
	if _, overflow := mulAddOverflows(10, 3, 2); overflow {
		t.Fatalf("10*3+2 should not overflow")
	}
	if _, overflow := mulAddOverflows(math.MaxUint64, 2, 0); !overflow {
		t.Fatalf("MaxUint64*2 should overflow")
	}
	sum, overflow := mulAddOverflows(5, 0, 0)
	if overflow || sum != 0 {
		t.Fatalf("5*0+0 = %d, overflow=%v, want 0, false", sum, overflow)
	}
}
