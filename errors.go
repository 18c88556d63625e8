// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-facing invalid usage. These are returned
// directly (not wrapped in one of the three failure-kind types below)
// because they indicate a programming error rather than something that
// happened on the wire.
var (
	// ErrInvalidArgument reports a nil Handle, a nil request payload, a nil
	// handler, or other malformed call into the library.
	ErrInvalidArgument = errors.New("mrpc: invalid argument")

	// ErrInvalidName reports a procedure name that is empty or contains a
	// byte outside printable ASCII (32-126).
	ErrInvalidName = errors.New("mrpc: invalid procedure name")

	// ErrDuplicateName reports a Register call whose DJB2 hash collides
	// with an already-registered procedure, whether the names match or
	// merely hash the same.
	ErrDuplicateName = errors.New("mrpc: procedure name already registered")

	// ErrServerSealed reports a Register call made after ServeAll has
	// begun accepting connections; registration is setup-time only.
	ErrServerSealed = errors.New("mrpc: server already serving, cannot register")

	// ErrTooLong reports a blob length that exceeds the negotiated pivot
	// times the maximum representable quotient, or the receiver's
	// declared maximum object size.
	ErrTooLong = errors.New("mrpc: blob too long")
)

// TransportError wraps an I/O failure on the underlying byte stream: a
// read or write that returned fewer bytes than requested, or reported an
// error from the network. On the server, the connection worker exits and
// closes that connection. On the client, Find/Call return a nil result
// with this error; the Client does not close its connection itself, and the
// exchange that failed is left part-way. Other connections are unaffected.
type TransportError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mrpc: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// ProtocolError reports a payload exchange that was refused or malformed: a
// null request payload, an invalid present or shape flag, a negative
// quotient, a zero pivot, or a receiver that refused the blob length. A
// FIND or CALL miss is not a ProtocolError: Find and Call report it as a
// nil result with a nil error, and the connection stays open. A failed
// payload exchange is not recovered from: the server closes a connection
// whose payload exchange failed, so it does not serve further requests.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "mrpc: protocol: " + e.Reason }

func newProtocolError(reason string) error {
	return &ProtocolError{Reason: reason}
}

// SetupError reports a failure to construct a Server or Client: bind,
// listen, or connect failed. No partially-initialized object escapes a
// failed InitServer/InitClient call.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("mrpc: setup %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

func newSetupError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SetupError{Op: op, Err: err}
}
