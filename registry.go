// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import "sync"

// Handler is the server-side implementation of a registered procedure. A
// nil return means "no response payload" and is encoded on the wire as a
// null payload (present flag -1), not an error.
type Handler func(*Payload) *Payload

// registeredFunc binds a procedure name and its DJB2 hash to a handler.
// Within one Registry no two entries share an id.
type registeredFunc struct {
	id      uint64
	name    string
	handler Handler
}

// Registry is the set of (name, handler) bindings a Server dispatches
// against. Lookup is a linear scan by design — spec.md calls for O(n)
// lookup by name or id, not a map, since the scan also doubles as the
// uniqueness check on Register.
//
// A Registry is safe for concurrent Register calls, but in practice all
// registration happens during single-threaded setup before ServeAll: the
// read path (FindByName/FindByID, exercised by every connection worker)
// takes the same RWMutex only for the duration of the scan, so concurrent
// workers never block each other for long.
type Registry struct {
	mu      sync.RWMutex
	entries []*registeredFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// djb2 hashes name per spec.md's definition: h0 = 5381, hi = hi-1*33 + byte,
// accumulated modulo 2^64 (Go's uint64 arithmetic wraps the same way).
func djb2(name string) uint64 {
	h := uint64(5381)
	for i := 0; i < len(name); i++ {
		h = h*33 + uint64(name[i])
	}
	return h
}

// validProcedureName reports whether name is non-empty printable ASCII
// (codepoints 32-126 inclusive).
func validProcedureName(name string) bool {
	if len(name) < 1 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 32 || c > 126 {
			return false
		}
	}
	return true
}

// Register binds name to handler. It rejects invalid names
// (ErrInvalidName) and names whose DJB2 hash collides with an existing
// entry (ErrDuplicateName), whether or not the names themselves match.
func (r *Registry) Register(name string, handler Handler) error {
	if !validProcedureName(name) {
		return ErrInvalidName
	}
	if handler == nil {
		return ErrInvalidArgument
	}
	id := djb2(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.id == id {
			return ErrDuplicateName
		}
	}
	r.entries = append(r.entries, &registeredFunc{id: id, name: name, handler: handler})
	return nil
}

// FindByName computes the DJB2 hash of name and delegates to FindByID.
func (r *Registry) FindByName(name string) (*registeredFunc, bool) {
	return r.FindByID(djb2(name))
}

// FindByID linearly scans for the entry whose id matches.
func (r *Registry) FindByID(id uint64) (*registeredFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}
