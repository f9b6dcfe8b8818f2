package object

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownHandle is returned for handles the table does not hold.
	ErrUnknownHandle = errors.New("object: unknown handle")
	// ErrInUse is returned when destroying a shader that is still bound.
	ErrInUse = errors.New("object: shader in use")
)

type entry struct {
	shader *Shader
	refs   int
}

// Table owns created shaders and tracks which are referenced by command
// buffer state. It is safe for concurrent use; lookups take the read lock.
type Table struct {
	mu      sync.RWMutex
	next    Handle
	entries map[Handle]*entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[Handle]*entry)}
}

// Reserve returns n fresh handles. Handles are never reused.
func (t *Table) Reserve(n int) []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Handle, n)
	for i := range out {
		t.next++
		out[i] = t.next
	}
	return out
}

// Insert stores s under s.Handle, which must come from Reserve.
func (t *Table) Insert(s *Shader) error {
	if s.Handle == Null {
		return fmt.Errorf("insert shader: %w: null", ErrUnknownHandle)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.Handle > t.next {
		return fmt.Errorf("insert shader: %w: 0x%x was not reserved", ErrUnknownHandle, uint64(s.Handle))
	}
	if _, ok := t.entries[s.Handle]; ok {
		return fmt.Errorf("insert shader: handle 0x%x already present", uint64(s.Handle))
	}
	t.entries[s.Handle] = &entry{shader: s}
	return nil
}

// Resolve returns the shader for h. Stored shaders are never mutated.
func (t *Table) Resolve(h Handle) (*Shader, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[h]
	if !ok {
		return nil, false
	}
	return e.shader, true
}

// Acquire marks h as referenced by one more binding slot.
func (t *Table) Acquire(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return fmt.Errorf("acquire 0x%x: %w", uint64(h), ErrUnknownHandle)
	}
	e.refs++
	return nil
}

// Release drops one reference taken by Acquire. Releasing a destroyed or
// unreferenced handle is a no-op.
func (t *Table) Release(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[h]; ok && e.refs > 0 {
		e.refs--
	}
}

// InUse reports whether any binding slot references h.
func (t *Table) InUse(h Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[h]
	return ok && e.refs > 0
}

// Destroy removes h. It fails with ErrInUse while h is referenced.
func (t *Table) Destroy(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return fmt.Errorf("destroy 0x%x: %w", uint64(h), ErrUnknownHandle)
	}
	if e.refs > 0 {
		return fmt.Errorf("destroy 0x%x: %w (%d references)", uint64(h), ErrInUse, e.refs)
	}
	delete(t.entries, h)
	return nil
}

// Len returns the number of live shaders.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
