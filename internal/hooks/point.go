package hooks

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrHookNotRegistered is returned when shutting down a hook that is no
	// longer registered.
	ErrHookNotRegistered = errors.New("hook is not registered")
	// ErrUnknownPoint is returned for an insertion point nobody renders.
	ErrUnknownPoint = errors.New("unknown hook point")
)

// Entry is one hook's registration in a Point.
type Entry[T any] struct {
	HookID string
	Owner  string // extension ID
	Value  T
}

// Point is the ordered list of registrations for one hook type.
type Point[T any] struct {
	name string

	mu      sync.RWMutex
	entries []*Entry[T]
}

// NewPoint creates an empty point.
func NewPoint[T any](name string) *Point[T] {
	return &Point[T]{name: name}
}

// Name returns the hook type name.
func (p *Point[T]) Name() string {
	return p.name
}

func (p *Point[T]) add(e *Entry[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
}

func (p *Point[T]) remove(e *Entry[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.entries {
		if cur == e {
			// Copy so snapshots handed out by Entries stay intact.
			next := make([]*Entry[T], 0, len(p.entries)-1)
			next = append(next, p.entries[:i]...)
			p.entries = append(next, p.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s hook %q", ErrHookNotRegistered, p.name, e.HookID)
}

// Entries returns a snapshot of the registrations in registration order.
func (p *Point[T]) Entries() []*Entry[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Entry[T], len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of registrations.
func (p *Point[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// pointHook is the shared implementation of hooks that own one entry in one point.
type pointHook[T any] struct {
	ext   *Extension
	point *Point[T]
	entry *Entry[T]
}

func newPointHook[T any](ext *Extension, point *Point[T], value T) *pointHook[T] {
	h := &pointHook[T]{
		ext:   ext,
		point: point,
		entry: &Entry[T]{
			HookID: ext.nextHookID(point.Name()),
			Owner:  ext.ID(),
			Value:  value,
		},
	}
	point.add(h.entry)
	return h
}

func (h *pointHook[T]) ID() string {
	return h.entry.HookID
}

func (h *pointHook[T]) Type() string {
	return h.point.Name()
}

func (h *pointHook[T]) Shutdown() error {
	if err := h.point.remove(h.entry); err != nil {
		return err
	}
	h.ext.detach(h.entry.HookID)
	return nil
}
