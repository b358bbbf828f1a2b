// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import "sync"

// handleTable maps opaque driver handles onto native objects.
// The zero value is ready to use.
type handleTable[T comparable] struct {
	mutex   sync.Mutex
	last    uint64
	entries map[uint64]handleEntry[T]
}

// handleEntry is a native object and the handle of the object owning it,
// zero when it is owned by the caller.
type handleEntry[T comparable] struct {
	value T
	owner uint64
}

func (t *handleTable[T]) add(v T) uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.insert(v, 0)
}

// addOwned registers v under owner. Registering the same object for the
// same owner again returns the existing handle.
func (t *handleTable[T]) addOwned(v T, owner uint64) uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for h, e := range t.entries {
		if e.owner == owner && e.value == v {
			return h
		}
	}
	return t.insert(v, owner)
}

func (t *handleTable[T]) insert(v T, owner uint64) uint64 {
	if t.entries == nil {
		t.entries = make(map[uint64]handleEntry[T])
	}
	t.last++
	t.entries[t.last] = handleEntry[T]{value: v, owner: owner}
	return t.last
}

func (t *handleTable[T]) get(h uint64) (T, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	e, ok := t.entries[h]
	return e.value, ok
}

func (t *handleTable[T]) remove(h uint64) (T, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	e, ok := t.entries[h]
	delete(t.entries, h)
	return e.value, ok
}

// removeOwned drops every handle registered under owner and returns how
// many were dropped.
func (t *handleTable[T]) removeOwned(owner uint64) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	removed := 0
	for h, e := range t.entries {
		if e.owner == owner {
			delete(t.entries, h)
			removed++
		}
	}
	return removed
}

func (t *handleTable[T]) len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.entries)
}
