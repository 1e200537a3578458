// Package sync provides keyed locking over a bounded set of mutexes.
package sync

import (
	base "sync"
)

const replicasPerStripe = 200

// StripedLock maps an unbounded key space, such as account addresses, onto a
// fixed number of mutexes. Distinct keys may share a mutex.
type StripedLock struct {
	locks []base.Mutex
	ring  *ring
}

// NewStripedLock returns a StripedLock with the given number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks: make([]base.Mutex, stripes),
		ring:  newRing(int(stripes), replicasPerStripe),
	}
}

// Get returns the mutex for key.
func (l *StripedLock) Get(key []byte) *base.Mutex {
	return &l.locks[l.ring.index(key)]
}

// Lock locks key and returns the function that unlocks it.
func (l *StripedLock) Lock(key []byte) (unlock func()) {
	mu := l.Get(key)
	mu.Lock()
	return mu.Unlock
}
