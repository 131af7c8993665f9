package datastructures

import "sync"

type refMutex struct {
	sync.Mutex
	refs int
}

// KeyedMutex hands out one mutex per key and forgets it once nobody holds or waits on it.
type KeyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refMutex
}

func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{locks: make(map[K]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock.
func (km *KeyedMutex[K]) Lock(key K) func() {
	km.mu.Lock()
	lock, ok := km.locks[key]
	if !ok {
		lock = &refMutex{}
		km.locks[key] = lock
	}
	lock.refs++
	km.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		km.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}
