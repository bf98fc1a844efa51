// Package registry owns the server's room table. All room state is mutated
// under the registry lock; callers pass closures in rather than taking rooms
// out, so no *room.Room ever escapes the lock.
package registry

import (
	"sync"

	"parlor/internal/room"
)

type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

func New() *Registry {
	return &Registry{rooms: make(map[string]*room.Room)}
}

// Create inserts r under its own ID. Fails on collision so callers can retry
// with a fresh code.
func (reg *Registry) Create(r *room.Room) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[r.ID]; ok {
		return room.ErrRoomExists
	}
	reg.rooms[r.ID] = r
	return nil
}

// WithWrite runs fn on the named room under the write lock. fn must not
// block on channel sends; it snapshots what it needs and the caller fans out
// after WithWrite returns.
func (reg *Registry) WithWrite(roomID string, fn func(r *room.Room) error) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return room.ErrRoomNotFound
	}
	return fn(r)
}

// WithRead runs fn under the read lock for lookups that never mutate.
func (reg *Registry) WithRead(roomID string, fn func(r *room.Room) error) error {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return room.ErrRoomNotFound
	}
	return fn(r)
}

// Remove deletes the room if present. Removing an absent room is a no-op;
// two finalizers may race to clean up the same room.
func (reg *Registry) Remove(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, roomID)
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
