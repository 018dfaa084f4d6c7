package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"sportstrivia/internal/models"

	"github.com/google/uuid"
)

// Directory indexes live rooms by id
type Directory struct {
	rooms map[string]*Room
	mu    sync.RWMutex
	newID func() string
}

// NewDirectory creates an empty room directory
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		newID: func() string { return uuid.New().String()[:8] },
	}
}

// CreateRoom creates a waiting room with creator as its only player
func (d *Directory) CreateRoom(name, category string, capacity int, creator models.Player) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidRoomName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.newID()
	for d.rooms[id] != nil {
		id = d.newID()
	}
	room := NewRoom(id, name, strings.TrimSpace(category), capacity, creator)
	d.rooms[id] = room
	return room, nil
}

// GetRoom retrieves a room by ID
func (d *Directory) GetRoom(id string) (*Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, exists := d.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// OpenRooms lists waiting rooms that still have a free seat, oldest first
func (d *Directory) OpenRooms(now time.Time) []models.RoomSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	type entry struct {
		created time.Time
		snap    models.RoomSnapshot
	}
	var open []entry
	for _, room := range d.rooms {
		room.Lock()
		if room.status == models.StatusWaiting && len(room.players) < room.capacity {
			open = append(open, entry{room.createdAt, room.Snapshot(now)})
		}
		room.Unlock()
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].created.Equal(open[j].created) {
			return open[i].snap.ID < open[j].snap.ID
		}
		return open[i].created.Before(open[j].created)
	})

	out := make([]models.RoomSnapshot, len(open))
	for i, e := range open {
		out[i] = e.snap
	}
	return out
}

// RemoveRoomIfEmpty deletes the room once its last player is gone.
// The room must not be locked by the caller.
func (d *Directory) RemoveRoomIfEmpty(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, exists := d.rooms[id]
	if !exists {
		return false
	}
	room.Lock()
	defer room.Unlock()
	if len(room.players) > 0 {
		return false
	}
	room.markRemoved()
	delete(d.rooms, id)
	return true
}

// Len returns the number of live rooms
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
