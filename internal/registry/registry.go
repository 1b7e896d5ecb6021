package registry

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/syncwave/server/internal/domain"
	"github.com/syncwave/server/pkg/randstr"
)

// codeAlphabet deliberately excludes visually ambiguous characters
// (0/O, 1/I) since room codes are typed by hand.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 6

const defaultMaxCodeRetries = 10

var ErrCodeGenerationFailed = errors.New("failed to generate unique room code")

type iGenerator interface {
	GenerateRandomString(length int) string
}

// Registry is the sole owner of all live rooms. It keeps the id map and
// the code index consistent under one lock: a room is never reachable
// by id but not by code, or vice versa.
type Registry struct {
	logger         *slog.Logger
	generator      iGenerator
	now            func() time.Time
	maxCodeRetries int

	mu        sync.RWMutex
	rooms     map[string]*domain.Room
	codeIndex map[string]string

	subscribersMu sync.RWMutex
	onRemoved     []func(roomId string)
}

func New(logger *slog.Logger, maxCodeRetries int) *Registry {
	if maxCodeRetries <= 0 {
		maxCodeRetries = defaultMaxCodeRetries
	}

	return &Registry{
		logger:         logger,
		generator:      randstr.New([]byte(codeAlphabet)),
		now:            time.Now,
		maxCodeRetries: maxCodeRetries,
		rooms:          make(map[string]*domain.Room),
		codeIndex:      make(map[string]string),
	}
}

// OnRoomRemoved registers a callback invoked after a room is removed.
// This keeps the dependency one-directional: the streaming layer
// subscribes here instead of being referenced by the registry.
func (r *Registry) OnRoomRemoved(fn func(roomId string)) {
	r.subscribersMu.Lock()
	defer r.subscribersMu.Unlock()

	r.onRemoved = append(r.onRemoved, fn)
}

// CreateRoom allocates a room with a fresh id and a unique join code.
// Code collisions are retried against the live index; exhausting the
// retry budget is the one creation failure surfaced to the caller.
func (r *Registry) CreateRoom(hostId string) (*domain.Room, error) {
	roomId := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.maxCodeRetries; i++ {
		code := r.generator.GenerateRandomString(CodeLength)
		if _, taken := r.codeIndex[code]; taken {
			r.logger.Info("room code collision, retrying", "code", code)
			continue
		}

		room := domain.NewRoom(roomId, code, hostId, r.now())
		r.rooms[roomId] = room
		r.codeIndex[code] = roomId
		return room, nil
	}

	return nil, ErrCodeGenerationFailed
}

func (r *Registry) ById(roomId string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomId]
	return room, ok
}

func (r *Registry) ByCode(code string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomId, ok := r.codeIndex[code]
	if !ok {
		return nil, false
	}

	room, ok := r.rooms[roomId]
	return room, ok
}

// Remove deletes the room and frees its code for reuse. Removing an
// unknown id is a no-op.
func (r *Registry) Remove(roomId string) {
	r.mu.Lock()
	room, ok := r.rooms[roomId]
	if ok {
		delete(r.rooms, roomId)
		delete(r.codeIndex, room.Code)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.logger.Info("room removed", "room_id", roomId, "code", room.Code)
	r.notifyRemoved(roomId)
}

func (r *Registry) notifyRemoved(roomId string) {
	r.subscribersMu.RLock()
	subscribers := make([]func(string), len(r.onRemoved))
	copy(subscribers, r.onRemoved)
	r.subscribersMu.RUnlock()

	for _, fn := range subscribers {
		fn(roomId)
	}
}

func (r *Registry) ListByHost(hostId string) []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*domain.Room, 0)
	for _, room := range r.rooms {
		if room.HostId == hostId {
			rooms = append(rooms, room)
		}
	}

	return rooms
}

// Rooms returns the current set of live rooms. The slice is a snapshot;
// rooms themselves guard their own state.
func (r *Registry) Rooms() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.rooms)
}

// CleanupEmptyRooms removes every room in which no device is active.
// A room whose devices were all marked disconnected but not yet removed
// still qualifies.
func (r *Registry) CleanupEmptyRooms() {
	now := r.now()

	r.mu.RLock()
	candidates := make([]string, 0)
	for roomId, room := range r.rooms {
		if !room.HasActiveDevice(now) {
			candidates = append(candidates, roomId)
		}
	}
	r.mu.RUnlock()

	for _, roomId := range candidates {
		r.Remove(roomId)
	}
}
