package room

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrPermissionDenied = errors.New("permission denied")
)

type iRegistry interface {
	CreateRoom(hostId string) (*domain.Room, error)
	ById(roomId string) (*domain.Room, bool)
	ByCode(code string) (*domain.Room, bool)
	Remove(roomId string)
	ListByHost(hostId string) []*domain.Room
	Rooms() []*domain.Room
	CleanupEmptyRooms()
}

type iConnRepo interface {
	Add(conn *websocket.Conn, deviceId string) error
	RemoveByDeviceId(deviceId string) error
	RemoveByConn(conn *websocket.Conn) error
	GetConn(deviceId string) (*websocket.Conn, error)
	GetDeviceId(conn *websocket.Conn) (string, error)
}

type iStreamer interface {
	PlaybackStateChanged(roomId string, isPlaying bool)
}

type service struct {
	registry iRegistry
	connRepo iConnRepo
	streamer iStreamer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(registry iRegistry, connRepo iConnRepo, streamer iStreamer, logger *slog.Logger) *service {
	return &service{
		registry: registry,
		connRepo: connRepo,
		streamer: streamer,
		logger:   logger,
		now:      time.Now,
	}
}
