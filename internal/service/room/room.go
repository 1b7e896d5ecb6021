package room

import (
	"context"

	"github.com/syncwave/server/internal/domain"
)

type CreateRoomParams struct {
	HostId string
}

type CreateRoomResponse struct {
	Room RoomSnapshot
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	room, err := s.registry.CreateRoom(params.HostId)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "room created",
		"room_id", room.Id,
		"code", room.Code,
		"host_id", room.HostId,
	)

	return CreateRoomResponse{Room: newRoomSnapshot(room)}, nil
}

func (s *service) GetRoomById(ctx context.Context, roomId string) (RoomSnapshot, error) {
	room, ok := s.registry.ById(roomId)
	if !ok {
		return RoomSnapshot{}, ErrRoomNotFound
	}

	return newRoomSnapshot(room), nil
}

func (s *service) GetRoomByCode(ctx context.Context, code string) (RoomSnapshot, error) {
	room, ok := s.registry.ByCode(code)
	if !ok {
		return RoomSnapshot{}, ErrRoomNotFound
	}

	return newRoomSnapshot(room), nil
}

// RemoveRoom is idempotent: removing an already-removed room succeeds.
func (s *service) RemoveRoom(ctx context.Context, roomId string) error {
	s.registry.Remove(roomId)
	return nil
}

func (s *service) ListRoomsByHost(ctx context.Context, hostId string) []RoomSnapshot {
	rooms := s.registry.ListByHost(hostId)

	snapshots := make([]RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		snapshots = append(snapshots, newRoomSnapshot(room))
	}

	return snapshots
}

func (s *service) GetRoomDevices(ctx context.Context, roomId string) ([]domain.Device, error) {
	room, ok := s.registry.ById(roomId)
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room.Devices(), nil
}

// GetActiveRoomDevices filters the device list down to those inside
// the liveness window. An unknown room yields an empty list, not an
// error.
func (s *service) GetActiveRoomDevices(ctx context.Context, roomId string) []domain.Device {
	room, ok := s.registry.ById(roomId)
	if !ok {
		return []domain.Device{}
	}

	return room.ActiveDevices(s.now())
}
