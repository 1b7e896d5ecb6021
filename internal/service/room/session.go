package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
)

type JoinRoomParams struct {
	RoomCode   string
	DeviceId   string
	DeviceName string
	Conn       *websocket.Conn
}

type JoinRoomResponse struct {
	JoinedDevice domain.Device
	RoomInfo     RoomInfo
	// HostConn is nil when the host has no live connection; the join
	// notification is then skipped.
	HostConn *websocket.Conn
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	room, ok := s.registry.ByCode(params.RoomCode)
	if !ok {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	device := domain.NewDevice(params.DeviceId, params.DeviceName, s.now())
	room.AddDevice(device)

	if params.Conn != nil {
		if err := s.connRepo.Add(params.Conn, params.DeviceId); err != nil {
			return JoinRoomResponse{}, err
		}
	}

	s.logger.InfoContext(ctx, "device joined room",
		"room_id", room.Id,
		"device_id", params.DeviceId,
	)

	hostConn, err := s.connRepo.GetConn(room.HostId)
	if err != nil {
		hostConn = nil
	}

	return JoinRoomResponse{
		JoinedDevice: *device,
		RoomInfo:     newRoomInfo(room, s.now()),
		HostConn:     hostConn,
	}, nil
}

type LeaveRoomParams struct {
	RoomId   string
	DeviceId string
}

type LeaveRoomResponse struct {
	HostConn *websocket.Conn
}

// LeaveRoom removes the device from the room. A stale room or device
// reference is an expected race and resolves to a no-op.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return LeaveRoomResponse{}, ErrRoomNotFound
	}

	room.RemoveDevice(params.DeviceId)
	s.connRepo.RemoveByDeviceId(params.DeviceId)

	s.logger.InfoContext(ctx, "device left room",
		"room_id", room.Id,
		"device_id", params.DeviceId,
	)

	hostConn, err := s.connRepo.GetConn(room.HostId)
	if err != nil {
		hostConn = nil
	}

	return LeaveRoomResponse{HostConn: hostConn}, nil
}

type DisconnectParams struct {
	Conn *websocket.Conn
}

// Disconnect drops the connection binding when a socket dies. Room
// membership is untouched: the liveness sweep reclaims the device if it
// never comes back.
func (s *service) Disconnect(ctx context.Context, params *DisconnectParams) {
	deviceId, err := s.connRepo.GetDeviceId(params.Conn)
	if err != nil {
		return
	}

	s.connRepo.RemoveByConn(params.Conn)
	s.logger.InfoContext(ctx, "device disconnected", "device_id", deviceId)
}
