package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
)

type SetDeviceVolumeParams struct {
	RoomId         string
	SenderId       string
	TargetDeviceId string
	Volume         int
}

type SetDeviceVolumeResponse struct {
	Volume int
	// TargetConn is set when the host changed another device's volume
	// and that device should be told about it.
	TargetConn *websocket.Conn
}

// SetDeviceVolume adjusts one device's volume. A device may set its
// own; the host may set anyone's. A device acting on another non-host
// device is dropped.
func (s *service) SetDeviceVolume(ctx context.Context, params *SetDeviceVolumeParams) (SetDeviceVolumeResponse, error) {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return SetDeviceVolumeResponse{}, ErrRoomNotFound
	}

	if params.SenderId != params.TargetDeviceId && params.SenderId != room.HostId {
		s.logger.DebugContext(ctx, "unauthorized device volume change dropped",
			"room_id", params.RoomId,
			"sender_id", params.SenderId,
			"target_device_id", params.TargetDeviceId,
		)
		return SetDeviceVolumeResponse{}, ErrPermissionDenied
	}

	if !room.SetDeviceVolume(params.TargetDeviceId, params.Volume) {
		return SetDeviceVolumeResponse{}, ErrDeviceNotFound
	}

	resp := SetDeviceVolumeResponse{Volume: domain.ClampVolume(params.Volume)}

	if params.SenderId == room.HostId && params.SenderId != params.TargetDeviceId {
		if conn, err := s.connRepo.GetConn(params.TargetDeviceId); err == nil {
			resp.TargetConn = conn
		}
	}

	return resp, nil
}

type UpdateLatencyParams struct {
	RoomId    string
	SenderId  string
	DeviceId  string
	LatencyMs int
}

type UpdateLatencyResponse struct {
	Device   domain.Device
	HostConn *websocket.Conn
}

// UpdateLatency records a latency report and rederives the device's
// connection quality. The host is notified so it can show per-device
// network state.
func (s *service) UpdateLatency(ctx context.Context, params *UpdateLatencyParams) (UpdateLatencyResponse, error) {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return UpdateLatencyResponse{}, ErrRoomNotFound
	}

	if params.SenderId != params.DeviceId && params.SenderId != room.HostId {
		s.logger.DebugContext(ctx, "unauthorized latency report dropped",
			"room_id", params.RoomId,
			"sender_id", params.SenderId,
			"device_id", params.DeviceId,
		)
		return UpdateLatencyResponse{}, ErrPermissionDenied
	}

	device, ok := room.UpdateDeviceLatency(params.DeviceId, params.LatencyMs)
	if !ok {
		return UpdateLatencyResponse{}, ErrDeviceNotFound
	}

	hostConn, err := s.connRepo.GetConn(room.HostId)
	if err != nil {
		hostConn = nil
	}

	return UpdateLatencyResponse{
		Device:   device,
		HostConn: hostConn,
	}, nil
}

type HeartbeatParams struct {
	RoomId   string
	SenderId string
	DeviceId string
}

// Heartbeat refreshes a device's liveness window. It carries no reply.
func (s *service) Heartbeat(ctx context.Context, params *HeartbeatParams) error {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return ErrRoomNotFound
	}

	if params.SenderId != params.DeviceId && params.SenderId != room.HostId {
		return ErrPermissionDenied
	}

	if !room.UpdateDeviceHeartbeat(params.DeviceId, s.now()) {
		return ErrDeviceNotFound
	}

	return nil
}
