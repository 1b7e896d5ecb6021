package room

import (
	"time"

	"github.com/syncwave/server/internal/domain"
)

// RoomSnapshot is the room view handed to the transport layer. The
// playback position is extrapolated at snapshot time, never stored.
type RoomSnapshot struct {
	Id               string              `json:"id"`
	Code             string              `json:"code"`
	HostId           string              `json:"host_id"`
	ConnectedDevices int                 `json:"connected_devices"`
	IsPlaying        bool                `json:"is_playing"`
	MasterVolume     int                 `json:"master_volume"`
	AudioSource      *domain.AudioSource `json:"audio_source"`
}

func newRoomSnapshot(room *domain.Room) RoomSnapshot {
	return RoomSnapshot{
		Id:               room.Id,
		Code:             room.Code,
		HostId:           room.HostId,
		ConnectedDevices: room.DeviceCount(),
		IsPlaying:        room.IsPlaying(),
		MasterVolume:     room.MasterVolume(),
		AudioSource:      room.AudioSource(),
	}
}

// RoomInfo is the state a joining device needs to start playing in
// sync with the room.
type RoomInfo struct {
	RoomId             string              `json:"room_id"`
	RoomCode           string              `json:"room_code"`
	IsPlaying          bool                `json:"is_playing"`
	CurrentTimestampMs int64               `json:"current_timestamp_ms"`
	MasterVolume       int                 `json:"master_volume"`
	AudioSource        *domain.AudioSource `json:"audio_source"`
}

func newRoomInfo(room *domain.Room, now time.Time) RoomInfo {
	return RoomInfo{
		RoomId:             room.Id,
		RoomCode:           room.Code,
		IsPlaying:          room.IsPlaying(),
		CurrentTimestampMs: room.CurrentPositionMs(now),
		MasterVolume:       room.MasterVolume(),
		AudioSource:        room.AudioSource(),
	}
}

// DeviceUpdate notifies the host about a device joining, leaving or
// changing its measured connection state.
type DeviceUpdate struct {
	DeviceId  string                   `json:"device_id"`
	Name      string                   `json:"name,omitempty"`
	Quality   domain.ConnectionQuality `json:"connection_quality,omitempty"`
	LatencyMs int                      `json:"latency_ms,omitempty"`
	Volume    int                      `json:"volume,omitempty"`
	Action    string                   `json:"action"`
}

const (
	DeviceActionJoin   = "JOIN"
	DeviceActionLeave  = "LEAVE"
	DeviceActionUpdate = "UPDATE"
)
