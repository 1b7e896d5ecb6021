package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
)

type UpdatePlaybackParams struct {
	RoomId      string
	SenderId    string
	IsPlaying   bool
	TimestampMs int64
}

type UpdatePlaybackResponse struct {
	IsPlaying   bool
	TimestampMs int64
	Conns       []*websocket.Conn
}

// UpdatePlayback resynchronizes the room's playback clock. Only the
// host may control playback; anything else is dropped without state
// change.
func (s *service) UpdatePlayback(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return UpdatePlaybackResponse{}, ErrRoomNotFound
	}

	if params.SenderId != room.HostId {
		s.logger.DebugContext(ctx, "non-host playback control dropped",
			"room_id", params.RoomId,
			"sender_id", params.SenderId,
		)
		return UpdatePlaybackResponse{}, ErrPermissionDenied
	}

	room.SetPlaybackState(params.IsPlaying, params.TimestampMs, s.now())
	s.streamer.PlaybackStateChanged(room.Id, params.IsPlaying)

	return UpdatePlaybackResponse{
		IsPlaying:   params.IsPlaying,
		TimestampMs: params.TimestampMs,
		Conns:       s.connsForRoom(room),
	}, nil
}

type SetMasterVolumeParams struct {
	RoomId   string
	SenderId string
	Volume   int
}

type SetMasterVolumeResponse struct {
	Volume int
	Conns  []*websocket.Conn
}

func (s *service) SetMasterVolume(ctx context.Context, params *SetMasterVolumeParams) (SetMasterVolumeResponse, error) {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return SetMasterVolumeResponse{}, ErrRoomNotFound
	}

	if params.SenderId != room.HostId {
		s.logger.DebugContext(ctx, "non-host master volume change dropped",
			"room_id", params.RoomId,
			"sender_id", params.SenderId,
		)
		return SetMasterVolumeResponse{}, ErrPermissionDenied
	}

	volume := room.SetMasterVolume(params.Volume)

	return SetMasterVolumeResponse{
		Volume: volume,
		Conns:  s.connsForRoom(room),
	}, nil
}

type SetAudioSourceParams struct {
	RoomId     string
	SenderId   string
	SourceType domain.SourceType
	SourceId   string
	SourceUrl  string
	DurationMs int64
}

type SetAudioSourceResponse struct {
	Source domain.AudioSource
	Conns  []*websocket.Conn
}

func (s *service) SetAudioSource(ctx context.Context, params *SetAudioSourceParams) (SetAudioSourceResponse, error) {
	room, ok := s.registry.ById(params.RoomId)
	if !ok {
		return SetAudioSourceResponse{}, ErrRoomNotFound
	}

	if params.SenderId != room.HostId {
		s.logger.DebugContext(ctx, "non-host audio source change dropped",
			"room_id", params.RoomId,
			"sender_id", params.SenderId,
		)
		return SetAudioSourceResponse{}, ErrPermissionDenied
	}

	source := domain.AudioSource{
		Type:       params.SourceType,
		SourceId:   params.SourceId,
		SourceUrl:  params.SourceUrl,
		DurationMs: params.DurationMs,
	}
	room.SetAudioSource(source)

	return SetAudioSourceResponse{
		Source: source,
		Conns:  s.connsForRoom(room),
	}, nil
}
