package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
	"github.com/syncwave/server/internal/service/room"
	"github.com/syncwave/server/internal/service/streaming"
	"github.com/syncwave/server/pkg/validator"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetRoomById(context.Context, string) (room.RoomSnapshot, error)
	GetRoomByCode(context.Context, string) (room.RoomSnapshot, error)
	RemoveRoom(context.Context, string) error
	ListRoomsByHost(context.Context, string) []room.RoomSnapshot
	GetRoomDevices(context.Context, string) ([]domain.Device, error)
	GetActiveRoomDevices(context.Context, string) []domain.Device

	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	Disconnect(context.Context, *room.DisconnectParams)
	UpdatePlayback(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	SetMasterVolume(context.Context, *room.SetMasterVolumeParams) (room.SetMasterVolumeResponse, error)
	SetDeviceVolume(context.Context, *room.SetDeviceVolumeParams) (room.SetDeviceVolumeResponse, error)
	SetAudioSource(context.Context, *room.SetAudioSourceParams) (room.SetAudioSourceResponse, error)
	UpdateLatency(context.Context, *room.UpdateLatencyParams) (room.UpdateLatencyResponse, error)
	Heartbeat(context.Context, *room.HeartbeatParams) error
}

type iStreamingService interface {
	IngestChunk(context.Context, *streaming.AudioChunk) error
}

type controller struct {
	roomService      iRoomService
	streamingService iStreamingService
	upgrader         websocket.Upgrader
	validate         *validator.Validator
	logger           *slog.Logger
}

func NewController(roomService iRoomService, streamingService iStreamingService, logger *slog.Logger) *controller {
	return &controller{
		roomService:      roomService,
		streamingService: streamingService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
}
