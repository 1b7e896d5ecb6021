package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
	"github.com/syncwave/server/internal/service/room"
	"github.com/syncwave/server/internal/service/streaming"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *controller) onWSHandlerError(ctx context.Context, messageType string, err error) {
	c.logger.InfoContext(ctx, "ws handler failed", "message_type", messageType, "error", err)
}

// isDroppedEvent matches conditions the protocol handles by doing
// nothing observable: stale references and authority violations. No
// reply reaches the sender in either case.
func isDroppedEvent(err error) bool {
	return errors.Is(err, room.ErrRoomNotFound) ||
		errors.Is(err, room.ErrDeviceNotFound) ||
		errors.Is(err, room.ErrPermissionDenied) ||
		errors.Is(err, streaming.ErrRoomNotFound) ||
		errors.Is(err, streaming.ErrNotHost)
}

func decode[T any](payload json.RawMessage, dst *T) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	return nil
}

type JoinInput struct {
	RoomCode   string `json:"room_code" validate:"required,len=6"`
	DeviceId   string `json:"device_id" validate:"required"`
	DeviceName string `json:"device_name" validate:"required"`
}

func (c *controller) handleJoin(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input JoinInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid join payload: %v", validationErrors)
	}

	resp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomCode:   input.RoomCode,
		DeviceId:   input.DeviceId,
		DeviceName: input.DeviceName,
		Conn:       conn,
	})
	if err != nil {
		if isDroppedEvent(err) {
			return nil
		}
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.sendToConn(ctx, conn, &Output{
		Type:    "ROOM_INFO",
		Payload: resp.RoomInfo,
	})

	if resp.HostConn != nil {
		c.sendToConn(ctx, resp.HostConn, &Output{
			Type: "DEVICE_UPDATE",
			Payload: room.DeviceUpdate{
				DeviceId:  resp.JoinedDevice.Id,
				Name:      resp.JoinedDevice.Name,
				Quality:   resp.JoinedDevice.Quality,
				LatencyMs: resp.JoinedDevice.LatencyMs,
				Volume:    resp.JoinedDevice.Volume,
				Action:    room.DeviceActionJoin,
			},
		})
	}

	return nil
}

type LeaveInput struct {
	RoomId   string `json:"room_id" validate:"required"`
	DeviceId string `json:"device_id" validate:"required"`
}

func (c *controller) handleLeave(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input LeaveInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid leave payload: %v", validationErrors)
	}

	resp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomId:   input.RoomId,
		DeviceId: input.DeviceId,
	})
	if err != nil {
		if isDroppedEvent(err) {
			return nil
		}
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if resp.HostConn != nil {
		c.sendToConn(ctx, resp.HostConn, &Output{
			Type: "DEVICE_UPDATE",
			Payload: room.DeviceUpdate{
				DeviceId: input.DeviceId,
				Action:   room.DeviceActionLeave,
			},
		})
	}

	return nil
}

type PlaybackInput struct {
	RoomId      string `json:"room_id" validate:"required"`
	DeviceId    string `json:"device_id" validate:"required"`
	IsPlaying   bool   `json:"is_playing"`
	TimestampMs int64  `json:"timestamp_ms" validate:"gte=0"`
}

func (c *controller) handlePlayback(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid playback payload: %v", validationErrors)
	}

	resp, err := c.roomService.UpdatePlayback(ctx, &room.UpdatePlaybackParams{
		RoomId:      input.RoomId,
		SenderId:    input.DeviceId,
		IsPlaying:   input.IsPlaying,
		TimestampMs: input.TimestampMs,
	})
	if err != nil {
		if isDroppedEvent(err) {
			return nil
		}
		return fmt.Errorf("failed to update playback: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "PLAYBACK",
		Payload: map[string]any{
			"room_id":      input.RoomId,
			"is_playing":   resp.IsPlaying,
			"timestamp_ms": resp.TimestampMs,
		},
	})

	return nil
}

type VolumeInput struct {
	RoomId         string `json:"room_id" validate:"required"`
	DeviceId       string `json:"device_id" validate:"required"`
	TargetDeviceId string `json:"target_device_id"`
	Volume         int    `json:"volume"`
}

// handleVolume covers both forms of the volume event: without a target
// it is a host-only master volume change broadcast to the room, with a
// target it adjusts one device's own volume.
func (c *controller) handleVolume(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input VolumeInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid volume payload: %v", validationErrors)
	}

	if input.TargetDeviceId == "" {
		resp, err := c.roomService.SetMasterVolume(ctx, &room.SetMasterVolumeParams{
			RoomId:   input.RoomId,
			SenderId: input.DeviceId,
			Volume:   input.Volume,
		})
		if err != nil {
			if isDroppedEvent(err) {
				return nil
			}
			return fmt.Errorf("failed to set master volume: %w", err)
		}

		c.broadcast(ctx, resp.Conns, &Output{
			Type: "VOLUME",
			Payload: map[string]any{
				"room_id": input.RoomId,
				"volume":  resp.Volume,
			},
		})

		return nil
	}

	resp, err := c.roomService.SetDeviceVolume(ctx, &room.SetDeviceVolumeParams{
		RoomId:         input.RoomId,
		SenderId:       input.DeviceId,
		TargetDeviceId: input.TargetDeviceId,
		Volume:         input.Volume,
	})
	if err != nil {
		if isDroppedEvent(err) {
			return nil
		}
		return fmt.Errorf("failed to set device volume: %w", err)
	}

	if resp.TargetConn != nil {
		c.sendToConn(ctx, resp.TargetConn, &Output{
			Type: "DEVICE_VOLUME",
			Payload: map[string]any{
				"room_id":          input.RoomId,
				"target_device_id": input.TargetDeviceId,
				"volume":           resp.Volume,
			},
		})
	}

	return nil
}

type AudioSourceInput struct {
	RoomId     string `json:"room_id" validate:"required"`
	DeviceId   string `json:"device_id" validate:"required"`
	SourceType string `json:"source_type" validate:"required,oneof=FILE MICROPHONE SYSTEM"`
	SourceId   string `json:"source_id"`
	SourceUrl  string `json:"source_url"`
	DurationMs int64  `json:"duration_ms" validate:"gte=0"`
}

func (c *controller) handleAudioSource(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input AudioSourceInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid audio source payload: %v", validationErrors)
	}

	resp, err := c.roomService.SetAudioSource(ctx, &room.SetAudioSourceParams{
		RoomId:     input.RoomId,
		SenderId:   input.DeviceId,
		SourceType: domain.SourceType(input.SourceType),
		SourceId:   input.SourceId,
		SourceUrl:  input.SourceUrl,
		DurationMs: input.DurationMs,
	})
	if err != nil {
		if isDroppedEvent(err) {
			return nil
		}
		return fmt.Errorf("failed to set audio source: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "AUDIO_SOURCE",
		Payload: map[string]any{
			"room_id": input.RoomId,
			"source":  resp.Source,
		},
	})

	return nil
}

type LatencyInput struct {
	RoomId    string `json:"room_id" validate:"required"`
	DeviceId  string `json:"device_id" validate:"required"`
	LatencyMs int    `json:"latency_ms" validate:"gte=0"`
}

func (c *controller) handleLatency(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input LatencyInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid latency payload: %v", validationErrors)
	}

	resp, err := c.roomService.UpdateLatency(ctx, &room.UpdateLatencyParams{
		RoomId:    input.RoomId,
		SenderId:  input.DeviceId,
		DeviceId:  input.DeviceId,
		LatencyMs: input.LatencyMs,
	})
	if err != nil {
		if isDroppedEvent(err) {
			return nil
		}
		return fmt.Errorf("failed to update latency: %w", err)
	}

	if resp.HostConn != nil {
		c.sendToConn(ctx, resp.HostConn, &Output{
			Type: "DEVICE_UPDATE",
			Payload: room.DeviceUpdate{
				DeviceId:  resp.Device.Id,
				Quality:   resp.Device.Quality,
				LatencyMs: resp.Device.LatencyMs,
				Action:    room.DeviceActionUpdate,
			},
		})
	}

	return nil
}

type HeartbeatInput struct {
	RoomId      string `json:"room_id" validate:"required"`
	DeviceId    string `json:"device_id" validate:"required"`
	TimestampMs int64  `json:"timestamp_ms"`
}

func (c *controller) handleHeartbeat(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input HeartbeatInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid heartbeat payload: %v", validationErrors)
	}

	if err := c.roomService.Heartbeat(ctx, &room.HeartbeatParams{
		RoomId:   input.RoomId,
		SenderId: input.DeviceId,
		DeviceId: input.DeviceId,
	}); err != nil && !isDroppedEvent(err) {
		return fmt.Errorf("failed to process heartbeat: %w", err)
	}

	return nil
}

type AudioChunkInput struct {
	RoomId      string `json:"room_id" validate:"required"`
	DeviceId    string `json:"device_id" validate:"required"`
	AudioData   string `json:"audio_data" validate:"required"`
	TimestampMs int64  `json:"timestamp_ms" validate:"gte=0"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	Encoding    string `json:"encoding"`
}

func (c *controller) handleAudioChunk(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input AudioChunkInput
	if err := decode(payload, &input); err != nil {
		return err
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid audio chunk payload: %v", validationErrors)
	}

	if err := c.streamingService.IngestChunk(ctx, &streaming.AudioChunk{
		RoomId:      input.RoomId,
		DeviceId:    input.DeviceId,
		AudioData:   input.AudioData,
		TimestampMs: input.TimestampMs,
		SampleRate:  input.SampleRate,
		Channels:    input.Channels,
		Encoding:    input.Encoding,
	}); err != nil && !isDroppedEvent(err) {
		return fmt.Errorf("failed to ingest audio chunk: %w", err)
	}

	return nil
}
