package streaming

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/syncwave/server/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotHost      = errors.New("only the host can stream audio")
)

// baseBufferMs is the floor every playback buffer starts from before
// latency and quality penalties are applied.
const baseBufferMs = 200

const defaultBufferMs = 300

// AudioChunk is one hunk of encoded audio captured by the host,
// forwarded verbatim to every listener.
type AudioChunk struct {
	RoomId      string `json:"room_id"`
	DeviceId    string `json:"device_id"`
	AudioData   string `json:"audio_data"`
	TimestampMs int64  `json:"timestamp_ms"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	Encoding    string `json:"encoding"`
}

type iRoomProvider interface {
	ById(roomId string) (*domain.Room, bool)
}

type iChunkSender interface {
	SendChunk(ctx context.Context, deviceId string, chunk AudioChunk) error
}

// Coordinator fans audio chunks out from the host to the listeners of a
// room, sizing a per-device playback buffer from measured network
// quality as it goes.
type Coordinator struct {
	logger *slog.Logger
	rooms  iRoomProvider
	sender iChunkSender
	now    func() time.Time

	mu                sync.RWMutex
	lastChunkTsByRoom map[string]int64
	bufferMsByDevice  map[string]int
}

func NewCoordinator(rooms iRoomProvider, sender iChunkSender, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger:            logger,
		rooms:             rooms,
		sender:            sender,
		now:               time.Now,
		lastChunkTsByRoom: make(map[string]int64),
		bufferMsByDevice:  make(map[string]int),
	}
}

// IngestChunk validates a chunk from the transport layer and forwards a
// copy to every device in the room except the host. An unknown room is
// an expected race with leave/remove and is dropped without fan-out.
func (c *Coordinator) IngestChunk(ctx context.Context, chunk *AudioChunk) error {
	room, ok := c.rooms.ById(chunk.RoomId)
	if !ok {
		c.logger.DebugContext(ctx, "dropping audio chunk for unknown room", "room_id", chunk.RoomId)
		return ErrRoomNotFound
	}

	if chunk.DeviceId != room.HostId {
		c.logger.DebugContext(ctx, "dropping audio chunk from non-host device",
			"room_id", chunk.RoomId,
			"device_id", chunk.DeviceId,
		)
		return ErrNotHost
	}

	c.mu.Lock()
	c.lastChunkTsByRoom[chunk.RoomId] = chunk.TimestampMs
	c.mu.Unlock()

	for _, device := range room.Devices() {
		if device.Id == room.HostId {
			continue
		}

		bufferMs := c.BufferSizeFor(device)
		c.mu.Lock()
		c.bufferMsByDevice[device.Id] = bufferMs
		c.mu.Unlock()

		deviceChunk := *chunk
		if err := c.sender.SendChunk(ctx, device.Id, deviceChunk); err != nil {
			c.logger.InfoContext(ctx, "failed to forward audio chunk",
				"device_id", device.Id,
				"error", err,
			)
		}
	}

	return nil
}

// BufferSizeFor grows the buffer with both raw measured delay and a
// quality penalty anticipating jitter beyond what latency predicts.
// Disconnected (or unknown-quality) devices get the maximal buffer so a
// brief reconnection does not immediately underrun.
func (c *Coordinator) BufferSizeFor(device domain.Device) int {
	latencyBufferMs := math.Round(float64(device.LatencyMs) * 1.5)

	var qualityFactor float64
	switch device.Quality {
	case domain.QualityGood:
		qualityFactor = 0.8
	case domain.QualityMedium:
		qualityFactor = 1.3
	case domain.QualityPoor:
		qualityFactor = 1.7
	default:
		qualityFactor = 2.0
	}

	return int(math.Round((baseBufferMs + latencyBufferMs) * qualityFactor))
}

// DeviceBufferMs returns the buffer computed for a device by the last
// chunk addressed to it, or a conservative default before any chunk
// flowed.
func (c *Coordinator) DeviceBufferMs(deviceId string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if bufferMs, ok := c.bufferMsByDevice[deviceId]; ok {
		return bufferMs
	}

	return defaultBufferMs
}

// PlaybackStateChanged re-anchors the last-chunk timestamp at restart
// so staleness is not measured against a chunk from before the pause.
func (c *Coordinator) PlaybackStateChanged(roomId string, isPlaying bool) {
	if !isPlaying {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastChunkTsByRoom[roomId] = c.now().UnixMilli()
}

// ReleaseRoom drops per-room streaming state. Registered with the
// registry as a room-removed subscriber.
func (c *Coordinator) ReleaseRoom(roomId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.lastChunkTsByRoom, roomId)
}

// LastChunkTimestamp reports the timestamp of the most recently
// forwarded chunk for a room.
func (c *Coordinator) LastChunkTimestamp(roomId string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ts, ok := c.lastChunkTsByRoom[roomId]
	return ts, ok
}
