package controller

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/service/streaming"
)

func (c *controller) sendToConn(ctx context.Context, conn *websocket.Conn, output *Output) {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.InfoContext(ctx, "failed to write message",
			"message_type", output.Type,
			"error", err,
		)
	}
}

func (c *controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		c.sendToConn(ctx, conn, output)
	}
}

type iConnGetter interface {
	GetConn(deviceId string) (*websocket.Conn, error)
}

// ChunkSender delivers per-device audio chunks for the streaming
// coordinator. It lives in the controller because the wire envelope is
// a transport concern.
type ChunkSender struct {
	connRepo iConnGetter
	logger   *slog.Logger
}

func NewChunkSender(connRepo iConnGetter, logger *slog.Logger) *ChunkSender {
	return &ChunkSender{
		connRepo: connRepo,
		logger:   logger,
	}
}

func (s *ChunkSender) SendChunk(ctx context.Context, deviceId string, chunk streaming.AudioChunk) error {
	conn, err := s.connRepo.GetConn(deviceId)
	if err != nil {
		return err
	}

	return conn.WriteJSON(&Output{
		Type:    "AUDIO_CHUNK",
		Payload: chunk,
	})
}
