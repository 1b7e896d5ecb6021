package controller

import (
	"net/http"

	"github.com/syncwave/server/internal/service/room"
	"github.com/syncwave/server/pkg/wsrouter"
)

func (c *controller) wsRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.OnHandlerError = c.onWSHandlerError

	// session
	mux.Handle("JOIN", c.handleJoin)
	mux.Handle("LEAVE", c.handleLeave)
	mux.Handle("HEARTBEAT", c.handleHeartbeat)

	// playback
	mux.Handle("PLAYBACK", c.handlePlayback)
	mux.Handle("VOLUME", c.handleVolume)
	mux.Handle("AUDIO_SOURCE", c.handleAudioSource)

	// network
	mux.Handle("LATENCY", c.handleLatency)
	mux.Handle("AUDIO_CHUNK", c.handleAudioChunk)

	return mux
}

func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	ctx := r.Context()
	defer func() {
		c.roomService.Disconnect(ctx, &room.DisconnectParams{Conn: conn})
		conn.Close()
	}()

	if err := c.wsRouter().ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}
