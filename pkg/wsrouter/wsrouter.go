package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type WSRouter struct {
	routes map[string]HandlerFunc

	// OnHandlerError, when set, is called for every non-nil handler error.
	OnHandlerError func(ctx context.Context, messageType string, err error)
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// ServeConn reads messages from the connection until it fails and routes
// each one by its type. Handler errors do not terminate the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := r.routes[msg.Type]
		if !ok {
			conn.WriteJSON(map[string]string{"error": "unknown message type"})
			continue
		}

		if err := handler(ctx, conn, msg.Payload); err != nil && r.OnHandlerError != nil {
			r.OnHandlerError(ctx, msg.Type, err)
		}
	}
}
