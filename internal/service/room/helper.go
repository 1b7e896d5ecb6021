package room

import (
	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/domain"
)

// connsForRoom collects the live connections of every device in the
// room. Devices without a connection are skipped: delivery to them is
// impossible and not an error.
func (s *service) connsForRoom(room *domain.Room) []*websocket.Conn {
	devices := room.Devices()

	conns := make([]*websocket.Conn, 0, len(devices))
	for _, device := range devices {
		conn, err := s.connRepo.GetConn(device.Id)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}
