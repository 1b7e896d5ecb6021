package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/syncwave/server/internal/repository/connection"
)

// repo maps device ids to their live websocket connections in both
// directions. It is the delivery channel lookup used for all fan-out.
type repo struct {
	mu       sync.RWMutex
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
	}
}

// Add binds a connection to a device id. A device reconnecting with a
// fresh connection replaces its previous binding.
func (r *repo) Add(conn *websocket.Conn, deviceId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.idList[deviceId]; ok {
		delete(r.connList, prev)
	}

	r.connList[conn] = deviceId
	r.idList[deviceId] = conn

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deviceId, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, deviceId)

	return nil
}

func (r *repo) RemoveByDeviceId(deviceId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[deviceId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, deviceId)

	return nil
}

func (r *repo) GetDeviceId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deviceId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return deviceId, nil
}

func (r *repo) GetConn(deviceId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[deviceId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
