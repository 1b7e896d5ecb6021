package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *controller) Mux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", c.createRoom)
		r.Get("/host/{host-id}", c.getRoomsByHost)
		r.Get("/code/{code}", c.getRoomByCode)
		r.Get("/{room-id}", c.getRoomById)
		r.Delete("/{room-id}", c.deleteRoom)
		r.Get("/{room-id}/devices", c.getRoomDevices)
		r.Get("/{room-id}/active-devices", c.getActiveRoomDevices)
	})

	r.HandleFunc("/ws", c.serveWS)

	return r
}
