package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/syncwave/server/internal/service/room"
	"github.com/syncwave/server/pkg/rest"
)

func (c *controller) createRoom(w http.ResponseWriter, r *http.Request) {
	hostId := r.URL.Query().Get("host_id")
	if hostId == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "host_id is required"})
		return
	}

	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{HostId: hostId})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to create room"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": resp.Room})
}

func (c *controller) getRoomById(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	snapshot, err := c.roomService.GetRoomById(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": snapshot})
}

func (c *controller) getRoomByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	snapshot, err := c.roomService.GetRoomByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": snapshot})
}

func (c *controller) getRoomDevices(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	devices, err := c.roomService.GetRoomDevices(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": devices})
}

func (c *controller) getActiveRoomDevices(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	devices := c.roomService.GetActiveRoomDevices(r.Context(), roomId)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": devices})
}

func (c *controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	if err := c.roomService.RemoveRoom(r.Context(), roomId); err != nil {
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{})
}

func (c *controller) getRoomsByHost(w http.ResponseWriter, r *http.Request) {
	hostId := chi.URLParam(r, "host-id")

	rooms := c.roomService.ListRoomsByHost(r.Context(), hostId)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": rooms})
}
