package domain

import (
	"sync"
	"time"
)

const defaultMasterVolume = 80

// Room holds the authoritative playback state for one session. All
// access to its fields and to its devices goes through its methods, so
// two rooms never contend on the same lock.
type Room struct {
	Id     string
	Code   string
	HostId string

	mu              sync.RWMutex
	devices         []*Device
	audioSource     *AudioSource
	isPlaying       bool
	baseTimestampMs int64
	lastUpdateAt    time.Time
	masterVolume    int
}

func NewRoom(id, code, hostId string, now time.Time) *Room {
	return &Room{
		Id:           id,
		Code:         code,
		HostId:       hostId,
		devices:      make([]*Device, 0),
		isPlaying:    false,
		masterVolume: defaultMasterVolume,
		lastUpdateAt: now,
	}
}

// AddDevice registers a joining device. Joining twice with the same id
// replaces the previous entry in place, keeping ids unique.
func (r *Room) AddDevice(device *Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.devices {
		if d.Id == device.Id {
			r.devices[i] = device
			return
		}
	}

	r.devices = append(r.devices, device)
}

func (r *Room) RemoveDevice(deviceId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.devices {
		if d.Id == deviceId {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return true
		}
	}

	return false
}

// Device returns a copy of the device state, or false if the id is
// unknown.
func (r *Room) Device(deviceId string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d := r.device(deviceId); d != nil {
		return *d, true
	}

	return Device{}, false
}

func (r *Room) device(deviceId string) *Device {
	for _, d := range r.devices {
		if d.Id == deviceId {
			return d
		}
	}

	return nil
}

// Devices returns a snapshot of the device list in join order.
func (r *Room) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *d)
	}

	return devices
}

func (r *Room) ActiveDevices(now time.Time) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		if d.IsActive(now) {
			devices = append(devices, *d)
		}
	}

	return devices
}

func (r *Room) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.devices)
}

// HasActiveDevice reports whether at least one device heartbeated
// within the liveness window. The empty-room sweep removes rooms for
// which this is false.
func (r *Room) HasActiveDevice(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.IsActive(now) {
			return true
		}
	}

	return false
}

// MarkInactiveDisconnected forces quality to DISCONNECTED on every
// device outside the liveness window. Membership is untouched: a device
// only leaves via an explicit leave event.
func (r *Room) MarkInactiveDisconnected(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		if !d.IsActive(now) {
			d.Quality = QualityDisconnected
		}
	}
}

func (r *Room) SetDeviceVolume(deviceId string, volume int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.device(deviceId)
	if d == nil {
		return false
	}

	d.SetVolume(volume)
	return true
}

func (r *Room) UpdateDeviceLatency(deviceId string, latencyMs int) (Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.device(deviceId)
	if d == nil {
		return Device{}, false
	}

	d.UpdateLatency(latencyMs)
	return *d, true
}

func (r *Room) UpdateDeviceHeartbeat(deviceId string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.device(deviceId)
	if d == nil {
		return false
	}

	d.UpdateHeartbeat(now)
	return true
}

// SetPlaybackState resynchronizes the playback clock. Self-transitions
// are valid: the host resyncs drift by replaying the current state with
// a fresh position.
func (r *Room) SetPlaybackState(isPlaying bool, positionMs int64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.isPlaying = isPlaying
	r.baseTimestampMs = positionMs
	r.lastUpdateAt = now
}

// CurrentPositionMs extrapolates "where playback is now" from the last
// synchronized position. The value is computed, never stored.
func (r *Room) CurrentPositionMs(now time.Time) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.isPlaying {
		return r.baseTimestampMs + now.Sub(r.lastUpdateAt).Milliseconds()
	}

	return r.baseTimestampMs
}

func (r *Room) IsPlaying() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.isPlaying
}

func (r *Room) SetMasterVolume(volume int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.masterVolume = ClampVolume(volume)
	return r.masterVolume
}

func (r *Room) MasterVolume() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.masterVolume
}

func (r *Room) SetAudioSource(source AudioSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.audioSource = &source
}

// AudioSource returns the current source, or nil if the host has not
// set one yet.
func (r *Room) AudioSource() *AudioSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.audioSource == nil {
		return nil
	}

	source := *r.audioSource
	return &source
}
