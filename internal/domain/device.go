package domain

import "time"

// HeartbeatTimeout is how long a device may stay silent before it is
// considered unreachable. Both the liveness sweep and active-device
// queries use this single threshold.
const HeartbeatTimeout = 10 * time.Second

const defaultDeviceVolume = 70

// Device is a listener (or the host) participating in a room. Its fields
// are guarded by the owning room's lock; a device is never shared
// between rooms.
type Device struct {
	Id              string            `json:"id"`
	Name            string            `json:"name"`
	Quality         ConnectionQuality `json:"connection_quality"`
	LatencyMs       int               `json:"latency_ms"`
	Volume          int               `json:"volume"`
	LastHeartbeatAt time.Time         `json:"-"`
}

func NewDevice(id, name string, now time.Time) *Device {
	return &Device{
		Id:              id,
		Name:            name,
		Quality:         QualityGood,
		LatencyMs:       0,
		Volume:          defaultDeviceVolume,
		LastHeartbeatAt: now,
	}
}

// UpdateLatency stores the measurement and rederives quality. A device
// previously marked disconnected by the sweep is implicitly reconnected
// here.
func (d *Device) UpdateLatency(latencyMs int) {
	d.LatencyMs = latencyMs
	d.Quality = QualityForLatency(latencyMs)
}

func (d *Device) UpdateHeartbeat(now time.Time) {
	d.LastHeartbeatAt = now
}

func (d *Device) SetVolume(volume int) {
	d.Volume = ClampVolume(volume)
}

func (d *Device) IsActive(now time.Time) bool {
	return now.Sub(d.LastHeartbeatAt) < HeartbeatTimeout
}

func ClampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
