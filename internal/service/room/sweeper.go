package room

import (
	"context"
)

// SweepInactiveDevices marks every device outside the liveness window
// as disconnected. Membership is preserved; a later latency report from
// the device restores a latency-derived quality.
func (s *service) SweepInactiveDevices(ctx context.Context) {
	now := s.now()
	for _, room := range s.registry.Rooms() {
		room.MarkInactiveDisconnected(now)
	}

	s.logger.DebugContext(ctx, "inactive device sweep finished")
}

// SweepEmptyRooms reclaims every room with no active device. It does
// not depend on the quality-marking sweep having run first.
func (s *service) SweepEmptyRooms(ctx context.Context) {
	s.registry.CleanupEmptyRooms()

	s.logger.DebugContext(ctx, "empty room sweep finished")
}
