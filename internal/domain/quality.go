package domain

type ConnectionQuality string

const (
	QualityGood         ConnectionQuality = "GOOD"
	QualityMedium       ConnectionQuality = "MEDIUM"
	QualityPoor         ConnectionQuality = "POOR"
	QualityDisconnected ConnectionQuality = "DISCONNECTED"
)

const (
	goodLatencyUpperBoundMs   = 50
	mediumLatencyUpperBoundMs = 150
)

// QualityForLatency buckets a measured round-trip latency into a
// connection quality. It never yields QualityDisconnected: that state is
// reserved for the liveness sweep.
func QualityForLatency(latencyMs int) ConnectionQuality {
	switch {
	case latencyMs < goodLatencyUpperBoundMs:
		return QualityGood
	case latencyMs < mediumLatencyUpperBoundMs:
		return QualityMedium
	default:
		return QualityPoor
	}
}
