package domain

type SourceType string

const (
	SourceTypeFile       SourceType = "FILE"
	SourceTypeMicrophone SourceType = "MICROPHONE"
	SourceTypeSystem     SourceType = "SYSTEM"
)

// AudioSource is an immutable value replaced wholesale by the host.
type AudioSource struct {
	Type       SourceType `json:"type"`
	SourceId   string     `json:"source_id"`
	SourceUrl  string     `json:"source_url"`
	DurationMs int64      `json:"duration_ms"`
}
