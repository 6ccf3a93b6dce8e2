package restserver

import (
	"github.com/chrissnell/rfxweather/internal/ingest"
	"github.com/chrissnell/rfxweather/internal/sinks"
)

// FrameRequest is the JSON body accepted by POST /api/v1/frames.
type FrameRequest struct {
	// Frame is the hex-encoded frame, length byte first.
	Frame  string `json:"frame"`
	Origin string `json:"origin,omitempty"`
}

// FamilyInfo describes one dispatch table row.
type FamilyInfo struct {
	PacketType string        `json:"packet_type"`
	Family     string        `json:"family"`
	Subtypes   []SubtypeInfo `json:"subtypes"`
	Measures   []string      `json:"measures"`
	Marked     bool          `json:"marked"`
	Calibrated bool          `json:"requires_calibration"`
	// Supported is false for calibrated families with no verified layout loaded.
	Supported bool `json:"supported"`
}

type SubtypeInfo struct {
	Code  string `json:"code"`
	Model string `json:"model"`
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Ingest ingest.Stats             `json:"ingest"`
	Sinks  map[string]sinks.Health `json:"sinks"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
