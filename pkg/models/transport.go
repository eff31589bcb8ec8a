package models

// OpenSessionRequest represents a request to open a capture session
type OpenSessionRequest struct {
	Mode string `json:"mode" binding:"required,oneof=portrait document"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionResponse describes the current state of a capture session
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	Mode      CaptureMode   `json:"mode"`
	Open      bool          `json:"open"`
	Verdict   Verdict       `json:"verdict"`
	Metrics   *FrameMetrics `json:"metrics,omitempty"`
	Analyses  uint64        `json:"analyses"`
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
}

// StillAnalysisResponse is the result of checking an uploaded still
type StillAnalysisResponse struct {
	Mode              CaptureMode  `json:"mode"`
	Width             int          `json:"width"`
	Height            int          `json:"height"`
	Metrics           FrameMetrics `json:"metrics"`
	Verdict           Verdict      `json:"verdict"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
}
