package models

import (
	"fmt"
	"image"
	"strings"
	"time"
)

// CaptureMode selects the guidance heuristics for a capture session.
// It is fixed for the lifetime of a session.
type CaptureMode string

const (
	// ModePortrait is the front-facing selfie mode
	ModePortrait CaptureMode = "portrait"
	// ModeDocument is the rear-facing ID card mode
	ModeDocument CaptureMode = "document"
)

// ParseCaptureMode converts user input into a CaptureMode
func ParseCaptureMode(s string) (CaptureMode, error) {
	switch CaptureMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePortrait:
		return ModePortrait, nil
	case ModeDocument:
		return ModeDocument, nil
	default:
		return "", fmt.Errorf("unknown capture mode %q", s)
	}
}

func (m CaptureMode) String() string {
	return string(m)
}

// FrameMetrics holds the quality metrics of one sampled frame.
// Values are on the 0..255 luma scale except GlareRatio (0..1).
type FrameMetrics struct {
	MeanBrightness       float64 `json:"mean_brightness"`
	BrightnessDispersion float64 `json:"brightness_dispersion"`
	GlareRatio           float64 `json:"glare_ratio"`
	FocusScore           float64 `json:"focus_score"`
	SampleCount          int     `json:"sample_count"`
}

// Readiness is the binary gate signal shown to the user
type Readiness int

const (
	NotReady Readiness = iota
	Ready
)

func (r Readiness) String() string {
	if r == Ready {
		return "ready"
	}
	return "not_ready"
}

// MarshalText renders readiness as its string form in JSON and logs
func (r Readiness) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IssueType identifies which heuristic rejected a frame
type IssueType string

const (
	IssueNone         IssueType = "none"
	IssueInitializing IssueType = "initializing"
	IssueTooDark      IssueType = "too_dark"
	IssueOffCenter    IssueType = "off_center"
	IssueGlare        IssueType = "glare"
	IssueBlurry       IssueType = "blurry"
)

// Verdict is the readiness verdict plus the short status message for the user.
// Issue lets presentation layers pick a localized message.
type Verdict struct {
	Readiness Readiness `json:"readiness"`
	Issue     IssueType `json:"issue"`
	Message   string    `json:"message"`
}

// Ready reports whether the verdict allows capture without warning
func (v Verdict) Ready() bool {
	return v.Readiness == Ready
}

// InitialVerdict is published before the first frame has been analyzed
func InitialVerdict() Verdict {
	return Verdict{
		Readiness: NotReady,
		Issue:     IssueInitializing,
		Message:   "Starting camera...",
	}
}

// CapturedImage is the committed still handed back to the caller.
// Image holds exactly the buffer that produced Verdict.
type CapturedImage struct {
	SessionID   string      `json:"session_id"`
	Mode        CaptureMode `json:"mode"`
	Image       *image.RGBA `json:"-"`
	Data        []byte      `json:"-"`
	ContentType string      `json:"content_type"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Verdict     Verdict     `json:"verdict"`
	Premature   bool        `json:"premature"`
	CapturedAt  time.Time   `json:"captured_at"`
}
