package validation

import (
	"fmt"

	"go-capture-guide/pkg/models"
)

// PortraitThresholds are the calibrated limits for the selfie guide.
// The values are tuned against real captures, not physical units.
type PortraitThresholds struct {
	MinBrightness float64 `yaml:"min_brightness"`
	MinDispersion float64 `yaml:"min_dispersion"`
}

// DocumentThresholds are the calibrated limits for the ID card guide.
type DocumentThresholds struct {
	MinBrightness float64 `yaml:"min_brightness"`
	MaxGlareRatio float64 `yaml:"max_glare_ratio"`
	MinFocusScore float64 `yaml:"min_focus_score"`
}

// Thresholds groups the per-mode limits
type Thresholds struct {
	Portrait PortraitThresholds `yaml:"portrait"`
	Document DocumentThresholds `yaml:"document"`
}

// DefaultPortraitThresholds returns the default selfie limits
func DefaultPortraitThresholds() PortraitThresholds {
	return PortraitThresholds{
		MinBrightness: 60,
		MinDispersion: 15, // below this the oval holds a blank wall, not a face
	}
}

// DefaultDocumentThresholds returns the default ID card limits
func DefaultDocumentThresholds() DocumentThresholds {
	return DocumentThresholds{
		MinBrightness: 70,
		MaxGlareRatio: 0.03,
		MinFocusScore: 3.0,
	}
}

// DefaultThresholds returns the defaults for both modes
func DefaultThresholds() Thresholds {
	return Thresholds{
		Portrait: DefaultPortraitThresholds(),
		Document: DefaultDocumentThresholds(),
	}
}

// Validate rejects values that would make a classifier always or never pass
func (t Thresholds) Validate() error {
	if t.Portrait.MinBrightness < 0 || t.Portrait.MinBrightness > 255 {
		return fmt.Errorf("portrait.min_brightness out of range: %v", t.Portrait.MinBrightness)
	}
	if t.Portrait.MinDispersion < 0 {
		return fmt.Errorf("portrait.min_dispersion must be >= 0: %v", t.Portrait.MinDispersion)
	}
	if t.Document.MinBrightness < 0 || t.Document.MinBrightness > 255 {
		return fmt.Errorf("document.min_brightness out of range: %v", t.Document.MinBrightness)
	}
	if t.Document.MaxGlareRatio < 0 || t.Document.MaxGlareRatio > 1 {
		return fmt.Errorf("document.max_glare_ratio must be within 0..1: %v", t.Document.MaxGlareRatio)
	}
	if t.Document.MinFocusScore < 0 {
		return fmt.Errorf("document.min_focus_score must be >= 0: %v", t.Document.MinFocusScore)
	}
	return nil
}

// User-facing status messages
const (
	MessageTooDark   = "Too dark. Move to a brighter place."
	MessageOffCenter = "Center your face inside the oval."
	MessageGlare     = "Glare detected. Change the card's angle."
	MessageBlurry    = "Blurry. Hold steady."
	MessageReady     = "Good, you may capture now."
)

// Classifier maps frame metrics to a readiness verdict for one capture mode
type Classifier interface {
	Classify(m models.FrameMetrics) models.Verdict
	Mode() models.CaptureMode
}

// PortraitClassifier judges selfie frames. Rules run in order and the
// first failure wins.
type PortraitClassifier struct {
	thresholds PortraitThresholds
}

// NewPortraitClassifier creates a portrait classifier with the given limits
func NewPortraitClassifier(t PortraitThresholds) *PortraitClassifier {
	return &PortraitClassifier{thresholds: t}
}

func (c *PortraitClassifier) Mode() models.CaptureMode {
	return models.ModePortrait
}

// Classify checks exposure first; dispersion is meaningless on a dark frame.
func (c *PortraitClassifier) Classify(m models.FrameMetrics) models.Verdict {
	switch {
	case m.MeanBrightness < c.thresholds.MinBrightness:
		return notReady(models.IssueTooDark, MessageTooDark)
	case m.BrightnessDispersion < c.thresholds.MinDispersion:
		return notReady(models.IssueOffCenter, MessageOffCenter)
	default:
		return ready()
	}
}

// DocumentClassifier judges ID card frames. Brightness is checked before
// glare and glare before focus: a saturated patch flattens the focus
// score, and reporting "blurry" there would send the user the wrong way.
type DocumentClassifier struct {
	thresholds DocumentThresholds
}

// NewDocumentClassifier creates a document classifier with the given limits
func NewDocumentClassifier(t DocumentThresholds) *DocumentClassifier {
	return &DocumentClassifier{thresholds: t}
}

func (c *DocumentClassifier) Mode() models.CaptureMode {
	return models.ModeDocument
}

func (c *DocumentClassifier) Classify(m models.FrameMetrics) models.Verdict {
	switch {
	case m.MeanBrightness < c.thresholds.MinBrightness:
		return notReady(models.IssueTooDark, MessageTooDark)
	case m.GlareRatio > c.thresholds.MaxGlareRatio:
		return notReady(models.IssueGlare, MessageGlare)
	case m.FocusScore < c.thresholds.MinFocusScore:
		return notReady(models.IssueBlurry, MessageBlurry)
	default:
		return ready()
	}
}

// NewClassifier returns the classifier variant for a capture mode
func NewClassifier(mode models.CaptureMode, t Thresholds) (Classifier, error) {
	switch mode {
	case models.ModePortrait:
		return NewPortraitClassifier(t.Portrait), nil
	case models.ModeDocument:
		return NewDocumentClassifier(t.Document), nil
	default:
		return nil, fmt.Errorf("no classifier for capture mode %q", mode)
	}
}

func notReady(issue models.IssueType, message string) models.Verdict {
	return models.Verdict{Readiness: models.NotReady, Issue: issue, Message: message}
}

func ready() models.Verdict {
	return models.Verdict{Readiness: models.Ready, Issue: models.IssueNone, Message: MessageReady}
}
