package transport

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"go-capture-guide/internal/config"
	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/observer"
	"go-capture-guide/internal/service"
	"go-capture-guide/internal/session"
	"go-capture-guide/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Response headers describing a captured still
const (
	HeaderCaptureReadiness = "X-Capture-Verdict"
	HeaderCaptureIssue     = "X-Capture-Issue"
	HeaderCapturePremature = "X-Capture-Premature"
	HeaderSessionID        = "X-Session-ID"
)

type handler struct {
	svc service.CaptureService
	cfg *config.Config
}

func NewHandler(svc service.CaptureService, cfg *config.Config, gatherer prometheus.Gatherer) http.Handler {
	r := gin.New()
	h := &handler{svc: svc, cfg: cfg}

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.POST("/analyze", h.analyzeStill)

	sessions := r.Group("/sessions")
	sessions.POST("", h.openSession)
	sessions.GET("/:id", h.getSession)
	sessions.GET("/:id/events", h.streamEvents)
	sessions.GET("/:id/preview", h.preview)
	sessions.POST("/:id/capture", h.capture)
	sessions.POST("/:id/retake", h.retake)
	sessions.DELETE("/:id", h.closeSession)

	return r
}

func (h *handler) openSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}
	mode, err := models.ParseCaptureMode(req.Mode)
	if err != nil {
		respondError(c, apperrors.NewValidationError("invalid capture mode", err))
		return
	}

	sess, err := h.svc.Open(ctx, mode)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.NewDeviceUnavailableError("device acquisition timed out", err)
		}
		respondError(c, err)
		return
	}

	c.Header(HeaderSessionID, sess.ID())
	c.JSON(http.StatusCreated, sessionResponse(sess.Info()))
}

func (h *handler) getSession(c *gin.Context) {
	sess, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess.Info()))
}

// streamEvents sends the session's events as server-sent events until the
// session closes or the client goes away. A client going away releases the
// device unless another stream still watches the session.
func (h *handler) streamEvents(c *gin.Context) {
	sess, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	events, cancel, err := h.svc.Subscribe(sess.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	defer cancel()

	info := sess.Info()
	c.SSEvent("state", sessionResponse(info))
	c.Writer.Flush()
	if !info.Open {
		return
	}

	disconnected := false
	if c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(e.EventType), e)
			return e.EventType != observer.SessionClosed
		case <-c.Request.Context().Done():
			disconnected = true
			return false
		}
	}) {
		disconnected = true
	}

	if disconnected {
		cancel()
		if h.svc.ReleaseIfUnwatched(sess.ID()) {
			logger.WithField("session_id", sess.ID()).Debug("Event stream dropped, session released")
		}
	}
}

func (h *handler) preview(c *gin.Context) {
	sess, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	img, err := sess.Preview()
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondError(c, apperrors.NewInternalError("failed to encode preview", err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *handler) capture(c *gin.Context) {
	captured, err := h.svc.Capture(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"session_id": captured.SessionID,
		"mode":       captured.Mode,
		"readiness":  captured.Verdict.Readiness.String(),
		"premature":  captured.Premature,
		"bytes":      len(captured.Data),
	}).Info("Still captured")

	c.Header(HeaderSessionID, captured.SessionID)
	c.Header(HeaderCaptureReadiness, captured.Verdict.Readiness.String())
	c.Header(HeaderCaptureIssue, string(captured.Verdict.Issue))
	c.Header(HeaderCapturePremature, strconv.FormatBool(captured.Premature))
	c.Data(http.StatusOK, captured.ContentType, captured.Data)
}

func (h *handler) retake(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	sess, err := h.svc.Retake(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess.Info()))
}

func (h *handler) closeSession(c *gin.Context) {
	if err := h.svc.Close(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// analyzeStill checks an uploaded still (raw png/jpeg body) for the mode
// given in the query string.
func (h *handler) analyzeStill(c *gin.Context) {
	mode, err := models.ParseCaptureMode(c.Query("mode"))
	if err != nil {
		respondError(c, apperrors.NewValidationError("invalid capture mode", err))
		return
	}

	img, _, err := image.Decode(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, apperrors.NewValidationError("image too large", err))
			return
		}
		respondError(c, apperrors.NewValidationError("body is not a png or jpeg image", err))
		return
	}

	res, err := h.svc.AnalyzeStill(img, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func sessionResponse(info session.Info) models.SessionResponse {
	return models.SessionResponse{
		SessionID: info.ID,
		Mode:      info.Mode,
		Open:      info.Open,
		Verdict:   info.Verdict,
		Metrics:   info.Metrics,
		Analyses:  info.Analyses,
		Width:     info.Width,
		Height:    info.Height,
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	message := err.Error()
	if appErr, ok := apperrors.AsAppError(err); ok {
		message = appErr.Message
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Type:    string(apperrors.GetType(err)),
		Message: message,
	})
}
