package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "go-capture-guide/internal/errors"
)

// URLValidator checks the frame URLs of an HTTP replay source
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any http or https host
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewURLValidatorWithOptions restricts schemes and, when hosts is not
// empty, hosts as well
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateFrameURL reports whether rawURL can be fetched as a recorded frame
func (v *URLValidator) ValidateFrameURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return apperrors.NewValidationError("frame URL cannot be empty", nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("invalid frame URL", err)
	}
	if !slices.Contains(v.allowedSchemes, strings.ToLower(u.Scheme)) {
		return apperrors.NewValidationError("frame URL scheme not allowed: "+u.Scheme, nil)
	}
	if u.Hostname() == "" {
		return apperrors.NewValidationError("frame URL must have a host", nil)
	}
	if len(v.allowedHosts) > 0 && !slices.Contains(v.allowedHosts, u.Hostname()) {
		return apperrors.NewValidationError("frame URL host not allowed: "+u.Hostname(), nil)
	}
	return nil
}

// ValidateFrameURLs checks every URL and returns the first failure
func (v *URLValidator) ValidateFrameURLs(urls []string) error {
	for _, u := range urls {
		if err := v.ValidateFrameURL(u); err != nil {
			return err
		}
	}
	return nil
}
