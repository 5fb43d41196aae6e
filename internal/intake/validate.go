package intake

import (
	"fmt"
	"strings"
)

// Rules parameterizes intake validation.
type Rules struct {
	MaxBytes       int64
	ValidateFormat bool
	AllowedTypes   []string
}

// DefaultRules returns the 50 MiB cap with format validation enabled.
func DefaultRules() Rules {
	return Rules{
		MaxBytes:       MaxBytes,
		ValidateFormat: true,
		AllowedTypes:   append([]string(nil), DefaultAllowedTypes...),
	}
}

// Rejection is a user-correctable intake failure. It unwraps to ErrFileTooLarge
// or ErrUnsupportedFormat.
type Rejection struct {
	Kind    error
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%v: %s", r.Kind, r.Message)
}

func (r *Rejection) Unwrap() error {
	return r.Kind
}

// Validate checks size first, then format when enabled.
func (r Rules) Validate(f SelectedFile) error {
	limit := r.MaxBytes
	if limit <= 0 {
		limit = MaxBytes
	}
	if f.SizeBytes > limit {
		return &Rejection{
			Kind:    ErrFileTooLarge,
			Message: fmt.Sprintf("File too large (max %s)", formatLimit(limit)),
		}
	}

	if !r.ValidateFormat {
		return nil
	}

	allowed := r.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	mimeType := strings.ToLower(strings.TrimSpace(f.MIMEType))
	for _, candidate := range allowed {
		if mimeType == strings.ToLower(strings.TrimSpace(candidate)) {
			return nil
		}
	}
	return &Rejection{
		Kind:    ErrUnsupportedFormat,
		Message: "Unsupported format. Use MP4, AVI, MOV, WMV, or FLV.",
	}
}

func formatLimit(limit int64) string {
	const mib = 1024 * 1024
	switch {
	case limit%mib == 0:
		return fmt.Sprintf("%dMB", limit/mib)
	case limit >= mib/10:
		return fmt.Sprintf("%.1fMB", float64(limit)/mib)
	default:
		return fmt.Sprintf("%d bytes", limit)
	}
}
