package engine

import (
	"fmt"
	"log/slog"
)

// WarningCode classifies a problem that categorization tolerated.
type WarningCode string

// Warning codes.
const (
	WarnUnknownCategory     WarningCode = "unknown_category"
	WarnPositionOutOfRange  WarningCode = "position_out_of_range"
	WarnDuplicateAssignment WarningCode = "duplicate_assignment"
)

// Warning is a logged, non-fatal categorization problem.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func (r *CategorizeResult) warn(code WarningCode, format string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	r.Warnings = append(r.Warnings, w)
	slog.Warn("Categorization warning", "code", string(code), "detail", w.Message)
}

// HasWarning reports whether a warning with code was recorded.
func (r *CategorizeResult) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
