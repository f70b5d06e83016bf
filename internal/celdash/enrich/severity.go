package enrich

import (
	"strings"
	"unicode"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// Severity labels derived from lamp flags.
const (
	SeverityNone           = "None"
	SeverityRedStop        = "Red Stop Lamp"
	SeverityMalfunction    = "Malfunction Lamp"
	SeverityAmberWarning   = "Amber Warning"
	SeverityProtectWarning = "Protect Warning"
)

// Severity prefers the reported severity enumeration, split into words, and
// falls back to the lamp flags in priority order.
func Severity(f model.FaultRecord) string {
	if f.Severity != "" && f.Severity != SeverityNone {
		return splitWords(f.Severity)
	}
	switch {
	case f.Lamps.RedStop:
		return SeverityRedStop
	case f.Lamps.Malfunction:
		return SeverityMalfunction
	case f.Lamps.AmberWarning:
		return SeverityAmberWarning
	case f.Lamps.ProtectWarning:
		return SeverityProtectWarning
	default:
		return SeverityNone
	}
}

// splitWords inserts a space before every upper case letter,
// so "MalfunctionIndicatorLamp" becomes "Malfunction Indicator Lamp".
func splitWords(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// State normalises a reported state. 2 or "Pending" is pending; 0,
// "Cleared" or "Inactive" is cleared; anything else is active.
func State(s model.RawState) model.FaultState {
	if s.HasNumber {
		switch s.Number {
		case 2:
			return model.FaultStatePending
		case 0:
			return model.FaultStateCleared
		default:
			return model.FaultStateActive
		}
	}
	switch s.Name {
	case "Pending":
		return model.FaultStatePending
	case "Cleared", "Inactive":
		return model.FaultStateCleared
	default:
		return model.FaultStateActive
	}
}
