package diag

import (
	"fmt"
	"strings"
)

// Severity ranks a diagnostic. Only SevError fails an elaboration; the
// define trace of --verbose-names and the timings report are SevInfo, loader
// complaints about ignored keys are SevWarning.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

// String is the upper-case form used in pretty headers.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label is the lower-case form used by the short format and --min-severity.
func (s Severity) Label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity accepts a Label, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range [...]Severity{SevInfo, SevWarning, SevError} {
		if strings.EqualFold(s, sev.Label()) {
			return sev, nil
		}
	}
	return SevInfo, fmt.Errorf("unknown severity %q (info|warning|error)", s)
}
