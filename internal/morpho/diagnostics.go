package morpho

import "fmt"

// Severity classifies a diagnostic message. Report narratives branch on
// warning and error counts, so the three-level distinction is part of the
// contract.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one structured message produced during a pipeline run.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Diagnostics is the ordered message list a pipeline run produced. Engines
// return it instead of logging so the caller decides where it goes.
type Diagnostics []Diagnostic

// Infof appends an informational message.
func (d *Diagnostics) Infof(format string, args ...interface{}) {
	*d = append(*d, Diagnostic{SeverityInfo, fmt.Sprintf(format, args...)})
}

// Warnf appends a warning message.
func (d *Diagnostics) Warnf(format string, args ...interface{}) {
	*d = append(*d, Diagnostic{SeverityWarning, fmt.Sprintf(format, args...)})
}

// Errorf appends an error message.
func (d *Diagnostics) Errorf(format string, args ...interface{}) {
	*d = append(*d, Diagnostic{SeverityError, fmt.Sprintf(format, args...)})
}

// WarningCount returns the number of warning-level messages.
func (d Diagnostics) WarningCount() int {
	n := 0
	for _, m := range d {
		if m.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// ErrorCount returns the number of error-level messages.
func (d Diagnostics) ErrorCount() int {
	n := 0
	for _, m := range d {
		if m.Severity == SeverityError {
			n++
		}
	}
	return n
}
