package schema

import (
	"fmt"
	"strings"
)

// ConfigurationError reports invalid component parameters. It is raised
// eagerly at construction so that a misconfigured pipeline never runs.
type ConfigurationError struct {
	Component string // transformer or component name
	Field     string // offending parameter, if known
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Component, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

// ValidationError reports bad input data: empty datasets, missing columns,
// column-name collisions. It is raised before any transformation work begins.
type ValidationError struct {
	Component string
	Reason    string
	Missing   []string // columns that were required but absent
	Available []string // columns the dataset actually has
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Component, e.Reason)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(": missing [%s]", strings.Join(e.Missing, ", "))
	}
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(", available [%s]", strings.Join(e.Available, ", "))
	}
	return msg
}

// DecodingError reports malformed quantile text. Date and Metric locate the
// offending cell when decoding happens inside a detection run.
type DecodingError struct {
	Date     string
	Metric   string
	Text     string
	Segments int
	Reason   string
}

func (e *DecodingError) Error() string {
	msg := fmt.Sprintf("decode quantiles %q: %s", e.Text, e.Reason)
	if e.Segments > 0 {
		msg += fmt.Sprintf(" (got %d segments, want %d)", e.Segments, QuantileCount)
	}
	if e.Date != "" || e.Metric != "" {
		msg += fmt.Sprintf(" at date=%s metric=%s", e.Date, e.Metric)
	}
	return msg
}

// AlignmentError reports forecast and actual datasets that cannot be joined:
// a metric present on one side only, a date with no counterpart row, or a
// metric key whose part count does not match the configured dimensions.
type AlignmentError struct {
	Reason string
	Date   string
	Metric string
}

func (e *AlignmentError) Error() string {
	msg := "alignment: " + e.Reason
	if e.Date != "" {
		msg += fmt.Sprintf(" (date=%s)", e.Date)
	}
	if e.Metric != "" {
		msg += fmt.Sprintf(" (metric=%s)", e.Metric)
	}
	return msg
}
