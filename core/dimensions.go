package core

import (
	"fmt"
	"strings"

	"github.com/driftwatch/driftwatch/schema"
)

// DimensionMapping maps a normalized raw token, as it appears inside a
// composite metric key, to a human-readable display label. Scoped to one
// dimension name.
type DimensionMapping map[string]string

// NormalizeToken lower-cases a raw dimension value and replaces spaces with
// hyphens so the token can live inside a composite metric key without
// colliding with the metric delimiter.
func NormalizeToken(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "-")
}

// BuildDimensionMapping builds a mapping from a dataset column's distinct
// values: normalized token to first-seen original label. Later duplicates of
// the same token keep the first label.
func BuildDimensionMapping(ds schema.Dataset, column string) (DimensionMapping, error) {
	values, err := ds.Column(column)
	if err != nil {
		return nil, err
	}
	mapping := make(DimensionMapping)
	for _, v := range values {
		label := v.String()
		key := NormalizeToken(label)
		if _, seen := mapping[key]; !seen {
			mapping[key] = label
		}
	}
	return mapping, nil
}

// Label resolves a token through the mapping, falling back to title-casing
// the token when titleCase is set, else passing it through unchanged.
func (m DimensionMapping) Label(token string, titleCase bool) string {
	if label, ok := m[token]; ok {
		return label
	}
	if titleCase {
		return titleCaseToken(token)
	}
	return token
}

// SplitMetricKey splits a composite metric key into exactly n ordered parts.
// A part-count mismatch is a structural error, never silently truncated or
// padded.
func SplitMetricKey(metric string, n int) ([]string, error) {
	parts := strings.Split(metric, schema.MetricDelimiter)
	if len(parts) != n {
		return nil, &schema.AlignmentError{
			Metric: metric,
			Reason: fmt.Sprintf("metric key has %d parts, want %d dimensions", len(parts), n),
		}
	}
	return parts, nil
}

// titleCaseToken renders a normalized token for display: hyphens become
// spaces and each word starts upper-case.
func titleCaseToken(token string) string {
	words := strings.Split(strings.ReplaceAll(token, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
