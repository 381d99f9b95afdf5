package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/driftwatch/driftwatch/schema"
)

// QuantileVector is the fixed-length quantile representation of one
// (date, metric) forecast cell: index 0 is the point estimate, indices 1-9
// are ascending quantile levels q10..q90.
type QuantileVector [schema.QuantileCount]float64

// Point returns the point estimate.
func (v QuantileVector) Point() float64 { return v[0] }

// DecodeQuantiles parses the delimiter-joined text representation of a
// quantile vector. The text must have exactly ten numeric segments; anything
// else fails with a DecodingError naming the offending text.
func DecodeQuantiles(text string) (QuantileVector, error) {
	var vec QuantileVector
	parts := strings.Split(text, schema.QuantileDelimiter)
	if len(parts) != schema.QuantileCount {
		return vec, &schema.DecodingError{
			Text:     text,
			Segments: len(parts),
			Reason:   "wrong segment count",
		}
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vec, &schema.DecodingError{
				Text:     text,
				Segments: len(parts),
				Reason:   fmt.Sprintf("segment %d %q is not numeric", i, p),
			}
		}
		vec[i] = f
	}
	return vec, nil
}

// EncodeQuantiles renders a quantile vector in its delimiter-joined text
// representation. DecodeQuantiles(EncodeQuantiles(v)) == v for all vectors.
func EncodeQuantiles(vec QuantileVector) string {
	parts := make([]string, len(vec))
	for i, f := range vec {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, schema.QuantileDelimiter)
}
