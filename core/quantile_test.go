package core

import (
	"strings"
	"testing"

	"github.com/driftwatch/driftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuantiles(t *testing.T) {
	vec, err := DecodeQuantiles("100|90|92|95|97|100|102|105|107|110")
	require.NoError(t, err)

	assert.Equal(t, 100.0, vec.Point())
	assert.Equal(t, 90.0, vec[1])
	assert.Equal(t, 110.0, vec[9])
}

func TestDecodeQuantilesRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "too few segments", text: "1|2|3"},
		{name: "too many segments", text: "1|2|3|4|5|6|7|8|9|10|11"},
		{name: "non numeric segment", text: "100|90|oops|95|97|100|102|105|107|110"},
		{name: "blank segment", text: "100|90||95|97|100|102|105|107|110"},
		{name: "wrong delimiter", text: "100,90,92,95,97,100,102,105,107,110"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQuantiles(tt.text)
			require.Error(t, err)
			var derr *schema.DecodingError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		vec  QuantileVector
	}{
		{name: "integers", vec: QuantileVector{100, 90, 92, 95, 97, 100, 102, 105, 107, 110}},
		{name: "fractions", vec: QuantileVector{0.5, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}},
		{name: "negatives", vec: QuantileVector{-1.5, -9, -8, -7, -6, -5, -4, -3, -2, -1}},
		{name: "zeros", vec: QuantileVector{}},
		{name: "awkward floats", vec: QuantileVector{0.1 + 0.2, 1e-9, 1e9, 3, 4, 5, 6, 7, 8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeQuantiles(tt.vec)
			decoded, err := DecodeQuantiles(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.vec, decoded)
		})
	}
}

func TestEncodeQuantilesFormat(t *testing.T) {
	encoded := EncodeQuantiles(QuantileVector{100, 90, 92, 95, 97, 100, 102, 105, 107, 110})

	assert.Equal(t, "100|90|92|95|97|100|102|105|107|110", encoded)
	assert.Equal(t, schema.QuantileCount, len(strings.Split(encoded, schema.QuantileDelimiter)))
}
