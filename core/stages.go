package core

import (
	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
)

// BuildDetector assembles a detector and its stage lists from the validated
// runtime configuration. mappings may be nil when no display-label remapping
// is wanted.
//
// The before stage pivots raw long-format actuals into the forecast's wide
// shape when a pivot is configured. The after stage applies, in order:
// cumulative-threshold filtering on forecast magnitude, status filtering,
// deviation filtering, percentage formatting. Deviation filtering must run
// before the formatter turns the column into text.
func BuildDetector(cfg *contract.Config, mappings map[string]DimensionMapping) (*Detector, error) {
	var stages schema.Stages

	if len(cfg.PivotColumns) > 0 {
		index := cfg.PivotIndex
		if len(index) == 0 {
			index = []string{cfg.DateColumn}
		}
		pivot, err := NewPivot(index, cfg.PivotColumns, cfg.PivotValues)
		if err != nil {
			return nil, err
		}
		stages.Before = append(stages.Before, pivot)
	}

	if cfg.CumulativeThreshold > 0 {
		f, err := NewCumulativeThresholdFilter(schema.ColForecast, cfg.CumulativeThreshold)
		if err != nil {
			return nil, err
		}
		stages.After = append(stages.After, f)
	}
	if cfg.OnlyAnomalies {
		f, err := NewIncludeFilter(schema.ColStatus,
			string(schema.StatusBelowLower), string(schema.StatusAboveUpper))
		if err != nil {
			return nil, err
		}
		stages.After = append(stages.After, f)
	}
	if cfg.MinDeviation > 0 {
		f, err := NewRangeFilter(schema.ColDeviation, Float64(cfg.MinDeviation), nil)
		if err != nil {
			return nil, err
		}
		stages.After = append(stages.After, f)
	}
	if cfg.FormatDeviation {
		f, err := NewPercentageFormatter([]string{schema.ColDeviation}, 1, true)
		if err != nil {
			return nil, err
		}
		stages.After = append(stages.After, f)
	}

	return NewDetector(DetectorConfig{
		DateColumn:          cfg.DateColumn,
		LowerIdx:            cfg.LowerIdx,
		UpperIdx:            cfg.UpperIdx,
		DimensionNames:      cfg.Dimensions,
		DimensionMappings:   mappings,
		TitleCaseDimensions: cfg.TitleCase,
	}, stages)
}

// BuildReaderStages assembles the after stage every reader gets: a date
// window on the loaded data when one is configured.
func BuildReaderStages(cfg *contract.Config) (schema.Stages, error) {
	var stages schema.Stages
	if !cfg.StartDate.IsZero() || !cfg.EndDate.IsZero() {
		f, err := NewDateRangeFilter(cfg.DateColumn, cfg.StartDate, cfg.EndDate)
		if err != nil {
			return schema.Stages{}, err
		}
		stages.After = append(stages.After, f)
	}
	return stages, nil
}
