package schema

import "fmt"

// Transformer is the single capability every pipeline transformation
// implements. Apply consumes a dataset and produces a new one; it never
// mutates its input.
type Transformer interface {
	// Name identifies the transformer in error messages.
	Name() string

	// Apply transforms the dataset.
	Apply(Dataset) (Dataset, error)
}

// Stages holds the two transformer lists every stage-aware component owns.
// Before wraps the component's primary operation's input, After wraps its
// output. Both default to empty, which means passthrough.
type Stages struct {
	Before []Transformer
	After  []Transformer
}

// RunStage applies each transformer in list order to the output of the
// previous one. Order is part of the contract: transformers are not assumed
// commutative. The first error aborts the run; no partial dataset is
// returned.
func RunStage(stage Stage, transformers []Transformer, ds Dataset) (Dataset, error) {
	result := ds
	for i, t := range transformers {
		var err error
		result, err = t.Apply(result)
		if err != nil {
			return Dataset{}, fmt.Errorf("stage %s [%d] %s: %w", stage, i, t.Name(), err)
		}
	}
	return result, nil
}

// Run applies the named stage of s to the dataset.
func (s Stages) Run(stage Stage, ds Dataset) (Dataset, error) {
	switch stage {
	case StageBefore:
		return RunStage(stage, s.Before, ds)
	case StageAfter:
		return RunStage(stage, s.After, ds)
	default:
		return Dataset{}, &ConfigurationError{
			Component: "stages",
			Field:     "stage",
			Reason:    fmt.Sprintf("unknown stage %q, want %q or %q", stage, StageBefore, StageAfter),
		}
	}
}
