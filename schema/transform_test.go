package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendRowTransformer adds one marker row per application.
type appendRowTransformer struct {
	name  string
	value float64
}

func (t *appendRowTransformer) Name() string { return t.name }

func (t *appendRowTransformer) Apply(ds Dataset) (Dataset, error) {
	out := ds.Clone()
	if err := out.AppendRow(Number(t.value)); err != nil {
		return Dataset{}, err
	}
	return out, nil
}

// failingTransformer always errors.
type failingTransformer struct{}

func (t *failingTransformer) Name() string { return "boom" }

func (t *failingTransformer) Apply(Dataset) (Dataset, error) {
	return Dataset{}, errors.New("exploded")
}

func TestRunStageAppliesInOrder(t *testing.T) {
	ds := MustDataset("v")
	out, err := RunStage(StageBefore, []Transformer{
		&appendRowTransformer{name: "first", value: 1},
		&appendRowTransformer{name: "second", value: 2},
	}, ds)
	require.NoError(t, err)

	require.Equal(t, 2, out.NumRows())
	first, _ := out.Cell(0, "v")
	second, _ := out.Cell(1, "v")
	assert.True(t, first.Equal(Number(1)))
	assert.True(t, second.Equal(Number(2)))

	// The input dataset is untouched.
	assert.Equal(t, 0, ds.NumRows())
}

func TestRunStageWrapsErrorWithPosition(t *testing.T) {
	ds := MustDataset("v")
	_, err := RunStage(StageAfter, []Transformer{
		&appendRowTransformer{name: "ok", value: 1},
		&failingTransformer{},
	}, ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage after [1] boom")
	assert.Contains(t, err.Error(), "exploded")
}

func TestRunStageEmptyListIsPassthrough(t *testing.T) {
	ds := MustDataset("v")
	require.NoError(t, ds.AppendRow(Number(7)))

	out, err := RunStage(StageBefore, nil, ds)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())
}

func TestStagesRun(t *testing.T) {
	stages := Stages{
		Before: []Transformer{&appendRowTransformer{name: "b", value: 1}},
		After:  []Transformer{&appendRowTransformer{name: "a", value: 2}},
	}
	ds := MustDataset("v")

	out, err := stages.Run(StageBefore, ds)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())

	out, err = stages.Run(StageAfter, ds)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())

	_, err = stages.Run(Stage("sideways"), ds)
	assert.Error(t, err)
}
