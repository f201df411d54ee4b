package data

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/svmkit/core/matrix"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

func mustMatrix(t *testing.T, rows [][]float64, typ matrix.ElemType) *matrix.Matrix {
	t.Helper()
	m, err := matrix.NewFromRows(rows, typ)
	require.NoError(t, err)
	return m
}

func TestNew_RowSample(t *testing.T) {
	x := mustMatrix(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, matrix.Float32)
	y := mustMatrix(t, [][]float64{{0}, {1}, {0}}, matrix.Int32)

	d, err := New(x, RowSample, y)
	require.NoError(t, err)
	assert.Equal(t, 3, d.SampleCount())
	assert.Equal(t, 2, d.VarCount())
	assert.Equal(t, RowSample, d.Layout())
	assert.Equal(t, matrix.Float32, d.ElemType())
	assert.Equal(t, []float64{3, 4}, d.Sample(1))
	assert.Equal(t, []float64{0, 1, 0}, d.Labels())
	assert.Equal(t, 1.0, d.Label(1))
}

func TestNew_ColSample(t *testing.T) {
	x := mustMatrix(t, [][]float64{{1, 3, 5}, {2, 4, 6}}, matrix.Float64)
	y := mustMatrix(t, [][]float64{{7, 8, 9}}, matrix.Float64)

	d, err := New(x, ColSample, y)
	require.NoError(t, err)
	assert.Equal(t, 3, d.SampleCount())
	assert.Equal(t, 2, d.VarCount())
	assert.Equal(t, []float64{5, 6}, d.Sample(2))
	assert.Equal(t, 9.0, d.Label(2))
}

func TestNew_Errors(t *testing.T) {
	x := mustMatrix(t, [][]float64{{1, 2}, {3, 4}}, matrix.Float64)
	tests := []struct {
		name    string
		samples *matrix.Matrix
		layout  Layout
		labels  *matrix.Matrix
	}{
		{"label count mismatch", x, RowSample, mustMatrix(t, [][]float64{{1, 2, 3}}, matrix.Float64)},
		{"labels not a vector", x, RowSample, x},
		{"unknown layout", x, Layout(7), mustMatrix(t, [][]float64{{1, 2}}, matrix.Float64)},
		{"empty samples", matrix.Empty(matrix.Float64), RowSample, mustMatrix(t, [][]float64{{1}}, matrix.Float64)},
		{"non-finite sample", mustMatrix(t, [][]float64{{1, math.NaN()}, {3, 4}}, matrix.Float64), RowSample, mustMatrix(t, [][]float64{{1, 2}}, matrix.Float64)},
		{"nil labels", x, RowSample, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.samples, tt.layout, tt.labels)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	x := mustMatrix(t, [][]float64{{1, 2}, {3, 4}}, matrix.Float64)
	y := mustMatrix(t, [][]float64{{0, 1}}, matrix.Float64)
	d, err := New(x, RowSample, y)
	require.NoError(t, err)

	require.NoError(t, x.Set(0, 0, 100))
	assert.Equal(t, 1.0, d.Sample(0)[0])

	s := d.Samples()
	require.NoError(t, s.Set(0, 0, 50))
	assert.Equal(t, 1.0, d.Sample(0)[0])

	labels := d.Labels()
	labels[0] = 9
	assert.Equal(t, 0.0, d.Label(0))
}

func TestSubset(t *testing.T) {
	d, err := NewFromRows([][]float64{{1}, {2}, {3}, {4}}, []float64{0, 1, 0, 1})
	require.NoError(t, err)

	s, err := d.Subset([]int{3, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, s.SampleCount())
	assert.Equal(t, []float64{4}, s.Sample(0))
	assert.Equal(t, []float64{1, 0}, s.Labels())

	_, err = d.Subset([]int{4})
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = d.Subset(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestClassGrouping(t *testing.T) {
	d, err := NewFromRows([][]float64{{1}, {2}, {3}, {4}, {5}}, []float64{2, -1, 2, 0, -1})
	require.NoError(t, err)

	assert.Equal(t, []float64{-1, 0, 2}, d.ClassLabels())
	assert.Equal(t, [][]int{{1, 4}, {3}, {0, 2}}, d.ClassIndices())
	assert.True(t, d.IsIntegralLabels())
}

func TestNewFromRows_Empty(t *testing.T) {
	_, err := NewFromRows(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}
