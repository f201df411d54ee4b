package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKernel_Eval(t *testing.T) {
	x := []float64{1, 2, 0}
	y := []float64{2, 0, 1}

	tests := []struct {
		name   string
		params Params
		want   float64
	}{
		{"linear", Params{KernelType: Linear}, 2},
		{"poly", Params{KernelType: Poly, Gamma: 0.5, Coef0: 1, Degree: 2}, 4},
		{"rbf", Params{KernelType: RBF, Gamma: 0.1}, math.Exp(-0.1 * 6)},
		{"sigmoid", Params{KernelType: Sigmoid, Gamma: 0.5, Coef0: -1}, math.Tanh(0)},
		// (1-2)²/3 + (2-0)²/2 + (0-1)²/1
		{"chi2", Params{KernelType: Chi2, Gamma: 1}, math.Exp(-(1.0/3 + 2 + 1))},
		{"inter", Params{KernelType: Inter}, 1},
		{"unknown", Params{KernelType: KernelType(99)}, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newKernel(tt.params).eval(x, y)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestKernel_Chi2SkipsZeroBins(t *testing.T) {
	k := newKernel(Params{KernelType: Chi2, Gamma: 1})
	assert.Equal(t, 1.0, k.eval([]float64{0, 0}, []float64{0, 0}))
	assert.InDelta(t, math.Exp(-1), k.eval([]float64{0, 1}, []float64{0, 0}), 1e-12)
}

func TestKernelCache(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}}
	c := newKernelCache(newKernel(Params{KernelType: Linear}), x)

	assert.Equal(t, []float64{0, 2, 4}, c.row(2))
	assert.Equal(t, 4.0, c.diag(2))

	// 同じ行は再利用される
	r1 := c.row(1)
	r2 := c.row(1)
	assert.Same(t, &r1[0], &r2[0])

	c.maxRows = 1
	c.row(0)
	assert.Len(t, c.rows, 1)
	assert.Equal(t, []float64{0, 1, 2}, c.row(1))
}
