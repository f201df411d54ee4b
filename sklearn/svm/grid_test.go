package svm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

func TestNewParamGrid(t *testing.T) {
	tests := []struct {
		name    string
		kind    ParamKind
		min     float64
		max     float64
		step    float64
		wantErr bool
	}{
		{"valid", ParamC, 0.1, 10, 10, false},
		{"fixed zero", ParamCoef, 0, 0, 2, false},
		{"min above max", ParamGamma, 1, 0.1, 2, true},
		{"step of one", ParamC, 0.1, 10, 1, true},
		{"step below one", ParamC, 0.1, 10, 0.5, true},
		{"zero start", ParamC, 0, 10, 2, true},
		{"negative start", ParamDegree, -1, 3, 2, true},
		{"unknown kind", ParamKind(17), 1, 2, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewParamGrid(tt.kind, tt.min, tt.max, tt.step)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, g.Kind)
		})
	}
}

func TestParamGrid_Values(t *testing.T) {
	tests := []struct {
		name string
		grid ParamGrid
		want []float64
	}{
		{"fixed", FixedGrid(ParamC, 3), []float64{3}},
		{"exact end point", ParamGrid{Kind: ParamC, MinVal: 1, MaxVal: 100, LogStep: 10}, []float64{1, 10, 100}},
		{"end point not reached", ParamGrid{Kind: ParamC, MinVal: 1, MaxVal: 50, LogStep: 10}, []float64{1, 10}},
		{"single step", ParamGrid{Kind: ParamNu, MinVal: 0.1, MaxVal: 0.15, LogStep: 2}, []float64{0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.grid.Values()
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestDefaultGrid(t *testing.T) {
	counts := map[ParamKind]int{
		ParamC:      6, // 0.1 .. 312.5
		ParamGamma:  5, // 1e-5 .. 0.50625
		ParamP:      5,
		ParamNu:     3,
		ParamCoef:   4,
		ParamDegree: 4,
	}
	for kind, n := range counts {
		g, err := DefaultGrid(kind)
		require.NoError(t, err)
		require.NoError(t, g.Validate())
		assert.Equal(t, kind, g.Kind)
		assert.False(t, g.IsFixed())
		values := g.Values()
		assert.Len(t, values, n, kind.String())
		for _, v := range values {
			assert.LessOrEqual(t, v, g.MaxVal)
			assert.GreaterOrEqual(t, v, g.MinVal)
		}
	}

	_, err := DefaultGrid(ParamKind(-1))
	assert.Error(t, err)
}
