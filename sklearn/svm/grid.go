package svm

import (
	"math"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// ParamGrid は1つのハイパーパラメータの対数グリッドです。
// 値は MinVal, MinVal·LogStep, MinVal·LogStep², ... のうち MaxVal 以下のものです。
// MinVal == MaxVal のグリッドは固定値として扱われ、探索されません。
type ParamGrid struct {
	Kind    ParamKind
	MinVal  float64
	MaxVal  float64
	LogStep float64
}

// NewParamGrid creates a validated grid.
func NewParamGrid(kind ParamKind, minVal, maxVal, logStep float64) (ParamGrid, error) {
	g := ParamGrid{Kind: kind, MinVal: minVal, MaxVal: maxVal, LogStep: logStep}
	if err := g.Validate(); err != nil {
		return ParamGrid{}, err
	}
	return g, nil
}

// FixedGrid returns a grid that pins kind to value.
func FixedGrid(kind ParamKind, value float64) ParamGrid {
	return ParamGrid{Kind: kind, MinVal: value, MaxVal: value, LogStep: 2}
}

// DefaultGrid は kind ごとの標準の探索範囲を返します。
func DefaultGrid(kind ParamKind) (ParamGrid, error) {
	switch kind {
	case ParamC:
		return ParamGrid{Kind: kind, MinVal: 0.1, MaxVal: 500, LogStep: 5}, nil
	case ParamGamma:
		return ParamGrid{Kind: kind, MinVal: 1e-5, MaxVal: 0.6, LogStep: 15}, nil
	case ParamP:
		return ParamGrid{Kind: kind, MinVal: 0.01, MaxVal: 100, LogStep: 7}, nil
	case ParamNu:
		return ParamGrid{Kind: kind, MinVal: 0.01, MaxVal: 0.2, LogStep: 3}, nil
	case ParamCoef:
		return ParamGrid{Kind: kind, MinVal: 0.1, MaxVal: 300, LogStep: 14}, nil
	case ParamDegree:
		return ParamGrid{Kind: kind, MinVal: 0.01, MaxVal: 4, LogStep: 7}, nil
	}
	return ParamGrid{}, errors.NewValidationError("paramKind", "unknown hyperparameter", int(kind))
}

// IsFixed reports whether the grid contains exactly one value.
func (g ParamGrid) IsFixed() bool { return g.MinVal == g.MaxVal }

// Validate checks the grid invariants.
func (g ParamGrid) Validate() error {
	if !g.Kind.valid() {
		return errors.NewValidationError("paramKind", "unknown hyperparameter", int(g.Kind))
	}
	name := g.Kind.String() + "Grid"
	for _, v := range []float64{g.MinVal, g.MaxVal, g.LogStep} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError(name, "bounds and step must be finite", v)
		}
	}
	if g.MinVal > g.MaxVal {
		return errors.NewValidationError(name, "minVal must not exceed maxVal", g.MinVal)
	}
	if g.LogStep <= 1 {
		return errors.NewValidationError(name, "logStep must be greater than 1", g.LogStep)
	}
	if !g.IsFixed() && g.MinVal <= 0 {
		return errors.NewValidationError(name, "minVal must be positive for a searched grid", g.MinVal)
	}
	return nil
}

// Values は昇順のグリッド値を返します。
func (g ParamGrid) Values() []float64 {
	if g.IsFixed() {
		return []float64{g.MinVal}
	}
	// 累積誤差で端点を取りこぼさないよう相対許容誤差を持たせる
	limit := g.MaxVal * (1 + 1e-12)
	var values []float64
	for i := 0; ; i++ {
		v := g.MinVal * math.Pow(g.LogStep, float64(i))
		if v > limit {
			break
		}
		values = append(values, v)
	}
	return values
}
