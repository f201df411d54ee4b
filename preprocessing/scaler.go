// Package preprocessing は SVM に渡す前の特徴量スケーリングを提供します。
// RBF などの距離ベースのカーネルは特徴量のスケールに敏感なため、
// 学習データで Fit したスケーラーを学習・予測の両方に適用します。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/svmkit/core/data"
	"github.com/YuminosukeSato/svmkit/core/matrix"
	"github.com/YuminosukeSato/svmkit/core/model"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// 分散がこれ以下の特徴量はスケーリングしない
const minScale = 1e-8

// affine は列ごとの (x - shift) / scale 変換です。
type affine struct {
	state *model.StateManager
	name  string
	shift []float64
	scale []float64
	// offset は変換後に加える定数です（MinMaxScaler の範囲下限）。
	offset float64
}

func (a *affine) apply(method string, x *matrix.Matrix, inverse bool) (*matrix.Matrix, error) {
	if x == nil {
		return nil, errors.NewValueError(a.name+"."+method, "matrix must not be nil")
	}
	if err := a.state.RequireTrained(method); err != nil {
		return nil, err
	}
	r, c := x.Dims()
	if err := a.state.RequireVarCount(method, c); err != nil {
		return nil, err
	}
	if r == 0 {
		return matrix.Empty(matrix.Float64), nil
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if inverse {
				out.Set(i, j, (v-a.offset)*a.scale[j]+a.shift[j])
			} else {
				out.Set(i, j, (v-a.shift[j])/a.scale[j]+a.offset)
			}
		}
	}
	return matrix.NewFromMatrix(out, matrix.Float64)
}

func (a *affine) applyData(d *data.TrainData) (*data.TrainData, error) {
	if d == nil {
		return nil, errors.NewValueError(a.name+".TransformData", "training data must not be nil")
	}
	samples, err := matrix.NewFromMatrix(d.SampleMatrix(), matrix.Float64)
	if err != nil {
		return nil, err
	}
	scaled, err := a.apply("TransformData", samples, false)
	if err != nil {
		return nil, err
	}
	return data.NewFromRows(scaled.ToRows(), d.Labels())
}

// columns はサンプル行列を列ごとに取り出します。
func columns(method string, x *matrix.Matrix) ([][]float64, error) {
	if x == nil {
		return nil, errors.NewValueError(method, "matrix must not be nil")
	}
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(method, "empty data", errors.ErrEmptyData)
	}
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = x.Col(j)
	}
	return cols, nil
}

// StandardScaler は各特徴量を平均0、標準偏差1に変換します。
type StandardScaler struct {
	affine
	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a scaler. Both flags are true for the usual
// standardization.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		affine:   affine{state: model.NewStateManager("StandardScaler"), name: "StandardScaler"},
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// Fit は列ごとの平均と母標準偏差を計算します。
func (s *StandardScaler) Fit(x *matrix.Matrix) error {
	cols, err := columns("StandardScaler.Fit", x)
	if err != nil {
		return err
	}
	shift := make([]float64, len(cols))
	scale := make([]float64, len(cols))
	for j, col := range cols {
		mean, std := stat.PopMeanStdDev(col, nil)
		scale[j] = 1
		if s.WithMean {
			shift[j] = mean
		}
		if s.WithStd && std > minScale {
			scale[j] = std
		}
	}
	s.shift, s.scale = shift, scale
	s.state.SetTrained(len(cols), len(cols[0]))
	return nil
}

// Transform standardizes x with the fitted statistics.
func (s *StandardScaler) Transform(x *matrix.Matrix) (*matrix.Matrix, error) {
	return s.apply("Transform", x, false)
}

// FitTransform fits on x and transforms it.
func (s *StandardScaler) FitTransform(x *matrix.Matrix) (*matrix.Matrix, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// InverseTransform は標準化を元のスケールに戻します。
func (s *StandardScaler) InverseTransform(x *matrix.Matrix) (*matrix.Matrix, error) {
	return s.apply("InverseTransform", x, true)
}

// TransformData はラベルを保ったままサンプルを変換した TrainData を返します。
func (s *StandardScaler) TransformData(d *data.TrainData) (*data.TrainData, error) {
	return s.applyData(d)
}

// Mean returns the fitted shift per feature.
func (s *StandardScaler) Mean() []float64 { return append([]float64(nil), s.shift...) }

// Scale returns the fitted divisor per feature.
func (s *StandardScaler) Scale() []float64 { return append([]float64(nil), s.scale...) }

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool { return s.state.IsTrained() }

func (s *StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
}

// MinMaxScaler は各特徴量を FeatureRange に線形に写します。
type MinMaxScaler struct {
	affine
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a scaler mapping each feature onto featureRange.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		affine:       affine{state: model.NewStateManager("MinMaxScaler"), name: "MinMaxScaler"},
		FeatureRange: featureRange,
	}
}

// Fit は列ごとの最小値と最大値を計算します。
func (m *MinMaxScaler) Fit(x *matrix.Matrix) error {
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	if !(lo < hi) {
		return errors.NewValidationError("featureRange", "minimum must be less than maximum", m.FeatureRange)
	}
	cols, err := columns("MinMaxScaler.Fit", x)
	if err != nil {
		return err
	}
	shift := make([]float64, len(cols))
	scale := make([]float64, len(cols))
	for j, col := range cols {
		minV, maxV := floats.Min(col), floats.Max(col)
		shift[j] = minV
		scale[j] = 1
		if maxV-minV > minScale {
			scale[j] = (maxV - minV) / (hi - lo)
		}
	}
	m.shift, m.scale, m.offset = shift, scale, lo
	m.state.SetTrained(len(cols), len(cols[0]))
	return nil
}

// Transform maps x into FeatureRange using the fitted bounds.
func (m *MinMaxScaler) Transform(x *matrix.Matrix) (*matrix.Matrix, error) {
	return m.apply("Transform", x, false)
}

// FitTransform fits on x and transforms it.
func (m *MinMaxScaler) FitTransform(x *matrix.Matrix) (*matrix.Matrix, error) {
	if err := m.Fit(x); err != nil {
		return nil, err
	}
	return m.Transform(x)
}

// InverseTransform maps scaled values back to the original range.
func (m *MinMaxScaler) InverseTransform(x *matrix.Matrix) (*matrix.Matrix, error) {
	return m.apply("InverseTransform", x, true)
}

// TransformData はラベルを保ったままサンプルを変換した TrainData を返します。
func (m *MinMaxScaler) TransformData(d *data.TrainData) (*data.TrainData, error) {
	return m.applyData(d)
}

// IsFitted reports whether Fit has succeeded.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsTrained() }

func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=(%g, %g))", m.FeatureRange[0], m.FeatureRange[1])
}
