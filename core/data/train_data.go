// Package data は学習データ (samples, layout, labels) を不変な束として保持する
// TrainData を提供します。
package data

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/svmkit/core/matrix"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// Layout はサンプル行列の向きです。
type Layout int

const (
	// RowSample は1行が1サンプルであることを示します。
	RowSample Layout = iota
	// ColSample は1列が1サンプルであることを示します。
	ColSample
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case RowSample:
		return "ROW_SAMPLE"
	case ColSample:
		return "COL_SAMPLE"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// TrainData は検証済みの学習データです。内部は行レイアウトのコピーとして保持され、
// どのアクセサも内部ストレージへの書き込み手段を公開しません。
type TrainData struct {
	samples *matrix.Matrix // 常に RowSample
	labels  []float64
	layout  Layout
}

// New は samples, layout, labels から TrainData を作成します。
//
// labels は行ベクトルまたは列ベクトルでなければならず、layout が示すサンプル数と
// 要素数が一致しなければなりません。NaN/Inf を含む samples、空の samples、
// 未知の layout はすべて ErrInvalidArgument です。
func New(samples *matrix.Matrix, layout Layout, labels *matrix.Matrix) (*TrainData, error) {
	if samples == nil || labels == nil {
		return nil, errors.NewValueError("TrainData", "samples and labels are required")
	}
	if layout != RowSample && layout != ColSample {
		return nil, errors.NewValidationError("layout", "must be ROW_SAMPLE or COL_SAMPLE", int(layout))
	}
	if samples.IsEmpty() {
		return nil, errors.Wrap(errors.ErrEmptyData, "TrainData")
	}

	rows := samples
	if layout == ColSample {
		rows = samples.T()
	}
	n, _ := rows.Dims()

	lr, lc := labels.Dims()
	if lr != 1 && lc != 1 {
		return nil, errors.NewValueError("TrainData", fmt.Sprintf("labels must be a row or column vector, got %dx%d", lr, lc))
	}
	var y []float64
	if lr == 1 {
		y = labels.Row(0)
	} else {
		y = labels.Col(0)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("TrainData", n, len(y), 0)
	}

	r, c := rows.Dims()
	if err := errors.CheckMatrix("TrainData", rows.Dense(), r, c); err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("TrainData.labels", y, 0); err != nil {
		return nil, err
	}

	if layout == RowSample {
		rows = rows.Clone()
	}
	return &TrainData{samples: rows, labels: y, layout: layout}, nil
}

// NewFromRows は行スライスとラベルスライスから Float64 の TrainData を作成します。
func NewFromRows(samples [][]float64, labels []float64) (*TrainData, error) {
	x, err := matrix.NewFromRows(samples, matrix.Float64)
	if err != nil {
		return nil, err
	}
	y, err := matrix.NewFromRows([][]float64{labels}, matrix.Float64)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		y = matrix.Empty(matrix.Float64)
	}
	return New(x, RowSample, y)
}

// SampleCount returns the number of samples.
func (d *TrainData) SampleCount() int {
	n, _ := d.samples.Dims()
	return n
}

// VarCount returns the number of features per sample.
func (d *TrainData) VarCount() int {
	_, c := d.samples.Dims()
	return c
}

// Layout returns the layout the data was constructed with.
func (d *TrainData) Layout() Layout { return d.layout }

// ElemType returns the element type of the samples.
func (d *TrainData) ElemType() matrix.ElemType { return d.samples.Type() }

// Samples returns a row-layout copy of the samples.
func (d *TrainData) Samples() *matrix.Matrix { return d.samples.Clone() }

// SampleMatrix returns a read-only gonum view of the row-layout samples.
func (d *TrainData) SampleMatrix() mat.Matrix { return d.samples.Dense() }

// Sample returns a copy of sample i.
func (d *TrainData) Sample(i int) []float64 { return d.samples.Row(i) }

// Labels returns a copy of the labels.
func (d *TrainData) Labels() []float64 {
	out := make([]float64, len(d.labels))
	copy(out, d.labels)
	return out
}

// Label returns the label of sample i.
func (d *TrainData) Label(i int) float64 { return d.labels[i] }

// Subset は指定されたインデックスのサンプルだけからなる新しい TrainData を返します。
// インデックスの順序は保持されます。
func (d *TrainData) Subset(indices []int) (*TrainData, error) {
	if len(indices) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "TrainData.Subset")
	}
	n := d.SampleCount()
	x, err := matrix.New(len(indices), d.VarCount(), d.samples.Type())
	if err != nil {
		return nil, err
	}
	y := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.NewValueError("TrainData.Subset", fmt.Sprintf("index %d out of range [0, %d)", idx, n))
		}
		for j, v := range d.samples.Row(idx) {
			// 元データと同じ要素型なので量子化エラーは起こらない
			_ = x.Set(i, j, v)
		}
		y[i] = d.labels[idx]
	}
	return &TrainData{samples: x, labels: y, layout: RowSample}, nil
}

// ClassLabels は重複を除いたラベルを昇順で返します。
func (d *TrainData) ClassLabels() []float64 {
	seen := make(map[float64]struct{}, len(d.labels))
	var out []float64
	for _, l := range d.labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Float64s(out)
	return out
}

// ClassIndices はクラスごとのサンプルインデックスを ClassLabels の順で返します。
// 各クラス内のインデックスは昇順です。
func (d *TrainData) ClassIndices() [][]int {
	classes := d.ClassLabels()
	pos := make(map[float64]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	out := make([][]int, len(classes))
	for i, l := range d.labels {
		k := pos[l]
		out[k] = append(out[k], i)
	}
	return out
}

// IsIntegralLabels reports whether every label is a whole number.
func (d *TrainData) IsIntegralLabels() bool {
	for _, l := range d.labels {
		if l != math.Trunc(l) {
			return false
		}
	}
	return true
}
