// Package matrix は要素型を固定した2次元数値コンテナ Matrix を提供します。
//
// 値は gonum の mat.Dense に float64 として保持されますが、書き込み時に必ず
// 要素型へ量子化されます。Float32 は float32 精度に丸められ、Int32 は
// 整数でない値や範囲外の値を ErrInvalidArgument として拒否します。
// 暗黙の型拡張は行いません。
package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// ElemType は Matrix の要素型です。
type ElemType int

const (
	// Float64 は倍精度浮動小数点です。
	Float64 ElemType = iota
	// Float32 は単精度浮動小数点です。
	Float32
	// Int32 は32bit整数です。
	Int32
)

// String returns the type name.
func (t ElemType) String() string {
	switch t {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("ElemType(%d)", int(t))
	}
}

func (t ElemType) valid() bool {
	return t == Float64 || t == Float32 || t == Int32
}

// Matrix は rows × cols の数値行列です。ゼロ値は使用せず New 系関数で作成してください。
type Matrix struct {
	typ        ElemType
	rows, cols int
	data       *mat.Dense // rows == 0 || cols == 0 のとき nil
}

// New はゼロで初期化された rows × cols の行列を作成します。
func New(rows, cols int, typ ElemType) (*Matrix, error) {
	if !typ.valid() {
		return nil, errors.NewValueError("matrix.New", fmt.Sprintf("unknown element type %d", int(typ)))
	}
	if rows < 0 || cols < 0 {
		return nil, errors.NewValueError("matrix.New", fmt.Sprintf("negative shape %dx%d", rows, cols))
	}
	m := &Matrix{typ: typ, rows: rows, cols: cols}
	if rows > 0 && cols > 0 {
		m.data = mat.NewDense(rows, cols, nil)
	}
	return m, nil
}

// Empty は 0×0 の行列を返します。
func Empty(typ ElemType) *Matrix {
	if !typ.valid() {
		typ = Float64
	}
	return &Matrix{typ: typ}
}

// NewFromRows は行スライスから行列を作成します。各値は typ に量子化されます。
// 行の長さが揃っていない場合は ErrInvalidArgument を返します。
func NewFromRows(rows [][]float64, typ ElemType) (*Matrix, error) {
	if len(rows) == 0 {
		return New(0, 0, typ)
	}
	cols := len(rows[0])
	m, err := New(len(rows), cols, typ)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.NewDimensionError("matrix.NewFromRows", cols, len(row), 1)
		}
		for j, v := range row {
			if err := m.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// NewFromMatrix は任意の gonum 行列をコピーして Matrix を作成します。
func NewFromMatrix(src mat.Matrix, typ ElemType) (*Matrix, error) {
	r, c := src.Dims()
	m, err := New(r, c, typ)
	if err != nil {
		return nil, err
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if err := m.Set(i, j, src.At(i, j)); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Dims returns (rows, cols).
func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }

// Type returns the element type.
func (m *Matrix) Type() ElemType { return m.typ }

// IsEmpty reports whether the matrix has no cells.
func (m *Matrix) IsEmpty() bool { return m.rows == 0 || m.cols == 0 }

// At returns the value at (i, j). It panics on out-of-range indices like mat.Dense.
func (m *Matrix) At(i, j int) float64 {
	if m.data == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return m.data.At(i, j)
}

// Set は (i, j) に v を要素型へ量子化して書き込みます。
func (m *Matrix) Set(i, j int, v float64) error {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return errors.NewValueError("matrix.Set", fmt.Sprintf("index (%d, %d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
	q, err := quantize(m.typ, v)
	if err != nil {
		return err
	}
	m.data.Set(i, j, q)
	return nil
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.cols)
	if m.data != nil {
		mat.Row(out, i, m.data)
	}
	return out
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	out := make([]float64, m.rows)
	if m.data != nil {
		mat.Col(out, j, m.data)
	}
	return out
}

// ToRows returns the contents as a freshly allocated slice of rows.
func (m *Matrix) ToRows() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{typ: m.typ, rows: m.rows, cols: m.cols}
	if m.data != nil {
		c.data = mat.DenseCopyOf(m.data)
	}
	return c
}

// Equal は要素型・形状・全要素が一致する場合に true を返します。
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.typ != other.typ || m.rows != other.rows || m.cols != other.cols {
		return false
	}
	if m.IsEmpty() {
		return true
	}
	return mat.Equal(m.data, other.data)
}

// T は転置したコピーを返します。
func (m *Matrix) T() *Matrix {
	t := &Matrix{typ: m.typ, rows: m.cols, cols: m.rows}
	if m.data != nil {
		t.data = mat.DenseCopyOf(m.data.T())
	}
	return t
}

// Dense は読み取り専用の gonum ビューを返します。
// 返り値を通して内部ストレージを書き換えることはできません。
func (m *Matrix) Dense() mat.Matrix {
	return denseView{d: m.data, r: m.rows, c: m.cols}
}

// String renders the matrix with gonum's formatter.
func (m *Matrix) String() string {
	if m.IsEmpty() {
		return fmt.Sprintf("Matrix[%s](%dx%d)", m.typ, m.rows, m.cols)
	}
	return fmt.Sprintf("Matrix[%s]\n%v", m.typ, mat.Formatted(m.data, mat.Squeeze()))
}

type denseView struct {
	d    *mat.Dense
	r, c int
}

func (v denseView) Dims() (int, int) { return v.r, v.c }

func (v denseView) At(i, j int) float64 {
	if v.d == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return v.d.At(i, j)
}

func (v denseView) T() mat.Matrix { return mat.Transpose{Matrix: v} }

func quantize(typ ElemType, v float64) (float64, error) {
	switch typ {
	case Float32:
		return float64(float32(v)), nil
	case Int32:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return 0, errors.NewValidationError("value", "must be an integer in int32 range", v)
		}
		return v, nil
	default:
		return v, nil
	}
}
