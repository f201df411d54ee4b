package svm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// chi2Epsilon は CHI2 カーネルで分母 x_i+y_i を無視する閾値です。
const chi2Epsilon = 1.1920928955078125e-07

// kernel は Params から組み立てた類似度関数です。
type kernel struct {
	typ    KernelType
	gamma  float64
	coef0  float64
	degree float64
}

func newKernel(p Params) kernel {
	return kernel{typ: p.KernelType, gamma: p.Gamma, coef0: p.Coef0, degree: p.Degree}
}

// eval computes K(x, y). x and y must have equal length.
func (k kernel) eval(x, y []float64) float64 {
	switch k.typ {
	case Linear:
		return floats.Dot(x, y)
	case Poly:
		return math.Pow(k.gamma*floats.Dot(x, y)+k.coef0, k.degree)
	case RBF:
		d := floats.Distance(x, y, 2)
		return math.Exp(-k.gamma * d * d)
	case Sigmoid:
		return math.Tanh(k.gamma*floats.Dot(x, y) + k.coef0)
	case Chi2:
		var s float64
		for i := range x {
			den := x[i] + y[i]
			if den > chi2Epsilon {
				d := x[i] - y[i]
				s += d * d / den
			}
		}
		return math.Exp(-k.gamma * s)
	case Inter:
		var s float64
		for i := range x {
			s += math.Min(x[i], y[i])
		}
		return s
	}
	return math.NaN()
}

// kernelCache は学習サンプル同士のカーネル行を遅延計算して保持します。
// 保持する行数が上限を超えると古い行から破棄します。
type kernelCache struct {
	k       kernel
	x       [][]float64
	rows    map[int][]float64
	order   []int
	maxRows int
}

// kernelCacheBytes はキャッシュ全体の目安サイズです。
const kernelCacheBytes = 256 << 20

func newKernelCache(k kernel, x [][]float64) *kernelCache {
	maxRows := len(x)
	if n := len(x); n > 0 && n*n*8 > kernelCacheBytes {
		maxRows = kernelCacheBytes / (8 * n)
		if maxRows < 2 {
			maxRows = 2
		}
	}
	return &kernelCache{k: k, x: x, rows: make(map[int][]float64), maxRows: maxRows}
}

// row returns K(x_i, x_j) for every training sample j.
func (c *kernelCache) row(i int) []float64 {
	if r, ok := c.rows[i]; ok {
		return r
	}
	r := make([]float64, len(c.x))
	for j := range c.x {
		r[j] = c.k.eval(c.x[i], c.x[j])
	}
	for len(c.order) > 0 && len(c.order) >= c.maxRows {
		delete(c.rows, c.order[0])
		c.order = c.order[1:]
	}
	c.rows[i] = r
	c.order = append(c.order, i)
	return r
}

func (c *kernelCache) diag(i int) float64 {
	return c.k.eval(c.x[i], c.x[i])
}
