package svm

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

// fakeSolver は Solver のテスト用実装です。既定では常に収束し、
// 全行に fit.Params.C を予測します。
type fakeSolver struct {
	mu        sync.Mutex
	caps      Capabilities
	fitFn     func(x mat.Matrix, y []float64, p Params) (*FitResult, error)
	predictFn func(fit *FitResult, x mat.Matrix, raw bool) ([]float64, error)
	fitted    []Params
}

func (f *fakeSolver) Fit(x mat.Matrix, y []float64, p Params) (*FitResult, error) {
	f.mu.Lock()
	f.fitted = append(f.fitted, p.Clone())
	f.mu.Unlock()
	if f.fitFn != nil {
		return f.fitFn(x, y, p)
	}
	return convergedFit(x, p), nil
}

func (f *fakeSolver) Predict(fit *FitResult, x mat.Matrix, raw bool) ([]float64, error) {
	if f.predictFn != nil {
		return f.predictFn(fit, x, raw)
	}
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = fit.Params.C
	}
	return out, nil
}

func (f *fakeSolver) Capabilities() Capabilities { return f.caps }

func (f *fakeSolver) fitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fitted)
}

func (f *fakeSolver) lastFit() Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fitted[len(f.fitted)-1]
}

func convergedFit(x mat.Matrix, p Params) *FitResult {
	_, d := x.Dims()
	sv := mat.NewDense(1, d, nil)
	return &FitResult{
		Converged:                  true,
		Params:                     p.Clone(),
		VarCount:                   d,
		SupportVectors:             sv,
		UncompressedSupportVectors: mat.DenseCopyOf(sv),
		Decisions:                  []DecisionFunction{{Alpha: []float64{1}, SVIndex: []int{0}}},
	}
}
