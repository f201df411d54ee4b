package svm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/svmkit/core/parallel"
	"github.com/YuminosukeSato/svmkit/metrics"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// Capabilities はソルバーが提供できる追加機能です。
type Capabilities struct {
	// UncompressedSupportVectors は圧縮前のサポートベクターを保持できるかどうかです。
	UncompressedSupportVectors bool
}

// Solver は双対最適化を行う外部コラボレーターです。
// SVM と TrainAuto はこのインターフェースだけを通してソルバーを使います。
type Solver interface {
	// Fit は x（行がサンプル）と y から決定関数を学習します。
	// 収束しなかった場合もエラーではなく Converged=false の結果を返します。
	Fit(x mat.Matrix, y []float64, params Params) (*FitResult, error)
	// Predict は x の各行に対する予測値を行順に返します。
	Predict(fit *FitResult, x mat.Matrix, raw bool) ([]float64, error)
	Capabilities() Capabilities
}

// DecisionFunction は1つの決定関数 f(x) = Σ α_k K(sv_k, x) - ρ です。
type DecisionFunction struct {
	// Alpha は SVIndex の各サポートベクターに対する係数（符号込み）です。
	Alpha []float64
	// SVIndex は FitResult.SupportVectors の行番号です。
	SVIndex []int
	Rho     float64
	// Positive と Negative は Classes の添字です（分類のみ）。f(x) > 0 なら Positive に投票します。
	Positive int
	Negative int
}

// FitResult は学習済みの決定関数一式です。
type FitResult struct {
	Converged  bool
	Iterations int
	Params     Params
	VarCount   int
	// Classes は昇順のクラスラベルです（C_SVC / NU_SVC のみ）。
	Classes []float64
	// SupportVectors は Decisions が参照する行です。LINEAR カーネルでは決定関数ごとの重みベクトルです。
	SupportVectors *mat.Dense
	// UncompressedSupportVectors は圧縮前のサポートベクターです。
	UncompressedSupportVectors *mat.Dense
	Decisions                  []DecisionFunction
	// TrainError は学習データに対する誤差（分類は誤分類率、回帰は MSE）です。
	TrainError float64
}

// SMOSolver は libsvm と同じ second-order 作業集合選択の SMO による Solver です。
// 多クラス分類は one-vs-one で、クラスごとの重みで C をスケーリングします。
type SMOSolver struct {
	// PredictThreshold を超える行数の予測は並列化されます。
	PredictThreshold int
}

// NewSMOSolver creates the default solver.
func NewSMOSolver() *SMOSolver {
	return &SMOSolver{PredictThreshold: 512}
}

// Capabilities implements Solver.
func (s *SMOSolver) Capabilities() Capabilities {
	return Capabilities{UncompressedSupportVectors: true}
}

// subResult は1つの部分問題の解を学習サンプルの添字で表したものです。
type subResult struct {
	samples []int
	alpha   []float64
	rho     float64
	pos     int
	neg     int
	sol     smoSolution
}

// Fit implements Solver.
func (s *SMOSolver) Fit(x mat.Matrix, y []float64, params Params) (res *FitResult, err error) {
	defer errors.Recover(&err, "SMOSolver.Fit")

	if x == nil {
		return nil, errors.NewValueError("SMOSolver.Fit", "samples must not be nil")
	}
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "SMOSolver.Fit")
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("SMOSolver.Fit", n, len(y), 0)
	}
	if err := errors.CheckMatrix("SMOSolver.Fit", x, n, d); err != nil {
		return nil, err
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	cache := newKernelCache(newKernel(params), rows)

	res = &FitResult{Params: params.Clone(), VarCount: d, Converged: true}
	var subs []subResult
	switch params.SVMType {
	case CSVC, NuSVC:
		classes, groups := groupByClass(y)
		if err := params.Validate(len(classes)); err != nil {
			return nil, err
		}
		res.Classes = classes
		subs = s.fitOneVsOne(cache, classes, groups, params)
	case OneClass:
		if err := params.Validate(0); err != nil {
			return nil, err
		}
		subs = []subResult{solveOneClass(cache, n, params)}
	case EpsSVR, NuSVR:
		if err := params.Validate(0); err != nil {
			return nil, err
		}
		subs = []subResult{solveRegression(cache, y, params)}
	default:
		return nil, errors.NewValidationError("svmType", "unknown SVM type", int(params.SVMType))
	}

	for _, sub := range subs {
		res.Iterations += sub.sol.iterations
		if !sub.sol.converged || !finite(sub.alpha) || math.IsNaN(sub.rho) || math.IsInf(sub.rho, 0) {
			res.Converged = false
		}
	}
	if !res.Converged {
		return res, nil
	}

	assemble(res, rows, subs)
	pred, err := s.Predict(res, x, false)
	if err != nil {
		return nil, err
	}
	res.TrainError = trainError(params.SVMType, y, pred)
	return res, nil
}

// fitOneVsOne は i<j の全クラスペアについて2クラス問題を解きます。
func (s *SMOSolver) fitOneVsOne(cache *kernelCache, classes []float64, groups [][]int, params Params) []subResult {
	if len(classes) < 2 {
		return nil
	}
	weighted := make([]float64, len(classes))
	for i := range weighted {
		weighted[i] = params.C
		if i < len(params.ClassWeights) {
			weighted[i] *= params.ClassWeights[i]
		}
	}

	var subs []subResult
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			idx := make([]int, 0, len(groups[i])+len(groups[j]))
			idx = append(idx, groups[i]...)
			idx = append(idx, groups[j]...)
			sign := make([]int8, len(idx))
			for k := range sign {
				sign[k] = -1
				if k < len(groups[i]) {
					sign[k] = 1
				}
			}
			var sub subResult
			if params.SVMType == NuSVC {
				sub = solveNuSVC(cache, idx, sign, params)
			} else {
				sub = solveCSVC(cache, idx, sign, params, weighted[i], weighted[j])
			}
			sub.pos, sub.neg = i, j
			subs = append(subs, sub)
		}
	}
	return subs
}

func solveCSVC(cache *kernelCache, idx []int, sign []int8, params Params, cp, cn float64) subResult {
	l := len(idx)
	p := make([]float64, l)
	for i := range p {
		p[i] = -1
	}
	sol := solveSMO(&smoProblem{
		q: newSignedQ(cache, sign, idx), p: p, y: sign, alpha: make([]float64, l),
		cp: cp, cn: cn, eps: params.TermCrit.Epsilon, maxIter: params.TermCrit.MaxIter,
	})
	alpha := make([]float64, l)
	for i := range alpha {
		alpha[i] = sol.alpha[i] * float64(sign[i])
	}
	return subResult{samples: idx, alpha: alpha, rho: sol.rho, sol: sol}
}

func solveNuSVC(cache *kernelCache, idx []int, sign []int8, params Params) subResult {
	l := len(idx)
	var nPos, nNeg int
	for _, sg := range sign {
		if sg > 0 {
			nPos++
		} else {
			nNeg++
		}
	}
	// ν が大きすぎると制約を満たす α が存在しない
	if params.Nu*float64(l)/2 > float64(min(nPos, nNeg)) {
		return subResult{samples: idx, alpha: make([]float64, l), rho: math.NaN()}
	}

	alpha := make([]float64, l)
	sumPos := params.Nu * float64(l) / 2
	sumNeg := sumPos
	for i := range alpha {
		if sign[i] > 0 {
			alpha[i] = math.Min(1, sumPos)
			sumPos -= alpha[i]
		} else {
			alpha[i] = math.Min(1, sumNeg)
			sumNeg -= alpha[i]
		}
	}
	sol := solveSMO(&smoProblem{
		q: newSignedQ(cache, sign, idx), p: make([]float64, l), y: sign, alpha: alpha,
		cp: 1, cn: 1, eps: params.TermCrit.Epsilon, maxIter: params.TermCrit.MaxIter, nu: true,
	})
	out := make([]float64, l)
	for i := range out {
		out[i] = float64(sign[i]) * sol.alpha[i] / sol.r
	}
	return subResult{samples: idx, alpha: out, rho: sol.rho / sol.r, sol: sol}
}

func solveOneClass(cache *kernelCache, l int, params Params) subResult {
	idx := make([]int, l)
	sign := make([]int8, l)
	alpha := make([]float64, l)
	total := params.Nu * float64(l)
	nFull := int(total)
	for i := range idx {
		idx[i] = i
		sign[i] = 1
		if i < nFull {
			alpha[i] = 1
		}
	}
	if nFull < l {
		alpha[nFull] = total - float64(nFull)
	}
	sol := solveSMO(&smoProblem{
		q: newSignedQ(cache, sign, idx), p: make([]float64, l), y: sign, alpha: alpha,
		cp: 1, cn: 1, eps: params.TermCrit.Epsilon, maxIter: params.TermCrit.MaxIter,
	})
	return subResult{samples: idx, alpha: sol.alpha, rho: sol.rho, sol: sol}
}

// solveRegression は ε-SVR / ν-SVR を 2l 変数の問題として解きます。
func solveRegression(cache *kernelCache, y []float64, params Params) subResult {
	l := len(y)
	idx := make([]int, 2*l)
	sign := make([]int8, 2*l)
	p := make([]float64, 2*l)
	alpha2 := make([]float64, 2*l)
	sum := params.C * params.Nu * float64(l) / 2
	for i := 0; i < l; i++ {
		idx[i], idx[i+l] = i, i
		sign[i], sign[i+l] = 1, -1
		if params.SVMType == NuSVR {
			alpha2[i] = math.Min(sum, params.C)
			alpha2[i+l] = alpha2[i]
			sum -= alpha2[i]
			p[i], p[i+l] = -y[i], y[i]
		} else {
			p[i], p[i+l] = params.P-y[i], params.P+y[i]
		}
	}
	sol := solveSMO(&smoProblem{
		q: newSignedQ(cache, sign, idx), p: p, y: sign, alpha: alpha2,
		cp: params.C, cn: params.C, eps: params.TermCrit.Epsilon, maxIter: params.TermCrit.MaxIter,
		nu: params.SVMType == NuSVR,
	})
	samples := make([]int, l)
	alpha := make([]float64, l)
	for i := 0; i < l; i++ {
		samples[i] = i
		alpha[i] = sol.alpha[i] - sol.alpha[i+l]
	}
	return subResult{samples: samples, alpha: alpha, rho: sol.rho, sol: sol}
}

// assemble はゼロでない係数を持つサンプルをサポートベクターとして集め、
// LINEAR カーネルでは決定関数ごとに1本の重みベクトルへ圧縮します。
func assemble(res *FitResult, rows [][]float64, subs []subResult) {
	used := make(map[int]struct{})
	for _, sub := range subs {
		for k, a := range sub.alpha {
			if a != 0 {
				used[sub.samples[k]] = struct{}{}
			}
		}
	}
	svSamples := make([]int, 0, len(used))
	for i := range used {
		svSamples = append(svSamples, i)
	}
	sort.Ints(svSamples)
	rowOf := make(map[int]int, len(svSamples))
	for r, i := range svSamples {
		rowOf[i] = r
	}

	d := res.VarCount
	if len(svSamples) > 0 {
		res.UncompressedSupportVectors = mat.NewDense(len(svSamples), d, nil)
		for r, i := range svSamples {
			res.UncompressedSupportVectors.SetRow(r, rows[i])
		}
	}

	res.Decisions = make([]DecisionFunction, len(subs))
	for f, sub := range subs {
		df := DecisionFunction{Rho: sub.rho, Positive: sub.pos, Negative: sub.neg}
		for k, a := range sub.alpha {
			if a != 0 {
				df.Alpha = append(df.Alpha, a)
				df.SVIndex = append(df.SVIndex, rowOf[sub.samples[k]])
			}
		}
		res.Decisions[f] = df
	}

	if res.Params.KernelType != Linear || len(subs) == 0 {
		if res.UncompressedSupportVectors != nil {
			res.SupportVectors = mat.DenseCopyOf(res.UncompressedSupportVectors)
		}
		return
	}

	res.SupportVectors = mat.NewDense(len(subs), d, nil)
	w := make([]float64, d)
	for f := range res.Decisions {
		df := &res.Decisions[f]
		for i := range w {
			w[i] = 0
		}
		for k, a := range df.Alpha {
			floats.AddScaled(w, a, rows[svSamples[df.SVIndex[k]]])
		}
		res.SupportVectors.SetRow(f, w)
		df.Alpha = []float64{1}
		df.SVIndex = []int{f}
	}
}

// Predict implements Solver.
func (s *SMOSolver) Predict(fit *FitResult, x mat.Matrix, raw bool) ([]float64, error) {
	if fit == nil {
		return nil, errors.NewValueError("SMOSolver.Predict", "fit result must not be nil")
	}
	if x == nil {
		return nil, errors.NewValueError("SMOSolver.Predict", "samples must not be nil")
	}
	n, d := x.Dims()
	if d != fit.VarCount {
		return nil, errors.NewDimensionError("SMOSolver.Predict", fit.VarCount, d, 1)
	}

	k := newKernel(fit.Params)
	out := make([]float64, n)
	parallel.ParallelizeWithThreshold(n, s.PredictThreshold, func(start, end int) {
		sample := make([]float64, d)
		for i := start; i < end; i++ {
			mat.Row(sample, i, x)
			out[i] = predictOne(fit, k, sample, raw)
		}
	})
	return out, nil
}

func (df *DecisionFunction) value(fit *FitResult, k kernel, sample []float64) float64 {
	sum := -df.Rho
	for i, a := range df.Alpha {
		sum += a * k.eval(fit.SupportVectors.RawRowView(df.SVIndex[i]), sample)
	}
	return sum
}

func predictOne(fit *FitResult, k kernel, sample []float64, raw bool) float64 {
	switch fit.Params.SVMType {
	case OneClass:
		v := fit.Decisions[0].value(fit, k, sample)
		if raw {
			return v
		}
		if v > 0 {
			return 1
		}
		return 0
	case EpsSVR, NuSVR:
		return fit.Decisions[0].value(fit, k, sample)
	}

	if len(fit.Classes) == 1 {
		return fit.Classes[0]
	}
	if raw && len(fit.Classes) == 2 {
		return fit.Decisions[0].value(fit, k, sample)
	}
	votes := make([]int, len(fit.Classes))
	for f := range fit.Decisions {
		df := &fit.Decisions[f]
		if df.value(fit, k, sample) > 0 {
			votes[df.Positive]++
		} else {
			votes[df.Negative]++
		}
	}
	best := 0
	for c := 1; c < len(votes); c++ {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return fit.Classes[best]
}

// groupByClass は昇順のクラスラベルとクラスごとのサンプル添字を返します。
func groupByClass(y []float64) ([]float64, [][]int) {
	pos := make(map[float64]int)
	var classes []float64
	for _, v := range y {
		if _, ok := pos[v]; !ok {
			pos[v] = 0
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	for i, c := range classes {
		pos[c] = i
	}
	groups := make([][]int, len(classes))
	for i, v := range y {
		groups[pos[v]] = append(groups[pos[v]], i)
	}
	return classes, groups
}

func trainError(t SVMType, y, pred []float64) float64 {
	var e float64
	var err error
	switch t {
	case EpsSVR, NuSVR:
		e, err = metrics.MeanSquaredError(y, pred)
	case OneClass:
		outliers := 0
		for _, v := range pred {
			if v == 0 {
				outliers++
			}
		}
		return float64(outliers) / float64(len(pred))
	default:
		e, err = metrics.MisclassificationRate(y, pred)
	}
	if err != nil {
		return math.NaN()
	}
	return e
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
