package svm

import (
	"math"
)

// tau は二次係数が非正になった場合の代替値です。
const tau = 1e-12

type alphaStatus int8

const (
	lowerBound alphaStatus = iota
	upperBound
	free
)

// qMatrix は双対問題のヘッセ行列 Q_ij = s_i s_j K(x_idx(i), x_idx(j)) です。
type qMatrix interface {
	row(i int) []float64
	diag() []float64
}

// signedQ は符号列と添字列でカーネル行列を拡張した Q です。
// SVC では s=y、1クラスでは s=+1、SVR では 2l 個の要素を持ちます。
type signedQ struct {
	cache *kernelCache
	sign  []int8
	index []int
	qd    []float64
}

func newSignedQ(cache *kernelCache, sign []int8, index []int) *signedQ {
	q := &signedQ{cache: cache, sign: sign, index: index, qd: make([]float64, len(sign))}
	for i := range sign {
		q.qd[i] = cache.diag(index[i])
	}
	return q
}

func (q *signedQ) row(i int) []float64 {
	k := q.cache.row(q.index[i])
	out := make([]float64, len(q.sign))
	si := float64(q.sign[i])
	for j := range out {
		out[j] = si * float64(q.sign[j]) * k[q.index[j]]
	}
	return out
}

func (q *signedQ) diag() []float64 { return q.qd }

// smoProblem は SMO に渡す1つの二次計画問題です。
//
//	min 0.5 αᵀQα + pᵀα
//	s.t. yᵀα = Δ, 0 ≤ α_i ≤ C_i
type smoProblem struct {
	q     qMatrix
	p     []float64
	y     []int8
	alpha []float64
	cp    float64
	cn    float64
	eps   float64
	// maxIter は反復回数の上限です。
	maxIter int
	// nu は ν 型の作業集合選択と ρ 計算を使うかどうかです。
	nu bool
}

// smoSolution は解と診断情報です。
type smoSolution struct {
	alpha      []float64
	rho        float64
	r          float64
	iterations int
	converged  bool
}

// smoState は1回の solve の作業領域です。
type smoState struct {
	*smoProblem
	l      int
	qd     []float64
	g      []float64
	status []alphaStatus
}

// solveSMO は second-order の作業集合選択による SMO で問題を解きます。
func solveSMO(prob *smoProblem) smoSolution {
	s := &smoState{smoProblem: prob, l: len(prob.y), qd: prob.q.diag()}
	s.status = make([]alphaStatus, s.l)
	for i := range s.status {
		s.updateStatus(i)
	}

	s.g = append([]float64(nil), prob.p...)
	for i := 0; i < s.l; i++ {
		if s.status[i] != lowerBound {
			qi := s.q.row(i)
			for j := 0; j < s.l; j++ {
				s.g[j] += s.alpha[i] * qi[j]
			}
		}
	}

	sol := smoSolution{}
	for sol.iterations < s.maxIter {
		i, j, optimal := s.selectWorkingSet()
		if optimal {
			sol.converged = true
			break
		}
		sol.iterations++
		s.update(i, j)
	}
	if !sol.converged {
		_, _, sol.converged = s.selectWorkingSet()
	}

	if s.nu {
		sol.rho, sol.r = s.calculateRhoNu()
	} else {
		sol.rho = s.calculateRho()
	}
	sol.alpha = s.alpha
	return sol
}

func (s *smoState) bound(i int) float64 {
	if s.y[i] > 0 {
		return s.cp
	}
	return s.cn
}

func (s *smoState) updateStatus(i int) {
	switch {
	case s.alpha[i] >= s.bound(i):
		s.status[i] = upperBound
	case s.alpha[i] <= 0:
		s.status[i] = lowerBound
	default:
		s.status[i] = free
	}
}

func (s *smoState) isUpper(i int) bool { return s.status[i] == upperBound }
func (s *smoState) isLower(i int) bool { return s.status[i] == lowerBound }

// update は作業集合 (i, j) について2変数の部分問題を解析的に解きます。
func (s *smoState) update(i, j int) {
	qi := s.q.row(i)
	qj := s.q.row(j)
	ci, cj := s.bound(i), s.bound(j)
	oldI, oldJ := s.alpha[i], s.alpha[j]
	a := s.alpha

	if s.y[i] != s.y[j] {
		quad := s.qd[i] + s.qd[j] + 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.g[i] - s.g[j]) / quad
		diff := a[i] - a[j]
		a[i] += delta
		a[j] += delta
		if diff > 0 {
			if a[j] < 0 {
				a[j] = 0
				a[i] = diff
			}
		} else if a[i] < 0 {
			a[i] = 0
			a[j] = -diff
		}
		if diff > ci-cj {
			if a[i] > ci {
				a[i] = ci
				a[j] = ci - diff
			}
		} else if a[j] > cj {
			a[j] = cj
			a[i] = cj + diff
		}
	} else {
		quad := s.qd[i] + s.qd[j] - 2*qi[j]
		if quad <= 0 {
			quad = tau
		}
		delta := (s.g[i] - s.g[j]) / quad
		sum := a[i] + a[j]
		a[i] -= delta
		a[j] += delta
		if sum > ci {
			if a[i] > ci {
				a[i] = ci
				a[j] = sum - ci
			}
		} else if a[j] < 0 {
			a[j] = 0
			a[i] = sum
		}
		if sum > cj {
			if a[j] > cj {
				a[j] = cj
				a[i] = sum - cj
			}
		} else if a[i] < 0 {
			a[i] = 0
			a[j] = sum
		}
	}

	di, dj := a[i]-oldI, a[j]-oldJ
	for k := 0; k < s.l; k++ {
		s.g[k] += qi[k]*di + qj[k]*dj
	}
	s.updateStatus(i)
	s.updateStatus(j)
}

func objDiff(gradDiff, quad float64) float64 {
	if quad <= 0 {
		quad = tau
	}
	return -(gradDiff * gradDiff) / quad
}

// selectWorkingSet は違反ペアを返し、KKT 条件を満たしていれば optimal=true を返します。
func (s *smoState) selectWorkingSet() (int, int, bool) {
	if s.nu {
		return s.selectWorkingSetNu()
	}
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	gmaxIdx, gminIdx := -1, -1
	objMin := math.Inf(1)

	for t := 0; t < s.l; t++ {
		if s.y[t] > 0 {
			if !s.isUpper(t) && -s.g[t] >= gmax {
				gmax = -s.g[t]
				gmaxIdx = t
			}
		} else if !s.isLower(t) && s.g[t] >= gmax {
			gmax = s.g[t]
			gmaxIdx = t
		}
	}
	if gmaxIdx == -1 {
		return -1, -1, true
	}

	i := gmaxIdx
	qi := s.q.row(i)
	yi := float64(s.y[i])
	for j := 0; j < s.l; j++ {
		if s.y[j] > 0 {
			if s.isLower(j) {
				continue
			}
			gradDiff := gmax + s.g[j]
			if s.g[j] >= gmax2 {
				gmax2 = s.g[j]
			}
			if gradDiff > 0 {
				if d := objDiff(gradDiff, s.qd[i]+s.qd[j]-2*yi*qi[j]); d <= objMin {
					gminIdx = j
					objMin = d
				}
			}
		} else {
			if s.isUpper(j) {
				continue
			}
			gradDiff := gmax - s.g[j]
			if -s.g[j] >= gmax2 {
				gmax2 = -s.g[j]
			}
			if gradDiff > 0 {
				if d := objDiff(gradDiff, s.qd[i]+s.qd[j]+2*yi*qi[j]); d <= objMin {
					gminIdx = j
					objMin = d
				}
			}
		}
	}

	if gmax+gmax2 < s.eps || gminIdx == -1 {
		return -1, -1, true
	}
	return i, gminIdx, false
}

// selectWorkingSetNu は ν 型の選択で、同じ符号のペアだけを返します。
func (s *smoState) selectWorkingSetNu() (int, int, bool) {
	gmaxp, gmaxp2 := math.Inf(-1), math.Inf(-1)
	gmaxn, gmaxn2 := math.Inf(-1), math.Inf(-1)
	ip, in, gminIdx := -1, -1, -1
	objMin := math.Inf(1)

	for t := 0; t < s.l; t++ {
		if s.y[t] > 0 {
			if !s.isUpper(t) && -s.g[t] >= gmaxp {
				gmaxp = -s.g[t]
				ip = t
			}
		} else if !s.isLower(t) && s.g[t] >= gmaxn {
			gmaxn = s.g[t]
			in = t
		}
	}

	var qip, qin []float64
	if ip != -1 {
		qip = s.q.row(ip)
	}
	if in != -1 {
		qin = s.q.row(in)
	}

	for j := 0; j < s.l; j++ {
		if s.y[j] > 0 {
			if s.isLower(j) {
				continue
			}
			gradDiff := gmaxp + s.g[j]
			if s.g[j] >= gmaxp2 {
				gmaxp2 = s.g[j]
			}
			if gradDiff > 0 {
				if d := objDiff(gradDiff, s.qd[ip]+s.qd[j]-2*qip[j]); d <= objMin {
					gminIdx = j
					objMin = d
				}
			}
		} else {
			if s.isUpper(j) {
				continue
			}
			gradDiff := gmaxn - s.g[j]
			if -s.g[j] >= gmaxn2 {
				gmaxn2 = -s.g[j]
			}
			if gradDiff > 0 {
				if d := objDiff(gradDiff, s.qd[in]+s.qd[j]-2*qin[j]); d <= objMin {
					gminIdx = j
					objMin = d
				}
			}
		}
	}

	if math.Max(gmaxp+gmaxp2, gmaxn+gmaxn2) < s.eps || gminIdx == -1 {
		return -1, -1, true
	}
	if s.y[gminIdx] > 0 {
		return ip, gminIdx, false
	}
	return in, gminIdx, false
}

func (s *smoState) calculateRho() float64 {
	nFree := 0
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	for i := 0; i < s.l; i++ {
		yg := float64(s.y[i]) * s.g[i]
		switch {
		case s.isUpper(i):
			if s.y[i] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case s.isLower(i):
			if s.y[i] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}

// calculateRhoNu は ρ と、ν-SVC のスケーリングに使う r を返します。
func (s *smoState) calculateRhoNu() (rho, r float64) {
	var nFree1, nFree2 int
	ub1, ub2 := math.Inf(1), math.Inf(1)
	lb1, lb2 := math.Inf(-1), math.Inf(-1)
	var sum1, sum2 float64
	for i := 0; i < s.l; i++ {
		if s.y[i] > 0 {
			switch {
			case s.isUpper(i):
				lb1 = math.Max(lb1, s.g[i])
			case s.isLower(i):
				ub1 = math.Min(ub1, s.g[i])
			default:
				nFree1++
				sum1 += s.g[i]
			}
		} else {
			switch {
			case s.isUpper(i):
				lb2 = math.Max(lb2, s.g[i])
			case s.isLower(i):
				ub2 = math.Min(ub2, s.g[i])
			default:
				nFree2++
				sum2 += s.g[i]
			}
		}
	}
	r1 := (ub1 + lb1) / 2
	if nFree1 > 0 {
		r1 = sum1 / float64(nFree1)
	}
	r2 := (ub2 + lb2) / 2
	if nFree2 > 0 {
		r2 = sum2 / float64(nFree2)
	}
	return (r1 - r2) / 2, (r1 + r2) / 2
}
