package svm

import (
	"github.com/YuminosukeSato/svmkit/pkg/log"
	"github.com/YuminosukeSato/svmkit/pkg/monitoring"
)

// Option is a functional option for SVM.
type Option func(*SVM)

// WithSVMType sets the formulation.
func WithSVMType(t SVMType) Option {
	return func(s *SVM) {
		s.params.SVMType = t
	}
}

// WithKernel sets the kernel function.
func WithKernel(k KernelType) Option {
	return func(s *SVM) {
		s.params.KernelType = k
	}
}

// WithC sets the regularization constant C.
func WithC(c float64) Option {
	return func(s *SVM) {
		s.params.C = c
	}
}

// WithGamma sets gamma for POLY, RBF, SIGMOID and CHI2 kernels.
func WithGamma(gamma float64) Option {
	return func(s *SVM) {
		s.params.Gamma = gamma
	}
}

// WithCoef0 sets coef0 for POLY and SIGMOID kernels.
func WithCoef0(coef0 float64) Option {
	return func(s *SVM) {
		s.params.Coef0 = coef0
	}
}

// WithDegree sets the degree of the POLY kernel.
func WithDegree(degree float64) Option {
	return func(s *SVM) {
		s.params.Degree = degree
	}
}

// WithNu sets nu for NU_SVC, ONE_CLASS and NU_SVR.
func WithNu(nu float64) Option {
	return func(s *SVM) {
		s.params.Nu = nu
	}
}

// WithP sets epsilon of the EPS_SVR loss.
func WithP(p float64) Option {
	return func(s *SVM) {
		s.params.P = p
	}
}

// WithClassWeights sets per-class multipliers of C in ascending label order.
func WithClassWeights(weights ...float64) Option {
	return func(s *SVM) {
		s.params.ClassWeights = append([]float64(nil), weights...)
	}
}

// WithTermCriteria sets the solver stopping criteria.
func WithTermCriteria(maxIter int, epsilon float64) Option {
	return func(s *SVM) {
		s.params.TermCrit = TermCriteria{MaxIter: maxIter, Epsilon: epsilon}
	}
}

// WithParams replaces every hyperparameter at once.
func WithParams(p Params) Option {
	return func(s *SVM) {
		s.params = p.Clone()
	}
}

// WithSolver は既定の SMOSolver の代わりに使うソルバーを設定します。
func WithSolver(solver Solver) Option {
	return func(s *SVM) {
		if solver != nil {
			s.solver = solver
		}
	}
}

// WithLogger sets the logger used for training and search events.
func WithLogger(logger log.Logger) Option {
	return func(s *SVM) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCollector は Prometheus メトリクスの収集先を設定します。nil なら収集しません。
func WithCollector(c *monitoring.Collector) Option {
	return func(s *SVM) {
		s.collector = c
	}
}
