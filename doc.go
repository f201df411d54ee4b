// Package svmkit provides a support vector machine for Go with a
// cross-validated hyperparameter search, designed for backend services that
// train and serve small to medium models in process.
//
// # Features
//
//   - C-SVC, ν-SVC, one-class, ε-SVR and ν-SVR formulations
//   - Linear, polynomial, RBF, sigmoid, χ² and histogram intersection kernels
//   - TrainAuto: k-fold grid search over C, gamma, p, nu, coef0 and degree
//   - Stratified folds, bounded parallel fold training, cancellation by context
//   - Structured logging (zerolog), typed errors (cockroachdb/errors) and
//     Prometheus metrics
//
// # Installation
//
//	go get github.com/YuminosukeSato/svmkit
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/svmkit/core/data"
//	    "github.com/YuminosukeSato/svmkit/sklearn/svm"
//	)
//
//	func main() {
//	    d, err := data.NewFromRows([][]float64{{0, 0}, {0, 1}, {5, 5}, {5, 6}}, []float64{0, 0, 1, 1})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    model := svm.New(svm.WithKernel(svm.RBF), svm.WithGamma(0.1))
//	    cGrid, _ := svm.DefaultGrid(svm.ParamC)
//	    ok, err := model.TrainAuto(d, svm.AutoOptions{KFold: 2, CGrid: &cGrid, Balanced: true})
//	    if err != nil || !ok {
//	        log.Fatal("training failed: ", err)
//	    }
//
//	    label, _ := model.PredictSample([]float64{4.5, 5}, 0)
//	    fmt.Println(label, model.C())
//	}
//
// # Packages
//
//   - sklearn/svm: SVM model, SMO solver, kernels, parameter grids and TrainAuto
//   - core/matrix: typed 2-D numeric container
//   - core/data: training data bundle with layouts, subsets and class grouping
//   - core/model: fitted-state manager and estimator interfaces
//   - core/parallel: worker helpers used by prediction and the grid search
//   - metrics: misclassification rate, accuracy and regression errors
//   - config: YAML and environment configuration
//   - report: gonum/plot error curves from a search trace
//   - pkg/errors, pkg/log, pkg/monitoring: errors, logging and metrics
//
// # License
//
// svmkit is released under the MIT License.
package svmkit
