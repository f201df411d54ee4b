package metrics

import (
	"gonum.org/v1/gonum/floats"
)

// MeanSquaredError は平均二乗誤差 (1/n)·Σ(yTrue - yPred)² を計算する
func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MeanSquaredError", yTrue, yPred); err != nil {
		return 0, err
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yTrue)), nil
}
