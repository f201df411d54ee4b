package metrics

import (
	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// MisclassificationRate は予測ラベルが正解と一致しない割合で、[0, 1] の値を返す
func MisclassificationRate(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("MisclassificationRate", yTrue, yPred); err != nil {
		return 0, err
	}
	// ラベルは完全一致で比較する
	var wrong int
	for i, y := range yTrue {
		if y != yPred[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(yTrue)), nil
}

// checkPair は空入力と長さの不一致を検出する
func checkPair(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}
