// Package model provides the interfaces implemented by svmkit models.
package model

import (
	"github.com/YuminosukeSato/svmkit/core/data"
	"github.com/YuminosukeSato/svmkit/core/matrix"
)

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams overwrites only the supplied hyperparameters.
	SetParams(params map[string]interface{}) error
}

// StatModel は学習・予測・誤差計算を行う統計モデルの共通インターフェースです。
// bool の戻り値はソルバーが収束したかどうかを示し、収束失敗はエラーではありません。
type StatModel interface {
	ParameterGetter
	ParameterSetter

	// Train はモデルを1回学習させます。
	Train(d *data.TrainData, flags Flag) (bool, error)
	// Predict は各行に対する予測値を行順に返します。
	Predict(samples *matrix.Matrix, flags Flag) ([]float64, error)
	// CalcError は分類では誤分類率、回帰では平均二乗誤差を返します。
	CalcError(d *data.TrainData, isTestSet bool) (float64, error)
	// IsTrained reports whether the last fit succeeded.
	IsTrained() bool
	// VarCount returns the feature dimensionality of the last successful fit.
	VarCount() int
}

// Flag は Train / Predict の動作フラグです。
type Flag int

const (
	// FlagRawOutput は予測時にラベルではなく決定関数値を返すことを示します。
	FlagRawOutput Flag = 1 << iota
	// FlagReplaceModel は学習失敗時に既存の学習済み状態を破棄することを示します。
	FlagReplaceModel
)

// Has reports whether f contains all bits of other.
func (f Flag) Has(other Flag) bool { return f&other == other }
