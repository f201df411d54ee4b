package svm

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// SVMType は SVM の定式化の種類です。整数値は広く使われている C_SVC=100 系の番号に揃えています。
type SVMType int

const (
	// CSVC は C-サポートベクター分類です。
	CSVC SVMType = 100 + iota
	// NuSVC は ν-サポートベクター分類です。
	NuSVC
	// OneClass は1クラス SVM（外れ値検出）です。
	OneClass
	// EpsSVR は ε-サポートベクター回帰です。
	EpsSVR
	// NuSVR は ν-サポートベクター回帰です。
	NuSVR
)

var svmTypeNames = map[SVMType]string{
	CSVC:     "C_SVC",
	NuSVC:    "NU_SVC",
	OneClass: "ONE_CLASS",
	EpsSVR:   "EPS_SVR",
	NuSVR:    "NU_SVR",
}

// String returns the canonical name, e.g. "C_SVC".
func (t SVMType) String() string {
	if s, ok := svmTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("SVMType(%d)", int(t))
}

// IsClassifier reports whether predictions are class labels.
func (t SVMType) IsClassifier() bool { return t == CSVC || t == NuSVC }

// IsRegression reports whether predictions are continuous values.
func (t SVMType) IsRegression() bool { return t == EpsSVR || t == NuSVR }

func (t SVMType) valid() bool { _, ok := svmTypeNames[t]; return ok }

// KernelType は カーネル関数の種類です。
type KernelType int

const (
	// Linear は x·y です。
	Linear KernelType = iota
	// Poly は (γ x·y + coef0)^degree です。
	Poly
	// RBF は exp(-γ |x-y|²) です。
	RBF
	// Sigmoid は tanh(γ x·y + coef0) です。
	Sigmoid
	// Chi2 は exp(-γ Σ (x_i-y_i)²/(x_i+y_i)) です。
	Chi2
	// Inter はヒストグラム交差 Σ min(x_i, y_i) です。
	Inter
)

var kernelTypeNames = map[KernelType]string{
	Linear:  "LINEAR",
	Poly:    "POLY",
	RBF:     "RBF",
	Sigmoid: "SIGMOID",
	Chi2:    "CHI2",
	Inter:   "INTER",
}

// String returns the canonical name, e.g. "RBF".
func (k KernelType) String() string {
	if s, ok := kernelTypeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("KernelType(%d)", int(k))
}

func (k KernelType) valid() bool { _, ok := kernelTypeNames[k]; return ok }

// ParamKind はグリッド探索の対象となるハイパーパラメータです。
type ParamKind int

const (
	ParamC ParamKind = iota
	ParamGamma
	ParamP
	ParamNu
	ParamCoef
	ParamDegree
)

// searchOrder は組み合わせ列挙の入れ子順（外側から内側）です。
var searchOrder = [...]ParamKind{ParamC, ParamGamma, ParamP, ParamNu, ParamCoef, ParamDegree}

var paramKindNames = map[ParamKind]string{
	ParamC:      "c",
	ParamGamma:  "gamma",
	ParamP:      "p",
	ParamNu:     "nu",
	ParamCoef:   "coef0",
	ParamDegree: "degree",
}

// String returns the configuration key of the parameter, e.g. "gamma".
func (k ParamKind) String() string {
	if s, ok := paramKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

func (k ParamKind) valid() bool { _, ok := paramKindNames[k]; return ok }

// TermCriteria はソルバーの停止条件です。
type TermCriteria struct {
	MaxIter int
	Epsilon float64
}

// Params は SVM のハイパーパラメータ一式です。
type Params struct {
	SVMType    SVMType
	KernelType KernelType
	C          float64
	Gamma      float64
	Coef0      float64
	Degree     float64
	Nu         float64
	P          float64
	// ClassWeights は昇順に並べたクラスラベルに対応する C の倍率です（C_SVC のみ）。
	ClassWeights []float64
	TermCrit     TermCriteria
}

// DefaultParams returns a fresh copy of the default configuration.
func DefaultParams() Params {
	return Params{
		SVMType:    CSVC,
		KernelType: RBF,
		C:          1,
		Gamma:      1e-3,
		Coef0:      0,
		Degree:     3,
		Nu:         0.5,
		P:          0.1,
		TermCrit:   TermCriteria{MaxIter: 100000, Epsilon: 1e-3},
	}
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	c := p
	if p.ClassWeights != nil {
		c.ClassWeights = append([]float64(nil), p.ClassWeights...)
	}
	return c
}

// Get returns the value of a searchable parameter.
func (p Params) Get(kind ParamKind) float64 {
	switch kind {
	case ParamC:
		return p.C
	case ParamGamma:
		return p.Gamma
	case ParamP:
		return p.P
	case ParamNu:
		return p.Nu
	case ParamCoef:
		return p.Coef0
	case ParamDegree:
		return p.Degree
	}
	return math.NaN()
}

func (p *Params) set(kind ParamKind, v float64) {
	switch kind {
	case ParamC:
		p.C = v
	case ParamGamma:
		p.Gamma = v
	case ParamP:
		p.P = v
	case ParamNu:
		p.Nu = v
	case ParamCoef:
		p.Coef0 = v
	case ParamDegree:
		p.Degree = v
	}
}

// Uses は現在の SVMType / KernelType の組み合わせが kind を参照するかどうかを返します。
func (p Params) Uses(kind ParamKind) bool {
	switch kind {
	case ParamC:
		return p.SVMType == CSVC || p.SVMType == EpsSVR || p.SVMType == NuSVR
	case ParamNu:
		return p.SVMType == NuSVC || p.SVMType == OneClass || p.SVMType == NuSVR
	case ParamP:
		return p.SVMType == EpsSVR
	case ParamGamma:
		return p.KernelType == Poly || p.KernelType == RBF || p.KernelType == Sigmoid || p.KernelType == Chi2
	case ParamCoef:
		return p.KernelType == Poly || p.KernelType == Sigmoid
	case ParamDegree:
		return p.KernelType == Poly
	}
	return false
}

// Validate は選択された SVMType / KernelType に必要な値を検証します。
// classCount が正の場合は ClassWeights の個数も検査します。
func (p Params) Validate(classCount int) error {
	if !p.SVMType.valid() {
		return errors.NewValidationError("svmType", "unknown SVM type", int(p.SVMType))
	}
	if !p.KernelType.valid() {
		return errors.NewValidationError("kernelType", "unknown kernel type", int(p.KernelType))
	}
	for _, kind := range searchOrder {
		if v := p.Get(kind); math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError(kind.String(), "must be finite", v)
		}
	}
	if p.Uses(ParamC) && p.C <= 0 {
		return errors.NewValidationError("c", "must be positive", p.C)
	}
	if p.Uses(ParamNu) && (p.Nu <= 0 || p.Nu > 1) {
		return errors.NewValidationError("nu", "must be in (0, 1]", p.Nu)
	}
	if p.Uses(ParamP) && p.P < 0 {
		return errors.NewValidationError("p", "must be non-negative", p.P)
	}
	if p.Uses(ParamGamma) && p.Gamma <= 0 {
		return errors.NewValidationError("gamma", "must be positive", p.Gamma)
	}
	if p.Uses(ParamDegree) && p.Degree <= 0 {
		return errors.NewValidationError("degree", "must be positive", p.Degree)
	}
	if p.TermCrit.MaxIter <= 0 {
		return errors.NewValidationError("termCrit.maxIter", "must be positive", p.TermCrit.MaxIter)
	}
	if !(p.TermCrit.Epsilon > 0) {
		return errors.NewValidationError("termCrit.epsilon", "must be positive", p.TermCrit.Epsilon)
	}
	for i, w := range p.ClassWeights {
		if !(w > 0) || math.IsInf(w, 0) {
			return errors.NewValidationError(fmt.Sprintf("classWeights[%d]", i), "must be positive and finite", w)
		}
	}
	if p.SVMType == CSVC && classCount > 0 && len(p.ClassWeights) > classCount {
		return errors.NewValidationError("classWeights",
			fmt.Sprintf("has more entries than the %d classes in the training data", classCount), len(p.ClassWeights))
	}
	return nil
}

// ToMap は設定キーをキーとするマップに変換します。
func (p Params) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"svmType":    p.SVMType,
		"kernelType": p.KernelType,
		"c":          p.C,
		"gamma":      p.Gamma,
		"coef0":      p.Coef0,
		"degree":     p.Degree,
		"nu":         p.Nu,
		"p":          p.P,
		"termCrit":   p.TermCrit,
	}
	if p.ClassWeights != nil {
		m["classWeights"] = append([]float64(nil), p.ClassWeights...)
	} else {
		m["classWeights"] = []float64(nil)
	}
	return m
}

// withMap は partial のキーだけを上書きした新しい Params を返します。
// いずれかのキーが不正な場合は何も適用せずエラーを返します。
func (p Params) withMap(partial map[string]interface{}) (Params, error) {
	out := p.Clone()
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	// エラー報告を決定的にするためキー順に処理する
	sort.Strings(keys)

	for _, key := range keys {
		value := partial[key]
		switch key {
		case "c", "C":
			f, err := toFloat(key, value)
			if err != nil {
				return p, err
			}
			out.C = f
		case "gamma":
			f, err := toFloat(key, value)
			if err != nil {
				return p, err
			}
			out.Gamma = f
		case "coef0", "coef":
			f, err := toFloat(key, value)
			if err != nil {
				return p, err
			}
			out.Coef0 = f
		case "degree":
			f, err := toFloat(key, value)
			if err != nil {
				return p, err
			}
			out.Degree = f
		case "nu":
			f, err := toFloat(key, value)
			if err != nil {
				return p, err
			}
			out.Nu = f
		case "p":
			f, err := toFloat(key, value)
			if err != nil {
				return p, err
			}
			out.P = f
		case "svmType":
			t, err := ParseSVMType(value)
			if err != nil {
				return p, err
			}
			out.SVMType = t
		case "kernelType":
			k, err := ParseKernelType(value)
			if err != nil {
				return p, err
			}
			out.KernelType = k
		case "classWeights":
			w, err := toFloatSlice(key, value)
			if err != nil {
				return p, err
			}
			out.ClassWeights = w
		case "termCrit":
			tc, err := toTermCriteria(value)
			if err != nil {
				return p, err
			}
			out.TermCrit = tc
		default:
			return p, errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return out, nil
}

// ParseSVMType は SVMType 値・整数値・大文字小文字を区別しない名前を受け付けます。
func ParseSVMType(v interface{}) (SVMType, error) {
	switch x := v.(type) {
	case SVMType:
		if x.valid() {
			return x, nil
		}
	case string:
		n := normalizeName(x)
		for t, name := range svmTypeNames {
			if normalizeName(name) == n {
				return t, nil
			}
		}
		if n == "EPSILONSVR" {
			return EpsSVR, nil
		}
	default:
		if i, ok := toInt(v); ok && SVMType(i).valid() {
			return SVMType(i), nil
		}
	}
	return 0, errors.NewValidationError("svmType", "unknown SVM type", v)
}

// ParseKernelType は KernelType 値・整数値・大文字小文字を区別しない名前を受け付けます。
func ParseKernelType(v interface{}) (KernelType, error) {
	switch x := v.(type) {
	case KernelType:
		if x.valid() {
			return x, nil
		}
	case string:
		n := normalizeName(x)
		for k, name := range kernelTypeNames {
			if normalizeName(name) == n {
				return k, nil
			}
		}
		if n == "POLYNOMIAL" {
			return Poly, nil
		}
	default:
		if i, ok := toInt(v); ok && KernelType(i).valid() {
			return KernelType(i), nil
		}
	}
	return 0, errors.NewValidationError("kernelType", "unknown kernel type", v)
}

// ParseParamKind は ParamKind 値・整数値・設定キー名を受け付けます。
func ParseParamKind(v interface{}) (ParamKind, error) {
	switch x := v.(type) {
	case ParamKind:
		if x.valid() {
			return x, nil
		}
	case string:
		n := strings.ToLower(strings.TrimSpace(x))
		if n == "coef" {
			return ParamCoef, nil
		}
		for k, name := range paramKindNames {
			if name == n {
				return k, nil
			}
		}
	default:
		if i, ok := toInt(v); ok && ParamKind(i).valid() {
			return ParamKind(i), nil
		}
	}
	return 0, errors.NewValidationError("paramKind", "unknown hyperparameter", v)
}

func normalizeName(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

func toFloat(key string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	}
	return 0, errors.NewValidationError(key, "must be a number", v)
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	case float32:
		if float64(x) == math.Trunc(float64(x)) {
			return int(x), true
		}
	}
	return 0, false
}

func toFloatSlice(key string, v interface{}) ([]float64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return append([]float64(nil), x...), nil
	case []interface{}:
		out := make([]float64, len(x))
		for i, e := range x {
			f, err := toFloat(fmt.Sprintf("%s[%d]", key, i), e)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case []int:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, nil
	}
	return nil, errors.NewValidationError(key, "must be a list of numbers", v)
}

func toTermCriteria(v interface{}) (TermCriteria, error) {
	switch x := v.(type) {
	case TermCriteria:
		return x, nil
	case *TermCriteria:
		if x != nil {
			return *x, nil
		}
	case map[string]interface{}:
		tc := DefaultParams().TermCrit
		for k, e := range x {
			switch k {
			case "maxIter":
				i, ok := toInt(e)
				if !ok {
					return tc, errors.NewValidationError("termCrit.maxIter", "must be an integer", e)
				}
				tc.MaxIter = i
			case "epsilon":
				f, err := toFloat("termCrit.epsilon", e)
				if err != nil {
					return tc, err
				}
				tc.Epsilon = f
			default:
				return tc, errors.NewValidationError("termCrit."+k, "unknown parameter", e)
			}
		}
		return tc, nil
	}
	return TermCriteria{}, errors.NewValidationError("termCrit", "must be a TermCriteria or a mapping", v)
}
