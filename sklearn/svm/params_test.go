package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, CSVC, p.SVMType)
	assert.Equal(t, RBF, p.KernelType)
	assert.Equal(t, 1.0, p.C)
	assert.Equal(t, 1e-3, p.Gamma)
	assert.Equal(t, 0.0, p.Coef0)
	assert.Equal(t, 3.0, p.Degree)
	assert.Equal(t, 0.5, p.Nu)
	assert.Equal(t, 0.1, p.P)
	assert.Nil(t, p.ClassWeights)
	assert.Equal(t, TermCriteria{MaxIter: 100000, Epsilon: 1e-3}, p.TermCrit)

	// 呼び出しごとに独立したコピー
	p.ClassWeights = []float64{2}
	p.C = 42
	assert.Nil(t, DefaultParams().ClassWeights)
	assert.Equal(t, 1.0, DefaultParams().C)
}

func TestParams_Clone(t *testing.T) {
	p := DefaultParams()
	p.ClassWeights = []float64{1, 2}
	c := p.Clone()
	c.ClassWeights[0] = 9
	assert.Equal(t, 1.0, p.ClassWeights[0])
}

func TestParams_Uses(t *testing.T) {
	tests := []struct {
		name    string
		svmType SVMType
		kernel  KernelType
		used    []ParamKind
	}{
		{"C_SVC rbf", CSVC, RBF, []ParamKind{ParamC, ParamGamma}},
		{"NU_SVC linear", NuSVC, Linear, []ParamKind{ParamNu}},
		{"ONE_CLASS sigmoid", OneClass, Sigmoid, []ParamKind{ParamNu, ParamGamma, ParamCoef}},
		{"EPS_SVR poly", EpsSVR, Poly, []ParamKind{ParamC, ParamP, ParamGamma, ParamCoef, ParamDegree}},
		{"NU_SVR chi2", NuSVR, Chi2, []ParamKind{ParamC, ParamNu, ParamGamma}},
		{"C_SVC inter", CSVC, Inter, []ParamKind{ParamC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.SVMType = tt.svmType
			p.KernelType = tt.kernel
			for _, kind := range searchOrder {
				assert.Equal(t, contains(tt.used, kind), p.Uses(kind), kind.String())
			}
		})
	}
}

func contains(kinds []ParamKind, k ParamKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Params)
		classes int
		wantErr bool
	}{
		{"defaults", func(p *Params) {}, 2, false},
		{"zero C for C_SVC", func(p *Params) { p.C = 0 }, 2, true},
		{"zero C ignored for NU_SVC", func(p *Params) { p.SVMType = NuSVC; p.C = 0 }, 2, false},
		{"negative C for EPS_SVR", func(p *Params) { p.SVMType = EpsSVR; p.C = -1 }, 0, true},
		{"nu above one", func(p *Params) { p.SVMType = NuSVC; p.Nu = 1.5 }, 2, true},
		{"nu equal one", func(p *Params) { p.SVMType = OneClass; p.Nu = 1 }, 0, false},
		{"zero nu", func(p *Params) { p.SVMType = NuSVR; p.Nu = 0 }, 0, true},
		{"negative p", func(p *Params) { p.SVMType = EpsSVR; p.P = -0.1 }, 0, true},
		{"zero p", func(p *Params) { p.SVMType = EpsSVR; p.P = 0 }, 0, false},
		{"zero gamma rbf", func(p *Params) { p.Gamma = 0 }, 2, true},
		{"zero gamma linear", func(p *Params) { p.KernelType = Linear; p.Gamma = 0 }, 2, false},
		{"zero degree poly", func(p *Params) { p.KernelType = Poly; p.Degree = 0 }, 2, true},
		{"NaN coef0", func(p *Params) { p.Coef0 = math.NaN() }, 2, true},
		{"unknown svm type", func(p *Params) { p.SVMType = 7 }, 2, true},
		{"unknown kernel", func(p *Params) { p.KernelType = 42 }, 2, true},
		{"zero max iter", func(p *Params) { p.TermCrit.MaxIter = 0 }, 2, true},
		{"zero epsilon", func(p *Params) { p.TermCrit.Epsilon = 0 }, 2, true},
		{"weights within class count", func(p *Params) { p.ClassWeights = []float64{1, 2} }, 2, false},
		{"too many weights", func(p *Params) { p.ClassWeights = []float64{1, 2, 3} }, 2, true},
		{"non-positive weight", func(p *Params) { p.ClassWeights = []float64{1, 0} }, 2, true},
		{"class count unknown", func(p *Params) { p.ClassWeights = []float64{1, 2, 3} }, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate(tt.classes)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	t.Run("svm type", func(t *testing.T) {
		tests := []struct {
			in   interface{}
			want SVMType
		}{
			{CSVC, CSVC},
			{"C_SVC", CSVC},
			{"nu_svc", NuSVC},
			{"one-class", OneClass},
			{"EpsSvr", EpsSVR},
			{104, NuSVR},
			{float64(102), OneClass},
		}
		for _, tt := range tests {
			got, err := ParseSVMType(tt.in)
			require.NoError(t, err, "%v", tt.in)
			assert.Equal(t, tt.want, got)
		}
		for _, bad := range []interface{}{"SVC", 3, 100.5, nil, SVMType(1)} {
			_, err := ParseSVMType(bad)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "%v", bad)
		}
	})

	t.Run("kernel type", func(t *testing.T) {
		tests := []struct {
			in   interface{}
			want KernelType
		}{
			{RBF, RBF},
			{"linear", Linear},
			{"Poly", Poly},
			{"polynomial", Poly},
			{3, Sigmoid},
			{"chi2", Chi2},
			{int64(5), Inter},
		}
		for _, tt := range tests {
			got, err := ParseKernelType(tt.in)
			require.NoError(t, err, "%v", tt.in)
			assert.Equal(t, tt.want, got)
		}
		for _, bad := range []interface{}{"gaussian", -1, 6, true} {
			_, err := ParseKernelType(bad)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "%v", bad)
		}
	})

	t.Run("param kind", func(t *testing.T) {
		k, err := ParseParamKind("Gamma")
		require.NoError(t, err)
		assert.Equal(t, ParamGamma, k)
		k, err = ParseParamKind("coef")
		require.NoError(t, err)
		assert.Equal(t, ParamCoef, k)
		k, err = ParseParamKind(5)
		require.NoError(t, err)
		assert.Equal(t, ParamDegree, k)
		_, err = ParseParamKind("epsilon")
		assert.Error(t, err)
	})
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "C_SVC", CSVC.String())
	assert.Equal(t, "NU_SVR", NuSVR.String())
	assert.Equal(t, "SVMType(1)", SVMType(1).String())
	assert.Equal(t, "CHI2", Chi2.String())
	assert.Equal(t, "KernelType(9)", KernelType(9).String())
	assert.Equal(t, "coef0", ParamCoef.String())
	assert.True(t, NuSVC.IsClassifier())
	assert.False(t, OneClass.IsClassifier())
	assert.True(t, EpsSVR.IsRegression())
}

func TestParams_WithMap(t *testing.T) {
	base := DefaultParams()

	t.Run("only supplied keys change", func(t *testing.T) {
		got, err := base.withMap(map[string]interface{}{
			"c":          10,
			"kernelType": "LINEAR",
			"termCrit":   map[string]interface{}{"maxIter": 50},
		})
		require.NoError(t, err)

		want := DefaultParams()
		want.C = 10
		want.KernelType = Linear
		want.TermCrit.MaxIter = 50
		assert.Equal(t, want, got)
	})

	t.Run("class weights", func(t *testing.T) {
		got, err := base.withMap(map[string]interface{}{"classWeights": []interface{}{1, 2.5}})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2.5}, got.ClassWeights)
	})

	t.Run("empty map is identity", func(t *testing.T) {
		got, err := base.withMap(map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	badInputs := []map[string]interface{}{
		{"c": 2, "unknown": 1},
		{"gamma": "large"},
		{"svmType": "SVC", "c": 3},
		{"classWeights": "balanced"},
		{"termCrit": map[string]interface{}{"maxIter": 1.5}},
		{"termCrit": 10},
	}
	for _, in := range badInputs {
		got, err := base.withMap(in)
		require.Error(t, err, "%v", in)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		assert.Equal(t, base, got, "nothing applied for %v", in)
	}
}

func TestParams_ToMap(t *testing.T) {
	p := DefaultParams()
	p.ClassWeights = []float64{1, 3}
	m := p.ToMap()

	assert.Equal(t, CSVC, m["svmType"])
	assert.Equal(t, RBF, m["kernelType"])
	assert.Equal(t, 1e-3, m["gamma"])
	assert.Equal(t, []float64{1, 3}, m["classWeights"])

	round, err := DefaultParams().withMap(m)
	require.NoError(t, err)
	assert.Equal(t, p, round)
}
