package svm

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// gridKeys は AutoOptions のグリッドキーと対応するパラメータです（位置引数の順）。
var gridKeys = []struct {
	key  string
	kind ParamKind
}{
	{"cGrid", ParamC},
	{"gammaGrid", ParamGamma},
	{"pGrid", ParamP},
	{"nuGrid", ParamNu},
	{"coeffGrid", ParamCoef},
	{"degreeGrid", ParamDegree},
}

func (o *AutoOptions) setGrid(kind ParamKind, g *ParamGrid) {
	switch kind {
	case ParamC:
		o.CGrid = g
	case ParamGamma:
		o.GammaGrid = g
	case ParamP:
		o.PGrid = g
	case ParamNu:
		o.NuGrid = g
	case ParamCoef:
		o.CoeffGrid = g
	case ParamDegree:
		o.DegreeGrid = g
	}
}

// AutoOptionsFromMap はマッピング形式の TrainAuto 引数を AutoOptions に変換します。
//
// キー: kFold, cGrid, gammaGrid, pGrid, nuGrid, coeffGrid, degreeGrid, balanced,
// shuffle, seed, workers。グリッドは ParamGrid、*ParamGrid、
// {minVal, maxVal, logStep} のマッピング、または nil です。
func AutoOptionsFromMap(m map[string]interface{}) (AutoOptions, error) {
	var opts AutoOptions
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

outer:
	for _, key := range keys {
		v := m[key]
		for _, gk := range gridKeys {
			if key == gk.key {
				g, err := toGrid(gk.kind, v)
				if err != nil {
					return AutoOptions{}, err
				}
				opts.setGrid(gk.kind, g)
				continue outer
			}
		}
		switch key {
		case "kFold":
			k, ok := toInt(v)
			if !ok {
				return AutoOptions{}, errors.NewValidationError(key, "must be an integer", v)
			}
			opts.KFold = k
		case "balanced", "shuffle":
			b, ok := v.(bool)
			if !ok {
				return AutoOptions{}, errors.NewValidationError(key, "must be a boolean", v)
			}
			if key == "balanced" {
				opts.Balanced = b
			} else {
				opts.Shuffle = b
			}
		case "seed":
			i, ok := toInt(v)
			if !ok || i < 0 {
				return AutoOptions{}, errors.NewValidationError(key, "must be a non-negative integer", v)
			}
			opts.Seed = uint64(i)
		case "workers":
			i, ok := toInt(v)
			if !ok {
				return AutoOptions{}, errors.NewValidationError(key, "must be an integer", v)
			}
			opts.Workers = i
		default:
			return AutoOptions{}, errors.NewValidationError(key, "unknown option", v)
		}
	}
	return opts, nil
}

// AutoOptionsFromArgs は位置引数形式の TrainAuto 引数を変換します。順序は
// kFold, cGrid, gammaGrid, pGrid, nuGrid, coeffGrid, degreeGrid, balanced です。
// 引数が1つでマッピングまたは AutoOptions の場合はそれをそのまま使います。
func AutoOptionsFromArgs(args ...interface{}) (AutoOptions, error) {
	if len(args) == 1 {
		switch v := args[0].(type) {
		case map[string]interface{}:
			return AutoOptionsFromMap(v)
		case AutoOptions:
			return v, nil
		case *AutoOptions:
			if v != nil {
				return *v, nil
			}
		}
	}
	if len(args) > 2+len(gridKeys) {
		return AutoOptions{}, errors.NewValidationError("args",
			fmt.Sprintf("at most %d positional arguments", 2+len(gridKeys)), len(args))
	}

	m := make(map[string]interface{}, len(args))
	for i, v := range args {
		if v == nil {
			continue
		}
		switch {
		case i == 0:
			m["kFold"] = v
		case i <= len(gridKeys):
			m[gridKeys[i-1].key] = v
		default:
			m["balanced"] = v
		}
	}
	return AutoOptionsFromMap(m)
}

func toGrid(kind ParamKind, v interface{}) (*ParamGrid, error) {
	name := kind.String() + "Grid"
	switch g := v.(type) {
	case nil:
		return nil, nil
	case ParamGrid:
		return &g, nil
	case *ParamGrid:
		if g == nil {
			return nil, nil
		}
		c := *g
		return &c, nil
	case map[string]interface{}:
		for _, pair := range [][2]string{{"minVal", "min"}, {"maxVal", "max"}} {
			_, long := g[pair[0]]
			_, short := g[pair[1]]
			if long && short {
				return nil, errors.NewValidationError(name+"."+pair[0],
					"set only one of "+pair[0]+" and "+pair[1], g[pair[1]])
			}
		}
		grid := ParamGrid{Kind: kind, LogStep: 2}
		for k, e := range g {
			f, err := toFloat(name+"."+k, e)
			if err != nil {
				return nil, err
			}
			switch k {
			case "minVal", "min":
				grid.MinVal = f
			case "maxVal", "max":
				grid.MaxVal = f
			case "logStep":
				grid.LogStep = f
			default:
				return nil, errors.NewValidationError(name+"."+k, "unknown grid field", e)
			}
		}
		if err := grid.Validate(); err != nil {
			return nil, err
		}
		return &grid, nil
	}
	return nil, errors.NewValidationError(name, "must be a ParamGrid or a mapping", v)
}
