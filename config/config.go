// Package config はモデルのハイパーパラメータとグリッド探索の設定を
// YAML ファイルと環境変数から読み込みます。
//
// 設定ファイルの例:
//
//	log: {level: info}
//	model: {svmType: C_SVC, kernelType: RBF, c: 1, gamma: 0.001}
//	search:
//	  kFold: 10
//	  balanced: true
//	  workers: 4
//	  grids: {c: {min: 0.1, max: 500, logStep: 5}}
//
// 環境変数 SVMKIT_LOG_LEVEL, SVMKIT_KFOLD, SVMKIT_WORKERS はファイルの値を上書きします。
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
	"github.com/YuminosukeSato/svmkit/pkg/log"
	"github.com/YuminosukeSato/svmkit/sklearn/svm"
)

// 上書きに使う環境変数名
const (
	EnvLogLevel = "SVMKIT_LOG_LEVEL"
	EnvKFold    = "SVMKIT_KFOLD"
	EnvWorkers  = "SVMKIT_WORKERS"
)

// Config is the parsed configuration file.
type Config struct {
	Log    LogConfig              `yaml:"log"`
	Model  map[string]interface{} `yaml:"model"`
	Search SearchConfig           `yaml:"search"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level string `yaml:"level"`
}

// SearchConfig は TrainAuto の設定です。Grids のキーはパラメータ名
// (c, gamma, p, nu, coef0, degree) です。
type SearchConfig struct {
	KFold    int                   `yaml:"kFold"`
	Balanced bool                  `yaml:"balanced"`
	Shuffle  bool                  `yaml:"shuffle"`
	Seed     uint64                `yaml:"seed"`
	Workers  int                   `yaml:"workers"`
	Grids    map[string]GridConfig `yaml:"grids"`
}

// GridConfig は1つのパラメータの対数グリッドです。LogStep が 0 のときは 2 です。
type GridConfig struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	LogStep float64 `yaml:"logStep"`
}

// LoadDotEnv は .env ファイルを環境変数に読み込みます。引数がなければ
// カレントディレクトリの .env を読みます。既に設定されている変数は上書きしません。
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "failed to load dotenv file")
	}
	return nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(bytes.NewReader(b))
}

// Parse は YAML を読み込み、環境変数の上書きを適用して検証します。
// 空の入力はすべて既定値の設定になります。
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Mark(errors.Wrap(err, "failed to parse config"), errors.ErrInvalidArgument)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	for _, e := range []struct {
		key string
		dst *int
	}{
		{EnvKFold, &c.Search.KFold},
		{EnvWorkers, &c.Search.Workers},
	} {
		v, ok := os.LookupEnv(e.key)
		if !ok || v == "" {
			continue
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.NewValidationError(e.key, "must be an integer", v)
		}
		*e.dst = i
	}
	return nil
}

// Validate checks the values that can be checked without building a model.
func (c *Config) Validate() error {
	if _, err := log.ToLogLevel(c.Log.Level); err != nil {
		return err
	}
	if k := c.Search.KFold; k != 0 && k < 2 {
		return errors.NewValidationError("search.kFold", "must be 0 or at least 2", k)
	}
	if c.Search.Workers < 0 {
		return errors.NewValidationError("search.workers", "must not be negative", c.Search.Workers)
	}
	for name := range c.Search.Grids {
		if _, err := svm.ParseParamKind(name); err != nil {
			return err
		}
	}
	return nil
}

// SetupLogger は Log.Level で既定のロガーを設定します。
func (c *Config) SetupLogger() error {
	return log.SetupLogger(c.Log.Level)
}

// NewModel builds an SVM from the model section. opts are applied first and
// the file values override them.
func (c *Config) NewModel(opts ...svm.Option) (*svm.SVM, error) {
	m := c.Model
	if m == nil {
		m = map[string]interface{}{}
	}
	return svm.NewFromConfig(m, opts...)
}

// gridOptionKey はパラメータに対応する AutoOptions のマッピングキーです。
var gridOptionKey = map[svm.ParamKind]string{
	svm.ParamC:      "cGrid",
	svm.ParamGamma:  "gammaGrid",
	svm.ParamP:      "pGrid",
	svm.ParamNu:     "nuGrid",
	svm.ParamCoef:   "coeffGrid",
	svm.ParamDegree: "degreeGrid",
}

// AutoOptions は search セクションを AutoOptions に変換します。
func (c *Config) AutoOptions() (svm.AutoOptions, error) {
	m := map[string]interface{}{
		"kFold":    c.Search.KFold,
		"balanced": c.Search.Balanced,
		"shuffle":  c.Search.Shuffle,
		"seed":     c.Search.Seed,
		"workers":  c.Search.Workers,
	}
	for name, g := range c.Search.Grids {
		kind, err := svm.ParseParamKind(name)
		if err != nil {
			return svm.AutoOptions{}, err
		}
		step := g.LogStep
		if step == 0 {
			step = 2
		}
		m[gridOptionKey[kind]] = map[string]interface{}{
			"minVal":  g.Min,
			"maxVal":  g.Max,
			"logStep": step,
		}
	}
	return svm.AutoOptionsFromMap(m)
}
