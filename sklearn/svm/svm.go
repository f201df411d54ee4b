// Package svm implements a support vector machine with a pluggable dual
// solver and a k-fold cross-validated grid search (TrainAuto) over the
// hyperparameters C, gamma, p, nu, coef0 and degree.
package svm

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/svmkit/core/data"
	"github.com/YuminosukeSato/svmkit/core/matrix"
	"github.com/YuminosukeSato/svmkit/core/model"
	"github.com/YuminosukeSato/svmkit/metrics"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
	"github.com/YuminosukeSato/svmkit/pkg/log"
	"github.com/YuminosukeSato/svmkit/pkg/monitoring"
)

const modelName = "SVM"

// SVM は SVM モデルです。ハイパーパラメータと学習済み状態をインスタンスごとに保持します。
//
// Train / TrainAuto は trainMu で直列化され、予測は読み取りロックで並行に実行できます。
type SVM struct {
	trainMu sync.Mutex
	mu      sync.RWMutex

	params    Params
	state     *model.StateManager
	fit       *FitResult
	rawOutput bool

	solver    Solver
	logger    log.Logger
	collector *monitoring.Collector
}

var (
	_ model.StatModel       = (*SVM)(nil)
	_ model.ParameterGetter = (*SVM)(nil)
	_ model.ParameterSetter = (*SVM)(nil)
)

// New creates an untrained SVM with default hyperparameters.
func New(opts ...Option) *SVM {
	s := &SVM{
		params: DefaultParams(),
		state:  model.NewStateManager(modelName),
		solver: NewSMOSolver(),
		logger: log.GetLoggerWithName("svm"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.ModelNameKey, modelName)
	return s
}

// NewFromConfig は設定マッピングから SVM を作成します。
// config は map[string]interface{}、Params、*Params のいずれかでなければならず、
// それ以外（nil を含む）は ErrInvalidArgument です。空のマッピングは既定値のままです。
func NewFromConfig(config interface{}, opts ...Option) (*SVM, error) {
	s := New(opts...)
	switch c := config.(type) {
	case map[string]interface{}:
		if c == nil {
			return nil, errors.NewValidationError("config", "must be a mapping", nil)
		}
		if err := s.SetParams(c); err != nil {
			return nil, err
		}
	case Params:
		s.params = c.Clone()
	case *Params:
		if c == nil {
			return nil, errors.NewValidationError("config", "must be a mapping", nil)
		}
		s.params = c.Clone()
	default:
		return nil, errors.NewValidationError("config", "must be a mapping", config)
	}
	return s, nil
}

// GetParams returns the hyperparameters keyed by configuration name.
func (s *SVM) GetParams() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.ToMap()
}

// SetParams は partial に含まれるキーだけを上書きします。
// 未知のキーや型の合わない値があれば何も変更せずに ErrInvalidArgument を返します。
func (s *SVM) SetParams(partial map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.params.withMap(partial)
	if err != nil {
		return err
	}
	s.params = next
	return nil
}

// Params returns a copy of the hyperparameters.
func (s *SVM) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.Clone()
}

// C returns the regularization constant.
func (s *SVM) C() float64 { return s.Params().C }

func (s *SVM) Gamma() float64 { return s.Params().Gamma }

func (s *SVM) Coef0() float64 { return s.Params().Coef0 }

func (s *SVM) Degree() float64 { return s.Params().Degree }

func (s *SVM) Nu() float64 { return s.Params().Nu }

func (s *SVM) P() float64 { return s.Params().P }

func (s *SVM) SVMType() SVMType { return s.Params().SVMType }

func (s *SVM) KernelType() KernelType { return s.Params().KernelType }

func (s *SVM) ClassWeights() []float64 { return s.Params().ClassWeights }

func (s *SVM) TermCriteria() TermCriteria { return s.Params().TermCrit }

// IsTrained reports whether the model holds a converged fit.
func (s *SVM) IsTrained() bool { return s.state.IsTrained() }

// VarCount は最後に成功した学習の特徴量数です。未学習なら 0 です。
func (s *SVM) VarCount() int { return s.state.VarCount() }

// Solver returns the solver used by the model.
func (s *SVM) Solver() Solver { return s.solver }

// Train は現在のハイパーパラメータで1回学習します。
//
// 収束した場合は true を返し学習済み状態を更新します。収束しなかった場合は
// (false, nil) を返し、既存の状態を保持します。FlagReplaceModel 指定時は
// 非収束でもソルバーのエラーでも既存の状態を破棄します。
func (s *SVM) Train(d *data.TrainData, flags model.Flag) (bool, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	if d == nil {
		return false, errors.NewValueError("SVM.Train", "training data must not be nil")
	}
	params := s.Params()
	if err := params.Validate(classCount(params, d)); err != nil {
		return false, err
	}
	return s.fitAndCommit(d, params, flags, log.OperationTrain)
}

// TrainSamples は samples / layout / labels から TrainData を作成して学習します。
func (s *SVM) TrainSamples(samples *matrix.Matrix, layout data.Layout, labels *matrix.Matrix) (bool, error) {
	d, err := data.New(samples, layout, labels)
	if err != nil {
		return false, err
	}
	return s.Train(d, 0)
}

// fitAndCommit はソルバーを1回呼び出し、収束した場合だけ状態を置き換えます。
// 呼び出し側が trainMu を保持していること。
func (s *SVM) fitAndCommit(d *data.TrainData, params Params, flags model.Flag, op string) (bool, error) {
	logger := s.logger.With(log.OperationKey, op, log.PhaseKey, log.PhaseTraining)

	start := time.Now()
	fit, err := s.solver.Fit(d.SampleMatrix(), d.Labels(), params)
	elapsed := time.Since(start)
	svmType := params.SVMType.String()
	if err == nil && fit == nil {
		err = errors.NewModelError("SVM.Train", "solver", errors.New("solver returned no result"))
	}
	if err != nil {
		s.collector.ObserveFit(svmType, monitoring.FitFailed, elapsed)
		logger.Error("fit failed", log.ErrAttrKey, err, log.SamplesKey, d.SampleCount())
		if flags.Has(model.FlagReplaceModel) {
			s.discardFit()
		}
		return false, err
	}

	if !fit.Converged {
		s.collector.ObserveFit(svmType, monitoring.FitNotConverged, elapsed)
		if flags.Has(model.FlagReplaceModel) {
			s.discardFit()
		}
		warning := errors.NewConvergenceWarning("SMO", fit.Iterations, "solver did not reach the stopping criterion")
		errors.Warn(warning)
		logger.Warn("fit did not converge",
			log.IterationKey, fit.Iterations,
			log.SamplesKey, d.SampleCount(),
			log.HyperParamsKey, params.ToMap(),
		)
		return false, nil
	}

	s.collector.ObserveFit(svmType, monitoring.FitConverged, elapsed)
	s.mu.Lock()
	s.fit = fit
	s.rawOutput = flags.Has(model.FlagRawOutput)
	s.state.SetTrained(d.VarCount(), d.SampleCount())
	s.mu.Unlock()

	logger.Debug("fit converged",
		log.SamplesKey, d.SampleCount(),
		log.FeaturesKey, d.VarCount(),
		log.IterationKey, fit.Iterations,
		log.ErrorRateKey, fit.TrainError,
		log.DurationMsKey, elapsed.Milliseconds(),
	)
	return true, nil
}

// discardFit は学習済み状態を破棄し、未学習に戻します。
func (s *SVM) discardFit() {
	s.mu.Lock()
	s.fit = nil
	s.rawOutput = false
	s.state.Reset()
	s.mu.Unlock()
}

// PredictSample predicts a single sample.
func (s *SVM) PredictSample(sample []float64, flags model.Flag) (float64, error) {
	if len(sample) == 0 {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if err := s.state.RequireTrained("PredictSample"); err != nil {
			return 0, err
		}
		return 0, errors.NewDimensionError("PredictSample", s.state.VarCount(), 0, 1)
	}
	x := mat.NewDense(1, len(sample), append([]float64(nil), sample...))
	out, err := s.predict("PredictSample", x, flags.Has(model.FlagRawOutput), true)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Predict は samples の各行に対する予測値を行順に返します。
// 分類ではクラスラベル、1クラスでは 1（正常）/ 0（外れ値）、回帰では予測値です。
// FlagRawOutput（予測時または学習時に指定）があれば2クラス分類は決定関数値を返します。
func (s *SVM) Predict(samples *matrix.Matrix, flags model.Flag) ([]float64, error) {
	if samples == nil {
		return nil, errors.NewValueError("Predict", "samples must not be nil")
	}
	return s.predict("Predict", samples.Dense(), flags.Has(model.FlagRawOutput), true)
}

func (s *SVM) predict(method string, x mat.Matrix, raw, allowStoredRaw bool) ([]float64, error) {
	out, _, err := s.predictFit(method, x, raw, allowStoredRaw)
	return out, err
}

// predictFit は予測値と、その予測に使った fit の SVMType を同じロック内で返します。
func (s *SVM) predictFit(method string, x mat.Matrix, raw, allowStoredRaw bool) ([]float64, SVMType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.state.RequireTrained(method); err != nil {
		return nil, 0, err
	}
	svmType := s.fit.Params.SVMType
	n, c := x.Dims()
	if err := s.state.RequireVarCount(method, c); err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return []float64{}, svmType, nil
	}
	if allowStoredRaw && s.rawOutput {
		raw = true
	}
	out, err := s.solver.Predict(s.fit, x, raw)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "%s", method)
	}
	s.collector.AddPredictions(len(out))
	return out, svmType, nil
}

// SupportVectors はサポートベクターを1行1本で返します。
// LINEAR カーネルでは決定関数ごとに圧縮された重みベクトルです。サポートベクターがなければ空行列です。
func (s *SVM) SupportVectors() (*matrix.Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.state.RequireTrained("SupportVectors"); err != nil {
		return nil, err
	}
	return toMatrix(s.fit.SupportVectors)
}

// UncompressedSupportVectors は圧縮前のサポートベクターを返します。
// ソルバーが対応していない場合は ErrNotSupported です。
func (s *SVM) UncompressedSupportVectors() (*matrix.Matrix, error) {
	if !s.solver.Capabilities().UncompressedSupportVectors {
		return nil, errors.NewNotSupportedError("UncompressedSupportVectors", "uncompressed support vectors")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.state.RequireTrained("UncompressedSupportVectors"); err != nil {
		return nil, err
	}
	return toMatrix(s.fit.UncompressedSupportVectors)
}

// DecisionFunctions returns a copy of the fitted decision functions.
func (s *SVM) DecisionFunctions() ([]DecisionFunction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.state.RequireTrained("DecisionFunctions"); err != nil {
		return nil, err
	}
	out := make([]DecisionFunction, len(s.fit.Decisions))
	for i, df := range s.fit.Decisions {
		df.Alpha = append([]float64(nil), df.Alpha...)
		df.SVIndex = append([]int(nil), df.SVIndex...)
		out[i] = df
	}
	return out, nil
}

// CalcError は d に対する誤差を返します。
// C_SVC / NU_SVC / ONE_CLASS は誤分類率（0〜1）、EPS_SVR / NU_SVR は平均二乗誤差です。
// isTestSet はログのフェーズだけを切り替えます。
func (s *SVM) CalcError(d *data.TrainData, isTestSet bool) (float64, error) {
	e, _, err := s.CalcErrorWithOutputs(d, isTestSet)
	return e, err
}

// CalcErrorWithOutputs is CalcError that also returns the predictions.
func (s *SVM) CalcErrorWithOutputs(d *data.TrainData, isTestSet bool) (float64, []float64, error) {
	if d == nil {
		return 0, nil, errors.NewValueError("CalcError", "data must not be nil")
	}
	// 誤差指標は学習時の SVMType で選ぶ。学習後の SetParams は反映しない
	pred, svmType, err := s.predictFit("CalcError", d.SampleMatrix(), false, false)
	if err != nil {
		return 0, nil, err
	}
	e, err := sampleError(svmType, d.Labels(), pred)
	if err != nil {
		return 0, nil, err
	}

	phase := log.PhaseTraining
	if isTestSet {
		phase = log.PhaseTesting
	}
	s.logger.Debug("error calculated",
		log.OperationKey, log.OperationCalcError,
		log.PhaseKey, phase,
		log.SamplesKey, d.SampleCount(),
		log.ErrorRateKey, e,
	)
	return e, pred, nil
}

// sampleError は SVMType に応じた誤差指標を計算します。
func sampleError(t SVMType, y, pred []float64) (float64, error) {
	if t.IsRegression() {
		return metrics.MeanSquaredError(y, pred)
	}
	return metrics.MisclassificationRate(y, pred)
}

func classCount(p Params, d *data.TrainData) int {
	if p.SVMType != CSVC {
		return 0
	}
	return len(d.ClassLabels())
}

func toMatrix(m *mat.Dense) (*matrix.Matrix, error) {
	if m == nil {
		return matrix.Empty(matrix.Float64), nil
	}
	return matrix.NewFromMatrix(m, matrix.Float64)
}
