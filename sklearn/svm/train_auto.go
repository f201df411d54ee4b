package svm

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/svmkit/core/data"
	"github.com/YuminosukeSato/svmkit/core/model"
	"github.com/YuminosukeSato/svmkit/core/parallel"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
	"github.com/YuminosukeSato/svmkit/pkg/log"
)

// DefaultKFold は AutoOptions.KFold が 0 のときの分割数です。
const DefaultKFold = 10

// AutoOptions は TrainAuto の設定です。nil のグリッドは現在の値に固定されます。
type AutoOptions struct {
	// KFold は交差検証の分割数です。0 は DefaultKFold、それ以外は 2 以上が必要です。
	KFold      int
	CGrid      *ParamGrid
	GammaGrid  *ParamGrid
	PGrid      *ParamGrid
	NuGrid     *ParamGrid
	CoeffGrid  *ParamGrid
	DegreeGrid *ParamGrid
	// Balanced は分類でクラス比率を保ったフォールドを作ります。
	Balanced bool
	// Shuffle はフォールド分割前に Seed でサンプル順を並べ替えます。
	Shuffle bool
	Seed    uint64
	// Workers は並列に学習するタスク数の上限です。0 以下は runtime.NumCPU() です。
	Workers int
	// OnCandidate は評価した組み合わせごとに列挙順で呼ばれます。
	OnCandidate func(SearchResult)
}

// SearchResult は1つのハイパーパラメータの組み合わせの評価結果です。
type SearchResult struct {
	Index  int
	Params Params
	// MeanError はフォールド平均の検証誤差です。失敗したフォールドがあれば +Inf です。
	MeanError  float64
	FoldErrors []float64
}

func (o AutoOptions) grid(kind ParamKind) *ParamGrid {
	switch kind {
	case ParamC:
		return o.CGrid
	case ParamGamma:
		return o.GammaGrid
	case ParamP:
		return o.PGrid
	case ParamNu:
		return o.NuGrid
	case ParamCoef:
		return o.CoeffGrid
	case ParamDegree:
		return o.DegreeGrid
	}
	return nil
}

// searchPlan は検証済みのフォールドと組み合わせの一覧です。
type searchPlan struct {
	folds  []Fold
	train  []*data.TrainData
	test   []*data.TrainData
	combos []Params
}

// newSearchPlan はフォールド計算の前にすべての入力を検証します。
func newSearchPlan(base Params, d *data.TrainData, opts AutoOptions) (*searchPlan, error) {
	k := opts.KFold
	if k == 0 {
		k = DefaultKFold
	}
	if k < 2 {
		return nil, errors.NewValidationError("kFold", "must be at least 2", opts.KFold)
	}
	if n := d.SampleCount(); n < 2 {
		return nil, errors.NewValidationError("samples", "cross-validation needs at least 2 samples", n)
	}

	nClasses := classCount(base, d)
	if err := base.Validate(nClasses); err != nil {
		return nil, err
	}

	values := make([][]float64, len(searchOrder))
	for i, kind := range searchOrder {
		// 使わない次元のグリッドも検証してから固定する
		g := opts.grid(kind)
		if g != nil {
			if g.Kind != kind {
				return nil, errors.NewValidationError(kind.String()+"Grid",
					"grid kind does not match ("+g.Kind.String()+")", int(g.Kind))
			}
			if err := g.Validate(); err != nil {
				return nil, err
			}
		}
		if g == nil || !base.Uses(kind) {
			fixed := FixedGrid(kind, base.Get(kind))
			g = &fixed
		}
		values[i] = g.Values()
	}

	plan := &searchPlan{}
	for _, p := range cartesian(base, values) {
		if err := p.Validate(nClasses); err != nil {
			return nil, err
		}
		plan.combos = append(plan.combos, p)
	}

	var splitter FoldSplitter = NewKFold(k, opts.Shuffle, opts.Seed)
	if opts.Balanced && base.SVMType.IsClassifier() {
		splitter = NewStratifiedKFold(k, opts.Shuffle, opts.Seed)
	}
	folds, err := splitter.Split(d)
	if err != nil {
		return nil, err
	}
	plan.folds = folds
	for _, f := range folds {
		tr, err := d.Subset(f.TrainIndices)
		if err != nil {
			return nil, err
		}
		te, err := d.Subset(f.TestIndices)
		if err != nil {
			return nil, err
		}
		plan.train = append(plan.train, tr)
		plan.test = append(plan.test, te)
	}
	return plan, nil
}

// cartesian は C, Gamma, P, Nu, Coef, Degree の順（Degree が最内）で直積を列挙します。
func cartesian(base Params, values [][]float64) []Params {
	combos := []Params{base.Clone()}
	for i, kind := range searchOrder {
		next := make([]Params, 0, len(combos)*len(values[i]))
		for _, p := range combos {
			for _, v := range values[i] {
				q := p.Clone()
				q.set(kind, v)
				next = append(next, q)
			}
		}
		combos = next
	}
	return combos
}

// TrainAuto は k 分割交差検証によるグリッド探索で最良のハイパーパラメータを選び、
// それをモデルに設定して全データで学習します。返り値は最終学習の収束結果です。
// 最終学習が失敗・非収束の場合、以前の学習済み状態は破棄され未学習になります。
func (s *SVM) TrainAuto(d *data.TrainData, opts AutoOptions) (bool, error) {
	return s.TrainAutoContext(context.Background(), d, opts)
}

// TrainAutoContext is TrainAuto with cancellation. When ctx is done before
// the search finishes, nothing is committed and ctx.Err() is returned.
func (s *SVM) TrainAutoContext(ctx context.Context, d *data.TrainData, opts AutoOptions) (bool, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	if d == nil {
		return false, errors.NewValueError("SVM.TrainAuto", "training data must not be nil")
	}
	start := time.Now()
	plan, err := newSearchPlan(s.Params(), d, opts)
	if err != nil {
		return false, err
	}

	k := len(plan.folds)
	tasks := len(plan.combos) * k
	workers := parallel.Workers(opts.Workers, tasks)
	logger := s.logger.With(log.OperationKey, log.OperationTrainAuto)
	logger.Debug("grid search started",
		log.SamplesKey, d.SampleCount(),
		log.FoldsKey, k,
		log.CandidatesKey, len(plan.combos),
		log.WorkersKey, workers,
	)

	scores := make([]float64, tasks)
	err = parallel.ForEach(ctx, tasks, workers, func(t int) {
		c, f := t/k, t%k
		scores[t] = s.scoreFold(plan.combos[c], plan.train[f], plan.test[f])
	})
	if err != nil {
		logger.Warn("grid search cancelled", log.ErrAttrKey, err)
		return false, err
	}

	best, bestErr := 0, math.Inf(1)
	for c, p := range plan.combos {
		foldErrors := scores[c*k : (c+1)*k]
		mean := stat.Mean(foldErrors, nil)
		s.collector.ObserveCandidate(math.IsInf(mean, 1))
		if opts.OnCandidate != nil {
			opts.OnCandidate(SearchResult{
				Index:      c,
				Params:     p.Clone(),
				MeanError:  mean,
				FoldErrors: append([]float64(nil), foldErrors...),
			})
		}
		if mean < bestErr {
			best, bestErr = c, mean
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	winner := plan.combos[best]
	s.mu.Lock()
	s.params = winner.Clone()
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.collector.ObserveSearch(elapsed, bestErr)
	logger.Info("grid search completed",
		log.CandidatesKey, len(plan.combos),
		log.CandidateIndexKey, best,
		log.FoldsKey, k,
		log.ErrorRateKey, bestErr,
		log.HyperParamsKey, winner.ToMap(),
		log.DurationMsKey, elapsed.Milliseconds(),
	)

	// 勝者の params はすでに反映済みなので、最終学習の失敗時は古い fit を残さない
	return s.fitAndCommit(d, winner, model.FlagReplaceModel, log.OperationTrainAuto)
}

// scoreFold は1つの (組み合わせ, フォールド) を学習・評価します。
// 失敗・非収束・panic はすべて +Inf です。
func (s *SVM) scoreFold(p Params, train, test *data.TrainData) float64 {
	score := math.Inf(1)
	err := errors.SafeExecute("TrainAuto.fold", func() error {
		fit, err := s.solver.Fit(train.SampleMatrix(), train.Labels(), p)
		if err != nil {
			return err
		}
		if fit == nil || !fit.Converged {
			return nil
		}
		pred, err := s.solver.Predict(fit, test.SampleMatrix(), false)
		if err != nil {
			return err
		}
		e, err := sampleError(p.SVMType, test.Labels(), pred)
		if err != nil {
			return err
		}
		if !math.IsNaN(e) {
			score = e
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("fold failed", log.ErrAttrKey, err, log.OperationKey, log.OperationTrainAuto)
		return math.Inf(1)
	}
	return score
}
