package svm

import (
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/svmkit/core/data"
	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// Fold は1つの学習／検証分割です。TrainIndices は昇順です。
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// FoldSplitter splits training data into folds.
type FoldSplitter interface {
	Split(d *data.TrainData) ([]Fold, error)
	GetNSplits() int
}

// KFold はサンプルを連続したブロックに分割します。
// 実際の分割数は min(NSplits, サンプル数) で、先頭の n mod k 個のフォールドが ⌈n/k⌉ 個を持ちます。
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewKFold creates a k-fold splitter.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: seed}
}

// GetNSplits returns the requested number of splits.
func (kf *KFold) GetNSplits() int { return kf.NSplits }

// Split implements FoldSplitter.
func (kf *KFold) Split(d *data.TrainData) ([]Fold, error) {
	n, k, err := foldCount(d, kf.NSplits)
	if err != nil {
		return nil, err
	}
	order := identity(n)
	if kf.Shuffle {
		shuffle(order, kf.RandomSeed)
	}

	assign := make([]int, n)
	size, rem := n/k, n%k
	pos := 0
	for f := 0; f < k; f++ {
		m := size
		if f < rem {
			m++
		}
		for _, i := range order[pos : pos+m] {
			assign[i] = f
		}
		pos += m
	}
	return buildFolds(assign, k), nil
}

// StratifiedKFold はクラスごとの比率を保つ分割です。
// 昇順のクラスラベル順にサンプルを並べ、t 番目を t mod k 番目のフォールドへ配ります。
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewStratifiedKFold creates a stratified splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: seed}
}

// GetNSplits returns the requested number of splits.
func (skf *StratifiedKFold) GetNSplits() int { return skf.NSplits }

// Split implements FoldSplitter.
func (skf *StratifiedKFold) Split(d *data.TrainData) ([]Fold, error) {
	n, k, err := foldCount(d, skf.NSplits)
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, n)
	for c, idx := range d.ClassIndices() {
		group := append([]int(nil), idx...)
		if skf.Shuffle {
			// クラスごとに独立したストリームで並べ替える
			shuffle(group, skf.RandomSeed+uint64(c))
		}
		order = append(order, group...)
	}

	assign := make([]int, n)
	for t, i := range order {
		assign[i] = t % k
	}
	return buildFolds(assign, k), nil
}

func foldCount(d *data.TrainData, requested int) (n, k int, err error) {
	if d == nil {
		return 0, 0, errors.NewValueError("Split", "training data must not be nil")
	}
	if requested < 2 {
		return 0, 0, errors.NewValidationError("kFold", "must be at least 2", requested)
	}
	n = d.SampleCount()
	if n < 2 {
		return 0, 0, errors.NewValidationError("samples", "cross-validation needs at least 2 samples", n)
	}
	return n, min(requested, n), nil
}

// buildFolds は各サンプルのフォールド番号からフォールドを組み立てます。
func buildFolds(assign []int, k int) []Fold {
	folds := make([]Fold, k)
	for i, f := range assign {
		folds[f].TestIndices = append(folds[f].TestIndices, i)
	}
	for f := range folds {
		train := make([]int, 0, len(assign)-len(folds[f].TestIndices))
		for i, g := range assign {
			if g != f {
				train = append(train, i)
			}
		}
		folds[f].TrainIndices = train
		sort.Ints(folds[f].TestIndices)
	}
	return folds
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func shuffle(idx []int, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(idx), func(i, j int) {
		idx[i], idx[j] = idx[j], idx[i]
	})
}
