// Package report はグリッド探索の結果を gonum/plot で可視化します。
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
	"github.com/YuminosukeSato/svmkit/sklearn/svm"
)

// 既定の画像サイズ
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var paramKinds = []svm.ParamKind{
	svm.ParamC, svm.ParamGamma, svm.ParamP, svm.ParamNu, svm.ParamCoef, svm.ParamDegree,
}

// Trace は AutoOptions.OnCandidate に渡して探索結果を記録します。
type Trace struct {
	mu      sync.Mutex
	results []svm.SearchResult
}

// Record appends r. It is safe to use as AutoOptions.OnCandidate.
func (t *Trace) Record(r svm.SearchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = append(t.results, r)
}

// Results returns a copy of the recorded results in enumeration order.
func (t *Trace) Results() []svm.SearchResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]svm.SearchResult(nil), t.results...)
}

// Best は MeanError が最小の結果を返します。同点は先に列挙された方です。
func Best(results []svm.SearchResult) (svm.SearchResult, bool) {
	best, found := svm.SearchResult{}, false
	for _, r := range results {
		if math.IsInf(r.MeanError, 1) || math.IsNaN(r.MeanError) {
			continue
		}
		if !found || r.MeanError < best.MeanError {
			best, found = r, true
		}
	}
	return best, found
}

// Curve は kind 以外のパラメータを固定した1本の誤差曲線です。
type Curve struct {
	Label  string
	Points plotter.XYs
}

// Curves は results を kind 以外の探索パラメータの値ごとに分け、kind の値の
// 昇順に並べた曲線を返します。失敗した組み合わせ（+Inf）は点になりません。
func Curves(results []svm.SearchResult, kind svm.ParamKind) ([]Curve, error) {
	if len(results) == 0 {
		return nil, errors.NewValueError("report.Curves", "no search results")
	}
	varying := varyingKinds(results, kind)

	index := make(map[string]int)
	var curves []Curve
	for _, r := range results {
		if math.IsInf(r.MeanError, 0) || math.IsNaN(r.MeanError) {
			continue
		}
		label := seriesLabel(r.Params, varying)
		i, ok := index[label]
		if !ok {
			i = len(curves)
			index[label] = i
			curves = append(curves, Curve{Label: label})
		}
		curves[i].Points = append(curves[i].Points, plotter.XY{X: r.Params.Get(kind), Y: r.MeanError})
	}
	if len(curves) == 0 {
		return nil, errors.NewValueError("report.Curves", "every candidate failed")
	}
	for _, c := range curves {
		sort.SliceStable(c.Points, func(a, b int) bool { return c.Points[a].X < c.Points[b].X })
	}
	return curves, nil
}

// varyingKinds は kind 以外で results の中で値が変化するパラメータです。
func varyingKinds(results []svm.SearchResult, kind svm.ParamKind) []svm.ParamKind {
	var out []svm.ParamKind
	for _, k := range paramKinds {
		if k == kind {
			continue
		}
		first := results[0].Params.Get(k)
		for _, r := range results[1:] {
			if r.Params.Get(k) != first {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

func seriesLabel(p svm.Params, kinds []svm.ParamKind) string {
	if len(kinds) == 0 {
		return "mean error"
	}
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%g", k, p.Get(k))
	}
	return strings.Join(parts, " ")
}

// ErrorCurve は kind に対する平均交差検証誤差のプロットを作成します。
// kind の値がすべて正なら X 軸は対数目盛です。
func ErrorCurve(results []svm.SearchResult, kind svm.ParamKind) (*plot.Plot, error) {
	curves, err := Curves(results, kind)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Cross-validation error"
	p.X.Label.Text = kind.String()
	p.Y.Label.Text = "mean error"
	p.Legend.Top = true

	positive := true
	for _, c := range curves {
		for _, pt := range c.Points {
			positive = positive && pt.X > 0
		}
	}
	if positive {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for i, c := range curves {
		line, points, err := plotter.NewLinePoints(c.Points)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build curve %q", c.Label)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(c.Label, line, points)
	}

	if best, ok := Best(results); ok {
		marker, err := plotter.NewScatter(plotter.XYs{{X: best.Params.Get(kind), Y: best.MeanError}})
		if err != nil {
			return nil, errors.Wrap(err, "failed to mark best candidate")
		}
		marker.Radius = vg.Points(5)
		p.Add(marker)
		p.Legend.Add("best", marker)
	}
	return p, nil
}

// WriteErrorCurve は ErrorCurve を format（png, svg, pdf など）で w に書き出します。
func WriteErrorCurve(w io.Writer, results []svm.SearchResult, kind svm.ParamKind, format string) error {
	p, err := ErrorCurve(results, kind)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return errors.Wrapf(err, "unsupported image format %q", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write error curve")
	}
	return nil
}

// SaveErrorCurve saves the plot to path; the extension selects the format.
func SaveErrorCurve(path string, results []svm.SearchResult, kind svm.ParamKind) error {
	p, err := ErrorCurve(results, kind)
	if err != nil {
		return err
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "failed to save error curve to %s", path)
	}
	return nil
}
