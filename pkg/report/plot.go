package report

import (
	"bytes"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"fetalhealth/pkg/model"
)

// ErrRender is returned when a chart cannot be built or encoded.
var ErrRender = errors.New("render error")

const fileMode = 0644

// Artifact is an encoded image waiting to be written.
type Artifact struct {
	Name string
	Data []byte
}

// ConfusionHeatmap draws cm as a blue heatmap with the count printed in every
// cell. Row 0 (the first true class) is drawn at the top.
func ConfusionHeatmap(cm [][]int, names []string) (*plot.Plot, error) {
	n := len(cm)
	if n == 0 || len(names) != n {
		return nil, errors.Wrapf(ErrRender, "confusion matrix %dx? with %d class names", n, len(names))
	}
	for _, row := range cm {
		if len(row) != n {
			return nil, errors.Wrap(ErrRender, "confusion matrix is not square")
		}
	}

	p := plot.New()
	p.Title.Text = "Confusion Matrix - Fetal Health Classification"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(20)
	p.X.Label.Text = "Predicted Label"
	p.Y.Label.Text = "True Label"

	grid := confusionGrid{cm: cm}
	hm := plotter.NewHeatMap(grid, blues(256))
	hm.Min = 0
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	// cell annotations, white on dark cells
	thresh := hm.Max / 2
	xys := make(plotter.XYs, 0, n*n)
	texts := make([]string, 0, n*n)
	values := make([]float64, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := grid.Z(c, r)
			xys = append(xys, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			texts = append(texts, strconv.Itoa(int(v)))
			values = append(values, v)
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, errors.Wrapf(ErrRender, "cell labels: %v", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(12)
		if values[i] > thresh {
			labels.TextStyle[i].Color = color.White
		} else {
			labels.TextStyle[i].Color = color.Black
		}
	}
	p.Add(labels)

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	reversed := make([]string, n)
	for i, name := range names {
		reversed[n-1-i] = name
	}
	p.NominalY(reversed...)
	return p, nil
}

// ImportanceChart draws a horizontal bar chart, most important feature on top.
func ImportanceChart(ranking []model.FeatureImportance) (*plot.Plot, error) {
	if len(ranking) == 0 {
		return nil, errors.Wrap(ErrRender, "no feature importances")
	}

	n := len(ranking)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, fi := range ranking {
		// bars are laid out bottom-up
		values[n-1-i] = fi.Score
		names[n-1-i] = fi.Name
	}

	p := plot.New()
	p.Title.Text = "Top " + strconv.Itoa(n) + " Most Important Features"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(20)
	p.X.Label.Text = "Importance Score"
	p.X.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, errors.Wrapf(ErrRender, "bar chart: %v", err)
	}
	bars.Horizontal = true
	bars.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// Render encodes p as a PNG of the given size in inches and resolution.
func Render(p *plot.Plot, width, height float64, dpi int) ([]byte, error) {
	if width <= 0 || height <= 0 || dpi <= 0 {
		return nil, errors.Wrapf(ErrRender, "invalid canvas %vx%v in @ %d dpi", width, height, dpi)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, errors.Wrapf(ErrRender, "encode png: %v", err)
	}
	return buf.Bytes(), nil
}

// WriteArtifacts writes every artifact into dir, replacing existing files.
func WriteArtifacts(dir string, artifacts []Artifact) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create output dir %s", dir)
	}
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Name)
		if err := os.WriteFile(path, a.Data, fileMode); err != nil {
			return paths, errors.Wrapf(err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// confusionGrid adapts a count matrix to plotter.GridXYZ. Grid row 0 is the
// bottom of the plot, so matrix rows are flipped.
type confusionGrid struct {
	cm [][]int
}

func (g confusionGrid) Dims() (c, r int)   { return len(g.cm[0]), len(g.cm) }
func (g confusionGrid) Z(c, r int) float64 { return float64(g.cm[len(g.cm)-1-r][c]) }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }

// sequentialPalette is a light-to-dark single hue palette.
type sequentialPalette []color.Color

func (s sequentialPalette) Colors() []color.Color { return s }

// blues interpolates from near-white to dark blue.
func blues(n int) sequentialPalette {
	lo := color.RGBA{R: 247, G: 251, B: 255, A: 255}
	hi := color.RGBA{R: 8, G: 48, B: 107, A: 255}
	out := make(sequentialPalette, n)
	for i := range out {
		t := float64(i) / float64(max(n-1, 1))
		out[i] = color.RGBA{
			R: lerp(lo.R, hi.R, t),
			G: lerp(lo.G, hi.G, t),
			B: lerp(lo.B, hi.B, t),
			A: 255,
		}
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
