// Package vis renders training curves and latent embeddings to image files.
package vis

import (
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// LossPlot writes a line plot of the loss per iteration. The output format
// follows the file extension.
func LossPlot(losses []float64, path string) error {
	p := newPlot("training loss")
	p.X.Label.Text = "iteration"
	pts := make(plotter.XYs, len(losses))
	for i, v := range losses {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "vis: loss plot")
	}
	line.Width = 2
	line.Color = plotutil.Color(0)
	p.Add(line)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// LatentScatter writes a two-panel png comparing two 2d embeddings of the
// same samples, one scatter series per class label.
func LatentScatter(leftTitle string, left *mat.Dense, rightTitle string, right *mat.Dense,
	labels []int32, classes []string, path string) error {
	pLeft, err := scatterPanel(leftTitle, left, labels, classes)
	if err != nil {
		return err
	}
	pRight, err := scatterPanel(rightTitle, right, labels, classes)
	if err != nil {
		return err
	}
	img := vgimg.New(10*vg.Inch, 5*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter * 2}
	plots := [][]*plot.Plot{{pLeft, pRight}}
	canvases := plot.Align(plots, tiles, dc)
	pLeft.Draw(canvases[0][0])
	pRight.Draw(canvases[0][1])
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "vis: cannot create %s", path)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return errors.Wrap(err, "vis: write png")
	}
	return nil
}

func scatterPanel(title string, coords *mat.Dense, labels []int32, classes []string) (*plot.Plot, error) {
	n, d := coords.Dims()
	if d < 2 {
		return nil, errors.Errorf("vis: need at least 2 embedding dims, got %d", d)
	}
	p := newPlot(title)
	for ci, name := range classes {
		var pts plotter.XYs
		for i := 0; i < n; i++ {
			if int(labels[i]) != ci {
				continue
			}
			pts = append(pts, plotter.XY{X: coords.At(i, 0), Y: coords.At(i, 1)})
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrap(err, "vis: scatter")
		}
		sc.GlyphStyle.Color = plotutil.Color(ci)
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
		p.Legend.Add(name, sc)
	}
	return p, nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Padding, p.Y.Padding = 0, 0
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}
