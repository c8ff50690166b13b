package data

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Table is a small tabular dataset: a dense matrix of continuous
// observations plus a label vector used only for visualisation.
// It implements the Data interface.
type Table struct {
	X       *mat.Dense
	Labels  []int32
	classes []string
}

// LoadTable reads the pre-packaged numeric array pair <name>_data.npy and
// <name>_labels.npy from DataDir.
func LoadTable(name string) (*Table, error) {
	x, err := readNpy(name + "_data.npy")
	if err != nil {
		return nil, err
	}
	l, err := readNpy(name + "_labels.npy")
	if err != nil {
		return nil, err
	}
	rl, cl := l.Dims()
	if cl != 1 {
		return nil, errors.Errorf("data: %s_labels.npy should have one column, got %d", name, cl)
	}
	rx, _ := x.Dims()
	if rl != rx {
		return nil, errors.Errorf("data: %d labels do not match %d rows", rl, rx)
	}
	labels := make([]int32, rl)
	nclasses := 0
	for i := range labels {
		labels[i] = int32(l.At(i, 0))
		if int(labels[i]) >= nclasses {
			nclasses = int(labels[i]) + 1
		}
	}
	classes := make([]string, nclasses)
	for i := range classes {
		classes[i] = strconv.Itoa(i)
	}
	fmt.Printf("read %v table from %s_data.npy\n", shapeOf(x), name)
	return &Table{X: x, Labels: labels, classes: classes}, nil
}

func readNpy(name string) (*mat.Dense, error) {
	f, err := openDataFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, errors.Wrapf(err, "data: cannot decode %s", name)
	}
	return &m, nil
}

func shapeOf(m mat.Matrix) []int {
	r, c := m.Dims()
	return []int{r, c}
}

// Matrix returns the raw observation matrix.
func (t *Table) Matrix() *mat.Dense { return t.X }

func (t *Table) Len() int { return len(t.Labels) }

func (t *Table) Classes() []string { return t.classes }

func (t *Table) Shape() []int {
	_, c := t.X.Dims()
	return []int{c}
}

func (t *Table) Label(index []int, label []int32) {
	for i, ix := range index {
		label[i] = t.Labels[ix]
	}
}

func (t *Table) Input(index []int, buf []float64) {
	_, c := t.X.Dims()
	for i, ix := range index {
		copy(buf[i*c:(i+1)*c], t.X.RawRowView(ix))
	}
}
