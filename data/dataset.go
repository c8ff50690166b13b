// Package data contains the dataset catalog and the batching iterator which
// feeds training. Batches are always exactly BatchSize samples: a trailing
// partial batch is dropped so downstream shape-dependent code stays fixed.
package data

import (
	"math/rand"
	"os"

	"github.com/deepgp/deepgp/num"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DataDir is the base directory searched for dataset files.
var DataDir = defaultDataDir()

func defaultDataDir() string {
	if dir := os.Getenv("DEEPGP_DATA"); dir != "" {
		return dir
	}
	return "data"
}

// Data interface type represents the raw samples for a training or test set.
type Data interface {
	Len() int
	Classes() []string
	Shape() []int
	Label(index []int, label []int32)
	Input(index []int, buf []float64)
}

// Load fetches a dataset by name from the local catalog. Image datasets
// come as idx files, tabular ones as npy array pairs under DataDir.
func Load(name string) (train, test Data, err error) {
	switch name {
	case "mnist":
		return LoadMNIST()
	default:
		tbl, err := LoadTable(name)
		if err != nil {
			return nil, nil, err
		}
		return tbl, tbl, nil
	}
}

// Dataset type wraps a Data source as a restartable infinite stream of
// shuffled fixed-size batches.
type Dataset struct {
	Data
	Samples   int
	BatchSize int
	Batches   int
	shuffle   bool
	indexes   []int
	batch     int
	epoch     int
	rng       *rand.Rand
	xBuf      []float64
	yBuf      []int32
	nfeat     int
}

// Create a new Dataset, allocate the batch buffers and set the batch size.
func NewDataset(d Data, batchSize, maxSamples int, shuffle bool, rng *rand.Rand) *Dataset {
	set := &Dataset{Data: d, Samples: d.Len(), shuffle: shuffle, rng: rng}
	if maxSamples > 0 && set.Samples > maxSamples {
		set.Samples = maxSamples
	}
	if batchSize == 0 || batchSize > set.Samples {
		set.BatchSize = set.Samples
	} else {
		set.BatchSize = batchSize
	}
	set.Batches = set.Samples / set.BatchSize
	set.nfeat = num.Prod(d.Shape())
	set.xBuf = make([]float64, set.nfeat*set.BatchSize)
	set.yBuf = make([]int32, set.BatchSize)
	set.indexes = make([]int, set.Samples)
	for i := range set.indexes {
		set.indexes[i] = i
	}
	if shuffle {
		set.Shuffle()
	}
	return set
}

// Get next batch of data. The returned matrix has exactly BatchSize rows and
// is only valid until the next call. The stream never ends: at the end of an
// epoch the indexes are reshuffled and iteration restarts.
func (d *Dataset) NextBatch() (x *mat.Dense, y []int32) {
	if d.batch >= d.Batches {
		d.batch = 0
		d.epoch++
		if d.shuffle {
			d.Shuffle()
		}
	}
	start := d.batch * d.BatchSize
	index := d.indexes[start : start+d.BatchSize]
	d.Input(index, d.xBuf)
	d.Label(index, d.yBuf)
	d.batch++
	return mat.NewDense(d.BatchSize, d.nfeat, d.xBuf), d.yBuf
}

// Rewind to start of data
func (d *Dataset) Rewind() {
	d.batch = 0
	d.epoch = 0
}

// Epoch returns how many full passes over the data have completed.
func (d *Dataset) Epoch() int { return d.epoch }

// Shuffle the data set
func (d *Dataset) Shuffle() {
	d.indexes = d.rng.Perm(d.Samples)
}

// Matrix copies up to maxSamples rows into a dense matrix with labels,
// for initialisation and evaluation passes outside the batch stream.
func (d *Dataset) Matrix(maxSamples int) (*mat.Dense, []int32) {
	n := d.Samples
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}
	index := d.indexes[:n]
	buf := make([]float64, n*d.nfeat)
	labels := make([]int32, n)
	d.Input(index, buf)
	d.Label(index, labels)
	return mat.NewDense(n, d.nfeat, buf), labels
}

// raw in-memory dataset, mainly used by tests
type memory struct {
	classes []string
	dims    []int
	labels  []int32
	inputs  []float64
}

// NewMemory creates an in-memory dataset which implements the Data interface.
func NewMemory(nclasses int, shape []int, labels []int32, inputs []float64) Data {
	classes := make([]string, nclasses)
	for i := range classes {
		classes[i] = string(rune('0' + i))
	}
	return &memory{classes: classes, dims: shape, labels: labels, inputs: inputs}
}

func (d *memory) Len() int { return len(d.labels) }

func (d *memory) Classes() []string { return d.classes }

func (d *memory) Shape() []int { return d.dims }

func (d *memory) Label(index []int, label []int32) {
	for i, ix := range index {
		label[i] = d.labels[ix]
	}
}

func (d *memory) Input(index []int, buf []float64) {
	nfeat := num.Prod(d.dims)
	for i, ix := range index {
		copy(buf[i*nfeat:(i+1)*nfeat], d.inputs[ix*nfeat:(ix+1)*nfeat])
	}
}

// Check if file exists under DataDir
func FileExists(name string) bool {
	_, err := os.Stat(fileInDataDir(name))
	return err == nil
}

func fileInDataDir(name string) string {
	return DataDir + "/" + name
}

func openDataFile(name string) (*os.File, error) {
	f, err := os.Open(fileInDataDir(name))
	if err != nil {
		return nil, errors.Wrapf(err, "data: cannot open %s under %s", name, DataDir)
	}
	return f, nil
}
