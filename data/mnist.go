package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"path"

	"github.com/pkg/errors"
)

var mnistClasses = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

type labelHeader struct{ Magic, Num uint32 }

type imageHeader struct{ Magic, Num, Height, Width uint32 }

const (
	labelMagic = 2049
	imageMagic = 2051
)

// image dataset which implements the Data interface, pixels scaled to [0,1]
type imageData struct {
	classes []string
	dims    []int
	labels  []int32
	pixels  []float64
	nfeat   int
}

// LoadMNIST reads the 60000 train + 10000 test images in idx format from
// the mnist directory under DataDir.
func LoadMNIST() (train, test Data, err error) {
	if train, err = loadIdx("train-images-idx3-ubyte", "train-labels-idx1-ubyte"); err != nil {
		return
	}
	test, err = loadIdx("t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte")
	return
}

func loadIdx(imageFile, labelFile string) (Data, error) {
	labels, err := readLabels(labelFile)
	if err != nil {
		return nil, err
	}
	pixels, h, w, err := readImages(imageFile)
	if err != nil {
		return nil, err
	}
	if len(labels)*h*w != len(pixels) {
		return nil, errors.Errorf("data: %d labels do not match %d pixels", len(labels), len(pixels))
	}
	return &imageData{
		classes: mnistClasses,
		dims:    []int{h, w, 1},
		labels:  labels,
		pixels:  pixels,
		nfeat:   h * w,
	}, nil
}

func readImages(name string) (pixels []float64, h, w int, err error) {
	f, err := openDataFile(path.Join("mnist", name))
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()
	var head imageHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, 0, 0, errors.Wrapf(err, "data: bad image header in %s", name)
	}
	if head.Magic != imageMagic {
		return nil, 0, 0, errors.Errorf("data: %s is not an idx image file", name)
	}
	n, h, w := int(head.Num), int(head.Height), int(head.Width)
	fmt.Printf("read %d %dx%d images from %s\n", n, h, w, name)
	raw := make([]uint8, n*h*w)
	if _, err = io.ReadFull(f, raw); err != nil {
		return nil, 0, 0, errors.Wrapf(err, "data: short read from %s", name)
	}
	pixels = make([]float64, len(raw))
	for i, pix := range raw {
		pixels[i] = float64(pix) / 255
	}
	return pixels, h, w, nil
}

func readLabels(name string) (labels []int32, err error) {
	f, err := openDataFile(path.Join("mnist", name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head labelHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, errors.Wrapf(err, "data: bad label header in %s", name)
	}
	if head.Magic != labelMagic {
		return nil, errors.Errorf("data: %s is not an idx label file", name)
	}
	fmt.Printf("read %d labels from %s\n", head.Num, name)
	raw := make([]byte, head.Num)
	if _, err = io.ReadFull(f, raw); err != nil {
		return nil, errors.Wrapf(err, "data: short read from %s", name)
	}
	labels = make([]int32, head.Num)
	for i, label := range raw {
		labels[i] = int32(label)
	}
	return labels, nil
}

func (d *imageData) Len() int { return len(d.labels) }

func (d *imageData) Classes() []string { return d.classes }

func (d *imageData) Shape() []int { return d.dims }

func (d *imageData) Label(index []int, label []int32) {
	for i, ix := range index {
		label[i] = d.labels[ix]
	}
}

func (d *imageData) Input(index []int, buf []float64) {
	for i, ix := range index {
		copy(buf[i*d.nfeat:(i+1)*d.nfeat], d.pixels[ix*d.nfeat:(ix+1)*d.nfeat])
	}
}
