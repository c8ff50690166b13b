package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// Layer interface type represents one layer of the feature extractor.
// Input and output batches are dense matrices with one sample per row;
// multi-dimensional shapes describe the layout of each row.
type Layer interface {
	Init(inShape []int, rng *rand.Rand)
	OutShape() []int
	Fprop(x *mat.Dense) *mat.Dense
	ToString() string
}

// ParamLayer is a layer with trainable weight and bias parameters.
type ParamLayer interface {
	Layer
	num.Trainable
}

// Layer configuration details
type LayerConfig struct {
	Type string
	Data json.RawMessage `json:",omitempty"`
}

type ConfigLayer interface {
	Marshal() LayerConfig
}

// Unmarshal JSON data and construct new layer
func (l LayerConfig) Unmarshal() Layer {
	switch l.Type {
	case "conv":
		cfg := new(Conv)
		return cfg.unmarshal(l.Data)
	case "maxPool":
		cfg := new(MaxPool)
		return cfg.unmarshal(l.Data)
	case "linear":
		cfg := new(Linear)
		return cfg.unmarshal(l.Data)
	case "activation":
		cfg := new(Activation)
		return cfg.unmarshal(l.Data)
	case "flatten":
		return &flatten{}
	default:
		panic("invalid layer type: " + l.Type)
	}
}

func (l LayerConfig) String() string {
	return l.Unmarshal().ToString()
}

// Convolutional layer, implements ParamLayer interface.
type Conv struct {
	Nfeats, Size, Stride, Pad int
}

func (c Conv) Marshal() LayerConfig {
	if c.Stride == 0 {
		c.Stride = 1
	}
	return LayerConfig{Type: "conv", Data: marshal(c)}
}

func (c Conv) ToString() string {
	return fmt.Sprintf("conv %+v", c)
}

func (c *Conv) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	if c.Stride == 0 {
		c.Stride = 1
	}
	return &conv{Conv: *c}
}

// Max pooling layer, should follow conv layer.
type MaxPool struct {
	Size, Stride int
}

func (c MaxPool) Marshal() LayerConfig {
	if c.Stride == 0 {
		c.Stride = c.Size
	}
	return LayerConfig{Type: "maxPool", Data: marshal(c)}
}

func (c MaxPool) ToString() string {
	return fmt.Sprintf("maxPool %+v", c)
}

func (c *MaxPool) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	if c.Stride == 0 {
		c.Stride = c.Size
	}
	return &maxPool{MaxPool: *c}
}

// Linear fully connected layer, implements ParamLayer interface.
type Linear struct {
	Nout int
}

func (c Linear) Marshal() LayerConfig {
	return LayerConfig{Type: "linear", Data: marshal(c)}
}

func (c Linear) ToString() string {
	return fmt.Sprintf("linear %+v", c)
}

func (c *Linear) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &linear{Linear: *c}
}

// Tanh, sigmoid or relu activation layer.
type Activation struct {
	Atype string
}

func (c Activation) Marshal() LayerConfig {
	return LayerConfig{Type: "activation", Data: marshal(c)}
}

func (c Activation) ToString() string {
	return fmt.Sprintf("activation %+v", c)
}

func (c *Activation) unmarshal(data json.RawMessage) Layer {
	layer := &activation{Activation: *c}
	unmarshal(data, &layer.Activation)
	switch layer.Atype {
	case "sigmoid":
		layer.activ = func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
	case "tanh":
		layer.activ = math.Tanh
	case "relu":
		layer.activ = func(x float64) float64 { return math.Max(x, 0) }
	default:
		panic(fmt.Sprintf("activation type %s invalid", layer.Atype))
	}
	return layer
}

// Flatten layer reshapes multi-dimensional input to one dimension.
type Flatten struct{}

func (c Flatten) Marshal() LayerConfig {
	return LayerConfig{Type: "flatten"}
}

// conv layer implementation: direct forward convolution over rows stored as
// [h, w, c] with index (y*w+x)*c+ch.
type conv struct {
	Conv
	inShape  []int
	outShape []int
	w        []float64 // [size*size*c, nfeats]
	b        []float64
}

func (l *conv) Init(inShape []int, rng *rand.Rand) {
	if len(inShape) != 3 {
		panic("Conv: expect h,w,c input shape")
	}
	h, w, c := inShape[0], inShape[1], inShape[2]
	ho := (h+2*l.Pad-l.Size)/l.Stride + 1
	wo := (w+2*l.Pad-l.Size)/l.Stride + 1
	l.inShape = inShape
	l.outShape = []int{ho, wo, l.Nfeats}
	nin := l.Size * l.Size * c
	l.w = make([]float64, nin*l.Nfeats)
	l.b = make([]float64, l.Nfeats)
	scale := 1 / math.Sqrt(float64(nin))
	for i := range l.w {
		l.w[i] = rng.NormFloat64() * scale
	}
}

func (l *conv) OutShape() []int { return l.outShape }

func (l *conv) Fprop(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	h, w, c := l.inShape[0], l.inShape[1], l.inShape[2]
	ho, wo := l.outShape[0], l.outShape[1]
	out := mat.NewDense(n, ho*wo*l.Nfeats, nil)
	for bi := 0; bi < n; bi++ {
		row := x.RawRowView(bi)
		orow := out.RawRowView(bi)
		for oy := 0; oy < ho; oy++ {
			for ox := 0; ox < wo; ox++ {
				for f := 0; f < l.Nfeats; f++ {
					sum := l.b[f]
					for ky := 0; ky < l.Size; ky++ {
						y := oy*l.Stride + ky - l.Pad
						if y < 0 || y >= h {
							continue
						}
						for kx := 0; kx < l.Size; kx++ {
							xx := ox*l.Stride + kx - l.Pad
							if xx < 0 || xx >= w {
								continue
							}
							for ch := 0; ch < c; ch++ {
								wix := ((ky*l.Size+kx)*c + ch) * l.Nfeats
								sum += row[(y*w+xx)*c+ch] * l.w[wix+f]
							}
						}
					}
					orow[(oy*wo+ox)*l.Nfeats+f] = sum
				}
			}
		}
	}
	return out
}

func (l *conv) NumParams() int { return len(l.w) + len(l.b) }

func (l *conv) Params(dst []float64) {
	copy(dst, l.w)
	copy(dst[len(l.w):], l.b)
}

func (l *conv) SetParams(src []float64) {
	copy(l.w, src)
	copy(l.b, src[len(l.w):])
}

// max pooling implementation
type maxPool struct {
	MaxPool
	inShape  []int
	outShape []int
}

func (l *maxPool) Init(inShape []int, rng *rand.Rand) {
	if len(inShape) != 3 {
		panic("MaxPool: expect h,w,c input shape")
	}
	l.inShape = inShape
	l.outShape = []int{inShape[0] / l.Stride, inShape[1] / l.Stride, inShape[2]}
}

func (l *maxPool) OutShape() []int { return l.outShape }

func (l *maxPool) Fprop(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	h, w, c := l.inShape[0], l.inShape[1], l.inShape[2]
	ho, wo := l.outShape[0], l.outShape[1]
	out := mat.NewDense(n, ho*wo*c, nil)
	for bi := 0; bi < n; bi++ {
		row := x.RawRowView(bi)
		orow := out.RawRowView(bi)
		for oy := 0; oy < ho; oy++ {
			for ox := 0; ox < wo; ox++ {
				for ch := 0; ch < c; ch++ {
					best := math.Inf(-1)
					for ky := 0; ky < l.Size; ky++ {
						y := oy*l.Stride + ky
						if y >= h {
							continue
						}
						for kx := 0; kx < l.Size; kx++ {
							xx := ox*l.Stride + kx
							if xx >= w {
								continue
							}
							if v := row[(y*w+xx)*c+ch]; v > best {
								best = v
							}
						}
					}
					orow[(oy*wo+ox)*c+ch] = best
				}
			}
		}
	}
	return out
}

// linear layer implementation
type linear struct {
	Linear
	nin      int
	outShape []int
	w        *mat.Dense
	b        []float64
}

func (l *linear) Init(inShape []int, rng *rand.Rand) {
	l.nin = num.Prod(inShape)
	l.outShape = []int{l.Nout}
	l.w = mat.NewDense(l.nin, l.Nout, nil)
	scale := 1 / math.Sqrt(float64(l.nin))
	for i := 0; i < l.nin; i++ {
		for j := 0; j < l.Nout; j++ {
			l.w.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	l.b = make([]float64, l.Nout)
}

func (l *linear) OutShape() []int { return l.outShape }

func (l *linear) Fprop(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(n, l.Nout, nil)
	out.Mul(x, l.w)
	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] += l.b[j]
		}
	}
	return out
}

func (l *linear) NumParams() int { return l.nin*l.Nout + l.Nout }

func (l *linear) Params(dst []float64) {
	copy(dst, l.w.RawMatrix().Data)
	copy(dst[l.nin*l.Nout:], l.b)
}

func (l *linear) SetParams(src []float64) {
	copy(l.w.RawMatrix().Data, src)
	copy(l.b, src[l.nin*l.Nout:])
}

// activation layer implementation
type activation struct {
	Activation
	outShape []int
	activ    func(float64) float64
}

func (l *activation) Init(inShape []int, rng *rand.Rand) {
	l.outShape = inShape
}

func (l *activation) OutShape() []int { return l.outShape }

func (l *activation) Fprop(x *mat.Dense) *mat.Dense {
	n, c := x.Dims()
	out := mat.NewDense(n, c, nil)
	out.Apply(func(i, j int, v float64) float64 { return l.activ(v) }, x)
	return out
}

// flatten layer implementation
type flatten struct {
	outShape []int
}

func (l *flatten) Init(inShape []int, rng *rand.Rand) {
	l.outShape = []int{num.Prod(inShape)}
}

func (l *flatten) OutShape() []int { return l.outShape }

func (l *flatten) Fprop(x *mat.Dense) *mat.Dense { return x }

func (l *flatten) ToString() string { return "flatten {}" }

func marshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func unmarshal(data json.RawMessage, v interface{}) {
	if data == nil {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		panic(err)
	}
}
