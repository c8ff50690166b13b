// Package nnet contains the forward-only neural network used as a trainable
// feature map in front of a base kernel. Layers follow the same JSON config
// scheme as the rest of the module so networks can be saved and restored.
package nnet

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// Network type represents a multilayer feature extractor. It implements the
// kernel.FeatureMap interface: batches in, embeddings out, with all weights
// exposed as one flat parameter vector.
type Network struct {
	Layers  []Layer
	inShape []int
}

// New function creates a new network with the given layers and initialises
// the weights using a normal distribution scaled by 1/sqrt(nin).
func New(inShape []int, rng *rand.Rand, configs ...LayerConfig) *Network {
	n := &Network{inShape: inShape}
	shape := inShape
	for _, cfg := range configs {
		layer := cfg.Unmarshal()
		layer.Init(shape, rng)
		n.Layers = append(n.Layers, layer)
		shape = layer.OutShape()
	}
	return n
}

// Feed forward the input batch to get the embedded output.
func (n *Network) Transform(x mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(x)
	for _, layer := range n.Layers {
		out = layer.Fprop(out)
	}
	return out
}

// OutDim returns the dimension of the embedding space.
func (n *Network) OutDim() int {
	if len(n.Layers) == 0 {
		return num.Prod(n.inShape)
	}
	return num.Prod(n.Layers[len(n.Layers)-1].OutShape())
}

func (n *Network) NumParams() int {
	total := 0
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			total += l.NumParams()
		}
	}
	return total
}

func (n *Network) Params(dst []float64) {
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			l.Params(dst[:l.NumParams()])
			dst = dst[l.NumParams():]
		}
	}
}

func (n *Network) SetParams(src []float64) {
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			l.SetParams(src[:l.NumParams()])
			src = src[l.NumParams():]
		}
	}
}

// Print network description
func (n *Network) String() string {
	s := make([]string, len(n.Layers))
	shape := n.inShape
	for i, layer := range n.Layers {
		s[i] = fmt.Sprintf("%2d: %-25s %v", i, layer.ToString(), shape)
		shape = layer.OutShape()
	}
	return strings.Join(s, "\n")
}
