// Train a sparse variational GP classifier on MNIST with a convolutional
// feature map in front of an RBF base kernel. Settings come from a JSON
// config file under the data directory, with key=value arguments applied
// on top, e.g.
//
//	svgp-mnist -conf mnist.conf Iterations=2000 LearningRate=0.01
package main

import (
	"flag"
	"fmt"
	"math/rand"

	"github.com/deepgp/deepgp/data"
	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/inducing"
	"github.com/deepgp/deepgp/kernel"
	"github.com/deepgp/deepgp/likelihood"
	"github.com/deepgp/deepgp/nnet"
	"github.com/deepgp/deepgp/train"
	"github.com/deepgp/deepgp/vis"
)

const (
	initSamples = 512
	testBatch   = 250
)

func defaultConfig() train.Config {
	return train.Config{
		DataSet:      "mnist",
		LearningRate: 0.001,
		Jitter:       1e-6,
		Iterations:   1000,
		BatchSize:    64,
		NumInducing:  100,
		MCSamples:    20,
		LogEvery:     50,
		RandSeed:     42,
	}.WithKernel(kernel.NewRBF()).AddLayers(
		nnet.Conv{Nfeats: 8, Size: 5, Stride: 2, Pad: 2},
		nnet.Activation{Atype: "relu"},
		nnet.MaxPool{Size: 2},
		nnet.Flatten{},
		nnet.Linear{Nout: 30},
		nnet.Activation{Atype: "tanh"},
	)
}

func main() {
	confFile := flag.String("conf", "", "load model config from this file under the data dir")
	saveFile := flag.String("save", "", "save the effective config to this file under the data dir")
	lossFile := flag.String("lossplot", "", "write loss curve to this file")
	flag.Parse()

	conf := defaultConfig()
	var err error
	if *confFile != "" {
		conf, err = train.LoadConfig(*confFile)
		train.CheckErr(err)
	}
	conf, err = conf.Apply(flag.Args())
	train.CheckErr(err)
	if *saveFile != "" {
		train.CheckErr(conf.Save(*saveFile))
	}
	fmt.Println(conf)

	rng := train.SetSeed(conf.RandSeed)
	trainData, testData, err := data.Load(conf.DataSet)
	train.CheckErr(err)
	trainSet := data.NewDataset(trainData, conf.BatchSize, conf.MaxSamples, true, rng)

	// feature map and composite kernel
	net := nnet.New(trainData.Shape(), rng, conf.Layers...)
	fmt.Println(net)
	kern := kernel.NewDeep(net, conf.Kernel.Unmarshal())

	// inducing points initialised by clustering transformed training samples
	xInit, _ := trainSet.Matrix(initSamples)
	points := inducing.FromKMeans(net.Transform(xInit), conf.NumInducing, inducing.FeatureSpace, rng)

	settings := gp.DefaultSettings()
	settings.Jitter = conf.Jitter
	settings.MCSamples = conf.MCSamples
	settings.Seed = conf.RandSeed
	model := gp.NewSVGP(kern, likelihood.Softmax{Classes: len(trainData.Classes())},
		points, trainSet.Samples, settings)
	fmt.Println(model.Summary())

	rec := &train.Recorder{LogEvery: conf.LogEvery}
	train.Train(model, trainSet, train.NewAdam(conf.LearningRate), conf.Iterations, rec)

	acc := evaluate(model, testData, conf.MaxSamples, rng)
	fmt.Printf("test accuracy: %.2f%%\n", 100*acc)

	if *lossFile != "" {
		train.CheckErr(vis.LossPlot(rec.Losses(), *lossFile))
	}
}

// mean accuracy over fixed size test batches
func evaluate(model *gp.SVGP, testData data.Data, maxSamples int, rng *rand.Rand) float64 {
	testSet := data.NewDataset(testData, testBatch, maxSamples, false, rng)
	var acc float64
	for batch := 0; batch < testSet.Batches; batch++ {
		x, y := testSet.NextBatch()
		pred, err := model.PredictClasses(x)
		train.CheckErr(err)
		acc += gp.Accuracy(pred, y)
	}
	return acc / float64(testSet.Batches)
}
