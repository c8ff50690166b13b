// Fit a Bayesian GPLVM to a small tabular dataset and plot the learned
// latent embedding next to plain PCA. Settings come from a JSON config file
// under the data directory, with key=value arguments applied on top, e.g.
//
//	gplvm-oil -conf oil.conf LatentDim=3 NumInducing=30
package main

import (
	"flag"
	"fmt"

	"github.com/deepgp/deepgp/data"
	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/num"
	"github.com/deepgp/deepgp/train"
	"github.com/deepgp/deepgp/vis"
)

func defaultConfig() train.Config {
	return train.Config{
		DataSet:     "oil",
		Jitter:      1e-6,
		Iterations:  1000,
		NumInducing: 20,
		LatentDim:   2,
		RandSeed:    42,
	}
}

func main() {
	confFile := flag.String("conf", "", "load model config from this file under the data dir")
	outFile := flag.String("out", "latent.png", "output plot file")
	flag.Parse()

	conf := defaultConfig()
	var err error
	if *confFile != "" {
		conf, err = train.LoadConfig(*confFile)
		train.CheckErr(err)
	}
	conf, err = conf.Apply(flag.Args())
	train.CheckErr(err)
	fmt.Println(conf)

	rng := train.SetSeed(conf.RandSeed)
	tbl, err := data.LoadTable(conf.DataSet)
	train.CheckErr(err)

	pca, err := num.PCA(tbl.Matrix(), conf.LatentDim)
	train.CheckErr(err)

	settings := gp.DefaultSettings()
	settings.Jitter = conf.Jitter
	settings.Seed = conf.RandSeed
	model, err := gp.NewGPLVM(tbl.Matrix(), conf.LatentDim, conf.NumInducing, settings, rng)
	train.CheckErr(err)
	fmt.Println(model.Summary())
	fmt.Printf("initial bound: %.2f\n", model.Bound())

	res, err := train.Minimize(model, conf.Iterations)
	train.CheckErr(err)
	fmt.Printf("status=%v converged=%v iterations=%d loss=%.2f\n",
		res.Status, res.Converged, res.Iterations, res.Loss)
	fmt.Println(model.Summary())

	err = vis.LatentScatter("PCA", pca, "Bayesian GPLVM", model.LatentMean(),
		tbl.Labels, tbl.Classes(), *outFile)
	train.CheckErr(err)
	fmt.Println("latent embedding written to", *outFile)
}
