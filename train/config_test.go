package train

import (
	"testing"

	"github.com/deepgp/deepgp/data"
	"github.com/deepgp/deepgp/kernel"
	"github.com/deepgp/deepgp/nnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DataSet:      "mnist",
		LearningRate: 0.001,
		Iterations:   100,
		BatchSize:    64,
		RandSeed:     42,
	}.WithKernel(kernel.NewRBF()).AddLayers(
		nnet.Linear{Nout: 10},
		nnet.Activation{Atype: "tanh"},
	)
}

func TestConfigSaveLoad(t *testing.T) {
	saved := data.DataDir
	data.DataDir = t.TempDir()
	defer func() { data.DataDir = saved }()

	c := testConfig()
	require.NoError(t, c.Save("test.conf"))
	c2, err := LoadConfig("test.conf")
	require.NoError(t, err)
	assert.Equal(t, c.DataSet, c2.DataSet)
	assert.Equal(t, c.LearningRate, c2.LearningRate)
	assert.Equal(t, c.Kernel.Type, c2.Kernel.Type)
	assert.Equal(t, len(c.Layers), len(c2.Layers))
}

func TestConfigSetString(t *testing.T) {
	c := testConfig()
	c, err := c.SetString("Iterations", "250")
	require.NoError(t, err)
	assert.Equal(t, 250, c.Iterations)
	c, err = c.SetString("LearningRate", "0.01")
	require.NoError(t, err)
	assert.Equal(t, 0.01, c.LearningRate)
	c, err = c.SetString("DataSet", "oil")
	require.NoError(t, err)
	assert.Equal(t, "oil", c.DataSet)
	_, err = c.SetString("Iterations", "abc")
	assert.Error(t, err)
}

func TestConfigApply(t *testing.T) {
	c, err := testConfig().Apply([]string{"Iterations=500", "DataSet=oil", "LearningRate=0.05"})
	require.NoError(t, err)
	assert.Equal(t, 500, c.Iterations)
	assert.Equal(t, "oil", c.DataSet)
	assert.Equal(t, 0.05, c.LearningRate)

	_, err = testConfig().Apply([]string{"Iterations"})
	assert.Error(t, err, "missing value should be rejected")
	_, err = testConfig().Apply([]string{"NoSuchField=1"})
	assert.Error(t, err, "unknown setting should be rejected")
}

func TestConfigString(t *testing.T) {
	s := testConfig().String()
	assert.Contains(t, s, "== Config ==")
	assert.Contains(t, s, "== Kernel ==")
	assert.Contains(t, s, "== Feature map ==")
	assert.Contains(t, s, "mnist")
}

func TestConfigFields(t *testing.T) {
	fields := testConfig().Fields()
	assert.Contains(t, fields, "DataSet")
	assert.Contains(t, fields, "BatchSize")
	// nested model structure is not a flat field
	assert.NotContains(t, fields, "Kernel")
	assert.NotContains(t, fields, "Layers")
}
