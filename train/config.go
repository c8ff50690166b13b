package train

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/deepgp/deepgp/data"
	"github.com/deepgp/deepgp/kernel"
	"github.com/deepgp/deepgp/nnet"
)

// Training configuration settings
type Config struct {
	DataSet      string
	LearningRate float64
	Jitter       float64
	Iterations   int
	BatchSize    int
	MaxSamples   int
	NumInducing  int
	LatentDim    int
	MCSamples    int
	LogEvery     int
	RandSeed     int64
	Kernel       kernel.Config
	Layers       []nnet.LayerConfig
}

// number of trailing Config fields which hold nested model structure
const structFields = 2

// Load model config from json file under the data directory
func LoadConfig(name string) (c Config, err error) {
	filePath := path.Join(data.DataDir, name)
	var f *os.File
	if f, err = os.Open(filePath); err != nil {
		return
	}
	defer f.Close()
	fmt.Println("loading model config from", name)
	dec := json.NewDecoder(f)
	err = dec.Decode(&c)
	return
}

// Append feature map layers to the config struct
func (c Config) AddLayers(layers ...nnet.ConfigLayer) Config {
	for _, l := range layers {
		c.Layers = append(c.Layers, l.Marshal())
	}
	return c
}

// Set the base kernel in the config struct
func (c Config) WithKernel(k kernel.ConfigKernel) Config {
	c.Kernel = k.Marshal()
	return c
}

// Save config to JSON file under the data directory
func (c Config) Save(name string) error {
	filePath := path.Join(data.DataDir, "."+name)
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	fmt.Println("saving model config to", name)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return err
	}
	f.Close()
	return os.Rename(filePath, path.Join(data.DataDir, name))
}

func (c Config) Fields() []string {
	st := reflect.TypeOf(c)
	fld := make([]string, st.NumField()-structFields)
	for i := range fld {
		fld[i] = st.Field(i).Name
	}
	return fld
}

func (c Config) Get(key string) interface{} {
	s := reflect.ValueOf(c)
	return s.FieldByName(key).Interface()
}

func (c Config) configString() string {
	fields := c.Fields()
	str := []string{"== Config =="}
	for _, key := range fields {
		str = append(str, fmt.Sprintf("%-14s: %v", key, c.Get(key)))
	}
	return strings.Join(str, "\n")
}

func (c Config) String() string {
	s := c.configString()
	if c.Kernel.Type != "" {
		s += fmt.Sprintf("\n== Kernel ==\n%s", c.Kernel)
	}
	if c.Layers != nil {
		str := []string{"\n== Feature map =="}
		for i, layer := range c.Layers {
			str = append(str, fmt.Sprintf("%2d: %s", i, layer))
		}
		s += strings.Join(str, "\n")
	}
	return s
}

// Apply key=value override arguments to the config settings
func (c Config) Apply(args []string) (Config, error) {
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return c, fmt.Errorf("invalid override %q: expect key=value", arg)
		}
		var err error
		if c, err = c.SetString(key, val); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (c Config) SetString(key, val string) (Config, error) {
	s := reflect.ValueOf(&c).Elem()
	f := s.FieldByName(key)
	if !f.IsValid() {
		return c, fmt.Errorf("unknown config setting: %s", key)
	}
	var err error
	switch f.Type().Kind() {
	case reflect.Int, reflect.Int64:
		var x int64
		if x, err = strconv.ParseInt(val, 10, 64); err == nil {
			f.SetInt(x)
		}
	case reflect.Float64:
		var x float64
		if x, err = strconv.ParseFloat(val, 64); err == nil {
			f.SetFloat(x)
		}
	case reflect.String:
		f.SetString(val)
	default:
		return c, fmt.Errorf("invalid type for SetString: %v", f.Type().Kind())
	}
	return c, err
}
