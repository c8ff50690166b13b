package kernel

import (
	"encoding/json"
	"fmt"
)

// Kernel configuration details
type Config struct {
	Type string
	Data json.RawMessage `json:",omitempty"`
}

type ConfigKernel interface {
	Marshal() Config
}

// Unmarshal JSON data and construct new kernel
func (c Config) Unmarshal() Kernel {
	switch c.Type {
	case "rbf":
		k := new(RBF)
		unmarshal(c.Data, k)
		return k
	case "linear":
		k := new(Linear)
		unmarshal(c.Data, k)
		return k
	case "white":
		k := new(White)
		unmarshal(c.Data, k)
		return k
	case "sum":
		cfg := new(sumConfig)
		unmarshal(c.Data, cfg)
		s := new(Sum)
		for _, part := range cfg.Parts {
			s.Parts = append(s.Parts, part.Unmarshal())
		}
		return s
	default:
		panic("invalid kernel type: " + c.Type)
	}
}

func (c Config) String() string {
	return c.Unmarshal().ToString()
}

func (k *RBF) Marshal() Config {
	if len(k.Lengthscales) == 0 {
		k.Lengthscales = []float64{1}
	}
	return Config{Type: "rbf", Data: marshal(k)}
}

func (k *Linear) Marshal() Config {
	return Config{Type: "linear", Data: marshal(k)}
}

func (k *White) Marshal() Config {
	return Config{Type: "white", Data: marshal(k)}
}

type sumConfig struct {
	Parts []Config
}

func (k *Sum) Marshal() Config {
	cfg := sumConfig{}
	for _, p := range k.Parts {
		ck, ok := p.(ConfigKernel)
		if !ok {
			panic(fmt.Sprintf("kernel %s cannot be marshalled", p.Kind()))
		}
		cfg.Parts = append(cfg.Parts, ck.Marshal())
	}
	return Config{Type: "sum", Data: marshal(cfg)}
}

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
