package server

import (
	"encoding/json"
	"io/ioutil"
	"math/big"
	"strconv"
	"time"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/app"
	"github.com/htlcswap/weave/errors"
	"gopkg.in/yaml.v3"
)

// Config describes a chain to create. Genesis holds the application state.
//
//	chain_id: xswap-local
//	block_time: 2021-01-01T00:00:00Z
//	genesis:
//	  cash:
//	    - {account: maker.near, balance: 10}
type Config struct {
	ChainID   string    `yaml:"chain_id"`
	BlockTime time.Time `yaml:"block_time"`
	Genesis   yaml.Node `yaml:"genesis"`
}

// LoadConfig reads a YAML chain configuration from path.
func LoadConfig(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot read config: %s", err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot parse config: %s", err)
	}
	if err := app.ValidateChainID(c.ChainID); err != nil {
		return nil, err
	}
	return &c, nil
}

// AppGenesis converts the configuration into a chain genesis. Numbers keep
// all their digits so that amounts above 2^53 are not rounded.
func (c *Config) AppGenesis() (app.Genesis, error) {
	gen := app.Genesis{ChainID: c.ChainID, AppState: weave.Options{}}
	if c.Genesis.Kind == 0 {
		return gen, nil
	}
	v, err := nodeValue(&c.Genesis)
	if err != nil {
		return gen, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return gen, errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := json.Unmarshal(raw, &gen.AppState); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "genesis must be a mapping: %s", err)
	}
	return gen, nil
}

// nodeValue returns a value that serializes into the JSON equivalent of n.
func nodeValue(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		list := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return nil, errors.Wrapf(errors.ErrInput, "line %d: unsupported node", n.Line)
}

func scalarValue(n *yaml.Node) (interface{}, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "line %d: %s", n.Line, err)
		}
		return b, nil
	case "!!int", "!!float":
		// Integers beyond 64 bits are resolved as floats.
		if i, ok := new(big.Int).SetString(n.Value, 0); ok {
			return json.Number(i.String()), nil
		}
		if n.ShortTag() == "!!int" {
			return nil, errors.Wrapf(errors.ErrInput, "line %d: invalid integer %q", n.Line, n.Value)
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "line %d: %s", n.Line, err)
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !json.Valid([]byte(s)) {
			return nil, errors.Wrapf(errors.ErrInput, "line %d: %q is not a number", n.Line, n.Value)
		}
		return json.Number(s), nil
	}
	return n.Value, nil
}
