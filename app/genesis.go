package app

import (
	"encoding/json"
	"io/ioutil"
	"regexp"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
)

// Genesis file format.
type Genesis struct {
	ChainID  string        `json:"chain_id"`
	AppState weave.Options `json:"app_state"`
}

// GenesisContract is a contract deployed at genesis. Init is passed to the
// initializer of the contract kind. When Init has no "conf" section, the
// global one is used.
type GenesisContract struct {
	Account weave.AccountID `json:"account"`
	Kind    string          `json:"kind"`
	Init    weave.Options   `json:"init,omitempty"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return &gen, nil
}

var isChainID = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{4,128}$`).MatchString

// ValidateChainID returns an error if given chain id cannot be used.
func ValidateChainID(chainID string) error {
	if !isChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "invalid chain id: %q", chainID)
	}
	return nil
}

//------- storing chainID ---------

const chainIDKey = "_chain_id"

// loadChainID returns the chain id stored if any
func loadChainID(kv weave.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	return string(v), err
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv weave.KVStore, chainID string) error {
	if err := ValidateChainID(chainID); err != nil {
		return err
	}
	k := []byte(chainIDKey)
	switch has, err := kv.Has(k); {
	case err != nil:
		return err
	case has:
		return errors.Wrap(errors.ErrState, "chain id already set")
	}
	return kv.Set(k, []byte(chainID))
}

// contractInitOptions returns the options passed to a contract initializer.
func contractInitOptions(global weave.Options, c GenesisContract) weave.Options {
	opts := make(weave.Options, len(c.Init)+1)
	for k, v := range c.Init {
		opts[k] = v
	}
	if _, ok := opts["conf"]; !ok {
		if conf, ok := global["conf"]; ok {
			opts["conf"] = conf
		}
	}
	return opts
}
