package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/app"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store/leveldb"
	"github.com/tendermint/tendermint/libs/log"
)

// ChainFactory returns a chain runtime over db with all contract kinds of
// an application registered.
type ChainFactory func(db weave.CacheableKVStore, logger log.Logger) *app.Chain

// Env is shared by all chain commands. Home is the directory the chain is
// persisted in.
type Env struct {
	Home     string
	NewChain ChainFactory
	Logger   log.Logger
}

// GenesisFile returns the path of the genesis the chain was created from.
func (e *Env) GenesisFile() string {
	return filepath.Join(e.Home, "genesis.json")
}

func (e *Env) dataDir() string {
	return filepath.Join(e.Home, "data")
}

func (e *Env) logger() log.Logger {
	if e.Logger == nil {
		return log.NewNopLogger()
	}
	return e.Logger
}

// Initialized returns true if the home directory holds a chain database.
func (e *Env) Initialized() bool {
	_, err := os.Stat(e.dataDir())
	return err == nil
}

// Open opens the chain persisted in the home directory. The returned
// function releases the database and must be called once the chain is no
// longer used.
func (e *Env) Open() (*app.Chain, func() error, error) {
	if !e.Initialized() {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "no chain in %q, run init first", e.Home)
	}
	db, err := leveldb.Open(e.dataDir())
	if err != nil {
		return nil, nil, err
	}
	return e.NewChain(db, e.logger()), db.Close, nil
}

// Create initializes a chain in the home directory from given genesis and
// starts its first block at blockTime, unless it is zero. The genesis is saved next to the
// database. On failure nothing is left in the home directory.
func (e *Env) Create(gen app.Genesis, blockTime time.Time) error {
	if e.Initialized() {
		return errors.Wrapf(errors.ErrDuplicate, "chain already initialized in %q", e.Home)
	}
	if err := os.MkdirAll(e.Home, 0755); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := ioutil.WriteFile(e.GenesisFile(), raw, 0644); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	db, err := leveldb.Open(e.dataDir())
	if err != nil {
		return err
	}
	chain := e.NewChain(db, e.logger())
	err = chain.InitChain(gen)
	if err == nil && !blockTime.IsZero() {
		err = chain.BeginBlock(blockTime)
	}
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(e.dataDir())
		os.Remove(e.GenesisFile())
	}
	return err
}
