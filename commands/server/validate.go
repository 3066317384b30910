package server

import (
	"fmt"

	"github.com/htlcswap/weave/app"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

// ValidateGenesis loads the genesis into a chain kept in memory and returns
// the first error encountered.
func ValidateGenesis(newChain ChainFactory, gen app.Genesis) error {
	// Use in memory store because we want to discard the result.
	chain := newChain(store.MemStore(), log.NewNopLogger())
	if err := chain.InitChain(gen); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}

// ValidateCmd checks configuration files without creating a chain.
func ValidateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate CONFIG...",
		Short: "Validate chain configuration files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				conf, err := LoadConfig(path)
				if err != nil {
					return errors.Wrap(err, path)
				}
				gen, err := conf.AppGenesis()
				if err != nil {
					return errors.Wrap(err, path)
				}
				if err := ValidateGenesis(env.NewChain, gen); err != nil {
					return errors.Wrap(err, path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			return nil
		},
	}
}
