package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/htlcswap/weave"
	xswapd "github.com/htlcswap/weave/cmd/xswapd/app"
	"github.com/htlcswap/weave/commands"
	"github.com/htlcswap/weave/commands/server"
	"github.com/htlcswap/weave/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	env := &server.Env{NewChain: xswapd.NewChain}

	root := &cobra.Command{
		Use:   "xswapd",
		Short: "Local chain running the cross chain swap escrows",
		Long: `xswapd keeps a chain with fungible tokens and both swap escrows in a
local database. Every invocation executes a single call or query and
advances the chain only when told so with the block command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
			if err != nil {
				return err
			}
			env.Logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&env.Home, "home", defaultHome(), "directory of the chain database")
	root.PersistentFlags().StringVar(&logLevel, "log_level", "error", "one of debug, info, error or none")

	root.AddCommand(
		server.InitCmd(env),
		server.ValidateCmd(env),
		server.BlockCmd(env),
		server.CallCmd(env),
		server.QueryCmd(env),
		server.TransferCmd(env),
		server.BalanceCmd(env),
		encodeCmd(),
		decodeCmd(),
		hashCmd(),
		merkleCmd(),
		secretCmd(),
		commands.ExamplesCmd(examples()),
		versionCmd(),
	)
	return root
}

func newLogger(w io.Writer, level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

func defaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".xswapd"
	}
	return filepath.Join(dir, ".xswapd")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), weave.Version())
		},
	}
}
