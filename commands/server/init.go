package server

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitCmd creates a new chain in the home directory from a YAML
// configuration file.
func InitCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "init CONFIG",
		Short: "Create a chain from a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := LoadConfig(args[0])
			if err != nil {
				return err
			}
			gen, err := conf.AppGenesis()
			if err != nil {
				return err
			}
			if err := env.Create(gen, conf.BlockTime); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chain %s initialized in %s\n", gen.ChainID, env.Home)
			return nil
		},
	}
}
