package server

import (
	"fmt"
	"time"

	"github.com/htlcswap/weave/errors"
	"github.com/spf13/cobra"
)

// BlockCmd prints the current block. With --time or --advance it starts a
// new block first.
func BlockCmd(env *Env) *cobra.Command {
	var (
		at      string
		advance time.Duration
	)
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Show or advance the current block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if at != "" && advance != 0 {
				return errors.Wrap(errors.ErrInput, "--time and --advance cannot be combined")
			}
			chain, closeDB, err := env.Open()
			if err != nil {
				return err
			}
			defer closeDB()

			_, current, err := chain.Block()
			if err != nil {
				return err
			}
			switch {
			case at != "":
				t, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return errors.Wrapf(errors.ErrInput, "block time: %s", err)
				}
				if err := chain.BeginBlock(t); err != nil {
					return err
				}
			case advance != 0:
				if err := chain.BeginBlock(current.Add(advance)); err != nil {
					return err
				}
			}

			height, t, err := chain.Block()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "height: %d\ntime: %s\ntimestamp_ns: %d\n",
				height, t.Format(time.RFC3339Nano), t.UnixNano())
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "time", "", "start a block at given RFC3339 time")
	cmd.Flags().DurationVar(&advance, "advance", 0, "start a block this long after the current one")
	return cmd
}
