package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/x/swap"
	"github.com/spf13/cobra"
)

func secretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Create and hash swap secrets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Generate a random secret and print it with its hashlock",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				secret, err := newSecret()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "secret: %s\nhashlock: %s\n", secret, swap.HashSecret(secret))
				return nil
			},
		},
		&cobra.Command{
			Use:   "hash SECRET",
			Short: "Print the hashlock of a secret",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), swap.HashSecret(args[0]))
			},
		},
	)
	return cmd
}

// newSecret returns 32 random bytes as hex.
func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return hex.EncodeToString(b), nil
}
