package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
	"github.com/spf13/cobra"
)

// CallCmd executes a contract method on behalf of an account. The message
// is given as JSON and decoded by the router of the contract kind.
func CallCmd(env *Env) *cobra.Command {
	var (
		from    string
		deposit string
	)
	cmd := &cobra.Command{
		Use:   "call CONTRACT PATH [MSG]",
		Short: "Call a contract method",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := coin.ParseAmount(deposit)
			if err != nil {
				return errors.Wrap(err, "deposit")
			}
			chain, closeDB, err := env.Open()
			if err != nil {
				return err
			}
			defer closeDB()

			to := weave.AccountID(args[0])
			msg, err := chain.DecodeMsg(to, args[1], msgArg(args))
			if err != nil {
				return err
			}
			data, err := chain.Call(context.Background(), weave.AccountID(from), to, msg, amount)
			if err != nil {
				return err
			}
			printData(cmd.OutOrStdout(), data)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "account signing the call")
	cmd.Flags().StringVar(&deposit, "deposit", "0", "native amount attached to the call")
	cmd.MarkFlagRequired("from")
	return cmd
}

// QueryCmd executes a read only contract method.
func QueryCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "query CONTRACT PATH [MSG]",
		Short: "Query a contract",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, closeDB, err := env.Open()
			if err != nil {
				return err
			}
			defer closeDB()

			account := weave.AccountID(args[0])
			msg, err := chain.DecodeMsg(account, args[1], msgArg(args))
			if err != nil {
				return err
			}
			data, err := chain.View(context.Background(), account, msg)
			if err != nil {
				return err
			}
			printData(cmd.OutOrStdout(), data)
			return nil
		},
	}
}

// TransferCmd moves native currency between accounts.
func TransferCmd(env *Env) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "transfer TO AMOUNT",
		Short: "Transfer native currency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := coin.ParseAmount(args[1])
			if err != nil {
				return err
			}
			chain, closeDB, err := env.Open()
			if err != nil {
				return err
			}
			defer closeDB()
			return chain.Transfer(context.Background(), weave.AccountID(from), weave.AccountID(args[0]), amount)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "account sending the funds")
	cmd.MarkFlagRequired("from")
	return cmd
}

// BalanceCmd prints the native balance of an account.
func BalanceCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "balance ACCOUNT",
		Short: "Show the native balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, closeDB, err := env.Open()
			if err != nil {
				return err
			}
			defer closeDB()
			amount, err := chain.Balance(weave.AccountID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), amount)
			return nil
		},
	}
}

func msgArg(args []string) []byte {
	if len(args) < 3 {
		return []byte("{}")
	}
	return []byte(args[2])
}

// printData writes data returned by a contract. JSON and text are written
// as they are, anything else as 0x prefixed hex.
func printData(w io.Writer, data []byte) {
	switch {
	case len(data) == 0:
	case json.Valid(data), isText(data):
		fmt.Fprintf(w, "%s\n", data)
	default:
		fmt.Fprintf(w, "0x%s\n", hex.EncodeToString(data))
	}
}

func isText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
