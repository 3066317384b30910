package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/htlcswap/weave/codec"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/commands"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/x/escrowdst"
	"github.com/htlcswap/weave/x/escrowsrc"
	"github.com/htlcswap/weave/x/swap"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type record interface {
	Validate() error
}

// records lists the types whose borsh layout can be converted from and
// to YAML.
var records = map[string]func() record{
	"order":          func() record { return &escrowsrc.OrderPayload{} },
	"immutables":     func() record { return &swap.Immutables{} },
	"resolver-order": func() record { return &escrowdst.ResolverOrder{} },
}

func recordNames() string {
	names := make([]string, 0, len(records))
	for n := range records {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newRecord(name string) (record, error) {
	fn, ok := records[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "unknown type %q, use one of %s", name, recordNames())
	}
	return fn(), nil
}

// readFile returns the content of path, or of input if path is "-".
func readFile(input io.Reader, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = ioutil.ReadAll(input)
	} else {
		raw, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// loadRecord reads a YAML representation of a record and validates it.
func loadRecord(input io.Reader, name, path string) (record, error) {
	rec, err := newRecord(name)
	if err != nil {
		return nil, err
	}
	raw, err := readFile(input, path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, rec); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot parse %s: %s", name, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	return rec, nil
}

func encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode TYPE FILE",
		Short: "Encode a YAML record into the hex payload used by the funding hooks",
		Long:  "Encode a YAML record into its hex binary layout. TYPE is one of " + recordNames() + ". Use - to read from stdin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadRecord(cmd.InOrStdin(), args[0], args[1])
			if err != nil {
				return err
			}
			payload, err := codec.EncodeHex(rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
}

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode TYPE HEX",
		Short: "Decode a hex payload into YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := newRecord(args[0])
			if err != nil {
				return err
			}
			if err := codec.DecodeHex(strings.TrimSpace(args[1]), rec); err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(rec)
		},
	}
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE",
		Short: "Print the hash of YAML immutables, which is the escrow key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadRecord(cmd.InOrStdin(), "immutables", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.(*swap.Immutables).Hash().Hex())
			return nil
		},
	}
}

func examples() []commands.Example {
	const (
		nanos  = uint64(1000000000)
		start  = 1700000000 * nanos
		secret = "xswapd example secret"
	)
	hashlock := swap.HashSecret(secret)
	imm := swap.Immutables{
		Salt:             "1",
		OrderRootHash:    hashlock,
		Hashlock:         hashlock,
		MakingToken:      "usdc.near",
		TakingToken:      "usdt.near",
		MakingAmount:     coin.NewAmount(1000000),
		TakingAmount:     coin.NewAmount(999000),
		SrcSafetyDeposit: coin.NewAmount(1000),
		DstSafetyDeposit: coin.NewAmount(1000),
		TimeLock: swap.TimeLock{
			SrcWithdrawal:         start + 60*nanos,
			SrcPublicWithdrawal:   start + 600*nanos,
			SrcCancellation:       start + 1200*nanos,
			SrcPublicCancellation: start + 1800*nanos,
			DstWithdrawal:         start + 30*nanos,
			DstPublicWithdrawal:   start + 300*nanos,
			DstCancellation:       start + 900*nanos,
		},
		Maker: "maker.near",
		Taker: "resolver.near",
	}
	return []commands.Example{
		{Filename: "immutables", Obj: &imm},
		{Filename: "order", Obj: &escrowsrc.OrderPayload{
			RootHash:    hashlock,
			Token:       "usdc.near",
			TotalAmount: coin.NewAmount(1000000),
			Parts:       1,
			Maker:       "maker.near",
			Expiration:  start + 3600*nanos,
		}},
		{Filename: "resolver_order", Obj: &escrowdst.ResolverOrder{
			Immutables:    imm,
			SafetyDeposit: coin.NewAmount(1000),
		}},
	}
}

