package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/codec"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/merkle"
	"github.com/htlcswap/weave/weavetest"
	"github.com/htlcswap/weave/weavetest/assert"
	"github.com/htlcswap/weave/x/escrowdst"
	"github.com/htlcswap/weave/x/escrowsrc"
	"github.com/htlcswap/weave/x/swap"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const immutablesYAML = `
salt: "7"
order_root_hash: 0x1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8
hashlock: 1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8
making_token: token-x.test
taking_token: token-y.test
making_amount: 100
taking_amount: "340282366920938463463374607431768211455"
src_safety_deposit: 1
dst_safety_deposit: 2
timelock:
  src_withdrawal: 10
  src_public_withdrawal: 20
  src_cancellation: 30
  src_public_cancellation: 40
  dst_withdrawal: 5
  dst_public_withdrawal: 15
  dst_cancellation: 25
maker: maker.test
taker: resolver.test
`

func wantImmutables() swap.Immutables {
	return swap.Immutables{
		Salt:             "7",
		OrderRootHash:    "0x1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8",
		Hashlock:         "1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8",
		MakingToken:      "token-x.test",
		TakingToken:      "token-y.test",
		MakingAmount:     coin.NewAmount(100),
		TakingAmount:     coin.MaxAmount,
		SrcSafetyDeposit: coin.NewAmount(1),
		DstSafetyDeposit: coin.NewAmount(2),
		TimeLock: swap.TimeLock{
			SrcWithdrawal:         10,
			SrcPublicWithdrawal:   20,
			SrcCancellation:       30,
			SrcPublicCancellation: 40,
			DstWithdrawal:         5,
			DstPublicWithdrawal:   15,
			DstCancellation:       25,
		},
		Maker: "maker.test",
		Taker: "resolver.test",
	}
}

func run(stdin string, args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(ioutil.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func tempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "xswapd")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestVersion(t *testing.T) {
	out, err := run("", "version")
	assert.Nil(t, err)
	assert.Equal(t, weave.Version(), out)
}

func TestEncodeDecode(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := writeTemp(t, dir, "imm.yaml", immutablesYAML)

	want := wantImmutables()
	out, err := run("", "encode", "immutables", path)
	assert.Nil(t, err)
	assert.Equal(t, weavetest.Payload(t, &want), out)

	fromStdin, err := run(immutablesYAML, "encode", "immutables", "-")
	assert.Nil(t, err)
	assert.Equal(t, out, fromStdin)

	decoded, err := run("", "decode", "immutables", "0x"+out)
	assert.Nil(t, err)
	var got swap.Immutables
	assert.Nil(t, yaml.Unmarshal([]byte(decoded), &got))
	assert.Equal(t, want, got)
}

func TestEncodeOrders(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	order := writeTemp(t, dir, "order.yaml", `
root_hash: 1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8
token: token-x.test
total_amount: 100
parts: 4
maker: maker.test
expiration: 9000
`)
	out, err := run("", "encode", "order", order)
	assert.Nil(t, err)
	parsed, err := escrowsrc.ParseOrderPayload(out)
	assert.Nil(t, err)
	assert.Equal(t, uint32(4), parsed.Parts)
	assert.Equal(t, coin.NewAmount(100), parsed.TotalAmount)
	assert.Equal(t, uint64(9000), parsed.Expiration)

	resolver := writeTemp(t, dir, "resolver.yaml", immutablesYAML+"safety_deposit: 2\n")
	out, err = run("", "encode", "resolver-order", resolver)
	assert.Nil(t, err)
	var ro escrowdst.ResolverOrder
	assert.Nil(t, codec.DecodeHex(out, &ro))
	assert.Equal(t, wantImmutables(), ro.Immutables)
	assert.Equal(t, true, ro.IsSecured())
}

func TestEncodeErrors(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	cases := map[string]struct {
		args []string
		want *errors.Error
	}{
		"unknown type": {
			args: []string{"encode", "swap", writeTemp(t, dir, "a.yaml", immutablesYAML)},
			want: errors.ErrInput,
		},
		"missing file": {
			args: []string{"encode", "immutables", filepath.Join(dir, "missing.yaml")},
			want: errors.ErrInput,
		},
		"not yaml": {
			args: []string{"encode", "immutables", writeTemp(t, dir, "b.yaml", "salt: [")},
			want: errors.ErrInput,
		},
		"negative amount": {
			args: []string{"encode", "immutables", writeTemp(t, dir, "c.yaml",
				strings.Replace(immutablesYAML, "making_amount: 100", "making_amount: -100", 1))},
			want: errors.ErrInput,
		},
		"bad hex": {
			args: []string{"decode", "immutables", "zz"},
			want: errors.ErrInput,
		},
		"trailing bytes": {
			args: []string{"decode", "immutables", weavetest.Payload(t, &swap.Immutables{}) + "00"},
			want: errors.ErrInput,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := run("", tc.args...)
			assert.IsErr(t, tc.want, err)
		})
	}
}

func TestEncodeRejectsInvalidTimeLock(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := writeTemp(t, dir, "imm.yaml",
		strings.Replace(immutablesYAML, "dst_cancellation: 25", "dst_cancellation: 30", 1))

	_, err := run("", "encode", "immutables", path)
	assert.Equal(t, true, err != nil)
	_, err = run("", "hash", path)
	assert.Equal(t, true, err != nil)
}

func TestHash(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := writeTemp(t, dir, "imm.yaml", immutablesYAML)

	want := wantImmutables()
	out, err := run("", "hash", path)
	assert.Nil(t, err)
	assert.Equal(t, want.Hash().Hex(), out)
	assert.Equal(t, string(want.Key()), out)
}

func TestMerkle(t *testing.T) {
	secrets := []string{"s0", "s1", "s2", "s3", "s4"}
	out, err := run("", append([]string{"merkle", "--with-secrets"}, secrets...)...)
	assert.Nil(t, err)

	var tree secretTree
	assert.Nil(t, yaml.Unmarshal([]byte(out), &tree))
	assert.Equal(t, uint16(4), tree.Parts)
	assert.Equal(t, len(secrets), len(tree.Leaves))

	root, err := crypto.ParseHash(tree.Root)
	assert.Nil(t, err)
	for i, l := range tree.Leaves {
		assert.Equal(t, uint16(i), l.Index)
		assert.Equal(t, secrets[i], l.Secret)
		assert.Equal(t, swap.HashSecret(secrets[i]), l.Hashlock)

		hashlock, err := crypto.ParseHash(l.Hashlock)
		assert.Nil(t, err)
		leaf := merkle.Leaf(uint16(i), hashlock)
		assert.Equal(t, leaf.Hex(), l.Leaf)
		proof, err := merkle.ParseProof(l.Proof)
		assert.Nil(t, err)
		assert.Equal(t, true, merkle.Verify(leaf, proof, root))
	}

	out, err = run("", "merkle", "s0", "s1")
	assert.Nil(t, err)
	assert.Equal(t, false, strings.Contains(out, "secret:"))

	_, err = run("", "merkle", "s0")
	assert.Equal(t, true, err != nil)
}

func TestSecret(t *testing.T) {
	out, err := run("", "secret", "hash", "abc")
	assert.Nil(t, err)
	assert.Equal(t, swap.HashSecret("abc"), out)

	out, err = run("", "secret", "new")
	assert.Nil(t, err)
	var gen struct {
		Secret   string `yaml:"secret"`
		Hashlock string `yaml:"hashlock"`
	}
	assert.Nil(t, yaml.Unmarshal([]byte(out), &gen))
	assert.Equal(t, 64, len(gen.Secret))
	assert.Equal(t, swap.HashSecret(gen.Secret), gen.Hashlock)

	other, err := run("", "secret", "new")
	assert.Nil(t, err)
	assert.Equal(t, false, out == other)
}

func TestExamples(t *testing.T) {
	for _, ex := range examples() {
		rec, ok := ex.Obj.(record)
		assert.Equal(t, true, ok)
		assert.Nil(t, rec.Validate())
	}

	dir, cleanup := tempDir(t)
	defer cleanup()
	_, err := run("", "examples", dir)
	assert.Nil(t, err)
	raw, err := ioutil.ReadFile(filepath.Join(dir, "immutables.hex"))
	assert.Nil(t, err)
	imm, err := swap.ParsePayload(string(raw))
	assert.Nil(t, err)
	assert.Equal(t, "maker.near", string(imm.Maker))
}

func TestChain(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	config := writeTemp(t, dir, "chain.yaml", `
chain_id: xswap-cli
block_time: 2021-01-01T00:00:00Z
genesis:
  conf:
    escrowsrc: {expiration_margin: 500}
    safetransfer: {registration_fee: "100", transfer_fee: "1"}
    fungible: {storage_fee: "100", transfer_fee: "1"}
  cash:
    - {account: maker.test, balance: 10}
    - {account: escrow-src.test, balance: 1000}
  contracts:
    - account: token-x.test
      kind: fungible
      init:
        accounts:
          - {account: maker.test, balance: 1000}
          - {account: escrow-src.test, balance: 0}
    - {account: escrow-src.test, kind: escrowsrc}
    - {account: escrow-dst.test, kind: escrowdst}
`)
	home := []string{"--home", filepath.Join(dir, "home"), "--log_level", "none"}
	exec := func(args ...string) string {
		t.Helper()
		out, err := run("", append(home, args...)...)
		require.NoError(t, err, strings.Join(args, " "))
		return out
	}

	_, err := run("", append(home, "validate", config)...)
	assert.Nil(t, err)
	exec("init", config)
	assert.Equal(t, "10", exec("balance", "maker.test"))
	assert.Equal(t, "1000", exec("query", "token-x.test", "fungible/ft_balance_of", `{"account_id": "maker.test"}`))
	assert.Equal(t, true, strings.HasPrefix(exec("block", "--advance", "1m"), "height: 2\n"))

	order := escrowsrc.OrderPayload{
		RootHash:    swap.HashSecret("secret"),
		Token:       "token-x.test",
		TotalAmount: coin.NewAmount(100),
		Parts:       1,
		Maker:       "maker.test",
		Expiration:  uint64(4102444800) * 1000000000,
	}
	msg := `{"receiver_id": "escrow-src.test", "amount": "100", "msg": "` + weavetest.Payload(t, &order) + `"}`
	assert.Equal(t, "100", exec("call", "token-x.test", "fungible/ft_transfer_call", msg, "--from", "maker.test", "--deposit", "1"))
	assert.Equal(t, "900", exec("query", "token-x.test", "fungible/ft_balance_of", `{"account_id": "maker.test"}`))
	assert.Equal(t, "100", exec("query", "token-x.test", "fungible/ft_balance_of", `{"account_id": "escrow-src.test"}`))
}

func TestBadLogLevel(t *testing.T) {
	_, err := run("", "--log_level", "loud", "version")
	assert.IsErr(t, errors.ErrInput, err)
}
