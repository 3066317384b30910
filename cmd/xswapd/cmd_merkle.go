package main

import (
	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/merkle"
	"github.com/htlcswap/weave/x/swap"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// secretTree is the data a maker shares with resolvers of a multi part
// order. Every part carries the proof that its hashlock belongs to the
// order root.
type secretTree struct {
	Root   string       `yaml:"root"`
	Parts  uint16       `yaml:"parts"`
	Leaves []secretLeaf `yaml:"leaves"`
}

type secretLeaf struct {
	Index    uint16   `yaml:"index"`
	Secret   string   `yaml:"secret,omitempty"`
	Hashlock string   `yaml:"hashlock"`
	Leaf     string   `yaml:"leaf"`
	Proof    []string `yaml:"proof"`
}

func buildSecretTree(secrets []string, withSecrets bool) (*secretTree, error) {
	hashlocks := make([]crypto.Hash, len(secrets))
	for i, s := range secrets {
		h, err := crypto.ParseHash(swap.HashSecret(s))
		if err != nil {
			return nil, err
		}
		hashlocks[i] = h
	}
	tree, err := merkle.NewSecretTree(hashlocks)
	if err != nil {
		return nil, err
	}
	res := &secretTree{
		Root:  tree.Root().Hex(),
		Parts: uint16(len(secrets) - 1),
	}
	for i := range secrets {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		leaf := secretLeaf{
			Index:    uint16(i),
			Hashlock: hashlocks[i].Hex(),
			Leaf:     tree.Leaf(i).Hex(),
			Proof:    make([]string, len(proof)),
		}
		if withSecrets {
			leaf.Secret = secrets[i]
		}
		for j, p := range proof {
			leaf.Proof[j] = p.Hex()
		}
		res.Leaves = append(res.Leaves, leaf)
	}
	return res, nil
}

func merkleCmd() *cobra.Command {
	var withSecrets bool
	cmd := &cobra.Command{
		Use:   "merkle SECRET SECRET...",
		Short: "Build the hashlock tree of an order split into parts",
		Long: `Build the hashlock tree of an order split into parts. An order of n parts
needs n+1 secrets. The root is the order root hash, each leaf comes with
the proof a resolver submits when filling with that index.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := buildSecretTree(args, withSecrets)
			if err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(tree)
		},
	}
	cmd.Flags().BoolVar(&withSecrets, "with-secrets", false, "include the secrets in the output")
	return cmd
}
