/*
Package commands holds command line tools shared by the applications.
*/
package commands

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/htlcswap/weave/codec"
	"github.com/htlcswap/weave/errors"
	"github.com/spf13/cobra"
)

// Example will be written out to a file, .json and .hex
// Filename should have no path and no extension. Obj must have a borsh
// layout.
type Example struct {
	Filename string
	Obj      interface{}
}

// WriteExamples writes the JSON and the hex encoded binary representation
// of every example into outdir.
func WriteExamples(examples []Example, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	for _, ex := range examples {
		js, err := json.MarshalIndent(ex.Obj, "", "  ")
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "%s: %s", ex.Filename, err)
		}
		if err := ioutil.WriteFile(filepath.Join(outdir, ex.Filename+".json"), js, 0644); err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
		payload, err := codec.EncodeHex(ex.Obj)
		if err != nil {
			return errors.Wrap(err, ex.Filename)
		}
		if err := ioutil.WriteFile(filepath.Join(outdir, ex.Filename+".hex"), []byte(payload), 0644); err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
	}
	return nil
}

// ExamplesCmd generates sample encodings of given objects to test
// other implementations against.
func ExamplesCmd(examples []Example) *cobra.Command {
	return &cobra.Command{
		Use:   "examples [DIR]",
		Short: "Write sample JSON and binary encodings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outdir := "testdata"
			if len(args) > 0 {
				outdir = args[0]
			}
			if err := WriteExamples(examples, outdir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d examples written to %s\n", len(examples), outdir)
			return nil
		},
	}
}
