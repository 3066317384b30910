package weavetest

import (
	"testing"

	"github.com/htlcswap/weave/codec"
)

// Payload returns the hex encoded borsh layout of v, as attached to a
// funding transfer.
func Payload(t testing.TB, v interface{}) string {
	t.Helper()
	p, err := codec.EncodeHex(v)
	if err != nil {
		t.Fatalf("cannot encode %T: %s", v, err)
	}
	return p
}
