package orm

import (
	"bytes"
	"testing"

	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest/assert"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()

	cases := map[string]struct {
		bucket     string
		name       string
		increments uint64
		want       uint64
	}{
		"first":              {bucket: "pend", name: "id", increments: 22, want: 22},
		"other name":         {bucket: "pend", name: "other", increments: 11, want: 11},
		"first is continued": {bucket: "pend", name: "id", increments: 18, want: 40},
	}

	// Cases share the database, run them in a fixed order.
	for _, testName := range []string{"first", "other name", "first is continued"} {
		tc := cases[testName]
		t.Run(testName, func(t *testing.T) {
			s := NewSequence(tc.bucket, tc.name)
			orig, err := s.Latest(db)
			assert.Nil(t, err)

			var val uint64
			for i := uint64(0); i < tc.increments; i++ {
				val, err = s.NextInt(db)
				assert.Nil(t, err)
			}
			assert.Equal(t, tc.want, val)

			last, err := s.Latest(db)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, last)
			if bytes.Compare(EncodeSequence(last), EncodeSequence(orig)) != 1 {
				t.Fatal("sequence bytes must grow")
			}
		})
	}
}
