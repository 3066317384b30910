package gconf

import (
	"encoding/json"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/store"
	"github.com/htlcswap/weave/weavetest/assert"
)

type myConfig struct {
	Number uint64 `protobuf:"varint,1,opt,name=number,proto3" json:"number,omitempty"`
	Text   string `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
}

func (m *myConfig) Reset()         { *m = myConfig{} }
func (m *myConfig) String() string { return proto.CompactTextString(m) }
func (*myConfig) ProtoMessage()    {}

func (m *myConfig) Validate() error {
	if m.Text == "" {
		return errors.Field("Text", errors.ErrEmpty, "required")
	}
	return nil
}

func TestSaveLoad(t *testing.T) {
	cases := map[string]struct {
		Conf        *myConfig
		WantSaveErr *errors.Error
	}{
		"all fields": {
			Conf: &myConfig{Number: 852151421, Text: "foobar"},
		},
		"zero number": {
			Conf: &myConfig{Text: "x"},
		},
		"invalid config cannot be saved": {
			Conf:        &myConfig{Number: 1},
			WantSaveErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if err := Save(db, "mypkg", tc.Conf); !tc.WantSaveErr.Is(err) {
				t.Fatalf("unexpected save error: %s", err)
			}
			if tc.WantSaveErr != nil {
				var got myConfig
				assert.IsErr(t, errors.ErrNotFound, Load(db, "mypkg", &got))
				return
			}

			var got myConfig
			assert.Nil(t, Load(db, "mypkg", &got))
			assert.Equal(t, tc.Conf, &got)
		})
	}
}

func TestMustLoad(t *testing.T) {
	db := store.MemStore()
	assert.Panics(t, func() { MustLoad(db, "mypkg", &myConfig{}) })
}

func TestInitConfig(t *testing.T) {
	cases := map[string]struct {
		Genesis string
		WantErr *errors.Error
		Want    *myConfig
	}{
		"configuration present": {
			Genesis: `{"conf": {"mypkg": {"number": 7, "text": "seven"}}}`,
			Want:    &myConfig{Number: 7, Text: "seven"},
		},
		"configuration missing": {
			Genesis: `{"conf": {"otherpkg": {}}}`,
			WantErr: errors.ErrNotFound,
		},
		"configuration invalid": {
			Genesis: `{"conf": {"mypkg": {"number": 7}}}`,
			WantErr: errors.ErrEmpty,
		},
		"configuration malformed": {
			Genesis: `{"conf": {"mypkg": {"number": "seven"}}}`,
			WantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts weave.Options
			if err := json.Unmarshal([]byte(tc.Genesis), &opts); err != nil {
				t.Fatalf("cannot unmarshal genesis: %s", err)
			}
			db := store.MemStore()
			err := InitConfig(db, opts, "mypkg", &myConfig{})
			assert.IsErr(t, tc.WantErr, err)
			if tc.WantErr != nil {
				return
			}
			var got myConfig
			assert.Nil(t, Load(db, "mypkg", &got))
			assert.Equal(t, tc.Want, &got)
		})
	}
}

func TestInitConfigOrDefault(t *testing.T) {
	db := store.MemStore()
	assert.Nil(t, InitConfigOrDefault(db, weave.Options{}, "mypkg", &myConfig{Text: "default"}))
	var got myConfig
	assert.Nil(t, Load(db, "mypkg", &got))
	assert.Equal(t, "default", got.Text)
}
