package codec

import (
	"encoding/binary"
	"encoding/hex"
	"reflect"
	"unicode/utf8"

	"github.com/htlcswap/weave/crypto"
	"github.com/htlcswap/weave/errors"
	"github.com/near/borsh-go"
)

// maxStringLen caps the declared length of a string so that a malformed
// payload cannot force a large allocation.
const maxStringLen = 1 << 16

// Marshal returns the borsh layout of given record, which can be passed by
// pointer.
func Marshal(v interface{}) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, errors.Wrapf(errors.ErrHuman, "cannot encode nil %T", v)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, errors.Wrap(errors.ErrHuman, "cannot encode nil")
	}
	if err := layout(rv.Type()); err != nil {
		return nil, err
	}
	raw, err := borsh.Serialize(rv.Interface())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "borsh: %s", err)
	}
	return raw, nil
}

// Unmarshal decodes data into dest, which must be a pointer to a record.
// All data must be consumed.
func Unmarshal(data []byte, dest interface{}) error {
	t := reflect.TypeOf(dest)
	if t == nil || t.Kind() != reflect.Ptr {
		return errors.Wrapf(errors.ErrHuman, "cannot decode into %T", dest)
	}
	n, err := span(t.Elem(), data)
	if err != nil {
		return err
	}
	if rest := len(data) - n; rest != 0 {
		return errors.Wrapf(errors.ErrInput, "%d trailing bytes", rest)
	}
	if err := borsh.Deserialize(dest, data); err != nil {
		return errors.Wrapf(errors.ErrInput, "borsh: %s", err)
	}
	return nil
}

// span walks the layout of t over data and returns the number of bytes the
// value takes. borsh-go allocates declared lengths up front, so they are
// bounded here first.
func span(t reflect.Type, data []byte) (int, error) {
	switch t.Kind() {
	case reflect.Bool, reflect.Uint8, reflect.Int8:
		return fixed(data, 1)
	case reflect.Uint16, reflect.Int16:
		return fixed(data, 2)
	case reflect.Uint32, reflect.Int32:
		return fixed(data, 4)
	case reflect.Uint64, reflect.Int64:
		return fixed(data, 8)
	case reflect.String:
		if _, err := fixed(data, 4); err != nil {
			return 0, err
		}
		n := binary.LittleEndian.Uint32(data)
		if n > maxStringLen {
			return 0, errors.Wrapf(errors.ErrInput, "string length %d", n)
		}
		if _, err := fixed(data[4:], int(n)); err != nil {
			return 0, err
		}
		if !utf8.Valid(data[4 : 4+n]) {
			return 0, errors.Wrap(errors.ErrInput, "string is not valid utf-8")
		}
		return 4 + int(n), nil
	case reflect.Struct:
		var pos int
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Tag.Get("borsh_skip") == "true" {
				continue
			}
			n, err := span(f.Type, data[pos:])
			if err != nil {
				return 0, errors.Wrap(err, f.Name)
			}
			pos += n
		}
		return pos, nil
	}
	return 0, errors.Wrapf(errors.ErrType, "%s has no borsh layout", t)
}

// layout ensures every field of t has a fixed borsh layout this package can
// decode. Serialize silently skips unsupported kinds.
func layout(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool, reflect.Uint8, reflect.Int8, reflect.Uint16, reflect.Int16,
		reflect.Uint32, reflect.Int32, reflect.Uint64, reflect.Int64, reflect.String:
		return nil
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Tag.Get("borsh_skip") == "true" {
				continue
			}
			if err := layout(f.Type); err != nil {
				return errors.Wrap(err, f.Name)
			}
		}
		return nil
	}
	return errors.Wrapf(errors.ErrType, "%s has no borsh layout", t)
}

func fixed(data []byte, n int) (int, error) {
	if len(data) < n {
		return 0, errors.Wrapf(errors.ErrInput, "unexpected end of data, need %d bytes, have %d", n, len(data))
	}
	return n, nil
}

// EncodeHex returns the lowercase hex of the borsh layout of given record.
// This is the payload format accepted by the funding hooks.
func EncodeHex(v interface{}) (string, error) {
	raw, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// DecodeHex decodes a hex payload, with an optional 0x prefix, into given
// record.
func DecodeHex(payload string, dest interface{}) error {
	raw, err := hex.DecodeString(crypto.StripHexPrefix(payload))
	if err != nil {
		return errors.Wrap(errors.ErrInput, "payload is not hex encoded")
	}
	return Unmarshal(raw, dest)
}
