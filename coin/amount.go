package coin

import (
	"encoding/json"
	"math/big"

	"github.com/htlcswap/weave/errors"
	"gopkg.in/yaml.v3"
	"lukechampine.com/uint128"
)

// Amount is an unsigned 128 bit integer value of the smallest unit of an
// asset. All arithmetic is checked and fails with errors.ErrOverflow instead
// of wrapping around.
//
// The borsh layout of an Amount is its two little-endian words, low first,
// which is the layout of a u128.
type Amount uint128.Uint128

var (
	// Zero is the zero amount.
	Zero = Amount{}

	// MaxAmount is the biggest value that can be represented.
	MaxAmount = Amount(uint128.Max)
)

// NewAmount returns an amount of given value.
func NewAmount(v uint64) Amount {
	return Amount(uint128.From64(v))
}

// ParseAmount parses a base 10 representation of an amount.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Zero, errors.Wrap(errors.ErrInput, "empty amount")
	}
	for i, c := range s {
		if c < '0' || c > '9' {
			return Zero, errors.Wrapf(errors.ErrInput, "invalid digit %q at %d", c, i)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, errors.Wrapf(errors.ErrInput, "amount %q", s)
	}
	if n.BitLen() > 128 {
		return Zero, errors.Wrapf(errors.ErrOverflow, "amount %q", s)
	}
	return Amount(uint128.FromBig(n)), nil
}

// MustParseAmount is like ParseAmount but panics on error. Use it only with
// constant values.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) u() uint128.Uint128 {
	return uint128.Uint128(a)
}

// IsZero returns true if this amount is zero.
func (a Amount) IsZero() bool {
	return a.u().IsZero()
}

// Cmp returns -1 if a < b, 0 if a == b and 1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.u().Cmp(b.u())
}

// Equals returns true if both amounts represent the same value.
func (a Amount) Equals(b Amount) bool {
	return a == b
}

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.Cmp(b) < 0
}

// GreaterThan returns true if a > b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.Cmp(b) > 0
}

// Add returns a + b.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a.u().AddWrap(b.u())
	if sum.Cmp(a.u()) < 0 {
		return Zero, errors.Wrap(errors.ErrOverflow, "add")
	}
	return Amount(sum), nil
}

// Sub returns a - b. Subtracting a bigger value is an overflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.LessThan(b) {
		return Zero, errors.Wrap(errors.ErrOverflow, "sub")
	}
	return Amount(a.u().SubWrap(b.u())), nil
}

// Mul returns a * b.
func (a Amount) Mul(b Amount) (Amount, error) {
	if a.IsZero() || b.IsZero() {
		return Zero, nil
	}
	p := a.u().MulWrap(b.u())
	if q, r := p.QuoRem(b.u()); !q.Equals(a.u()) || !r.IsZero() {
		return Zero, errors.Wrap(errors.ErrOverflow, "mul")
	}
	return Amount(p), nil
}

// Div returns the floor of a / b.
func (a Amount) Div(b Amount) (Amount, error) {
	if b.IsZero() {
		return Zero, errors.Wrap(errors.ErrInput, "division by zero")
	}
	return Amount(a.u().Div(b.u())), nil
}

// Uint64 returns the value as uint64. The second result is false if the
// value does not fit.
func (a Amount) Uint64() (uint64, bool) {
	return a.Lo, a.Hi == 0
}

// BigEndian returns the 16 byte big-endian representation.
func (a Amount) BigEndian() []byte {
	b := make([]byte, 16)
	a.u().PutBytesBE(b)
	return b
}

// LittleEndian returns the 16 byte little-endian representation.
func (a Amount) LittleEndian() []byte {
	b := make([]byte, 16)
	a.u().PutBytes(b)
	return b
}

// FromBigEndian reads an amount from its 16 byte big-endian representation.
func FromBigEndian(b []byte) (Amount, error) {
	if len(b) != 16 {
		return Zero, errors.Wrapf(errors.ErrInput, "want 16 bytes, got %d", len(b))
	}
	return Amount(uint128.FromBytesBE(b)), nil
}

// FromLittleEndian reads an amount from its 16 byte little-endian
// representation.
func FromLittleEndian(b []byte) (Amount, error) {
	if len(b) != 16 {
		return Zero, errors.Wrapf(errors.ErrInput, "want 16 bytes, got %d", len(b))
	}
	return Amount(uint128.FromBytes(b)), nil
}

// String returns the base 10 representation.
func (a Amount) String() string {
	return a.u().String()
}

// Size, Marshal and Unmarshal let an Amount be a protobuf custom type. It is
// stored as 16 big-endian bytes.
func (a Amount) Size() int {
	return 16
}

func (a Amount) Marshal() ([]byte, error) {
	return a.BigEndian(), nil
}

func (a *Amount) Unmarshal(raw []byte) error {
	v, err := FromBigEndian(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalJSON encodes the amount as a decimal string, because JSON numbers
// cannot represent 128 bit values.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both a decimal string and a JSON number.
func (a *Amount) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.Wrap(errors.ErrInput, "amount must be a string or a number")
		}
		s = n.String()
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalYAML encodes the amount as a decimal string.
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML accepts a decimal scalar, quoted or not.
func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Wrapf(errors.ErrInput, "line %d: amount must be a scalar", n.Line)
	}
	v, err := ParseAmount(n.Value)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
