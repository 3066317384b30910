package escrowsrc

import (
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
)

// Segment k of an order covers the filled amounts in
// (boundary(k), boundary(k+1)], where boundary(k) = ceil(k*total/parts).
// The index of a fill is the segment of its last unit.

// segmentOf returns floor(amount*parts/total).
func segmentOf(total, amount coin.Amount, parts uint16) (uint64, error) {
	scaled, err := amount.Mul(coin.NewAmount(uint64(parts)))
	if err != nil {
		return 0, errors.Wrap(err, "segment")
	}
	x, err := scaled.Div(total)
	if err != nil {
		return 0, err
	}
	v, ok := x.Uint64()
	if !ok || v > uint64(parts) {
		return 0, errors.Wrapf(errors.ErrOverflow, "segment %s", x)
	}
	return v, nil
}

// lastSegment returns the segment of the last of amount filled units.
func lastSegment(total, amount coin.Amount, parts uint16) (uint64, error) {
	prev, err := amount.Sub(coin.NewAmount(1))
	if err != nil {
		return 0, errors.Wrap(errors.ErrAmount, "nothing filled")
	}
	return segmentOf(total, prev, parts)
}

// boundary returns ceil(k*total/parts) for k <= parts. It is computed as
// k*(total/parts) + ceil(k*(total%parts)/parts) so that no intermediate
// value is bigger than total.
func boundary(total coin.Amount, parts uint16, k uint64) (coin.Amount, error) {
	p := coin.NewAmount(uint64(parts))
	q, err := total.Div(p)
	if err != nil {
		return coin.Zero, err
	}
	whole, err := q.Mul(p)
	if err != nil {
		return coin.Zero, err
	}
	rest, err := total.Sub(whole)
	if err != nil {
		return coin.Zero, err
	}
	r, _ := rest.Uint64()
	base, err := q.Mul(coin.NewAmount(k))
	if err != nil {
		return coin.Zero, errors.Wrap(err, "boundary")
	}
	return base.Add(coin.NewAmount((k*r + uint64(parts) - 1) / uint64(parts)))
}

// segmentEnd returns the filled amount at which the segment containing the
// next unit after filled ends. The last segment ends at total.
func segmentEnd(total, filled coin.Amount, parts uint16) (coin.Amount, error) {
	if total.IsZero() || parts == 0 {
		return coin.Zero, errors.Wrap(errors.ErrInput, "empty order")
	}
	x, err := segmentOf(total, filled, parts)
	if err != nil {
		return coin.Zero, err
	}
	if x+1 >= uint64(parts) {
		return total, nil
	}
	return boundary(total, parts, x+1)
}

// CompletesSegment returns true if a fill of making tokens reaches the end of
// the segment the order is currently filled into. A fill that starts at a
// segment boundary must cover that whole segment.
func CompletesSegment(total, filled, making coin.Amount, parts uint16) (bool, error) {
	end, err := segmentEnd(total, filled, parts)
	if err != nil {
		return false, err
	}
	owed, err := end.Sub(filled)
	if err != nil {
		return false, errors.Wrap(err, "segment remainder")
	}
	return !making.LessThan(owed), nil
}

// ValidIndex returns the index of the secret that a fill of making tokens
// must reveal. The fill completing the order uses the extra secret at
// index parts. A fill must end in a later segment than the previous one, so
// that no secret is revealed for two fills.
func ValidIndex(total, filled, making coin.Amount, parts uint16) (uint16, error) {
	if total.IsZero() {
		return 0, errors.Wrap(errors.ErrInput, "total amount must be greater than zero")
	}
	current, err := filled.Add(making)
	if err != nil {
		return 0, errors.Wrap(err, "filled amount")
	}
	if current.IsZero() {
		return 0, errors.Wrap(errors.ErrAmount, "nothing filled")
	}
	if current.GreaterThan(total) {
		return 0, errors.Wrapf(errors.ErrAmount, "fill exceeds order total %s", total)
	}
	idx := uint64(parts)
	if !current.Equals(total) {
		if idx, err = lastSegment(total, current, parts); err != nil {
			return 0, errors.Wrap(err, "index")
		}
	}
	if !filled.IsZero() {
		prev, err := lastSegment(total, filled, parts)
		if err != nil {
			return 0, errors.Wrap(err, "previous index")
		}
		if idx <= prev {
			return 0, errors.Wrapf(errors.ErrAmount, "fill ends in segment %d of the previous fill", prev)
		}
	}
	return uint16(idx), nil
}
