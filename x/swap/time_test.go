package swap

import (
	"context"
	"testing"
	"time"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/weavetest/assert"
)

func atTime(ns uint64) context.Context {
	return weave.WithBlockTime(context.Background(), time.Unix(0, int64(ns)))
}

func TestWindowStrictness(t *testing.T) {
	const withdrawal, cancellation = 100, 200

	cases := map[string]struct {
		Now      uint64
		WantOpen bool
	}{
		"before withdrawal":     {Now: 99, WantOpen: false},
		"exactly at withdrawal": {Now: 100, WantOpen: false},
		"just after withdrawal": {Now: 101, WantOpen: true},
		"just before cancel":    {Now: 199, WantOpen: true},
		"exactly at cancel":     {Now: 200, WantOpen: false},
		"after cancel":          {Now: 201, WantOpen: false},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := atTime(tc.Now)
			open := After(ctx, withdrawal) && Before(ctx, cancellation)
			assert.Equal(t, tc.WantOpen, open)

			err := RequireWindow(ctx, "withdrawal", withdrawal, "cancellation", cancellation)
			if tc.WantOpen {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, errors.ErrState, err)
			}
		})
	}
}

func TestBoundaryBelongsToNoWindow(t *testing.T) {
	ctx := atTime(100)
	if After(ctx, 100) || Before(ctx, 100) {
		t.Fatal("deadline must be neither before nor after itself")
	}
	assert.IsErr(t, errors.ErrState, RequireAfter(ctx, "x", 100))
	assert.IsErr(t, errors.ErrState, RequireBefore(ctx, "x", 100))
}

func TestMissingBlockTimePanics(t *testing.T) {
	assert.Panics(t, func() { After(context.Background(), 1) })
}
