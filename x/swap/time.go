package swap

import (
	"context"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
)

// After returns true if the block time is strictly after given deadline.
//
// This function panics if the block time is not provided in the context.
// This must never happen. The panic is here to prevent a broken setup from
// processing data incorrectly.
func After(ctx context.Context, deadline uint64) bool {
	return now(ctx) > deadline
}

// Before returns true if the block time is strictly before given deadline.
func Before(ctx context.Context, deadline uint64) bool {
	return now(ctx) < deadline
}

func now(ctx context.Context) uint64 {
	ts, err := weave.BlockTimestamp(ctx)
	if err != nil {
		panic(err)
	}
	return ts
}

// RequireAfter returns an ErrState error unless the block time is strictly
// after the deadline. Name describes the deadline in the error message.
func RequireAfter(ctx context.Context, name string, deadline uint64) error {
	if !After(ctx, deadline) {
		return errors.Wrapf(errors.ErrState, "only after %s (%d)", name, deadline)
	}
	return nil
}

// RequireBefore returns an ErrState error unless the block time is strictly
// before the deadline.
func RequireBefore(ctx context.Context, name string, deadline uint64) error {
	if !Before(ctx, deadline) {
		return errors.Wrapf(errors.ErrState, "only before %s (%d)", name, deadline)
	}
	return nil
}

// RequireWindow combines RequireAfter(open) and RequireBefore(close).
func RequireWindow(ctx context.Context, openName string, open uint64, closeName string, close uint64) error {
	if err := RequireAfter(ctx, openName, open); err != nil {
		return err
	}
	return RequireBefore(ctx, closeName, close)
}
