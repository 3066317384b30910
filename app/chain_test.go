package app

import (
	"context"
	"testing"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
	"github.com/htlcswap/weave/weavetest"
	"github.com/htlcswap/weave/weavetest/assert"
)

func TestChainDecorators(t *testing.T) {
	c1 := &weavetest.Decorator{}
	c2 := &weavetest.Decorator{}
	var nilDecorator *weavetest.Decorator
	h := &weavetest.Handler{}

	stack := ChainDecorators(
		c1,
		NewLogging(),
		nilDecorator,
		NewRecovery(),
		c2,
	).WithHandler(h)

	ctx := weave.WithHeight(context.Background(), 4)
	_, err := stack.Check(ctx, nil, nil)
	assert.Nil(t, err)
	_, err = stack.Deliver(ctx, nil, nil)
	assert.Nil(t, err)

	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c2.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// an error short cuts the rest of the chain
	c1.DeliverErr = errors.ErrUnauthorized
	_, err = stack.Deliver(ctx, nil, nil)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, 2, c2.CallCount())
}

func TestRecovery(t *testing.T) {
	stack := ChainDecorators(NewRecovery()).WithHandler(weavetest.PanicHandler{Value: "boom"})
	ctx := context.Background()

	_, err := stack.Check(ctx, nil, nil)
	assert.IsErr(t, errors.ErrPanic, err)
	_, err = stack.Deliver(ctx, nil, nil)
	assert.IsErr(t, errors.ErrPanic, err)
}
