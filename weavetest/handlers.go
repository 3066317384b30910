package weavetest

import (
	"context"

	"github.com/htlcswap/weave"
)

// Handler is a mock implementation of the weave.Handler interface.
//
// Results and errors are returned as configured. Each call is counted.
type Handler struct {
	checkCall   int
	CheckResult weave.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult weave.DeliverResult
	DeliverErr    error
}

var _ weave.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	h.checkCall++
	res := h.CheckResult
	return &res, h.CheckErr
}

func (h *Handler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.deliverCall++
	res := h.DeliverResult
	return &res, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// PanicHandler panics with given value on every call.
type PanicHandler struct {
	Value interface{}
}

var _ weave.Handler = PanicHandler{}

func (p PanicHandler) Check(context.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	panic(p.Value)
}

func (p PanicHandler) Deliver(context.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	panic(p.Value)
}
