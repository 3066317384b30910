package app

import (
	"context"
	"encoding/json"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/coin"
	"github.com/htlcswap/weave/errors"
)

// stub is a contract used to exercise the runtime.

type stubSetMsg struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (stubSetMsg) Path() string { return "stub/set" }
func (m *stubSetMsg) Validate() error {
	if m.Key == "" {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	return nil
}

type stubGetMsg struct {
	Key string `json:"key"`
}

func (stubGetMsg) Path() string     { return "stub/get" }
func (*stubGetMsg) Validate() error { return nil }

type stubForwardMsg struct {
	Target       weave.AccountID `json:"target"`
	Key          string          `json:"key"`
	Value        string          `json:"value"`
	Deposit      coin.Amount     `json:"deposit"`
	WithCallback bool            `json:"with_callback"`
	FailCallback bool            `json:"fail_callback"`
	Reenter      bool            `json:"reenter"`
}

func (stubForwardMsg) Path() string     { return "stub/forward" }
func (*stubForwardMsg) Validate() error { return nil }

type stubCallbackMsg struct {
	Fail bool `json:"fail"`
}

func (stubCallbackMsg) Path() string     { return "stub/callback" }
func (*stubCallbackMsg) Validate() error { return nil }

type stubPanicMsg struct{}

func (stubPanicMsg) Path() string     { return "stub/panic" }
func (*stubPanicMsg) Validate() error { return nil }

type stubHandler struct{}

func (stubHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return &weave.CheckResult{Log: msg.Path()}, msg.Validate()
}

func (stubHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *stubSetMsg:
		if m.Value == "fail" {
			return nil, errors.Wrap(errors.ErrState, "requested failure")
		}
		if err := db.Set([]byte(m.Key), []byte(m.Value)); err != nil {
			return nil, err
		}
		return &weave.DeliverResult{Data: []byte(m.Value)}, nil
	case *stubGetMsg:
		v, err := db.Get([]byte(m.Key))
		if err != nil {
			return nil, err
		}
		return &weave.DeliverResult{Data: v}, nil
	case *stubForwardMsg:
		if err := db.Set([]byte("forwarded"), []byte(m.Key)); err != nil {
			return nil, err
		}
		var inner weave.Msg = &stubSetMsg{Key: m.Key, Value: m.Value}
		if m.Reenter {
			inner = &stubForwardMsg{Target: weave.CurrentAccount(ctx), Key: m.Key, Value: m.Value}
		}
		var cb weave.Msg
		if m.WithCallback {
			cb = &stubCallbackMsg{Fail: m.FailCallback}
		}
		return &weave.DeliverResult{
			Data:     []byte("forward"),
			Receipts: []*weave.Receipt{weave.NewCall(m.Target, inner, m.Deposit, cb)},
		}, nil
	case *stubCallbackMsg:
		if !weave.IsPrivateCall(ctx) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "private")
		}
		res, ok := weave.GetPromiseResult(ctx)
		if !ok {
			return nil, errors.Wrap(errors.ErrHuman, "no promise result")
		}
		outcome := "ok:" + string(res.Value)
		if !res.Success() {
			outcome = "failed"
		}
		if err := db.Set([]byte("callback"), []byte(outcome)); err != nil {
			return nil, err
		}
		if m.Fail {
			return nil, errors.Wrap(errors.ErrState, "callback failure")
		}
		return &weave.DeliverResult{Data: []byte(outcome)}, nil
	case *stubPanicMsg:
		panic("stub panic")
	}
	return nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
}

type stubInit struct{}

func (stubInit) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	var value string
	if err := opts.ReadOptions("value", &value); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	var conf json.RawMessage
	if err := opts.ReadOptions("conf", &conf); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if len(conf) != 0 {
		if err := kv.Set([]byte("conf"), conf); err != nil {
			return err
		}
	}
	return kv.Set([]byte("init"), []byte(value))
}

func stubKind() Kind {
	r := NewRouter()
	h := stubHandler{}
	r.Handle(&stubSetMsg{}, h)
	r.Handle(&stubGetMsg{}, h)
	r.Handle(&stubForwardMsg{}, h)
	r.Handle(&stubCallbackMsg{}, h)
	r.Handle(&stubPanicMsg{}, h)
	return Kind{Name: "stub", Router: r, Init: stubInit{}}
}
