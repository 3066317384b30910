package app

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"

	"github.com/htlcswap/weave"
	"github.com/htlcswap/weave/errors"
)

var isPath = regexp.MustCompile(`^[a-zA-Z0-9_\-/]+$`).MatchString

// Router allows us to register many handlers with different paths and then
// direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]route
}

type route struct {
	msg     reflect.Type
	handler weave.Handler
}

var _ weave.Registry = (*Router)(nil)
var _ weave.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]route),
	}
}

// Handle registers a handler for the path of given message. The message is
// kept as a prototype so that a message of that path can be decoded.
// Registering the same path twice panics.
func (r *Router) Handle(m weave.Msg, h weave.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = route{msg: reflect.TypeOf(m), handler: h}
}

// Handler returns the handler registered for given path, or a handler
// that always fails with ErrNotFound.
func (r *Router) Handler(path string) weave.Handler {
	if rt, ok := r.routes[path]; ok {
		return rt.handler
	}
	return notFoundHandler(path)
}

// Paths returns all registered paths in alphabetical order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// NewMsg returns a new, empty message of the type registered for given path.
func (r *Router) NewMsg(path string) (weave.Msg, error) {
	rt, ok := r.routes[path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", path)
	}
	if rt.msg.Kind() == reflect.Ptr {
		return reflect.New(rt.msg.Elem()).Interface().(weave.Msg), nil
	}
	return reflect.New(rt.msg).Elem().Interface().(weave.Msg), nil
}

// DecodeMsg returns the message of given path decoded from its JSON
// representation.
func (r *Router) DecodeMsg(path string, raw []byte) (weave.Msg, error) {
	msg, err := r.NewMsg(path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return msg, nil
	}
	if reflect.TypeOf(msg).Kind() != reflect.Ptr {
		return nil, errors.Wrapf(errors.ErrType, "message %q cannot be decoded", path)
	}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "decode %q: %s", path, err)
	}
	return msg, nil
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx context.Context, store weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return r.Handler(msg.Path()).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx context.Context, store weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return r.Handler(msg.Path()).Deliver(ctx, store, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments.
type notFoundHandler string

func (path notFoundHandler) Check(context.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(context.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
