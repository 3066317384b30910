/*
Package errors implements the error model shared by every contract hosted by the
runtime.

Each error returned by a handler wraps exactly one root error declared with
Register. Root errors carry a unique code so that a caller can distinguish a
rejected secret from a closed timelock window without parsing messages.

Create errors at the point of failure using ErrXyz.New("...") or
errors.Wrap(err, "..."), so that a stack trace is attached once, at the most
inner frame. Do not declare wrapped errors as package globals or the recorded
stack trace is useless.

Once you have an error, use fmt to get more context for it

	%s is just the error message
	%+v is the full stack trace
*/
package errors
