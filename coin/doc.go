/*
Package coin provides Amount, the unsigned 128 bit quantity used for every
token and native currency balance, deposit and fee.

Amount arithmetic never wraps. Every operation that cannot be represented
returns errors.ErrOverflow, so that a partial fill index or a balance can
never be silently truncated.
*/
package coin
