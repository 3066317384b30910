/*
Package codec implements the borsh layout used for order and commitment
records exchanged with off-chain tooling.

Integers are little-endian with a fixed width, strings are prefixed with
their length as a little-endian uint32 and struct fields follow declaration
order. Decoding is strict: trailing bytes, truncated input and strings that
are not UTF-8 are errors.
*/
package codec
