/*
Package swap holds the protocol types shared by both escrow contracts.

Immutables identify a single resolver commitment. Both escrows compute the
same content hash from the same Immutables payload and use it as the key of
their records, which is the only link between the two ledgers.

Time windows are gated with After and Before. Both comparisons are strict,
so the exact deadline timestamp belongs to neither window.
*/
package swap
