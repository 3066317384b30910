/*
Package escrowdst implements the destination escrow of a cross chain swap.

A resolver funds the escrow with the taking token using ft_transfer_call
and the hex encoded immutables of its commitment as the payload. The
escrow then holds taking_amount until either the secret is revealed,
which releases the tokens to the maker, or the destination cancellation
deadline passes, which lets the taker take them back.

The destination safety deposit is attached with a separate call. It is
returned to whoever settles the record.
*/
package escrowdst
