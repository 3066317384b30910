/*
Package escrowsrc implements the source side escrow.

A maker funds an order by transferring the making token to the escrow with
ft_transfer_call and a hex encoded MakerOrder payload. Resolvers then commit
fills against the order, each backed by a safety deposit. An order split
into several parts is filled segment by segment: every fill must reach the
end of the current segment and reveal the Merkle proof of the hashlock at
the index computed from the filled amount.

Once the secret of a fill is known on the destination side, the taker
withdraws the committed tokens. After the cancellation deadline the tokens
go back to the maker. Tokens leave the escrow through safe transfers.
*/
package escrowsrc
