/*
Package safetransfer sends fungible tokens to an account that may not be
registered with the token yet.

A transfer is a small state machine persisted in the contract that issues
it. Start saves a PendingTransfer and asks the token whether the receiver is
registered. The continuations registered by RegisterRoutes then pay the
registration fee when needed, send the tokens, and remove the record once
the token confirmed the transfer. Any failed step fails the continuation,
which aborts the call that started the transfer.
*/
package safetransfer
