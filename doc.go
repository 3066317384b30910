/*
Package weave defines the interfaces shared by the runtime and every hosted
contract: storage, messages, handlers, receipts and the values carried by the
context of a call.

A contract is a Handler bound to an account id. The runtime invokes it with a
context that carries the block time, the predecessor (the account that issued
the call), the current account (the contract itself) and the attached native
deposit. A handler never calls another contract directly. It returns Receipts
that the runtime executes after the handler returns; the issuer learns about
the outcome through a callback message that carries a PromiseResult in its
context.

There should exist two functions for every XYZ of type T that we want to
support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)
*/
package weave
