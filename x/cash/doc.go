/*
Package cash implements the native currency ledger.

Every account holds a single balance of the native currency. Balances change
only through the Controller: attached deposits of calls, plain transfer
receipts and refunds all move coins with MoveCoins.
*/
package cash
