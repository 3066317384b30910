/*
Package fungible implements a fungible token contract.

Accounts must register with the token, paying a storage fee in native
currency, before they can hold a balance. A transfer can notify the receiver
contract with ft_transfer_call: the receiver's ft_on_transfer hook returns
the part of the amount it does not use, and the token gives that part back
to the sender once the hook resolves.
*/
package fungible
