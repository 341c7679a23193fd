/*
Package ledger implements the money movement engine.

Every balance mutation in the application flows through this package.
A movement writes its journal rows and the new wallet balances inside a
single database transaction, with wallet rows locked in ascending ID
order so concurrent movements over the same wallets serialize instead
of deadlocking.

Movements come in three shapes:

  - Internal transfers (DebitCredit) write two legs under one shared
    reference, each leg carrying before/after balance snapshots.
  - External deposits open as pending entries that touch no balance;
    settlement credits the gateway-confirmed amount.
  - External withdrawals pre-debit the wallet, run the gateway call
    inside the same transaction, and refund on failed settlement.

Settlement is idempotent: replaying the same terminal outcome is a
no-op, a conflicting outcome returns ErrAlreadySettled.
*/
package ledger
