package domain

import "errors"

// ErrDuplicateAttempt is returned by the store when a ledger insert hits the
// (receiver_id, idempotency_key) uniqueness constraint. Two concurrent
// deliveries with the same key can both pass the duplicate check; the loser
// of the ledger insert is treated as a duplicate.
var ErrDuplicateAttempt = errors.New("ingestion attempt already recorded")
