// Package ledger holds the normalized, read-only view of one bank statement:
// an ordered transaction sequence plus derived summary fields.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one normalized statement entry. It is immutable
// once constructed; nothing mutates transactions after normalization.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal  // negative = debit, positive = credit
	Balance     *decimal.Decimal // running balance after this entry, or nil
	RawRow      int              // row index in the raw extraction output, for diagnostics
}

// IsDebit returns true if the transaction took money out of the account.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit returns true if the transaction put money into the account.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
