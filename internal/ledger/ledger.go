package ledger

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Header carries the statement-level fields recovered from key/value
// entities (not from the transaction table). All fields are optional.
type Header struct {
	AccountHolder string
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
	StatedOpening *decimal.Decimal
	StatedClosing *decimal.Decimal
}

// Summary holds the derived fields of a ledger. Balances are nil when
// neither running balances nor stated header fields are available.
type Summary struct {
	OpeningBalance *decimal.Decimal
	ClosingBalance *decimal.Decimal
	TotalDebits    decimal.Decimal // absolute value of all debits
	TotalCredits   decimal.Decimal
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Count          int
}

// Ledger is the read-only aggregate of one statement's transactions. It is
// built once per invocation by the normalizer and never mutated afterwards,
// so concurrent reads are safe.
type Ledger struct {
	txs      []Transaction
	warnings []Warning
	header   Header

	summaryOnce sync.Once
	summary     Summary
}

// New constructs a ledger. The transaction slice is taken over by the
// ledger; callers must not modify it afterwards.
func New(txs []Transaction, warnings []Warning, header Header) *Ledger {
	return &Ledger{txs: txs, warnings: warnings, header: header}
}

// Transactions returns the full ordered sequence.
func (l *Ledger) Transactions() []Transaction { return l.txs }

// Warnings returns the structured warnings attached during normalization.
func (l *Ledger) Warnings() []Warning { return l.warnings }

// Header returns the statement-level fields.
func (l *Ledger) Header() Header { return l.header }

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.txs) }

// Predicate selects transactions for Matching.
type Predicate func(Transaction) bool

// MinAmount keeps transactions with Amount >= min.
func MinAmount(min decimal.Decimal) Predicate {
	return func(t Transaction) bool { return t.Amount.GreaterThanOrEqual(min) }
}

// MaxAmount keeps transactions with Amount <= max.
func MaxAmount(max decimal.Decimal) Predicate {
	return func(t Transaction) bool { return t.Amount.LessThanOrEqual(max) }
}

// DescriptionContains keeps transactions whose description contains the
// given substring, case-insensitive.
func DescriptionContains(substr string) Predicate {
	needle := strings.ToLower(substr)
	return func(t Transaction) bool {
		return strings.Contains(strings.ToLower(t.Description), needle)
	}
}

// And combines predicates; all must hold.
func And(preds ...Predicate) Predicate {
	return func(t Transaction) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// InRange returns the ordered sub-sequence with dates in [start, end]
// inclusive. A zero start or end leaves that bound open.
func (l *Ledger) InRange(start, end time.Time) []Transaction {
	var out []Transaction
	for _, t := range l.txs {
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if !end.IsZero() && t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Matching returns the ordered sub-sequence satisfying the predicate.
func (l *Ledger) Matching(pred Predicate) []Transaction {
	var out []Transaction
	for _, t := range l.txs {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// Summary computes the derived fields on first call and caches them; the
// transaction list never changes after construction so the cache is safe.
func (l *Ledger) Summary() Summary {
	l.summaryOnce.Do(func() {
		l.summary = l.computeSummary()
	})
	return l.summary
}

func (l *Ledger) computeSummary() Summary {
	s := Summary{Count: len(l.txs)}

	for _, t := range l.txs {
		if t.IsDebit() {
			s.TotalDebits = s.TotalDebits.Add(t.Amount.Neg())
		} else {
			s.TotalCredits = s.TotalCredits.Add(t.Amount)
		}
		if s.PeriodStart.IsZero() || t.Date.Before(s.PeriodStart) {
			s.PeriodStart = t.Date
		}
		if t.Date.After(s.PeriodEnd) {
			s.PeriodEnd = t.Date
		}
	}

	// Stated header fields win over values derived from running balances.
	if l.header.PeriodStart != nil {
		s.PeriodStart = *l.header.PeriodStart
	}
	if l.header.PeriodEnd != nil {
		s.PeriodEnd = *l.header.PeriodEnd
	}

	s.OpeningBalance = l.header.StatedOpening
	if s.OpeningBalance == nil {
		if first := firstWithBalance(l.txs); first != nil {
			// Balance after the first entry minus its amount.
			opening := first.Balance.Sub(first.Amount)
			s.OpeningBalance = &opening
		}
	}

	s.ClosingBalance = l.header.StatedClosing
	if s.ClosingBalance == nil {
		if last := lastWithBalance(l.txs); last != nil {
			closing := *last.Balance
			s.ClosingBalance = &closing
		}
	}

	return s
}

func firstWithBalance(txs []Transaction) *Transaction {
	for i := range txs {
		if txs[i].Balance != nil {
			return &txs[i]
		}
	}
	return nil
}

func lastWithBalance(txs []Transaction) *Transaction {
	for i := len(txs) - 1; i >= 0; i-- {
		if txs[i].Balance != nil {
			return &txs[i]
		}
	}
	return nil
}
