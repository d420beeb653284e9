// Package query defines the closed request/response contract the ledger
// exposes to the reasoning loop. Requests are a tagged union with explicit
// fields, never free-form code, so an unsupported request fails validation
// instead of surprising at runtime.
package query

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Op identifies a request variant.
type Op string

const (
	OpListTransactions Op = "list_transactions"
	OpSummarize        Op = "summarize"
	OpLargestOfKind    Op = "largest_of_kind"
	OpTotalByFilter    Op = "total_by_filter"
)

// Kind selects the transaction side for OpLargestOfKind.
type Kind string

const (
	KindDebit  Kind = "debit"
	KindCredit Kind = "credit"
)

// Filter narrows the transaction sequence. All fields are optional; nil
// pointers leave that bound open. Amounts are signed, so MinAmount 100
// selects credits of at least 100 and MaxAmount -100 selects debits of at
// least 100.
type Filter struct {
	StartDate           *time.Time
	EndDate             *time.Time
	MinAmount           *decimal.Decimal
	MaxAmount           *decimal.Decimal
	DescriptionContains string
}

// Request is one operation against the ledger.
type Request struct {
	Op     Op
	Filter Filter
	Kind   Kind // OpLargestOfKind only
}

// InvalidRequestError signals an unrecognized variant or contradictory
// filters. The caller may retry with a corrected request.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

func invalidf(format string, args ...any) *InvalidRequestError {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

func (r Request) validate() error {
	switch r.Op {
	case OpListTransactions, OpSummarize, OpTotalByFilter:
	case OpLargestOfKind:
		if r.Kind != KindDebit && r.Kind != KindCredit {
			return invalidf("largest_of_kind requires kind %q or %q, got %q", KindDebit, KindCredit, r.Kind)
		}
	default:
		return invalidf("unknown operation %q", r.Op)
	}

	f := r.Filter
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		return invalidf("min_amount %s exceeds max_amount %s", f.MinAmount, f.MaxAmount)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return invalidf("start_date %s is after end_date %s",
			f.StartDate.Format("2006-01-02"), f.EndDate.Format("2006-01-02"))
	}
	return nil
}
