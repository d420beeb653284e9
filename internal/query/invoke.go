package query

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-agent/internal/ledger"
)

// ErrEmptyLedger means the ledger holds zero transactions. This is distinct
// from a request that merely matches nothing, so the reasoning loop can
// phrase the two answers differently.
var ErrEmptyLedger = errors.New("ledger has no transactions")

const dateLayout = "2006-01-02"

// TransactionView is one transaction rendered for the reasoning loop.
type TransactionView struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance,omitempty"`
}

// SummaryView renders the ledger's derived fields. Balance fields are empty
// when the statement carried no balance data.
type SummaryView struct {
	AccountHolder  string `json:"account_holder,omitempty"`
	OpeningBalance string `json:"opening_balance,omitempty"`
	ClosingBalance string `json:"closing_balance,omitempty"`
	TotalDebits    string `json:"total_debits"`
	TotalCredits   string `json:"total_credits"`
	PeriodStart    string `json:"period_start,omitempty"`
	PeriodEnd      string `json:"period_end,omitempty"`
	Count          int    `json:"transaction_count"`
}

// ToolResult is the response to one request: either a transaction list, a
// summary, or an aggregate value, plus any normalizer warnings so the
// caller can caveat its answer.
type ToolResult struct {
	Transactions []TransactionView `json:"transactions,omitempty"`
	Summary      *SummaryView      `json:"summary,omitempty"`
	Total        string            `json:"total,omitempty"`
	Count        int               `json:"count"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// Invoke executes one request against the ledger. It is a pure function of
// its inputs; the ledger is never mutated.
func Invoke(l *ledger.Ledger, req Request) (*ToolResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, ErrEmptyLedger
	}

	res := &ToolResult{Warnings: renderWarnings(l.Warnings())}

	switch req.Op {
	case OpListTransactions:
		matched := l.Matching(filterPredicate(req.Filter))
		res.Transactions = renderTransactions(matched)
		res.Count = len(matched)

	case OpSummarize:
		res.Summary = renderSummary(l)
		res.Count = l.Len()

	case OpLargestOfKind:
		if tx, ok := largestOfKind(l, req); ok {
			res.Transactions = renderTransactions([]ledger.Transaction{tx})
			res.Count = 1
		}

	case OpTotalByFilter:
		matched := l.Matching(filterPredicate(req.Filter))
		total := decimal.Zero
		for _, tx := range matched {
			total = total.Add(tx.Amount)
		}
		res.Total = total.StringFixed(2)
		res.Count = len(matched)
	}

	return res, nil
}

func filterPredicate(f Filter) ledger.Predicate {
	preds := []ledger.Predicate{}
	if f.StartDate != nil {
		start := *f.StartDate
		preds = append(preds, func(t ledger.Transaction) bool { return !t.Date.Before(start) })
	}
	if f.EndDate != nil {
		end := *f.EndDate
		preds = append(preds, func(t ledger.Transaction) bool { return !t.Date.After(end) })
	}
	if f.MinAmount != nil {
		preds = append(preds, ledger.MinAmount(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		preds = append(preds, ledger.MaxAmount(*f.MaxAmount))
	}
	if f.DescriptionContains != "" {
		preds = append(preds, ledger.DescriptionContains(f.DescriptionContains))
	}
	return ledger.And(preds...)
}

// largestOfKind returns the debit with the greatest magnitude or the credit
// with the greatest amount among the filtered transactions.
func largestOfKind(l *ledger.Ledger, req Request) (ledger.Transaction, bool) {
	side := func(t ledger.Transaction) bool { return t.IsCredit() }
	if req.Kind == KindDebit {
		side = func(t ledger.Transaction) bool { return t.IsDebit() }
	}
	matched := l.Matching(ledger.And(filterPredicate(req.Filter), side))
	if len(matched) == 0 {
		return ledger.Transaction{}, false
	}

	best := matched[0]
	for _, tx := range matched[1:] {
		if tx.Amount.Abs().GreaterThan(best.Amount.Abs()) {
			best = tx
		}
	}
	return best, true
}

func renderTransactions(txs []ledger.Transaction) []TransactionView {
	out := make([]TransactionView, len(txs))
	for i, tx := range txs {
		v := TransactionView{
			Date:        tx.Date.Format(dateLayout),
			Description: tx.Description,
			Amount:      tx.Amount.StringFixed(2),
		}
		if tx.Balance != nil {
			v.Balance = tx.Balance.StringFixed(2)
		}
		out[i] = v
	}
	return out
}

func renderSummary(l *ledger.Ledger) *SummaryView {
	s := l.Summary()
	v := &SummaryView{
		AccountHolder: l.Header().AccountHolder,
		TotalDebits:   s.TotalDebits.StringFixed(2),
		TotalCredits:  s.TotalCredits.StringFixed(2),
		Count:         s.Count,
	}
	if s.OpeningBalance != nil {
		v.OpeningBalance = s.OpeningBalance.StringFixed(2)
	}
	if s.ClosingBalance != nil {
		v.ClosingBalance = s.ClosingBalance.StringFixed(2)
	}
	if !s.PeriodStart.IsZero() {
		v.PeriodStart = s.PeriodStart.Format(dateLayout)
	}
	if !s.PeriodEnd.IsZero() {
		v.PeriodEnd = s.PeriodEnd.Format(dateLayout)
	}
	return v
}

func renderWarnings(ws []ledger.Warning) []string {
	if len(ws) == 0 {
		return nil
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}
