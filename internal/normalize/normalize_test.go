package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/statement-agent/internal/extract"
	"github.com/dvloznov/statement-agent/internal/ledger"
)

func row(cells ...string) []extract.Cell {
	out := make([]extract.Cell, len(cells))
	for i, c := range cells {
		out[i] = extract.Cell{Text: c, Confidence: 0.95}
	}
	return out
}

func table(headers []string, body ...[]extract.Cell) extract.Table {
	t := extract.Table{Page: 1, BodyRows: body}
	if headers != nil {
		t.HeaderRows = [][]extract.Cell{row(headers...)}
	}
	return t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func statementDoc() *extract.Document {
	return &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Description", "Paid Out", "Paid In", "Balance"},
				row("01/02/2024", "Opening transfer", "", "1,000.00", "1,000.00"),
				row("03/02/2024", "Tesco Groceries", "85.20", "", "914.80"),
				row("10/02/2024", "Rent February", "1,200.00", "", "-285.20"),
			),
		},
		Entities: []extract.Entity{
			{Name: "Account Holder", Value: "J. Smith"},
			{Name: "Statement Period", Value: "01/02/2024 to 29/02/2024"},
			{Name: "Opening Balance", Value: "£0.00"},
			{Name: "Closing Balance", Value: "-£285.20"},
		},
	}
}

func TestNormalize_OneTransactionPerRow(t *testing.T) {
	l, err := New(Options{}).Normalize(statementDoc())
	require.NoError(t, err)

	txs := l.Transactions()
	require.Len(t, txs, 3)
	for i, tx := range txs {
		assert.Equal(t, i, tx.RawRow)
	}
	assert.Equal(t, "Opening transfer", txs[0].Description)
	assert.True(t, txs[0].Amount.Equal(dec("1000.00")))
	assert.True(t, txs[1].Amount.Equal(dec("-85.20")))
	assert.True(t, txs[2].Amount.Equal(dec("-1200.00")))
	require.NotNil(t, txs[2].Balance)
	assert.True(t, txs[2].Balance.Equal(dec("-285.20")))
}

func TestNormalize_HeaderEntities(t *testing.T) {
	l, err := New(Options{}).Normalize(statementDoc())
	require.NoError(t, err)

	h := l.Header()
	assert.Equal(t, "J. Smith", h.AccountHolder)
	require.NotNil(t, h.PeriodStart)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *h.PeriodStart)
	require.NotNil(t, h.StatedOpening)
	assert.True(t, h.StatedOpening.Equal(dec("0")))
	require.NotNil(t, h.StatedClosing)
	assert.True(t, h.StatedClosing.Equal(dec("-285.20")))
}

func TestNormalize_ReconciliationClean(t *testing.T) {
	l, err := New(Options{}).Normalize(statementDoc())
	require.NoError(t, err)

	for _, w := range l.Warnings() {
		assert.NotEqual(t, ledger.WarnReconciliation, w.Kind, "unexpected warning: %s", w)
	}
}

func TestNormalize_ReconciliationMismatch(t *testing.T) {
	doc := statementDoc()
	// Stated closing disagrees with the parsed rows by a pound.
	doc.Entities[3].Value = "-£286.20"

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)

	var found *ledger.Warning
	for i, w := range l.Warnings() {
		if w.Kind == ledger.WarnReconciliation {
			found = &l.Warnings()[i]
		}
	}
	require.NotNil(t, found, "expected a reconciliation warning")
	assert.Contains(t, found.Detail, "-285.20")
	assert.Contains(t, found.Detail, "-286.20")
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(Options{})
	l1, err := n.Normalize(statementDoc())
	require.NoError(t, err)
	l2, err := n.Normalize(statementDoc())
	require.NoError(t, err)

	assert.Equal(t, l1.Transactions(), l2.Transactions())
	assert.Equal(t, l1.Warnings(), l2.Warnings())
	assert.Equal(t, l1.Summary(), l2.Summary())
}

func TestNormalize_FeeScheduleOnly(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Service", "Fee"},
				row("International transfer", "£25.00"),
				row("Replacement card", "£5.00"),
			),
		},
	}

	_, err := New(Options{}).Normalize(doc)
	var empty *ExtractionEmptyError
	require.ErrorAs(t, err, &empty)
	require.Len(t, empty.RejectedTables, 1)
	assert.Contains(t, empty.RejectedTables[0], "Service")
}

func TestNormalize_FeeScheduleIgnoredNextToTransactions(t *testing.T) {
	doc := statementDoc()
	doc.Tables = append(doc.Tables, table([]string{"Service", "Fee"},
		row("International transfer", "£25.00"),
	))

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)
	assert.Len(t, l.Transactions(), 3)

	var skipped bool
	for _, w := range l.Warnings() {
		if w.Kind == ledger.WarnTableSkipped && w.Table == 1 {
			skipped = true
		}
	}
	assert.True(t, skipped, "expected a table_skipped warning for the fee schedule")
}

func TestNormalize_BadDateRowSkipped(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Description", "Amount"},
				row("01/02/2024", "Coffee", "-3.50"),
				row("31-Febtober-2024", "Nonsense", "-10.00"),
				row("02/02/2024", "Lunch", "-12.00"),
			),
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "Coffee", txs[0].Description)
	assert.Equal(t, "Lunch", txs[1].Description)

	var w *ledger.Warning
	for i := range l.Warnings() {
		if l.Warnings()[i].Kind == ledger.WarnRowSkipped {
			w = &l.Warnings()[i]
		}
	}
	require.NotNil(t, w)
	assert.Equal(t, 1, w.Row)
	assert.Contains(t, w.Detail, "31-Febtober-2024")
}

func TestNormalize_BadAmountRowSkipped(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Description", "Amount"},
				row("01/02/2024", "Coffee", "n/a"),
				row("02/02/2024", "Lunch", "-12.00"),
			),
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)
	require.Len(t, l.Transactions(), 1)
	assert.Equal(t, "Lunch", l.Transactions()[0].Description)
}

func TestNormalize_ZeroAmountRowSkipped(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Description", "Amount"},
				row("01/02/2024", "Noop", "0.00"),
				row("02/02/2024", "Lunch", "-12.00"),
			),
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)
	require.Len(t, l.Transactions(), 1)
	require.Len(t, l.Warnings(), 1)
	assert.Equal(t, ledger.WarnRowSkipped, l.Warnings()[0].Kind)
}

func TestNormalize_SignedAmountColumn(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Details", "Amount", "Balance"},
				row("2024-02-01", "Salary", "2,500.00", "3,500.00"),
				row("2024-02-03", "Card payment", "(45.00)", "3,455.00"),
				row("2024-02-04", "Standing order", "120.00 DR", "3,335.00"),
			),
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)

	txs := l.Transactions()
	require.Len(t, txs, 3)
	assert.True(t, txs[0].Amount.Equal(dec("2500.00")))
	assert.True(t, txs[1].Amount.Equal(dec("-45.00")))
	assert.True(t, txs[2].Amount.Equal(dec("-120.00")))
}

func TestNormalize_DebitColumnWinsOverSign(t *testing.T) {
	// A parenthesized value in the debit column is still just a debit.
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Description", "Debit", "Credit"},
				row("01/02/2024", "Card payment", "(45.00)", ""),
				row("02/02/2024", "Refund", "", "-15.00"),
			),
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.Equal(dec("-45.00")))
	// Credit column values are credits regardless of stray signs.
	assert.True(t, txs[1].Amount.Equal(dec("15.00")))
}

func TestNormalize_PositionalFallback(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			{
				Page: 1,
				BodyRows: [][]extract.Cell{
					row("01/02/2024", "Salary", "2,500.00", "3,500.00"),
					row("03/02/2024", "Groceries", "(85.20)", "3,414.80"),
				},
			},
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "Salary", txs[0].Description)
	assert.True(t, txs[0].Amount.Equal(dec("2500.00")))
	require.NotNil(t, txs[0].Balance)
	assert.True(t, txs[0].Balance.Equal(dec("3500.00")))

	var lowConfidence bool
	for _, w := range l.Warnings() {
		if w.Kind == ledger.WarnNoHeader {
			lowConfidence = true
		}
	}
	assert.True(t, lowConfidence, "expected a no_header warning")
}

func TestNormalize_HeaderlessNonTransactional(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			{
				Page: 1,
				BodyRows: [][]extract.Cell{
					row("International transfer", "£25.00"),
					row("Replacement card", "£5.00"),
				},
			},
		},
	}

	_, err := New(Options{}).Normalize(doc)
	var empty *ExtractionEmptyError
	assert.True(t, errors.As(err, &empty))
}

func TestNormalize_SynonymOverrides(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Buchungstag", "Verwendungszweck", "Betrag"},
				row("02.01.2024", "Miete Januar", "-900.00"),
			),
		},
	}

	opts := Options{HeaderSynonyms: map[string][]string{
		"date":        {"buchungstag"},
		"description": {"verwendungszweck"},
		"amount":      {"betrag"},
	}}

	l, err := New(opts).Normalize(doc)
	require.NoError(t, err)
	require.Len(t, l.Transactions(), 1)
	assert.Equal(t, "Miete Januar", l.Transactions()[0].Description)
}

func TestNormalize_EmptyDescriptionFallsBack(t *testing.T) {
	doc := &extract.Document{
		Tables: []extract.Table{
			table([]string{"Date", "Description", "Amount", "Reference"},
				row("01/02/2024", "", "-10.00", "REF-123"),
			),
		},
	}

	l, err := New(Options{}).Normalize(doc)
	require.NoError(t, err)
	require.Len(t, l.Transactions(), 1)
	assert.NotEmpty(t, l.Transactions()[0].Description)
}
