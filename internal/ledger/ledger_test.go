package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleLedger() *Ledger {
	txs := []Transaction{
		{Date: date(2024, 2, 1), Description: "Salary ACME Ltd", Amount: dec("2500.00"), Balance: decPtr("3500.00"), RawRow: 0},
		{Date: date(2024, 2, 3), Description: "Tesco Groceries", Amount: dec("-85.20"), Balance: decPtr("3414.80"), RawRow: 1},
		{Date: date(2024, 2, 10), Description: "Rent February", Amount: dec("-1200.00"), Balance: decPtr("2214.80"), RawRow: 2},
		{Date: date(2024, 2, 20), Description: "Refund Amazon", Amount: dec("15.00"), Balance: decPtr("2229.80"), RawRow: 3},
	}
	return New(txs, nil, Header{})
}

func TestInRange_Inclusive(t *testing.T) {
	l := sampleLedger()

	got := l.InRange(date(2024, 2, 3), date(2024, 2, 10))
	require.Len(t, got, 2)
	assert.Equal(t, "Tesco Groceries", got[0].Description)
	assert.Equal(t, "Rent February", got[1].Description)
}

func TestInRange_OpenBounds(t *testing.T) {
	l := sampleLedger()

	assert.Len(t, l.InRange(time.Time{}, time.Time{}), 4)
	assert.Len(t, l.InRange(date(2024, 2, 4), time.Time{}), 2)
	assert.Len(t, l.InRange(time.Time{}, date(2024, 2, 1)), 1)
}

func TestInRange_UnionProperty(t *testing.T) {
	// InRange(a,b) ++ InRange(b+1,c) == InRange(a,c)
	l := sampleLedger()
	a, b, c := date(2024, 2, 1), date(2024, 2, 9), date(2024, 2, 28)

	left := l.InRange(a, b)
	right := l.InRange(b.AddDate(0, 0, 1), c)
	all := l.InRange(a, c)

	combined := append(append([]Transaction{}, left...), right...)
	assert.Equal(t, all, combined)
}

func TestMatching_Predicates(t *testing.T) {
	l := sampleLedger()

	groceries := l.Matching(DescriptionContains("groceries"))
	require.Len(t, groceries, 1)
	assert.Equal(t, 1, groceries[0].RawRow)

	credits := l.Matching(MinAmount(dec("0.01")))
	assert.Len(t, credits, 2)

	bigDebits := l.Matching(And(MaxAmount(dec("-100")), DescriptionContains("rent")))
	require.Len(t, bigDebits, 1)
	assert.Equal(t, dec("-1200.00"), bigDebits[0].Amount)
}

func TestMatching_PreservesOrder(t *testing.T) {
	l := sampleLedger()

	all := l.Matching(func(Transaction) bool { return true })
	for i, tx := range all {
		assert.Equal(t, i, tx.RawRow)
	}
}

func TestSummary_Derived(t *testing.T) {
	l := sampleLedger()
	s := l.Summary()

	assert.Equal(t, 4, s.Count)
	assert.True(t, s.TotalDebits.Equal(dec("1285.20")), "debits %s", s.TotalDebits)
	assert.True(t, s.TotalCredits.Equal(dec("2515.00")), "credits %s", s.TotalCredits)
	assert.Equal(t, date(2024, 2, 1), s.PeriodStart)
	assert.Equal(t, date(2024, 2, 20), s.PeriodEnd)

	// Opening derived from the first running balance: 3500.00 - 2500.00.
	require.NotNil(t, s.OpeningBalance)
	assert.True(t, s.OpeningBalance.Equal(dec("1000.00")), "opening %s", s.OpeningBalance)
	require.NotNil(t, s.ClosingBalance)
	assert.True(t, s.ClosingBalance.Equal(dec("2229.80")))

	// opening + credits - debits reconciles to closing.
	computed := s.OpeningBalance.Add(s.TotalCredits).Sub(s.TotalDebits)
	assert.True(t, computed.Sub(*s.ClosingBalance).Abs().LessThanOrEqual(dec("0.01")))
}

func TestSummary_StatedHeaderWins(t *testing.T) {
	start, end := date(2024, 1, 28), date(2024, 2, 27)
	l := New(sampleLedger().Transactions(), nil, Header{
		AccountHolder: "J. Smith",
		PeriodStart:   &start,
		PeriodEnd:     &end,
		StatedOpening: decPtr("999.00"),
		StatedClosing: decPtr("2228.80"),
	})

	s := l.Summary()
	assert.True(t, s.OpeningBalance.Equal(dec("999.00")))
	assert.True(t, s.ClosingBalance.Equal(dec("2228.80")))
	assert.Equal(t, start, s.PeriodStart)
	assert.Equal(t, end, s.PeriodEnd)
}

func TestSummary_CachedAndStable(t *testing.T) {
	l := sampleLedger()
	first := l.Summary()
	second := l.Summary()
	assert.Equal(t, first, second)
}

func TestSummary_NoBalances(t *testing.T) {
	txs := []Transaction{
		{Date: date(2024, 3, 1), Description: "Coffee", Amount: dec("-3.50")},
	}
	l := New(txs, nil, Header{})
	s := l.Summary()

	assert.Nil(t, s.OpeningBalance)
	assert.Nil(t, s.ClosingBalance)
	assert.True(t, s.TotalDebits.Equal(dec("3.50")))
}

func TestDebitCredit(t *testing.T) {
	assert.True(t, Transaction{Amount: dec("-1")}.IsDebit())
	assert.True(t, Transaction{Amount: dec("1")}.IsCredit())
	assert.False(t, Transaction{Amount: dec("0")}.IsDebit())
	assert.False(t, Transaction{Amount: dec("0")}.IsCredit())
}

func TestWarningString(t *testing.T) {
	w := Warning{Kind: WarnRowSkipped, Table: 0, Row: 3, Detail: "unparsable date"}
	assert.Contains(t, w.String(), "row_skipped")
	assert.Contains(t, w.String(), "row 3")

	w = Warning{Kind: WarnReconciliation, Table: -1, Row: -1, Detail: "off by 0.50"}
	assert.NotContains(t, w.String(), "table")
}
