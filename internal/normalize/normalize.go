// Package normalize maps raw extraction output into a statement ledger. It
// owns the table-detection heuristics, column role resolution, and the
// date/amount/sign parsing rules.
package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-agent/internal/extract"
	"github.com/dvloznov/statement-agent/internal/ledger"
)

// reconcileTolerance is how far the computed closing balance may drift from
// the stated one before a reconciliation warning is attached.
var reconcileTolerance = decimal.NewFromFloat(0.01)

// defaultHeaderSynonyms maps column roles to lowercase header keywords.
// Matching is case-insensitive substring for multi-character keywords and
// exact for the very short ones ("in", "out"), so "Posting Date" matches
// "date" but "Opening" does not match "in".
var defaultHeaderSynonyms = map[string][]string{
	"date":        {"date", "transaction date", "posting date", "value date", "booking date", "fecha"},
	"description": {"description", "details", "narrative", "transaction details", "particulars", "memo", "reference"},
	"debit":       {"debit", "paid out", "money out", "withdrawal", "withdrawals", "out"},
	"credit":      {"credit", "paid in", "money in", "deposit", "deposits", "in"},
	"amount":      {"amount", "value"},
	"balance":     {"balance", "running balance"},
}

// Options tunes the normalizer. Zero values use the built-in defaults.
type Options struct {
	DateFormats    []string
	HeaderSynonyms map[string][]string
}

// ExtractionEmptyError means no detected table looked transactional, so
// there is nothing to build a ledger from. RejectedTables carries the header
// text of every table that was seen, for diagnosis.
type ExtractionEmptyError struct {
	RejectedTables []string
}

func (e *ExtractionEmptyError) Error() string {
	if len(e.RejectedTables) == 0 {
		return "no tables found in extraction output"
	}
	return fmt.Sprintf("no transaction table recognized among %d table(s): %s",
		len(e.RejectedTables), strings.Join(e.RejectedTables, "; "))
}

// columnRoles maps statement column roles to column indices; -1 means the
// role is absent.
type columnRoles struct {
	date        int
	description int
	debit       int
	credit      int
	amount      int
	balance     int
}

func noRoles() columnRoles {
	return columnRoles{date: -1, description: -1, debit: -1, credit: -1, amount: -1, balance: -1}
}

// transactional requires a date column plus some way to read an amount.
func (r columnRoles) transactional() bool {
	return r.date >= 0 && (r.amount >= 0 || r.debit >= 0 || r.credit >= 0)
}

// Normalizer converts raw extraction output into a ledger.
type Normalizer struct {
	dateFormats []string
	synonyms    map[string][]string
	strategies  []tableStrategy
}

// tableStrategy tries to resolve column roles for a table. The bool result
// reports whether the table looks transactional under this strategy.
// Strategies are tried in order; first match wins.
type tableStrategy struct {
	name  string
	apply func(t extract.Table) (columnRoles, bool)
}

// New creates a normalizer. Option fields left empty fall back to the
// built-in formats and synonyms; a non-empty HeaderSynonyms map replaces
// only the roles it names.
func New(opts Options) *Normalizer {
	n := &Normalizer{
		dateFormats: opts.DateFormats,
		synonyms:    make(map[string][]string, len(defaultHeaderSynonyms)),
	}
	if len(n.dateFormats) == 0 {
		n.dateFormats = defaultDateFormats
	}
	for role, kws := range defaultHeaderSynonyms {
		n.synonyms[role] = kws
	}
	for role, kws := range opts.HeaderSynonyms {
		if len(kws) > 0 {
			n.synonyms[role] = kws
		}
	}
	n.strategies = []tableStrategy{
		{name: "header keywords", apply: n.headerKeywordStrategy},
		{name: "positional fallback", apply: n.positionalStrategy},
	}
	return n
}

// Normalize builds a statement ledger from raw extraction output. Row-level
// parse failures become warnings, never errors; the only error condition is
// that no table in the document looks transactional at all.
func (n *Normalizer) Normalize(doc *extract.Document) (*ledger.Ledger, error) {
	var (
		txs      []ledger.Transaction
		warnings []ledger.Warning
		rejected []string
	)

	matched := 0
	for tableIdx, tbl := range doc.Tables {
		roles, strategy, ok := n.resolveRoles(tbl)
		if !ok {
			rejected = append(rejected, describeTable(tbl))
			warnings = append(warnings, ledger.Warning{
				Kind:   ledger.WarnTableSkipped,
				Table:  tableIdx,
				Row:    -1,
				Detail: fmt.Sprintf("not a transaction table (headers: %s)", describeTable(tbl)),
			})
			continue
		}
		matched++
		if strategy == "positional fallback" {
			warnings = append(warnings, ledger.Warning{
				Kind:   ledger.WarnNoHeader,
				Table:  tableIdx,
				Row:    -1,
				Detail: "no header row detected; column roles inferred positionally",
			})
		}

		rowTxs, rowWarnings := n.normalizeRows(tbl, tableIdx, roles)
		txs = append(txs, rowTxs...)
		warnings = append(warnings, rowWarnings...)
	}

	if matched == 0 {
		return nil, &ExtractionEmptyError{RejectedTables: rejected}
	}

	header := n.attachEntities(doc.Entities)
	warnings = append(warnings, reconcile(txs, header)...)

	return ledger.New(txs, warnings, header), nil
}

func (n *Normalizer) resolveRoles(tbl extract.Table) (columnRoles, string, bool) {
	for _, s := range n.strategies {
		if roles, ok := s.apply(tbl); ok {
			return roles, s.name, true
		}
	}
	return noRoles(), "", false
}

// headerKeywordStrategy resolves roles from the first detected header row.
func (n *Normalizer) headerKeywordStrategy(tbl extract.Table) (columnRoles, bool) {
	headers := tbl.Headers()
	if len(headers) == 0 {
		return noRoles(), false
	}

	roles := noRoles()
	for col, h := range headers {
		role := n.classifyHeader(h)
		switch role {
		case "date":
			if roles.date < 0 {
				roles.date = col
			}
		case "description":
			if roles.description < 0 {
				roles.description = col
			}
		case "debit":
			if roles.debit < 0 {
				roles.debit = col
			}
		case "credit":
			if roles.credit < 0 {
				roles.credit = col
			}
		case "amount":
			if roles.amount < 0 {
				roles.amount = col
			}
		case "balance":
			if roles.balance < 0 {
				roles.balance = col
			}
		}
	}
	return roles, roles.transactional()
}

// classifyHeader returns the first role whose synonyms match the header
// text. Balance is checked before amount so "Running Balance" never lands
// in the amount column.
func (n *Normalizer) classifyHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return ""
	}
	for _, role := range []string{"date", "balance", "debit", "credit", "amount", "description"} {
		for _, kw := range n.synonyms[role] {
			if matchKeyword(h, kw) {
				return role
			}
		}
	}
	return ""
}

// matchKeyword uses substring matching except for keywords of up to three
// characters, which must match the whole header.
func matchKeyword(header, kw string) bool {
	if len(kw) <= 3 {
		return header == kw
	}
	return strings.Contains(header, kw)
}

// positionalStrategy handles tables without a detected header row: the
// first column must hold dates, the last numeric column becomes the balance
// and the remaining numeric column the amount. The table qualifies only if
// a majority of rows carry a parseable date in the first column.
func (n *Normalizer) positionalStrategy(tbl extract.Table) (columnRoles, bool) {
	if len(tbl.HeaderRows) > 0 || len(tbl.BodyRows) == 0 {
		return noRoles(), false
	}

	dateHits := 0
	numericHits := map[int]int{}
	width := 0
	for _, row := range tbl.BodyRows {
		if len(row) > width {
			width = len(row)
		}
		if len(row) > 0 {
			if _, err := ParseDate(row[0].Text, n.dateFormats); err == nil {
				dateHits++
			}
		}
		for col := 1; col < len(row); col++ {
			if looksNumeric(row[col].Text) {
				numericHits[col]++
			}
		}
	}
	if dateHits*2 <= len(tbl.BodyRows) {
		return noRoles(), false
	}

	roles := noRoles()
	roles.date = 0
	majority := len(tbl.BodyRows) / 2
	var numericCols []int
	for col := 1; col < width; col++ {
		if numericHits[col] > majority {
			numericCols = append(numericCols, col)
		}
	}
	switch len(numericCols) {
	case 0:
		return noRoles(), false
	case 1:
		roles.amount = numericCols[0]
	default:
		roles.balance = numericCols[len(numericCols)-1]
		roles.amount = numericCols[len(numericCols)-2]
	}

	// First non-numeric column after the date is the best description guess.
	for col := 1; col < width; col++ {
		if col != roles.amount && col != roles.balance {
			roles.description = col
			break
		}
	}
	return roles, true
}

func (n *Normalizer) normalizeRows(tbl extract.Table, tableIdx int, roles columnRoles) ([]ledger.Transaction, []ledger.Warning) {
	var (
		txs      []ledger.Transaction
		warnings []ledger.Warning
	)

	skip := func(row int, detail string) {
		warnings = append(warnings, ledger.Warning{
			Kind:   ledger.WarnRowSkipped,
			Table:  tableIdx,
			Row:    row,
			Detail: detail,
		})
	}

	for rowIdx, row := range tbl.BodyRows {
		date, err := ParseDate(cellText(row, roles.date), n.dateFormats)
		if err != nil {
			skip(rowIdx, err.Error())
			continue
		}

		amount, err := n.rowAmount(row, roles)
		if err != nil {
			skip(rowIdx, err.Error())
			continue
		}
		if amount.IsZero() {
			skip(rowIdx, "zero amount")
			continue
		}

		var balance *decimal.Decimal
		if roles.balance >= 0 {
			if b, err := ParseAmount(cellText(row, roles.balance)); err == nil {
				balance = &b
			}
		}

		txs = append(txs, ledger.Transaction{
			Date:        date,
			Description: rowDescription(row, roles),
			Amount:      amount,
			Balance:     balance,
			RawRow:      rowIdx,
		})
	}

	return txs, warnings
}

// rowAmount reads the signed amount from a row. Header-declared debit and
// credit columns take precedence over sign heuristics in the cell text: a
// value in the debit column is a debit no matter how it is written.
func (n *Normalizer) rowAmount(row []extract.Cell, roles columnRoles) (decimal.Decimal, error) {
	if roles.debit >= 0 || roles.credit >= 0 {
		debitText := cellText(row, roles.debit)
		creditText := cellText(row, roles.credit)
		switch {
		case strings.TrimSpace(debitText) != "":
			d, err := ParseAmount(debitText)
			if err != nil {
				return decimal.Decimal{}, fmt.Errorf("debit column: %w", err)
			}
			return d.Abs().Neg(), nil
		case strings.TrimSpace(creditText) != "":
			c, err := ParseAmount(creditText)
			if err != nil {
				return decimal.Decimal{}, fmt.Errorf("credit column: %w", err)
			}
			return c.Abs(), nil
		case roles.amount >= 0:
			// fall through to the single amount column below
		default:
			return decimal.Decimal{}, fmt.Errorf("empty debit and credit columns")
		}
	}
	return ParseAmount(cellText(row, roles.amount))
}

// rowDescription returns the whitespace-normalized description, falling back
// to the first non-empty cell outside the numeric columns so the field is
// never empty.
func rowDescription(row []extract.Cell, roles columnRoles) string {
	if desc := normalizeSpace(cellText(row, roles.description)); desc != "" {
		return desc
	}
	for col, c := range row {
		if col == roles.date || col == roles.amount || col == roles.balance || col == roles.debit || col == roles.credit {
			continue
		}
		if desc := normalizeSpace(c.Text); desc != "" {
			return desc
		}
	}
	return normalizeSpace(cellText(row, roles.date))
}

func cellText(row []extract.Cell, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col].Text
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func describeTable(tbl extract.Table) string {
	headers := tbl.Headers()
	if len(headers) == 0 {
		if len(tbl.BodyRows) > 0 {
			cells := make([]string, len(tbl.BodyRows[0]))
			for i, c := range tbl.BodyRows[0] {
				cells[i] = c.Text
			}
			return "(headerless) " + strings.Join(cells, " | ")
		}
		return "(empty table)"
	}
	return strings.Join(headers, " | ")
}
