package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/statement-agent/internal/extract"
	"github.com/dvloznov/statement-agent/internal/ledger"
)

var (
	holderKeys  = []string{"account holder", "account name", "customer name", "customer"}
	openingKeys = []string{"opening balance", "balance brought forward", "previous balance", "start balance"}
	closingKeys = []string{"closing balance", "balance carried forward", "new balance", "end balance"}
	periodKeys  = []string{"statement period", "statement date range", "period"}
)

// attachEntities recovers statement-level header fields from the key/value
// entities. Unrecognized entities are simply ignored.
func (n *Normalizer) attachEntities(entities []extract.Entity) ledger.Header {
	var h ledger.Header
	for _, e := range entities {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		value := strings.TrimSpace(e.Value)
		if name == "" || value == "" {
			continue
		}
		switch {
		case h.AccountHolder == "" && matchAny(name, holderKeys):
			h.AccountHolder = normalizeSpace(value)
		case h.StatedOpening == nil && matchAny(name, openingKeys):
			if d, err := ParseAmount(value); err == nil {
				h.StatedOpening = &d
			}
		case h.StatedClosing == nil && matchAny(name, closingKeys):
			if d, err := ParseAmount(value); err == nil {
				h.StatedClosing = &d
			}
		case h.PeriodStart == nil && matchAny(name, periodKeys):
			if start, end, err := n.parsePeriod(value); err == nil {
				h.PeriodStart = &start
				h.PeriodEnd = &end
			}
		}
	}
	return h
}

func matchAny(name string, keys []string) bool {
	for _, k := range keys {
		if matchKeyword(name, k) {
			return true
		}
	}
	return false
}

// parsePeriod splits a stated period like "01/02/2024 - 29/02/2024" or
// "1 Feb 2024 to 29 Feb 2024" into its two dates.
func (n *Normalizer) parsePeriod(value string) (time.Time, time.Time, error) {
	for _, sep := range []string{" to ", " - ", " – ", "-"} {
		parts := strings.SplitN(value, sep, 2)
		if len(parts) != 2 {
			continue
		}
		start, err1 := ParseDate(parts[0], n.dateFormats)
		end, err2 := ParseDate(parts[1], n.dateFormats)
		if err1 == nil && err2 == nil && !end.Before(start) {
			return start, end, nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unrecognized statement period %q", value)
}

// reconcile checks that opening + credits - debits lands on the closing
// balance within tolerance. A mismatch is a warning, not an error: many
// statements carry fees or entries outside the parsed table.
func reconcile(txs []ledger.Transaction, header ledger.Header) []ledger.Warning {
	probe := ledger.New(txs, nil, header)
	s := probe.Summary()
	if s.OpeningBalance == nil || s.ClosingBalance == nil {
		return nil
	}

	computed := s.OpeningBalance.Add(s.TotalCredits).Sub(s.TotalDebits)
	diff := computed.Sub(*s.ClosingBalance).Abs()
	if diff.LessThanOrEqual(reconcileTolerance) {
		return nil
	}
	return []ledger.Warning{{
		Kind:  ledger.WarnReconciliation,
		Table: -1,
		Row:   -1,
		Detail: fmt.Sprintf("computed closing balance %s does not match stated %s (difference %s)",
			computed.StringFixed(2), s.ClosingBalance.StringFixed(2), diff.StringFixed(2)),
	}}
}
