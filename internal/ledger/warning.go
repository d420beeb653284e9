package ledger

import "fmt"

// WarningKind classifies a degraded or skipped normalization step.
type WarningKind string

const (
	// WarnTableSkipped marks a detected table that did not look transactional.
	WarnTableSkipped WarningKind = "table_skipped"
	// WarnNoHeader marks a table whose column roles were inferred
	// positionally because no header row was detected.
	WarnNoHeader WarningKind = "no_header"
	// WarnRowSkipped marks a data row dropped because its date or amount
	// could not be parsed.
	WarnRowSkipped WarningKind = "row_skipped"
	// WarnReconciliation marks a mismatch between the computed and stated
	// closing balance.
	WarnReconciliation WarningKind = "reconciliation"
)

// Warning is a structured, non-fatal record of a degraded extraction step.
// Table and Row reference the raw extraction output; -1 means not applicable.
type Warning struct {
	Kind   WarningKind
	Table  int
	Row    int
	Detail string
}

func (w Warning) String() string {
	switch {
	case w.Row >= 0:
		return fmt.Sprintf("%s (table %d, row %d): %s", w.Kind, w.Table, w.Row, w.Detail)
	case w.Table >= 0:
		return fmt.Sprintf("%s (table %d): %s", w.Kind, w.Table, w.Detail)
	default:
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
}
