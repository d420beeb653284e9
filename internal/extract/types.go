// Package extract invokes the document-extraction backend on a statement PDF
// and exposes its output in a backend-agnostic shape: tables of text cells
// plus key/value entities. Nothing downstream sees the backend's own types.
package extract

import "fmt"

// Cell is one text cell of a detected table.
type Cell struct {
	Text       string
	Confidence float64
}

// Table is one detected table: zero or more header rows followed by body
// rows, in reading order. Page is the 1-based page the table was found on.
type Table struct {
	Page       int
	HeaderRows [][]Cell
	BodyRows   [][]Cell
}

// Headers returns the cell texts of the first header row, or nil if the
// backend detected no header rows.
func (t Table) Headers() []string {
	if len(t.HeaderRows) == 0 {
		return nil
	}
	out := make([]string, len(t.HeaderRows[0]))
	for i, c := range t.HeaderRows[0] {
		out[i] = c.Text
	}
	return out
}

// Entity is one key/value pair detected outside the tables, e.g.
// "Account Holder" / "J. Smith".
type Entity struct {
	Name       string
	Value      string
	Confidence float64
}

// Document is the raw extraction output for one PDF.
type Document struct {
	Tables   []Table
	Entities []Entity
}

// AdapterError wraps a failure of the extraction backend call. It is fatal
// for the invocation: no ledger can be built without extraction output.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("extraction adapter: %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
