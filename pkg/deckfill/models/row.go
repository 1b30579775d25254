// Package models defines the data structures shared by the deckfill pipeline.
package models

// RowRecord is one parsed spreadsheet row as a mapping from header name to
// the raw cell text. Values keep the spreadsheet's own rendering; display
// formatting happens when a record is written into the deck.
type RowRecord map[string]string

// Dataset is an ordered, finite sequence of rows extracted for one report
// target. Records are immutable once read; a fresh run re-reads from disk.
type Dataset struct {
	// Role is the logical input role the rows came from.
	Role string
	// Sheet is the source sheet name (empty for single-sheet binary books).
	Sheet string
	// Records holds the rows in source order, already capped and aggregated
	// according to the target's source spec.
	Records []RowRecord
}

// Field returns the value of the named field on the i-th record, or ""
// when the record has no such field.
func (d Dataset) Field(i int, name string) string {
	if i < 0 || i >= len(d.Records) {
		return ""
	}
	return d.Records[i][name]
}
