package deck

import (
	"fmt"
)

// CellWrite is one targeted cell assignment: display text into (row, col)
// of a slide table.
type CellWrite struct {
	Row, Col int
	Text     string
}

// TableRows returns the total row count (header rows included) of a table.
// Callers use it to apply the truncation policy before writing.
func (d *Deck) TableRows(slide, table int) (int, error) {
	data, err := d.slideData(slide)
	if err != nil {
		return 0, err
	}
	scan, err := scanSlide(data)
	if err != nil {
		return 0, err
	}
	tbl, err := scan.table(slide, table)
	if err != nil {
		return 0, err
	}
	return len(tbl.rows), nil
}

// WriteTableCells writes the given cells of one table. The edits are byte
// splices into the slide part: each cell's first run gets the new text, any
// further runs in the cell are blanked, and a cell with no run at all gets
// a minimal run inserted into its first paragraph. Rows or columns outside
// the table grid are reported as errors; nothing else on the slide changes.
func (d *Deck) WriteTableCells(slide, table int, writes []CellWrite) error {
	if len(writes) == 0 {
		return nil
	}
	data, err := d.slideData(slide)
	if err != nil {
		return err
	}
	scan, err := scanSlide(data)
	if err != nil {
		return err
	}
	tbl, err := scan.table(slide, table)
	if err != nil {
		return err
	}

	var splices []splice
	for _, w := range writes {
		if w.Row < 0 || w.Row >= len(tbl.rows) {
			return fmt.Errorf("slide %d table %d: row %d out of range (%d rows)", slide, table, w.Row, len(tbl.rows))
		}
		row := tbl.rows[w.Row]
		if w.Col < 0 || w.Col >= len(row) {
			return fmt.Errorf("slide %d table %d: column %d out of range (%d cells in row %d)", slide, table, w.Col, len(row), w.Row)
		}
		splices = append(splices, cellSplices(row[w.Col], w.Text)...)
	}

	edited, err := applySplices(data, splices)
	if err != nil {
		return fmt.Errorf("slide %d table %d: %w", slide, table, err)
	}
	d.setSlideData(slide, edited)
	return nil
}

// CellText returns the concatenated run text of one table cell.
func (d *Deck) CellText(slide, table, row, col int) (string, error) {
	data, err := d.slideData(slide)
	if err != nil {
		return "", err
	}
	scan, err := scanSlide(data)
	if err != nil {
		return "", err
	}
	tbl, err := scan.table(slide, table)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(tbl.rows) {
		return "", fmt.Errorf("slide %d table %d: row %d out of range", slide, table, row)
	}
	cells := tbl.rows[row]
	if col < 0 || col >= len(cells) {
		return "", fmt.Errorf("slide %d table %d: column %d out of range", slide, table, col)
	}
	var text string
	for _, run := range cells[col].runs {
		text += run.text
	}
	return text, nil
}

func (s *slideScan) table(slide, table int) (tableRef, error) {
	if table < 0 || table >= len(s.tables) {
		return tableRef{}, fmt.Errorf("slide %d has no table %d (%d tables)", slide, table, len(s.tables))
	}
	return s.tables[table], nil
}

// cellSplices produces the edits that set a cell's text.
func cellSplices(cell cellRef, text string) []splice {
	if len(cell.runs) > 0 {
		splices := []splice{{span: cell.runs[0].elem, repl: textElement(text)}}
		for _, run := range cell.runs[1:] {
			splices = append(splices, splice{span: run.elem, repl: textElement("")})
		}
		return splices
	}
	if cell.hasInsert {
		repl := append([]byte("<a:r>"), textElement(text)...)
		repl = append(repl, []byte("</a:r>")...)
		return []splice{{span: span{cell.insertAt, cell.insertAt}, repl: repl}}
	}
	// Cell carries no paragraph to splice into; leave it untouched.
	return nil
}
