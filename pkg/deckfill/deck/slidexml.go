package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// span is a byte range [start, end) inside a slide part.
type span struct {
	start, end int64
}

// runRef is one a:t text element: its full byte range and decoded content.
// The run's properties element sits outside the range, so replacing the
// range changes only the text and leaves font, size and color untouched.
type runRef struct {
	elem span
	text string
}

// cellRef is one table cell: its text runs plus the offset where a run can
// be inserted into the first paragraph when the cell has none.
type cellRef struct {
	runs      []runRef
	insertAt  int64
	hasInsert bool
}

// tableRef is one a:tbl in document order: rows of cells.
type tableRef struct {
	rows [][]cellRef
}

// slideScan is the addressable view of one slide's XML, built by a single
// offset-tracking pass. Offsets are only valid against the exact bytes the
// scan ran on; every edit operation rescans.
type slideScan struct {
	tables []tableRef
	runs   []runRef
}

// scanSlide walks the slide XML once, recording the byte ranges of every
// text run and the cell grid of every table.
func scanSlide(data []byte) (*slideScan, error) {
	s := &slideScan{}
	dec := xml.NewDecoder(bytes.NewReader(data))

	var stack []string
	tblDepth, trDepth, tcDepth, paraDepth := -1, -1, -1, -1
	inFirstPara := false
	paraSeen := 0

	var curRows [][]cellRef
	var curCells []cellRef
	var curCell *cellRef

	for {
		before := dec.InputOffset()
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("slide xml: %w", err)
		}
		after := dec.InputOffset()

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				// Consume the whole element here; it is never pushed.
				text, end, err := readTextElement(dec)
				if err != nil {
					return nil, fmt.Errorf("slide xml: %w", err)
				}
				run := runRef{elem: span{before, end}, text: text}
				s.runs = append(s.runs, run)
				if curCell != nil {
					curCell.runs = append(curCell.runs, run)
				}
				continue
			}

			switch t.Name.Local {
			case "tbl":
				if tblDepth == -1 {
					tblDepth = len(stack)
					curRows = nil
				}
			case "tr":
				if tblDepth != -1 && trDepth == -1 {
					trDepth = len(stack)
					curCells = nil
				}
			case "tc":
				if trDepth != -1 && tcDepth == -1 {
					tcDepth = len(stack)
					curCell = &cellRef{}
					paraSeen = 0
				}
			case "p":
				if curCell != nil && paraDepth == -1 {
					paraDepth = len(stack)
					inFirstPara = paraSeen == 0
					paraSeen++
				}
			case "endParaRPr":
				// New runs must precede endParaRPr to keep the schema
				// order valid, so it wins as the insertion point.
				if inFirstPara && curCell != nil && !curCell.hasInsert {
					curCell.insertAt = before
					curCell.hasInsert = true
				}
			}
			stack = append(stack, t.Name.Local)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("slide xml: unbalanced elements")
			}
			depth := len(stack) - 1
			stack = stack[:depth]

			switch {
			case depth == paraDepth && t.Name.Local == "p":
				// after == before means a synthesized end tag for a
				// self-closed paragraph, which has no interior to splice.
				if inFirstPara && curCell != nil && !curCell.hasInsert && after > before {
					curCell.insertAt = before
					curCell.hasInsert = true
				}
				inFirstPara = false
				paraDepth = -1
			case depth == tcDepth && t.Name.Local == "tc":
				curCells = append(curCells, *curCell)
				curCell = nil
				tcDepth = -1
			case depth == trDepth && t.Name.Local == "tr":
				curRows = append(curRows, curCells)
				curCells = nil
				trDepth = -1
			case depth == tblDepth && t.Name.Local == "tbl":
				s.tables = append(s.tables, tableRef{rows: curRows})
				curRows = nil
				tblDepth = -1
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("slide xml: unbalanced elements")
	}
	return s, nil
}

// readTextElement consumes the content and end tag of an a:t element,
// returning the decoded text and the offset just past the end tag.
func readTextElement(dec *xml.Decoder) (string, int64, error) {
	var text bytes.Buffer
	for {
		token, err := dec.Token()
		if err != nil {
			return "", 0, err
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return text.String(), dec.InputOffset(), nil
		case xml.StartElement:
			if err := dec.Skip(); err != nil {
				return "", 0, err
			}
		}
	}
}

// splice is one byte-range replacement; zero-length ranges insert.
type splice struct {
	span
	repl []byte
}

// applySplices rebuilds the slide bytes with all splices applied. Ranges
// must not overlap; everything between them is copied verbatim.
func applySplices(data []byte, splices []splice) ([]byte, error) {
	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })

	var out bytes.Buffer
	out.Grow(len(data))
	var pos int64
	for _, sp := range splices {
		if sp.start < pos || sp.end < sp.start || sp.end > int64(len(data)) {
			return nil, fmt.Errorf("overlapping or out-of-range edit at byte %d", sp.start)
		}
		out.Write(data[pos:sp.start])
		out.Write(sp.repl)
		pos = sp.end
	}
	out.Write(data[pos:])
	return out.Bytes(), nil
}

// contentEscaper escapes the characters XML forbids in element content.
// Quotes and apostrophes stay literal; escaping them would churn bytes in
// month tokens like "Dec'25" for no reason.
var contentEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// textElement renders a replacement a:t element with escaped content.
func textElement(text string) []byte {
	return []byte("<a:t>" + contentEscaper.Replace(text) + "</a:t>")
}
