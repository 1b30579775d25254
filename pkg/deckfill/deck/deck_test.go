package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

var monthToken = regexp.MustCompile(`[A-Za-z]{3}'\d{2}`)

func slideOpen() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a=%q xmlns:r=%q xmlns:p=%q><p:cSld><p:spTree>`, nsA, nsR, nsP)
}

const slideClose = `</p:spTree></p:cSld></p:sld>`

// titleSlide builds a slide with a styled title shape whose second run
// carries the month token.
func titleSlide(token string) string {
	return slideOpen() +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/>` +
		`<p:txBody><a:bodyPr/>` +
		`<a:p><a:r><a:rPr lang="en-US" sz="4400" b="1"/><a:t>AIL LT Leadership Review</a:t></a:r>` +
		`<a:r><a:rPr lang="en-US" sz="4400" b="1"><a:solidFill><a:srgbClr val="1F4E79"/></a:solidFill></a:rPr>` +
		`<a:t>` + token + `</a:t></a:r></a:p>` +
		`</p:txBody></p:sp>` + slideClose
}

// tableCell renders one cell: empty string means a placeholder-free cell
// holding only paragraph properties, anything else a single styled run.
func tableCell(text string) string {
	if text == "" {
		return `<a:tc><a:txBody><a:bodyPr/><a:p><a:endParaRPr lang="en-US" sz="1000"/></a:p></a:txBody><a:tcPr/></a:tc>`
	}
	return `<a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US" sz="1000"/><a:t>` + text + `</a:t></a:r></a:p></a:txBody><a:tcPr/></a:tc>`
}

// tableSlide builds a slide holding one table with the given cell grid.
func tableSlide(rows [][]string) string {
	var b strings.Builder
	b.WriteString(slideOpen())
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="4" name="Table 3"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`)
	b.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblPr firstRow="1"/><a:tblGrid>`)
	for range rows[0] {
		b.WriteString(`<a:gridCol w="914400"/>`)
	}
	b.WriteString(`</a:tblGrid>`)
	for _, row := range rows {
		b.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			b.WriteString(tableCell(cell))
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	b.WriteString(slideClose)
	return b.String()
}

// fmvGrid is a header row plus body rows of placeholder cells, matching the
// template tables the tool targets: five columns, first column placeholders
// marked "TBD", the rest empty.
func fmvGrid(bodyRows int) [][]string {
	rows := [][]string{{"Division Name", "# of Speakers", "Actual Status", "Pending Status", "% Response"}}
	for i := 0; i < bodyRows; i++ {
		rows = append(rows, []string{"TBD", "", "", "", ""})
	}
	return rows
}

// buildDeck writes a pptx fixture with the given slide XML parts, in
// presentation order.
func buildDeck(t *testing.T, slideXML ...string) string {
	t.Helper()

	var pres strings.Builder
	pres.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	fmt.Fprintf(&pres, `<p:presentation xmlns:p=%q xmlns:r=%q><p:sldIdLst>`, nsP, nsR)
	for i := range slideXML {
		fmt.Fprintf(&pres, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+1)
	}
	pres.WriteString(`</p:sldIdLst></p:presentation>`)

	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i := range slideXML {
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i+1)
	}
	rels.WriteString(`</Relationships>`)

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"ppt/presentation.xml", pres.String()},
		{"ppt/_rels/presentation.xml.rels", rels.String()},
		{"ppt/theme/theme1.xml", `<?xml version="1.0"?><a:theme xmlns:a="` + nsA + `" name="Office"/>`},
	}
	for i, xmlData := range slideXML {
		parts = append(parts, struct {
			name string
			data string
		}{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), xmlData})
	}

	path := filepath.Join(t.TempDir(), "template.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func readZipParts(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	parts := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part: %v", err)
		}
		data := new(bytes.Buffer)
		if _, err := data.ReadFrom(rc); err != nil {
			t.Fatalf("read part: %v", err)
		}
		rc.Close()
		parts[f.Name] = data.Bytes()
	}
	return parts
}

func TestOpenResolvesSlides(t *testing.T) {
	path := buildDeck(t, titleSlide("Sep'25"), tableSlide(fmvGrid(5)))

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if d.SlideCount() != 2 {
		t.Errorf("Expected 2 slides, got %d", d.SlideCount())
	}
	rows, err := d.TableRows(1, 0)
	if err != nil {
		t.Fatalf("TableRows failed: %v", err)
	}
	if rows != 6 {
		t.Errorf("Expected 6 table rows (1 header + 5 body), got %d", rows)
	}
}

func TestOpenMissingTemplate(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pptx"))
	if err == nil {
		t.Fatal("Expected error for missing template")
	}
}

func TestWriteTableCellsPartialRows(t *testing.T) {
	path := buildDeck(t, titleSlide("Sep'25"), tableSlide(fmvGrid(5)))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Two records into a five-row body: rows 1-2 written, 3-5 untouched.
	writes := []CellWrite{
		{Row: 1, Col: 0, Text: "North"}, {Row: 1, Col: 4, Text: "92%"},
		{Row: 2, Col: 0, Text: "South"}, {Row: 2, Col: 4, Text: "88%"},
	}
	if err := d.WriteTableCells(1, 0, writes); err != nil {
		t.Fatalf("WriteTableCells failed: %v", err)
	}

	expect := map[[2]int]string{
		{1, 0}: "North", {1, 4}: "92%",
		{2, 0}: "South", {2, 4}: "88%",
		{3, 0}: "TBD", {4, 0}: "TBD", {5, 0}: "TBD",
		{3, 4}: "", {0, 0}: "Division Name",
	}
	for pos, want := range expect {
		got, err := d.CellText(1, 0, pos[0], pos[1])
		if err != nil {
			t.Fatalf("CellText(%v) failed: %v", pos, err)
		}
		if got != want {
			t.Errorf("cell %v = %q, expected %q", pos, got, want)
		}
	}
}

func TestWriteTableCellsKeepsRunProperties(t *testing.T) {
	path := buildDeck(t, tableSlide(fmvGrid(2)))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := d.WriteTableCells(0, 0, []CellWrite{{Row: 1, Col: 0, Text: "North"}}); err != nil {
		t.Fatalf("WriteTableCells failed: %v", err)
	}

	data, err := d.slideData(0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<a:rPr lang="en-US" sz="1000"/><a:t>North</a:t>`) {
		t.Error("replaced run lost its rPr element")
	}
}

func TestWriteTableCellsInsertsIntoEmptyCell(t *testing.T) {
	path := buildDeck(t, tableSlide(fmvGrid(2)))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	// Column 4 body cells hold only an endParaRPr.
	if err := d.WriteTableCells(0, 0, []CellWrite{{Row: 1, Col: 4, Text: "92.50%"}}); err != nil {
		t.Fatalf("WriteTableCells failed: %v", err)
	}

	got, err := d.CellText(0, 0, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != "92.50%" {
		t.Errorf("inserted cell = %q, expected 92.50%%", got)
	}
	data, _ := d.slideData(0)
	if !strings.Contains(string(data), `<a:r><a:t>92.50%</a:t></a:r><a:endParaRPr lang="en-US" sz="1000"/>`) {
		t.Error("run not inserted before endParaRPr")
	}
}

func TestWriteTableCellsEscapesText(t *testing.T) {
	path := buildDeck(t, tableSlide(fmvGrid(1)))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := d.WriteTableCells(0, 0, []CellWrite{{Row: 1, Col: 0, Text: "R&D <West>"}}); err != nil {
		t.Fatalf("WriteTableCells failed: %v", err)
	}
	got, err := d.CellText(0, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "R&D <West>" {
		t.Errorf("round-tripped text = %q", got)
	}
}

func TestWriteTableCellsOutOfRange(t *testing.T) {
	path := buildDeck(t, tableSlide(fmvGrid(2)))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := d.WriteTableCells(0, 0, []CellWrite{{Row: 9, Col: 0, Text: "x"}}); err == nil {
		t.Error("Expected error for out-of-range row")
	}
	if err := d.WriteTableCells(0, 0, []CellWrite{{Row: 1, Col: 9, Text: "x"}}); err == nil {
		t.Error("Expected error for out-of-range column")
	}
	if _, err := d.TableRows(0, 3); err == nil {
		t.Error("Expected error for missing table index")
	}
}

func TestReplaceRunTextPreservesFormatting(t *testing.T) {
	path := buildDeck(t, titleSlide("Sep'25"))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ok, err := d.ReplaceRunText(0, monthToken, "Dec'25")
	if err != nil {
		t.Fatalf("ReplaceRunText failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected token match")
	}

	texts, err := d.RunTexts(0)
	if err != nil {
		t.Fatal(err)
	}
	if texts[0] != "AIL LT Leadership Review" || texts[1] != "Dec'25" {
		t.Errorf("run texts = %v", texts)
	}

	data, _ := d.slideData(0)
	if !strings.Contains(string(data), `<a:solidFill><a:srgbClr val="1F4E79"/></a:solidFill></a:rPr><a:t>Dec'25</a:t>`) {
		t.Error("title run lost its formatting attributes")
	}
}

func TestReplaceRunTextNoMatch(t *testing.T) {
	path := buildDeck(t, titleSlide("no token here"))
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	before, _ := d.slideData(0)
	beforeCopy := append([]byte(nil), before...)

	ok, err := d.ReplaceRunText(0, monthToken, "Dec'25")
	if err != nil {
		t.Fatalf("ReplaceRunText failed: %v", err)
	}
	if ok {
		t.Error("Expected no match")
	}
	after, _ := d.slideData(0)
	if !bytes.Equal(beforeCopy, after) {
		t.Error("slide changed despite no match")
	}
}

func TestSaveStructuralInvariance(t *testing.T) {
	tplPath := buildDeck(t, titleSlide("Sep'25"), tableSlide(fmvGrid(5)))
	d, err := Open(tplPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := d.ReplaceRunText(0, monthToken, "Dec'25"); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteTableCells(1, 0, []CellWrite{{Row: 1, Col: 0, Text: "North"}}); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "out", "report.pptx")
	if err := d.Save(outPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tpl := readZipParts(t, tplPath)
	out := readZipParts(t, outPath)
	if len(tpl) != len(out) {
		t.Fatalf("part count changed: %d vs %d", len(tpl), len(out))
	}
	for _, name := range []string{"[Content_Types].xml", "ppt/presentation.xml", "ppt/_rels/presentation.xml.rels", "ppt/theme/theme1.xml"} {
		if !bytes.Equal(tpl[name], out[name]) {
			t.Errorf("untouched part %s changed", name)
		}
	}

	reopened, err := Open(outPath)
	if err != nil {
		t.Fatalf("reopen output: %v", err)
	}
	if reopened.SlideCount() != d.SlideCount() {
		t.Error("slide count changed")
	}
	rows, err := reopened.TableRows(1, 0)
	if err != nil || rows != 6 {
		t.Errorf("table dimensions changed: rows=%d err=%v", rows, err)
	}
}

func TestSaveIdempotent(t *testing.T) {
	tplPath := buildDeck(t, titleSlide("Sep'25"), tableSlide(fmvGrid(5)))

	generate := func(out string) {
		d, err := Open(tplPath)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, err := d.ReplaceRunText(0, monthToken, "Dec'25"); err != nil {
			t.Fatal(err)
		}
		if err := d.WriteTableCells(1, 0, []CellWrite{
			{Row: 1, Col: 0, Text: "North"}, {Row: 1, Col: 4, Text: "92.50%"},
		}); err != nil {
			t.Fatal(err)
		}
		if err := d.Save(out); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	dir := t.TempDir()
	first := filepath.Join(dir, "a.pptx")
	second := filepath.Join(dir, "b.pptx")
	generate(first)
	generate(second)

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical runs produced different output bytes")
	}
}
