package sheets

import (
	"archive/zip"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"deckfill/pkg/deckfill/models"
)

// Binary workbook record type IDs (MS-XLSB). Only the record types needed
// to recover cell text are handled; everything else is skipped by length.
const (
	brtRowHdr     = 0
	brtCellBlank  = 1
	brtCellRk     = 2
	brtCellError  = 3
	brtCellBool   = 4
	brtCellReal   = 5
	brtCellSt     = 6
	brtCellIsst   = 7
	brtFmlaString = 8
	brtFmlaNum    = 9
	brtFmlaBool   = 10
	brtSSTItem    = 19
	brtBundleSh   = 156
)

// readBinaryRows reads all rows of one sheet from a .xlsb workbook.
// The container is a ZIP like xlsx, but the parts are framed binary records
// instead of XML, so excelize cannot open it.
func readBinaryRows(path, sheet string) ([][]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, models.ErrInvalidFormat)
	}
	defer zr.Close()

	base := filepath.Base(path)

	wbData, err := readZipPart(&zr.Reader, "xl/workbook.bin")
	if err != nil || wbData == nil {
		return nil, fmt.Errorf("%s: missing workbook part: %w", base, models.ErrInvalidFormat)
	}
	bundles, err := parseBundleSheets(wbData)
	if err != nil {
		return nil, fmt.Errorf("%s: workbook records: %w", base, err)
	}

	relsData, err := readZipPart(&zr.Reader, "xl/_rels/workbook.bin.rels")
	if err != nil || relsData == nil {
		return nil, fmt.Errorf("%s: missing workbook rels: %w", base, models.ErrInvalidFormat)
	}
	relTargets := parseRelTargets(relsData)

	var sheetPart string
	for i, b := range bundles {
		if (sheet == "" && i == 0) || b.name == sheet {
			sheetPart = relTargets[b.relID]
			break
		}
	}
	if sheetPart == "" {
		return nil, &models.SchemaError{File: base, Sheet: sheet}
	}
	if !strings.HasPrefix(sheetPart, "xl/") {
		sheetPart = "xl/" + strings.TrimPrefix(sheetPart, "/")
	}

	var sst []string
	if sstData, err := readZipPart(&zr.Reader, "xl/sharedStrings.bin"); err == nil && sstData != nil {
		sst = parseSharedStrings(sstData)
	}

	sheetData, err := readZipPart(&zr.Reader, sheetPart)
	if err != nil || sheetData == nil {
		return nil, fmt.Errorf("%s: missing sheet part %s: %w", base, sheetPart, models.ErrInvalidFormat)
	}
	return parseSheetRows(sheetData, sst)
}

type bundleSheet struct {
	name  string
	relID string
}

func parseBundleSheets(data []byte) ([]bundleSheet, error) {
	var sheets []bundleSheet
	rr := newRecordReader(data)
	for {
		id, rec, err := rr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if id != brtBundleSh {
			continue
		}
		// hsState (4) + iTabID (4), then relID and name strings.
		off := 8
		relID, off, err := readNullableWideString(rec, off)
		if err != nil {
			return nil, err
		}
		name, _, err := readWideString(rec, off)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, bundleSheet{name: name, relID: relID})
	}
	return sheets, nil
}

func parseSharedStrings(data []byte) []string {
	var sst []string
	rr := newRecordReader(data)
	for {
		id, rec, err := rr.next()
		if err != nil {
			break
		}
		if id != brtSSTItem {
			continue
		}
		// Rich string: 1 flag byte, then the plain string; formatting runs
		// trail the string and are ignored.
		s, _, err := readWideString(rec, 1)
		if err != nil {
			continue
		}
		sst = append(sst, s)
	}
	return sst
}

// parseSheetRows walks the worksheet records and assembles dense rows,
// trimming trailing empty cells the way excelize does for xlsx sheets.
func parseSheetRows(data []byte, sst []string) ([][]string, error) {
	cells := make(map[uint32]map[uint32]string)
	var curRow, maxRow uint32
	haveRows := false

	rr := newRecordReader(data)
	for {
		id, rec, err := rr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if id == brtRowHdr {
			if len(rec) < 4 {
				return nil, fmt.Errorf("short row header record")
			}
			curRow = binary.LittleEndian.Uint32(rec)
			if curRow > maxRow {
				maxRow = curRow
			}
			haveRows = true
			continue
		}

		text, ok := decodeCell(id, rec, sst)
		if !ok {
			continue
		}
		col := binary.LittleEndian.Uint32(rec)
		if cells[curRow] == nil {
			cells[curRow] = make(map[uint32]string)
		}
		cells[curRow][col] = text
	}

	if !haveRows {
		return nil, nil
	}

	rows := make([][]string, maxRow+1)
	for r := uint32(0); r <= maxRow; r++ {
		var width uint32
		for c, v := range cells[r] {
			if v != "" && c+1 > width {
				width = c + 1
			}
		}
		row := make([]string, width)
		for c, v := range cells[r] {
			if c < width {
				row[c] = v
			}
		}
		rows[r] = row
	}
	return rows, nil
}

// decodeCell renders one cell record as text. Cell records share a common
// prefix: column (4 bytes) and style reference (4 bytes), then the payload.
func decodeCell(id int, rec []byte, sst []string) (string, bool) {
	if len(rec) < 8 {
		return "", false
	}
	payload := rec[8:]
	switch id {
	case brtCellBlank, brtCellError:
		return "", false
	case brtCellRk:
		if len(payload) < 4 {
			return "", false
		}
		return formatNumber(decodeRk(binary.LittleEndian.Uint32(payload))), true
	case brtCellReal, brtFmlaNum:
		if len(payload) < 8 {
			return "", false
		}
		return formatNumber(math.Float64frombits(binary.LittleEndian.Uint64(payload))), true
	case brtCellBool, brtFmlaBool:
		if len(payload) < 1 {
			return "", false
		}
		if payload[0] != 0 {
			return "TRUE", true
		}
		return "FALSE", true
	case brtCellSt, brtFmlaString:
		s, _, err := readWideString(rec, 8)
		if err != nil {
			return "", false
		}
		return s, true
	case brtCellIsst:
		if len(payload) < 4 {
			return "", false
		}
		idx := binary.LittleEndian.Uint32(payload)
		if int(idx) >= len(sst) {
			return "", false
		}
		return sst[idx], true
	}
	return "", false
}

// decodeRk expands an RkNumber: bit 0 selects /100 scaling, bit 1 selects
// integer vs. truncated-double encoding of the remaining 30 bits.
func decodeRk(rk uint32) float64 {
	var v float64
	if rk&0x2 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x1 != 0 {
		v /= 100
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// recordReader frames binary records: a 7-bit variable-length type id
// (1-2 bytes) followed by a 7-bit variable-length payload size (1-4 bytes).
type recordReader struct {
	data []byte
	off  int
}

func newRecordReader(data []byte) *recordReader {
	return &recordReader{data: data}
}

func (rr *recordReader) next() (int, []byte, error) {
	if rr.off >= len(rr.data) {
		return 0, nil, io.EOF
	}
	b0 := rr.data[rr.off]
	rr.off++
	id := int(b0 & 0x7F)
	if b0&0x80 != 0 {
		if rr.off >= len(rr.data) {
			return 0, nil, fmt.Errorf("truncated record id")
		}
		id |= int(rr.data[rr.off]&0x7F) << 7
		rr.off++
	}

	size := 0
	for shift := 0; shift < 28; shift += 7 {
		if rr.off >= len(rr.data) {
			return 0, nil, fmt.Errorf("truncated record size")
		}
		b := rr.data[rr.off]
		rr.off++
		size |= int(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
	}

	if rr.off+size > len(rr.data) {
		return 0, nil, fmt.Errorf("truncated record payload")
	}
	rec := rr.data[rr.off : rr.off+size]
	rr.off += size
	return id, rec, nil
}

// readWideString reads a length-prefixed UTF-16LE string.
func readWideString(data []byte, off int) (string, int, error) {
	if off+4 > len(data) {
		return "", off, fmt.Errorf("truncated string length")
	}
	cch := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if cch < 0 || off+cch*2 > len(data) {
		return "", off, fmt.Errorf("truncated string payload")
	}
	u16 := make([]uint16, cch)
	for i := 0; i < cch; i++ {
		u16[i] = binary.LittleEndian.Uint16(data[off+i*2:])
	}
	return string(utf16.Decode(u16)), off + cch*2, nil
}

// readNullableWideString handles the 0xFFFFFFFF "no value" length marker.
func readNullableWideString(data []byte, off int) (string, int, error) {
	if off+4 > len(data) {
		return "", off, fmt.Errorf("truncated string length")
	}
	if binary.LittleEndian.Uint32(data[off:]) == 0xFFFFFFFF {
		return "", off + 4, nil
	}
	return readWideString(data, off)
}

func readZipPart(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

// parseRelTargets maps relationship IDs to part targets from a rels part,
// which stays XML even inside the binary container.
func parseRelTargets(data []byte) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if rID != "" && target != "" {
				result[rID] = target
			}
		}
	}
	return result
}
