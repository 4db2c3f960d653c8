// Package xlsxtest builds .xlsx fixtures for tests, either through excelize
// or by zipping hand-written parts.
package xlsxtest

import (
	"archive/zip"
	"bytes"
	"maps"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Styled is a cell value written with an explicit number format.
type Styled struct {
	Value  any
	NumFmt int    // built-in numFmtId, used when Format is empty
	Format string // custom format code
}

// Build writes rows to the first sheet of a new workbook and returns the
// .xlsx bytes.  A nil value leaves the cell blank.
func Build(t testing.TB, rows [][]any) []byte {
	t.Helper()
	return BuildSheet(t, "Sheet1", rows)
}

// BuildSheet is Build with a custom name for the first sheet.
func BuildSheet(t testing.TB, name string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			t.Fatalf("xlsxtest: rename sheet: %v", err)
		}
	}
	styleIDs := map[Styled]int{}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("xlsxtest: %v", err)
			}
			sv, styled := v.(Styled)
			if styled {
				v = sv.Value
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				t.Fatalf("xlsxtest: set %s: %v", cell, err)
			}
			if !styled {
				continue
			}
			key := Styled{NumFmt: sv.NumFmt, Format: sv.Format}
			id, ok := styleIDs[key]
			if !ok {
				st := &excelize.Style{NumFmt: sv.NumFmt}
				if sv.Format != "" {
					st.CustomNumFmt = &sv.Format
				}
				if id, err = f.NewStyle(st); err != nil {
					t.Fatalf("xlsxtest: new style: %v", err)
				}
				styleIDs[key] = id
			}
			if err := f.SetCellStyle(name, cell, cell, id); err != nil {
				t.Fatalf("xlsxtest: style %s: %v", cell, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("xlsxtest: write: %v", err)
	}
	return buf.Bytes()
}

// Zip packs parts (name → content) into a ZIP archive, in name order.
func Zip(t testing.TB, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range slices.Sorted(maps.Keys(parts)) {
		zipAddFile(t, zw, name, []byte(parts[name]))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("xlsxtest: zip close: %v", err)
	}
	return buf.Bytes()
}

// zipAddFile writes data as a new entry named name into zw.
// It calls t.Fatalf on any error.
func zipAddFile(t testing.TB, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	f, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zip create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("zip write %s: %v", name, err)
	}
}

// Minimal parts of a one-sheet package.  Callers copy MinimalParts, replace
// or delete entries, and pass the result to Zip.
const (
	RootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

	WorkbookXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets>
</workbook>`

	WorkbookRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="sharedStrings.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

	SharedStrings = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>Name</t></si><si><t>TEL</t></si><si><t>田中太郎</t></si></sst>`

	// Styles: XF 0 General, XF 1 text (@), XF 2 date (14).
	Styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<cellXfs count="3"><xf numFmtId="0"/><xf numFmtId="49"/><xf numFmtId="14"/></cellXfs>
</styleSheet>`

	// Sheet1: a Name/TEL header and one Tanaka row whose phone is stored
	// as a number under the text format.
	Sheet1 = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2" s="1"><v>09000000000</v></c></row>
</sheetData></worksheet>`
)

// MinimalParts returns a fresh copy of the parts of a valid one-sheet
// package.
func MinimalParts() map[string]string {
	return map[string]string{
		"_rels/.rels":                RootRels,
		"xl/workbook.xml":            WorkbookXML,
		"xl/_rels/workbook.xml.rels": WorkbookRels,
		"xl/sharedStrings.xml":       SharedStrings,
		"xl/styles.xml":              Styles,
		"xl/worksheets/sheet1.xml":   Sheet1,
	}
}
