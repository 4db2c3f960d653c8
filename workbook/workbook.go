// Package workbook opens and parses an .xlsx workbook (an OPC ZIP package).
package workbook

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ykszk/benri-qr/internal/opc"
	"github.com/ykszk/benri-qr/internal/rels"
	"github.com/ykszk/benri-qr/stringtable"
	"github.com/ykszk/benri-qr/styles"
	"github.com/ykszk/benri-qr/worksheet"
)

// Sheet visibility levels, as stored in the state attribute of a <sheet>
// element. Use these constants with SheetVisibility.
const (
	// SheetVisible indicates the sheet tab is visible (no state, or "visible").
	SheetVisible = 0
	// SheetHidden indicates the sheet is hidden but can be unhidden by the
	// user via the "Unhide" dialog (state="hidden").
	SheetHidden = 1
	// SheetVeryHidden indicates the sheet can only be unhidden
	// programmatically (state="veryHidden").
	SheetVeryHidden = 2
)

// DefaultPart is the conventional workbook part name, used when the package
// root relationships do not name one.
const DefaultPart = "xl/workbook.xml"

// FormatError reports an input that is not a readable spreadsheet package.
// Part names the package part at fault; it is empty when the container
// itself is unreadable.
type FormatError struct {
	Part string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Part == "" {
		return "workbook: " + e.Err.Error()
	}
	return fmt.Sprintf("workbook: %s: %v", e.Part, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErr(part string, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		return err
	}
	return &FormatError{Part: part, Err: err}
}

// sheetEntry holds the display name and the package part name for one
// worksheet.
type sheetEntry struct {
	name       string
	part       string // e.g. "xl/worksheets/sheet1.xml"
	visibility int    // SheetVisible, SheetHidden, or SheetVeryHidden
}

// Workbook represents an open .xlsx workbook.
type Workbook struct {
	pkg         *opc.Package
	part        string // workbook part name
	sheets      []sheetEntry
	stringTable *stringtable.StringTable
	// Styles is the cellXfs table parsed from the styles part.  It is
	// exported so that callers who need low-level access to format metadata
	// can inspect it directly; normal callers should use FormatCell.
	Styles styles.StyleTable
	// Date1904 is true when the workbook uses the 1904 date system (serial
	// 0 = 1904-01-01).  Worksheets apply it when decoding date cells.
	Date1904 bool
}

// Decode parses a workbook held in memory.
func Decode(data []byte) (*Workbook, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// Open opens the named .xlsx file and parses its workbook metadata.
// The caller must call Close on the returned Workbook when done to release the
// underlying file handle.
func Open(name string) (*Workbook, error) {
	pkg, err := opc.Open(name)
	if err != nil {
		return nil, formatErr("", err)
	}
	wb := &Workbook{pkg: pkg}
	if err := wb.parse(); err != nil {
		_ = pkg.Close()
		return nil, err
	}
	return wb, nil
}

// OpenReader parses an .xlsx workbook from a ReaderAt.
// size must be the total byte size of the ZIP data.
func OpenReader(r io.ReaderAt, size int64) (*Workbook, error) {
	pkg, err := opc.OpenReader(r, size)
	if err != nil {
		return nil, formatErr("", err)
	}
	wb := &Workbook{pkg: pkg}
	if err := wb.parse(); err != nil {
		return nil, err
	}
	return wb, nil
}

// Sheets returns the display names of all worksheets in order.
func (wb *Workbook) Sheets() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	return names
}

// Sheet returns the worksheet at the given 1-based index.
// Index 1 refers to the first sheet. An out-of-range index returns a non-nil
// error describing the valid range.
func (wb *Workbook) Sheet(idx int) (*worksheet.Worksheet, error) {
	if idx < 1 || idx > len(wb.sheets) {
		return nil, fmt.Errorf("workbook: sheet index %d out of range [1, %d]", idx, len(wb.sheets))
	}
	return wb.openSheet(wb.sheets[idx-1])
}

// FirstSheet returns the first worksheet in tab order, whatever its
// visibility.
func (wb *Workbook) FirstSheet() (*worksheet.Worksheet, error) {
	if len(wb.sheets) == 0 {
		return nil, &FormatError{Part: wb.part, Err: errors.New("workbook contains no sheets")}
	}
	return wb.openSheet(wb.sheets[0])
}

// SheetByName returns the worksheet with the given name (case-insensitive).
// It returns a non-nil error if no sheet with that name exists.
func (wb *Workbook) SheetByName(name string) (*worksheet.Worksheet, error) {
	for _, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return wb.openSheet(s)
		}
	}
	return nil, fmt.Errorf("workbook: sheet %q not found", name)
}

// SheetVisible reports whether the named sheet is visible (case-insensitive).
// It returns false for hidden sheets, very-hidden sheets, and unknown names.
func (wb *Workbook) SheetVisible(name string) bool {
	return wb.SheetVisibility(name) == SheetVisible
}

// SheetVisibility returns the visibility level of the named sheet
// (case-insensitive): SheetVisible (0), SheetHidden (1), or SheetVeryHidden (2).
// It returns -1 if no sheet with that name exists.
func (wb *Workbook) SheetVisibility(name string) int {
	for _, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return s.visibility
		}
	}
	return -1
}

// FormatCell renders a cell to the display string a spreadsheet would show,
// using the cell's XF style:
//
//	for row := range sheet.Rows() {
//	    for _, cell := range row {
//	        formatted := wb.FormatCell(cell)
//	        _ = formatted
//	    }
//	}
//
// When the style index is out of range (e.g. because the styles part was
// absent), numbers render in General form and dates as ISO 8601.
func (wb *Workbook) FormatCell(c worksheet.Cell) string {
	return worksheet.FormatCell(c, wb.Styles)
}

// Close releases the underlying file handle.
// It is a no-op when the workbook was opened via OpenReader or Decode.
func (wb *Workbook) Close() error {
	return wb.pkg.Close()
}

// ── internal ─────────────────────────────────────────────────────────────────

// parse reads the workbook part, the shared strings (if present), and the
// styles (if present).
func (wb *Workbook) parse() error {
	part, err := wb.pkg.MainDocument(DefaultPart)
	if err != nil {
		return formatErr("_rels/.rels", err)
	}
	wb.part = part

	// Relationships of the workbook part; a workbook without any can still
	// be read when its parts sit at the conventional names.
	wbRels, err := wb.pkg.Relationships(part)
	if err != nil && !errors.Is(err, opc.ErrPartNotFound) {
		return formatErr(rels.PartName(part), err)
	}

	if err := wb.parseWorkbook(wbRels); err != nil {
		return err
	}
	if err := wb.parseSharedStrings(wbRels); err != nil {
		return err
	}
	wb.parseStyles(wbRels)
	return nil
}

type xmlWorkbook struct {
	XMLName    xml.Name `xml:"workbook"`
	WorkbookPr struct {
		Date1904 string `xml:"date1904,attr"`
	} `xml:"workbookPr"`
	Sheets []xmlSheet `xml:"sheets>sheet"`
}

type xmlSheet struct {
	Name  string `xml:"name,attr"`
	State string `xml:"state,attr"`
	// RID is the r:id attribute; matching on the local name accepts both
	// the transitional and the strict relationship namespaces.
	RID string `xml:"id,attr"`
}

// parseWorkbook reads the workbook part to build the sheet list and
// determine the date system.
func (wb *Workbook) parseWorkbook(wbRels *rels.Set) error {
	data, err := wb.pkg.ReadPart(wb.part)
	if err != nil {
		return formatErr(wb.part, err)
	}
	var x xmlWorkbook
	if err := xml.Unmarshal(data, &x); err != nil {
		return formatErr(wb.part, err)
	}
	wb.Date1904 = isTrue(x.WorkbookPr.Date1904)

	for _, s := range x.Sheets {
		entry := sheetEntry{name: s.Name, visibility: visibility(s.State)}
		target, ok := "", false
		if wbRels != nil {
			target, ok = wbRels.Target(s.RID)
		}
		if !ok {
			return formatErr(wb.part, fmt.Errorf("sheet %q: no relationship found for id %q", s.Name, s.RID))
		}
		entry.part = target
		wb.sheets = append(wb.sheets, entry)
	}
	return nil
}

// parseSharedStrings reads the shared strings part if the workbook has one.
func (wb *Workbook) parseSharedStrings(wbRels *rels.Set) error {
	part, ok := wb.related(wbRels, rels.TypeSharedStrings, "xl/sharedStrings.xml")
	if !ok {
		// Optional: a workbook with only numbers or inline strings.
		return nil
	}
	data, err := wb.pkg.ReadPart(part)
	if err != nil {
		return formatErr(part, err)
	}
	st, err := stringtable.NewFromBytes(data)
	if err != nil {
		return formatErr(part, err)
	}
	wb.stringTable = st
	return nil
}

// parseStyles reads the styles part and builds the StyleTable.
// Failures are silently ignored so that workbooks without styles (or with
// malformed styles) still open; every cell then uses the General format.
func (wb *Workbook) parseStyles(wbRels *rels.Set) {
	part, ok := wb.related(wbRels, rels.TypeStyles, "xl/styles.xml")
	if !ok {
		return
	}
	data, err := wb.pkg.ReadPart(part)
	if err != nil {
		return
	}
	st, err := styles.Parse(data)
	if err != nil {
		return
	}
	wb.Styles = st
}

// related resolves the workbook's relationship of the given type, falling
// back to the conventional part name when it exists.
func (wb *Workbook) related(wbRels *rels.Set, typ, fallback string) (string, bool) {
	if wbRels != nil {
		if part, ok := wbRels.FirstOfType(typ); ok {
			return part, true
		}
	}
	if wb.pkg.Has(fallback) {
		return fallback, true
	}
	return "", false
}

// openSheet reads the XML for the given sheet entry and returns a
// ready-to-use Worksheet.
func (wb *Workbook) openSheet(entry sheetEntry) (*worksheet.Worksheet, error) {
	data, err := wb.pkg.ReadPart(entry.part)
	if err != nil {
		return nil, formatErr(entry.part, err)
	}
	ws, err := worksheet.New(entry.name, data, wb.stringTable, wb.Styles, wb.Date1904)
	if err != nil {
		return nil, formatErr(entry.part, err)
	}
	return ws, nil
}

func visibility(state string) int {
	switch state {
	case "hidden":
		return SheetHidden
	case "veryHidden":
		return SheetVeryHidden
	default:
		return SheetVisible
	}
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
