// Package worksheet parses a single .xlsx worksheet part (xl/worksheets/*.xml)
// and provides row/cell iteration over typed cells.
package worksheet

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ykszk/benri-qr/internal/dateformat"
	"github.com/ykszk/benri-qr/numfmt"
	"github.com/ykszk/benri-qr/stringtable"
	"github.com/ykszk/benri-qr/styles"
)

// Sheet limits.  References beyond them are rejected as malformed.
const (
	// MaxRow is the largest 0-based row index (row 1,048,576).
	MaxRow = 1_048_575
	// MaxCol is the largest 0-based column index (column XFD).
	MaxCol = 16_383
)

// Kind identifies which value field of a Cell is meaningful.
type Kind int

const (
	// Empty is a blank cell, a merged-cell satellite, or padding in a dense row.
	Empty Kind = iota
	// Text is a shared, inline or formula string, an error literal, or a
	// number stored under the "@" text format.
	Text
	// Number is a numeric cell under a non-date, non-text format.
	Number
	// Date is a numeric cell under a date/time format, or an ISO 8601 cell.
	Date
	// Boolean is a TRUE/FALSE cell.
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Date:
		return "date"
	case Boolean:
		return "boolean"
	default:
		return "empty"
	}
}

// Dimension describes the used range of a worksheet as declared by its
// <dimension> element.
type Dimension struct {
	// R is the first row index (0-based).
	R int
	// C is the first column index (0-based).
	C int
	// H is the height (number of rows).
	H int
	// W is the width (number of columns).
	W int
}

// MergeArea describes a merged cell range.
// R and C are the 0-based row and column of the top-left anchor cell.
// H is the height (number of rows) and W is the width (number of columns)
// spanned by the merge.
type MergeArea struct {
	R int
	C int
	H int
	W int
}

// Cell is a single worksheet cell.  Kind selects which of the value fields
// is set; the others hold their zero values.
type Cell struct {
	// R is the 0-based row index of the cell.
	R int
	// C is the 0-based column index of the cell.
	C int

	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
	Bool   bool

	// Style is the 0-based index into the workbook's cell-format (XF) table.
	Style int
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// Worksheet holds one parsed sheet.
type Worksheet struct {
	// Name is the display name of the worksheet as it appears on the sheet tab.
	Name string
	// Dimension is the declared used range.  It is nil if the sheet has no
	// <dimension> element or the element is malformed.
	Dimension *Dimension
	// MergeCells contains all merged-cell ranges defined in the sheet.
	MergeCells []MergeArea

	rows   []sparseRow
	width  int // 1 + the largest column index that holds a value
	styles styles.StyleTable
}

// sparseRow is a row as stored: only the cells with a value, in column
// order.
type sparseRow struct {
	r     int
	cells []Cell
}

// New parses the worksheet XML in data.
//
// Every cell value is resolved here, so a malformed cell surfaces as an
// error from New rather than during iteration.  st may be nil when the
// workbook has no shared strings, and table may be nil when it has no styles.
func New(name string, data []byte, st *stringtable.StringTable, table styles.StyleTable, date1904 bool) (*Worksheet, error) {
	ws := &Worksheet{Name: name, styles: table}
	p := parser{ws: ws, st: st, date1904: date1904, rowNum: -1}
	if err := p.parse(data); err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", name, err)
	}
	return ws, nil
}

// Rows iterates over the worksheet rows in order, calling yield for each one.
//
// Rows are dense: every yielded row spans columns 0 through the widest used
// column, with missing cells reported as Empty.  Empty rows between (and
// before) used rows are emitted too, so the n-th yielded row is always sheet
// row n.  Rows are built lazily; stopping early avoids materialising the rest.
//
// Merged-cell regions are reflected faithfully from the stored data: only
// the anchor cell carries a value and satellites are Empty.
//
// Rows uses Go 1.22+ range-over-func semantics.
func (ws *Worksheet) Rows() func(yield func([]Cell) bool) {
	return func(yield func([]Cell) bool) {
		next := 0
		for _, sr := range ws.rows {
			for ; next < sr.r; next++ {
				if !yield(ws.makeEmptyRow(next)) {
					return
				}
			}
			row := ws.makeEmptyRow(sr.r)
			for _, c := range sr.cells {
				row[c.C] = c
			}
			if !yield(row) {
				return
			}
			next = sr.r + 1
		}
	}
}

// UsedRows iterates over the rows that hold at least one value, yielding
// the sheet row index and that row's non-empty cells in column order.
// Unlike Rows, nothing is padded, so the cost is bounded by the size of the
// sheet XML rather than by its coordinates.  The yielded slices must not be
// modified.
func (ws *Worksheet) UsedRows() func(yield func(int, []Cell) bool) {
	return func(yield func(int, []Cell) bool) {
		for _, sr := range ws.rows {
			if !yield(sr.r, sr.cells) {
				return
			}
		}
	}
}

// AllRows collects Rows into a slice.
func (ws *Worksheet) AllRows() [][]Cell {
	var out [][]Cell
	for row := range ws.Rows() {
		out = append(out, row)
	}
	return out
}

// Width returns the number of columns in each dense row.
func (ws *Worksheet) Width() int { return ws.width }

// FormatCell renders a cell to its display string using the sheet's styles.
func (ws *Worksheet) FormatCell(c Cell) string {
	return FormatCell(c, ws.styles)
}

// FormatCell renders a cell to its display string.  Number and Date cells
// are formatted with the number format of their XF in table; a nil table
// renders them in General / ISO 8601 form.
func FormatCell(c Cell, table styles.StyleTable) string {
	switch c.Kind {
	case Text:
		return c.Text
	case Number:
		xf := table.Get(c.Style)
		return numfmt.FormatNumber(c.Number, xf.NumFmtID, xf.FormatStr)
	case Date:
		xf := table.Get(c.Style)
		return numfmt.FormatTime(c.Time, xf.NumFmtID, xf.FormatStr)
	case Boolean:
		return numfmt.FormatBool(c.Bool)
	default:
		return ""
	}
}

// makeEmptyRow returns a row of Empty cells spanning [0, ws.width).
func (ws *Worksheet) makeEmptyRow(rowNum int) []Cell {
	cells := make([]Cell, ws.width)
	for i := range cells {
		cells[i] = Cell{R: rowNum, C: i}
	}
	return cells
}

// ── XML parsing ───────────────────────────────────────────────────────────────

type xmlCell struct {
	Ref string            `xml:"r,attr"`
	S   string            `xml:"s,attr"`
	T   string            `xml:"t,attr"`
	V   *string           `xml:"v"`
	Is  *stringtable.Item `xml:"is"`
}

type parser struct {
	ws       *Worksheet
	st       *stringtable.StringTable
	date1904 bool

	rowNum int        // current row index, -1 before the first <row>
	row    *sparseRow // nil outside <row>
	col    int        // column of the previous cell in the row
}

func (p *parser) parse(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "worksheet":
				sawRoot = true
			case "dimension":
				if dim, err := parseDimension(attr(t, "ref")); err == nil {
					p.ws.Dimension = &dim
				}
			case "row":
				if err := p.startRow(attr(t, "r")); err != nil {
					return err
				}
			case "c":
				var xc xmlCell
				if err := dec.DecodeElement(&xc, &t); err != nil {
					return err
				}
				if err := p.addCell(xc); err != nil {
					return err
				}
			case "mergeCell":
				if ma, err := parseMergeCell(attr(t, "ref")); err == nil {
					p.ws.MergeCells = append(p.ws.MergeCells, ma)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "row" && p.row != nil {
				if len(p.row.cells) > 0 {
					p.ws.rows = append(p.ws.rows, *p.row)
				}
				p.row = nil
			}
		}
	}
	if !sawRoot {
		return fmt.Errorf("missing <worksheet> root element")
	}
	return nil
}

func (p *parser) startRow(ref string) error {
	r := p.rowNum + 1
	if ref != "" {
		n, err := strconv.Atoi(ref)
		if err != nil || n < 1 || n-1 > MaxRow {
			return fmt.Errorf("invalid row number %q", ref)
		}
		r = n - 1
	}
	if r <= p.rowNum {
		return fmt.Errorf("row %d appears after row %d", r+1, p.rowNum+1)
	}
	if r > MaxRow {
		return fmt.Errorf("row index %d exceeds maximum %d", r, MaxRow)
	}
	p.rowNum = r
	p.row = &sparseRow{r: r}
	p.col = -1
	return nil
}

func (p *parser) addCell(xc xmlCell) error {
	if p.row == nil {
		return fmt.Errorf("cell %q outside of a row", xc.Ref)
	}
	col := p.col + 1
	if xc.Ref != "" {
		_, c, err := ParseRef(xc.Ref)
		if err != nil {
			return err
		}
		col = c
	}
	if col > MaxCol {
		return fmt.Errorf("column index %d exceeds maximum %d", col, MaxCol)
	}
	p.col = col

	style := 0
	if xc.S != "" {
		s, err := strconv.Atoi(xc.S)
		if err != nil || s < 0 {
			return fmt.Errorf("cell %s: invalid style index %q", cellName(p.rowNum, col), xc.S)
		}
		style = s
	}
	c := Cell{R: p.rowNum, C: col, Style: style}
	if err := p.resolve(&c, xc); err != nil {
		return fmt.Errorf("cell %s: %w", cellName(p.rowNum, col), err)
	}
	// Formatting-only cells hold no value and do not widen the sheet.
	if c.Kind == Empty {
		return nil
	}

	// Cells normally arrive in column order; a repeated column replaces
	// the earlier value.
	cells := p.row.cells
	if n := len(cells); n > 0 && cells[n-1].C >= col {
		for i := range cells {
			if cells[i].C == col {
				cells[i] = c
				return nil
			}
		}
		cells = append(cells, c)
		sortCells(cells)
	} else {
		cells = append(cells, c)
	}
	p.row.cells = cells
	if col+1 > p.ws.width {
		p.ws.width = col + 1
	}
	return nil
}

// resolve sets the value fields of c from the XML cell.
func (p *parser) resolve(c *Cell, xc xmlCell) error {
	v := ""
	if xc.V != nil {
		v = *xc.V
	}
	switch xc.T {
	case "s":
		if xc.V == nil {
			return nil
		}
		idx, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid shared string index %q", v)
		}
		s, ok := p.st.Get(idx)
		if !ok {
			return fmt.Errorf("shared string index %d out of range (table has %d)", idx, p.st.Len())
		}
		c.Kind, c.Text = Text, s

	case "inlineStr":
		if xc.Is != nil {
			c.Kind, c.Text = Text, xc.Is.Text()
		} else if xc.V != nil {
			c.Kind, c.Text = Text, stringtable.Unescape(v)
		}

	case "str", "e":
		if xc.V != nil {
			c.Kind, c.Text = Text, stringtable.Unescape(v)
		}

	case "b":
		switch strings.TrimSpace(v) {
		case "1", "true":
			c.Kind, c.Bool = Boolean, true
		case "0", "false":
			c.Kind = Boolean
		case "":
		default:
			return fmt.Errorf("invalid boolean %q", v)
		}

	case "d":
		if strings.TrimSpace(v) == "" {
			return nil
		}
		t, err := parseISODate(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		c.Kind, c.Time = Date, t

	case "", "n":
		lit := strings.TrimSpace(v)
		if lit == "" {
			return nil
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric literal %q", v)
		}
		switch p.ws.styles.Class(c.Style) {
		case styles.ClassText:
			c.Kind, c.Text = Text, lit
		case styles.ClassDate:
			t, err := dateformat.ConvertSerial(f, p.date1904)
			if err != nil {
				// Out-of-range serials keep their numeric value.
				c.Kind, c.Number = Number, f
				return nil
			}
			c.Kind, c.Time = Date, t
		default:
			c.Kind, c.Number = Number, f
		}

	default:
		return fmt.Errorf("unknown cell type %q", xc.T)
	}
	return nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"15:04:05",
}

func parseISODate(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 date %q", s)
}

func sortCells(cells []Cell) {
	// Insertion sort: only the last element is out of place.
	for i := len(cells) - 1; i > 0 && cells[i].C < cells[i-1].C; i-- {
		cells[i], cells[i-1] = cells[i-1], cells[i]
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// ── cell references ───────────────────────────────────────────────────────────

// ParseRef parses an A1-style cell reference ("B3", "$B$3") into 0-based row
// and column indices.
func ParseRef(ref string) (row, col int, err error) {
	s := strings.ReplaceAll(ref, "$", "")
	i := 0
	for i < len(s) && isLetter(s[i]) {
		col = col*26 + int(upper(s[i])-'A') + 1
		i++
		if i > 3 {
			return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
		}
	}
	if i == 0 || i == len(s) {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	n, convErr := strconv.Atoi(s[i:])
	if convErr != nil || n < 1 || s[i] == '+' || s[i] == '-' {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	row, col = n-1, col-1
	if row > MaxRow || col > MaxCol {
		return 0, 0, fmt.Errorf("cell reference %q outside sheet bounds", ref)
	}
	return row, col, nil
}

// ColumnName returns the letters of a 0-based column index ("A", "AB").
func ColumnName(col int) string {
	var b [3]byte
	i := len(b)
	for col >= 0 && i > 0 {
		i--
		b[i] = byte('A' + col%26)
		col = col/26 - 1
	}
	return string(b[i:])
}

func cellName(row, col int) string {
	return ColumnName(col) + strconv.Itoa(row+1)
}

func isLetter(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }

func upper(b byte) byte {
	if b >= 'a' {
		return b - ('a' - 'A')
	}
	return b
}

// parseRange parses "A1:C5" (or a single "A1") into inclusive bounds.
func parseRange(ref string) (r1, c1, r2, c2 int, err error) {
	first, last, found := strings.Cut(ref, ":")
	if r1, c1, err = ParseRef(first); err != nil {
		return
	}
	if !found {
		return r1, c1, r1, c1, nil
	}
	if r2, c2, err = ParseRef(last); err != nil {
		return
	}
	if r2 < r1 || c2 < c1 {
		err = fmt.Errorf("inverted range %q", ref)
	}
	return
}

func parseDimension(ref string) (Dimension, error) {
	r1, c1, r2, c2, err := parseRange(ref)
	if err != nil {
		return Dimension{}, err
	}
	return Dimension{R: r1, C: c1, H: r2 - r1 + 1, W: c2 - c1 + 1}, nil
}

func parseMergeCell(ref string) (MergeArea, error) {
	r1, c1, r2, c2, err := parseRange(ref)
	if err != nil {
		return MergeArea{}, err
	}
	return MergeArea{R: r1, C: c1, H: r2 - r1 + 1, W: c2 - c1 + 1}, nil
}
