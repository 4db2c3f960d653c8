// Package contact maps worksheet rows to validated contact records.
//
// The first non-empty row is the header.  Its text cells name the columns;
// columns are matched by recognised header names (case-sensitive) and every
// following row becomes one Contact.
package contact

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/ykszk/benri-qr/workbook"
	"github.com/ykszk/benri-qr/worksheet"
)

// Contact is one record derived from a spreadsheet row.  Name is always
// non-empty; the other fields are empty when unset.
//
// The JSON names are the spreadsheet header names, so a single contact can
// be stored as a JSON object with the same keys as the sheet's header row.
type Contact struct {
	Name     string `json:"Name"`
	Reading  string `json:"Reading,omitempty"`
	Phone    string `json:"TEL,omitempty"`
	Email    string `json:"EMail,omitempty"`
	Memo     string `json:"Memo,omitempty"`
	Birthday string `json:"Birthday,omitempty"`
	Address  string `json:"Address,omitempty"`
	URL      string `json:"URL,omitempty"`
	Nickname string `json:"Nickname,omitempty"`
}

// Normalize trims every field, applies Unicode NFC, and narrows full-width
// characters in the phone, email and URL fields (so "０９０" becomes "090").
func (c Contact) Normalize() Contact {
	return Contact{
		Name:     clean(c.Name),
		Reading:  clean(c.Reading),
		Phone:    narrow(c.Phone),
		Email:    narrow(c.Email),
		Memo:     clean(c.Memo),
		Birthday: clean(c.Birthday),
		Address:  clean(c.Address),
		URL:      narrow(c.URL),
		Nickname: clean(c.Nickname),
	}
}

// Validate reports an error when the mandatory Name is empty.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Column: HeaderName, Reason: "Name is empty"}
	}
	return nil
}

// ValidationError reports a row that cannot become a Contact.
type ValidationError struct {
	// Row is the 0-based row index counted from the header row, so the
	// first data row is 1.  It is 0 when the header itself is at fault.
	Row int
	// Column is the header name of the offending column, if any.
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("contact: row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("contact: row %d, column %s: %s", e.Row, e.Column, e.Reason)
}

// ── headers ───────────────────────────────────────────────────────────────────

// Field identifies a Contact field.
type Field int

const (
	FieldName Field = iota
	FieldReading
	FieldPhone
	FieldEmail
	FieldMemo
	FieldBirthday
	FieldAddress
	FieldURL
	FieldNickname
	numFields
)

// HeaderName is the header of the mandatory column.
const HeaderName = "Name"

// Headers maps every recognised header name to its field.  "EMail" is
// accepted as an alias of "Email".
var Headers = map[string]Field{
	HeaderName: FieldName,
	"Reading":  FieldReading,
	"TEL":      FieldPhone,
	"Email":    FieldEmail,
	"EMail":    FieldEmail,
	"Memo":     FieldMemo,
	"Birthday": FieldBirthday,
	"Address":  FieldAddress,
	"URL":      FieldURL,
	"Nickname": FieldNickname,
}

// ── options ───────────────────────────────────────────────────────────────────

// BirthdayLayout is the time layout for date-typed Birthday cells, the
// YYYYMMDD form contact cards expect.
const BirthdayLayout = "20060102"

type config struct {
	format func(worksheet.Cell) string
}

// Option configures Map.
type Option func(*config)

// WithFormatter sets the function that renders non-text cells (numbers,
// dates, booleans) to field text.  The default renders numbers in General
// form and dates as ISO 8601.
func WithFormatter(f func(worksheet.Cell) string) Option {
	return func(c *config) {
		if f != nil {
			c.format = f
		}
	}
}

// ── mapping ───────────────────────────────────────────────────────────────────

// Map converts rows (header first) to contacts.  See MapRows.
func Map(rows [][]worksheet.Cell, opts ...Option) ([]Contact, error) {
	return MapRows(slices.Values(rows), opts...)
}

// FromWorkbook maps the first sheet of wb, rendering non-text cells with
// the workbook's number formats.
//
// Only the rows and cells that hold values are visited, so a stray
// formatted cell far below or to the right of the data costs nothing.
func FromWorkbook(wb *workbook.Workbook) ([]Contact, error) {
	ws, err := wb.FirstSheet()
	if err != nil {
		return nil, err
	}
	m := newMapper(true, WithFormatter(wb.FormatCell))
	next := 0
	for r, cells := range ws.UsedRows() {
		if r > next {
			m.blank(next)
		}
		if err := m.row(r, cells); err != nil {
			return nil, err
		}
		next = r + 1
	}
	return m.result(), nil
}

// MapRows converts a row sequence to contacts.  The n-th row of the
// sequence is taken as sheet row n, and each row is indexed by column.
//
// Leading blank rows are skipped; the first non-blank row is the header.
// Output order equals row order.  Blank rows at the end of the sheet are
// dropped, but a blank row followed by more data fails validation like
// any other row without a Name.  Mapping stops at the first invalid row.
func MapRows(rows iter.Seq[[]worksheet.Cell], opts ...Option) ([]Contact, error) {
	m := newMapper(false, opts...)
	i := -1
	for row := range rows {
		i++
		if err := m.row(i, row); err != nil {
			return nil, err
		}
	}
	return m.result(), nil
}

// mapper turns rows into contacts one at a time.  Sparse rows hold only
// their non-empty cells in column order and are indexed by Cell.C; dense
// rows are indexed by position.
type mapper struct {
	cfg    config
	sparse bool

	contacts   []Contact
	cols       [numFields]int
	haveHeader bool
	headerIdx  int
	pending    int // first blank data row not yet followed by data
}

func newMapper(sparse bool, opts ...Option) *mapper {
	m := &mapper{
		cfg:     config{format: func(c worksheet.Cell) string { return worksheet.FormatCell(c, nil) }},
		sparse:  sparse,
		pending: -1,
	}
	for _, o := range opts {
		o(&m.cfg)
	}
	return m
}

// blank records that sheet row i holds no values.
func (m *mapper) blank(i int) {
	if m.haveHeader && m.pending < 0 {
		m.pending = i
	}
}

// row maps sheet row i.
func (m *mapper) row(i int, row []worksheet.Cell) error {
	if isBlank(row) {
		m.blank(i)
		return nil
	}
	if !m.haveHeader {
		m.cols = m.headerColumns(row)
		m.haveHeader, m.headerIdx = true, i
		return nil
	}
	if m.pending >= 0 {
		return &ValidationError{Row: m.pending - m.headerIdx, Column: HeaderName, Reason: "Name is empty"}
	}
	if m.cols[FieldName] < 0 {
		return &ValidationError{Row: 0, Column: HeaderName, Reason: "header row has no Name column"}
	}
	c := m.contact(row)
	if c.Name == "" {
		return &ValidationError{Row: i - m.headerIdx, Column: HeaderName, Reason: "Name is empty"}
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *mapper) result() []Contact {
	if m.contacts == nil {
		return []Contact{}
	}
	return m.contacts
}

// column returns the column of the idx-th cell of row.
func (m *mapper) column(row []worksheet.Cell, idx int) int {
	if m.sparse {
		return row[idx].C
	}
	return idx
}

// cell returns the cell of row in column col, or an Empty cell.
func (m *mapper) cell(row []worksheet.Cell, col int) worksheet.Cell {
	if !m.sparse {
		if col < len(row) {
			return row[col]
		}
		return worksheet.Cell{}
	}
	idx, ok := slices.BinarySearchFunc(row, col, func(c worksheet.Cell, col int) int {
		return cmp.Compare(c.C, col)
	})
	if !ok {
		return worksheet.Cell{}
	}
	return row[idx]
}

// headerColumns returns the column of every field, or -1 for fields
// without a column.  The leftmost occurrence of a header wins.
func (m *mapper) headerColumns(row []worksheet.Cell) [numFields]int {
	var cols [numFields]int
	for f := range cols {
		cols[f] = -1
	}
	for idx, cell := range row {
		if cell.Kind != worksheet.Text {
			continue
		}
		f, ok := Headers[strings.TrimSpace(cell.Text)]
		if ok && cols[f] < 0 {
			cols[f] = m.column(row, idx)
		}
	}
	return cols
}

func (m *mapper) contact(row []worksheet.Cell) Contact {
	get := func(f Field) string {
		col := m.cols[f]
		if col < 0 {
			return ""
		}
		cell := m.cell(row, col)
		switch {
		case cell.Kind == worksheet.Text:
			return cell.Text
		case cell.Kind == worksheet.Date && f == FieldBirthday:
			return cell.Time.Format(BirthdayLayout)
		case cell.Kind == worksheet.Empty:
			return ""
		default:
			return m.cfg.format(cell)
		}
	}
	return Contact{
		Name:     get(FieldName),
		Reading:  get(FieldReading),
		Phone:    get(FieldPhone),
		Email:    get(FieldEmail),
		Memo:     get(FieldMemo),
		Birthday: get(FieldBirthday),
		Address:  get(FieldAddress),
		URL:      get(FieldURL),
		Nickname: get(FieldNickname),
	}.Normalize()
}

func isBlank(row []worksheet.Cell) bool {
	for _, c := range row {
		switch c.Kind {
		case worksheet.Empty:
		case worksheet.Text:
			if strings.TrimSpace(c.Text) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func narrow(s string) string {
	return clean(width.Narrow.String(s))
}
