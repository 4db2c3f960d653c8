// Package styles holds the number-format metadata parsed from xl/styles.xml.
// It is a deliberately small, import-cycle-free package so that both
// workbook/ and worksheet/ can depend on it.
package styles

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/ykszk/benri-qr/internal/dateformat"
)

// Class is the value class a number format imposes on numeric cells.
type Class int

const (
	// ClassNumber renders the value as a number.
	ClassNumber Class = iota
	// ClassDate renders the value as a date, time or datetime.
	ClassDate
	// ClassText keeps the stored literal as text ("@" format).
	ClassText
)

func (c Class) String() string {
	switch c {
	case ClassDate:
		return "date"
	case ClassText:
		return "text"
	default:
		return "number"
	}
}

// XFStyle holds the resolved formatting information for one XF (cell-format)
// index as read from the cellXfs table.
type XFStyle struct {
	// NumFmtID is the numFmtId of the <xf> element.  Values 0–163 are
	// built-in formats; values ≥ 164 are custom formats declared in <numFmts>.
	NumFmtID int
	// FormatStr is the format code from <numFmts>.  It is empty for
	// built-in IDs that have no custom override.
	FormatStr string
}

// Class reports the value class of the style.
func (s XFStyle) Class() Class {
	switch {
	case dateformat.IsTextFormat(s.NumFmtID, s.FormatStr):
		return ClassText
	case dateformat.IsDateFormat(s.NumFmtID, s.FormatStr):
		return ClassDate
	default:
		return ClassNumber
	}
}

// StyleTable maps XF index → XFStyle.  The slice index is the 0-based XF
// index stored in a cell's s attribute.
type StyleTable []XFStyle

// Get returns the style at index s, or the General style when s is out of
// range (cells without an s attribute use XF 0, and workbooks without a
// styles part have no table at all).
func (st StyleTable) Get(s int) XFStyle {
	if s < 0 || s >= len(st) {
		return XFStyle{}
	}
	return st[s]
}

// Class reports the value class of the XF at index s.
func (st StyleTable) Class(s int) Class {
	return st.Get(s).Class()
}

// IsDate reports whether the XF at index s is a date or time format.
func (st StyleTable) IsDate(s int) bool {
	return st.Class(s) == ClassDate
}

// IsText reports whether the XF at index s is the "@" text format.
func (st StyleTable) IsText(s int) bool {
	return st.Class(s) == ClassText
}

// ── XML ───────────────────────────────────────────────────────────────────────

type xmlStyleSheet struct {
	NumFmts []xmlNumFmt `xml:"numFmts>numFmt"`
	CellXfs []xmlXf     `xml:"cellXfs>xf"`
}

type xmlNumFmt struct {
	ID   int    `xml:"numFmtId,attr"`
	Code string `xml:"formatCode,attr"`
}

type xmlXf struct {
	NumFmtID int `xml:"numFmtId,attr"`
}

// Parse parses a styles.xml part.  Only the custom number formats and the
// cellXfs table are read; fonts, fills and borders do not affect how a
// value is classified.
func Parse(data []byte) (StyleTable, error) {
	var ss xmlStyleSheet
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&ss); err != nil {
		return nil, fmt.Errorf("styles: %w", err)
	}
	fmts := make(map[int]string, len(ss.NumFmts))
	for _, nf := range ss.NumFmts {
		fmts[nf.ID] = nf.Code
	}
	table := make(StyleTable, 0, len(ss.CellXfs))
	for _, xf := range ss.CellXfs {
		table = append(table, XFStyle{
			NumFmtID:  xf.NumFmtID,
			FormatStr: fmts[xf.NumFmtID],
		})
	}
	return table, nil
}

// BuiltInNumFmt maps built-in numFmtId values to their canonical format
// strings as defined by ECMA-376 §18.8.30.  IDs 27–36 and 50–58 are
// locale-specific; the entries here are the Japanese-locale codes, which is
// what Excel writes for them in ja-JP workbooks.
var BuiltInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "hh:mm",
	21: "hh:mm:ss",
	22: "m/d/yy hh:mm",
	27: `[$-411]ge.m.d`,
	28: `[$-411]ggge"年"m"月"d"日"`,
	29: `[$-411]ggge"年"m"月"d"日"`,
	30: "m/d/yy",
	31: `yyyy"年"m"月"d"日"`,
	32: `h"時"mm"分"`,
	33: `h"時"mm"分"ss"秒"`,
	34: `yyyy"年"m"月"`,
	35: `m"月"d"日"`,
	36: `[$-411]ge.m.d`,
	37: `#,##0 ;(#,##0)`,
	38: `#,##0 ;[Red](#,##0)`,
	39: `#,##0.00;(#,##0.00)`,
	40: `#,##0.00;[Red](#,##0.00)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
	50: `[$-411]ge.m.d`,
	51: `[$-411]ggge"年"m"月"d"日"`,
	52: `yyyy"年"m"月"`,
	53: `m"月"d"日"`,
	54: `[$-411]ggge"年"m"月"d"日"`,
	55: `yyyy"年"m"月"`,
	56: `m"月"d"日"`,
	57: `[$-411]ge.m.d`,
	58: `[$-411]ggge"年"m"月"d"日"`,
}
