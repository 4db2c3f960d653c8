// Package stringtable parses the xl/sharedStrings.xml part of an .xlsx file
// and provides indexed access to the shared string values.
package stringtable

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StringTable holds the shared strings parsed from xl/sharedStrings.xml.
type StringTable struct {
	strings []string
}

// Item maps one string item: an <si> in the shared string table or the <is>
// of an inline-string cell.  Plain items carry a single <t>; rich text items
// carry one <t> per <r> run.  Phonetic runs (<rPh>) are not mapped, so
// furigana never leaks into the value.
type Item struct {
	T *string `xml:"t"`
	R []Run   `xml:"r"`
}

// Run is one rich-text run of an Item.
type Run struct {
	T string `xml:"t"`
}

// Text returns the plain text of the item with _xHHHH_ escapes decoded.
func (si Item) Text() string {
	if si.T != nil && len(si.R) == 0 {
		return Unescape(*si.T)
	}
	var sb strings.Builder
	if si.T != nil {
		sb.WriteString(*si.T)
	}
	for _, r := range si.R {
		sb.WriteString(r.T)
	}
	return Unescape(sb.String())
}

// New reads all <si> entries from r and returns a populated StringTable.
func New(r io.Reader) (*StringTable, error) {
	st := &StringTable{}
	dec := xml.NewDecoder(r)
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stringtable: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "sst":
			sawRoot = true
			if n := attr(se, "uniqueCount"); n != "" {
				// Pre-size, but never trust the count for more than a hint.
				if c, err := strconv.Atoi(n); err == nil && c > 0 && c < 1<<20 {
					st.strings = make([]string, 0, c)
				}
			}
		case "si":
			var si Item
			if err := dec.DecodeElement(&si, &se); err != nil {
				return nil, fmt.Errorf("stringtable: item %d: %w", len(st.strings), err)
			}
			st.strings = append(st.strings, si.Text())
		}
	}
	if !sawRoot {
		return nil, fmt.Errorf("stringtable: missing <sst> root element")
	}
	return st, nil
}

// NewFromBytes is a convenience wrapper that builds a StringTable from an
// in-memory byte slice.
func NewFromBytes(b []byte) (*StringTable, error) {
	return New(bytes.NewReader(b))
}

// Get returns the shared string at index idx and whether it exists.
func (st *StringTable) Get(idx int) (string, bool) {
	if st == nil || idx < 0 || idx >= len(st.strings) {
		return "", false
	}
	return st.strings[idx], true
}

// Len returns the total number of shared strings loaded.
func (st *StringTable) Len() int {
	if st == nil {
		return 0
	}
	return len(st.strings)
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Unescape decodes the _xHHHH_ escapes that OOXML uses for characters XML
// cannot carry (mostly control characters such as _x000D_).  "_x005F_"
// escapes a literal underscore that would otherwise start an escape.
func Unescape(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		if i+7 <= len(s) && s[i] == '_' && s[i+1] == 'x' && s[i+6] == '_' {
			if v, err := strconv.ParseUint(s[i+2:i+6], 16, 16); err == nil {
				sb.WriteRune(rune(v))
				i += 7
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}
