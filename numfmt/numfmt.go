// Package numfmt renders spreadsheet cell values to their display string
// using a number format code.  It backs [workbook.Workbook.FormatCell] and
// the contact mapper's text conversion of numeric and date cells.
//
// All format-code parsing is delegated to [github.com/xuri/nfp]; this package
// only implements the rendering on top of the resulting token stream.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/nfp"

	"github.com/ykszk/benri-qr/styles"
)

// FormatNumber renders v using the given number format.
//
//   - numFmtID is the numFmtId of the cell's XF (0 = General).
//   - fmtStr is the custom format code from <numFmts>; pass "" for built-in
//     IDs that have no custom override.
//
// Date formats are not applied here: a date-styled number is decoded into a
// time.Time by the worksheet and rendered with [FormatTime].
func FormatNumber(v float64, numFmtID int, fmtStr string) string {
	effective := resolveFormat(numFmtID, fmtStr)
	if effective == "General" || effective == "@" {
		return renderGeneral(v)
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(effective)
	if len(sections) == 0 {
		return renderGeneral(v)
	}
	return renderNumber(v, selectSection(sections, v), sections)
}

// FormatTime renders t using the given date/time number format.  A format
// that carries no date tokens falls back to an ISO 8601 date (or date and
// time when t has a time-of-day component).
func FormatTime(t time.Time, numFmtID int, fmtStr string) string {
	effective := resolveFormat(numFmtID, fmtStr)
	if effective != "General" && effective != "@" {
		ps := nfp.NumberFormatParser()
		if sections := ps.Parse(effective); len(sections) > 0 {
			if s := renderDateTime(t, sections[0]); s != "" {
				return s
			}
		}
	}
	return isoString(t)
}

// FormatBool renders a boolean the way spreadsheets display it.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func isoString(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}

// ── format-string resolution ──────────────────────────────────────────────────

// resolveFormat returns the effective format string: the custom fmtStr when
// non-empty, the built-in string for numFmtID when known, or "General".
func resolveFormat(numFmtID int, fmtStr string) string {
	if fmtStr != "" {
		return fmtStr
	}
	if s, ok := styles.BuiltInNumFmt[numFmtID]; ok {
		return s
	}
	return "General"
}

// selectSection picks the correct section based on the value's sign.
//
//	1 section  → applies to all values
//	2 sections → [0]=positive+zero  [1]=negative
//	3 sections → [0]=positive  [1]=negative  [2]=zero
//	4 sections → [0]=positive  [1]=negative  [2]=zero  [3]=text
func selectSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

// ── General rendering ─────────────────────────────────────────────────────────

// generalWidth is the cell width, in characters, that General formatting
// fits a fractional value into.
const generalWidth = 11

// renderGeneral formats a float64 in the "General" style:
//   - integer values are rendered without a decimal point
//   - fractional values are rounded to fit in generalWidth characters
//   - very large or very small magnitudes use scientific notation
func renderGeneral(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	abs := math.Abs(val)
	if val == math.Trunc(val) && abs < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	if abs < 1e-9 || abs >= 1e11 {
		return strconv.FormatFloat(val, 'G', 6, 64)
	}
	intDigits := 1
	if abs >= 1 {
		intDigits = int(math.Floor(math.Log10(abs))) + 1
	}
	decimals := max(generalWidth-1-intDigits, 0)
	s := strconv.FormatFloat(val, 'f', decimals, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// ── date/time renderer ────────────────────────────────────────────────────────

// renderDateTime renders t using the tokens in sec.  It returns "" when the
// section produced no output.
func renderDateTime(t time.Time, sec nfp.Section) string {
	// An AM/PM token anywhere in the section switches hours to 12-hour form.
	hasAmPm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			upper := strings.ToUpper(tok.TValue)
			if upper == "AM/PM" || upper == "A/P" {
				hasAmPm = true
				break
			}
		}
	}

	var sb strings.Builder
	lastWasHour := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			upper := strings.ToUpper(tok.TValue)
			sb.WriteString(renderDateToken(upper, t, hasAmPm, lastWasHour))
			lastWasHour = upper == "H" || upper == "HH"

		case nfp.TokenTypeElapsedDateTimes:
			upper := strings.ToUpper(tok.TValue)
			sb.WriteString(renderElapsed(upper, elapsedDays(t)))
			lastWasHour = upper == "H" || upper == "HH"

		case nfp.TokenTypeLiteral:
			// A literal separator between an hour and M/MM keeps the
			// minute reading, so lastWasHour is left alone.
			sb.WriteString(tok.TValue)

		default:
			lastWasHour = false
		}
	}
	return sb.String()
}

// renderDateToken renders a single date/time token value (already upper-cased).
func renderDateToken(upper string, t time.Time, hasAmPm bool, lastWasHour bool) string {
	switch upper {
	// ── year ────────────────────────────────────────────────────────────────
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)

	// ── month / minute (disambiguated by lastWasHour) ────────────────────
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		if lastWasHour {
			return fmt.Sprintf("%02d", t.Minute())
		}
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		if lastWasHour {
			return strconv.Itoa(t.Minute())
		}
		return strconv.Itoa(int(t.Month()))

	// ── day ─────────────────────────────────────────────────────────────────
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())

	// ── hour ─────────────────────────────────────────────────────────────────
	case "HH", "H":
		h := t.Hour()
		if hasAmPm {
			h %= 12
			if h == 0 {
				h = 12
			}
		}
		if upper == "HH" {
			return fmt.Sprintf("%02d", h)
		}
		return strconv.Itoa(h)

	// ── second ───────────────────────────────────────────────────────────────
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())

	// ── AM/PM ────────────────────────────────────────────────────────────────
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"

	// ── Japanese era ─────────────────────────────────────────────────────────
	case "G", "GG", "GGG":
		e, ok := eraOf(t)
		if !ok {
			return ""
		}
		return e.names[len(upper)-1]
	case "E", "EE":
		e, ok := eraOf(t)
		if !ok {
			return strconv.Itoa(t.Year())
		}
		y := t.Year() - e.start.Year() + 1
		if upper == "EE" {
			return fmt.Sprintf("%02d", y)
		}
		return strconv.Itoa(y)
	}
	return ""
}

// renderElapsed renders an elapsed-time token (h, hh, mm, ss, as emitted by
// the nfp parser with brackets stripped) from a duration in days.
func renderElapsed(upper string, days float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(days * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(days*24*60)%60)
	case "M":
		return strconv.Itoa(int(days*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(days*24*3600)%60)
	case "S":
		return strconv.Itoa(int(days*24*3600) % 60)
	}
	return ""
}

// elapsedEpoch makes elapsed tokens agree with the serial a 1900-system
// workbook stores for t (valid from 1900-03-01 on).
var elapsedEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func elapsedDays(t time.Time) float64 {
	return t.Sub(elapsedEpoch).Hours() / 24
}

type era struct {
	start time.Time
	names [3]string // G, GG, GGG
}

// eras lists the Japanese eras newest first.
var eras = []era{
	{time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), [3]string{"R", "令", "令和"}},
	{time.Date(1989, 1, 8, 0, 0, 0, 0, time.UTC), [3]string{"H", "平", "平成"}},
	{time.Date(1926, 12, 25, 0, 0, 0, 0, time.UTC), [3]string{"S", "昭", "昭和"}},
	{time.Date(1912, 7, 30, 0, 0, 0, 0, time.UTC), [3]string{"T", "大", "大正"}},
	{time.Date(1868, 10, 23, 0, 0, 0, 0, time.UTC), [3]string{"M", "明", "明治"}},
}

func eraOf(t time.Time) (era, bool) {
	for _, e := range eras {
		if !t.Before(e.start) {
			return e, true
		}
	}
	return era{}, false
}

// ── number renderer ───────────────────────────────────────────────────────────

// renderNumber renders a numeric (non-date) float64 value using the token
// section sec.  sections is the full parsed set (needed to check whether the
// negative section has its own sign tokens).
func renderNumber(val float64, sec nfp.Section, sections []nfp.Section) string {
	// ── pass 1: collect format metadata ──────────────────────────────────────
	var (
		hasPercent, hasThousands, hasDecimal, hasExplicitSign bool
		decZeros, decHashes, intZeros                         int
	)
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			hasPercent = true
		case nfp.TokenTypeThousandsSeparator:
			hasThousands = true
		case nfp.TokenTypeDecimalPoint:
			hasDecimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				decZeros += len(tok.TValue)
			} else {
				intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				hasExplicitSign = true
			}
		}
	}
	totalDecPlaces := decZeros + decHashes

	absVal := math.Abs(val)
	if hasPercent {
		absVal *= 100
	}

	// ── format the absolute value ─────────────────────────────────────────────
	var intStr, fracStr string
	if hasDecimal {
		formatted := strconv.FormatFloat(absVal, 'f', totalDecPlaces, 64)
		if dot := strings.IndexByte(formatted, '.'); dot >= 0 {
			intStr, fracStr = formatted[:dot], formatted[dot+1:]
		} else {
			intStr = formatted
		}
		// '#' placeholders drop trailing zeros that '0' placeholders keep.
		if decHashes > 0 {
			trimTo := len(fracStr)
			for trimTo > decZeros && fracStr[trimTo-1] == '0' {
				trimTo--
			}
			fracStr = fracStr[:trimTo]
		}
	} else {
		intStr = strconv.FormatFloat(absVal, 'f', 0, 64)
	}
	if intZeros == 0 && intStr == "0" {
		// "#.##" renders 0.5 as ".5".
		intStr = ""
	}
	for len(intStr) < intZeros {
		intStr = "0" + intStr
	}
	if hasThousands {
		intStr = insertThousandsSep(intStr)
	}

	// A negative value under a single section needs an explicit minus; with
	// two or more sections the negative section spells its own sign.
	needsMinus := val < 0 && !hasExplicitSign && len(sections) < 2 && !allZero(intStr+fracStr)

	// ── reassemble by walking tokens ──────────────────────────────────────────
	var sb strings.Builder
	if needsMinus {
		sb.WriteByte('-')
	}
	intConsumed, fracConsumed := false, false
	afterDecimal = false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if len(fracStr) > 0 {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				if !fracConsumed {
					sb.WriteString(fracStr)
					fracConsumed = true
				}
			} else if !intConsumed {
				sb.WriteString(intStr)
				intConsumed = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !intConsumed && !afterDecimal {
		sb.WriteString(intStr)
	}
	if sb.Len() == 0 {
		return renderGeneral(val)
	}
	return sb.String()
}

// allZero reports whether a rendered digit string rounds to zero, so that
// -0.001 under "0.00" shows "0.00" rather than "-0.00".
func allZero(digits string) bool {
	return strings.Trim(digits, "0,") == ""
}

// insertThousandsSep inserts commas every three digits from the right in an
// integer string (digits only, no sign).
func insertThousandsSep(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
