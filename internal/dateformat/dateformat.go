// Package dateformat classifies spreadsheet number formats and converts date
// serial numbers.  It is shared by styles, numfmt and worksheet so that all of
// them agree on which cells are dates.
package dateformat

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TextFormatID is the built-in numFmtId of the "@" (Text) format.
const TextFormatID = 49

// IsBuiltInDateID reports whether id is a built-in numFmtId that represents a
// date, datetime, or time format.
//
// The recognised IDs follow ECMA-376 §18.8.30:
//
//	14–22   date and time formats (IDs 18–21 are time-only)
//	27–36   locale-specific CJK date formats
//	45–47   elapsed-time / seconds formats
//	50–58   locale-specific CJK date formats (variant set)
func IsBuiltInDateID(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// IsDateFormat reports whether a numFmtId and its format code describe a
// date or time.  Built-in IDs below 164 are decided by ID alone unless a
// custom code overrides them; custom IDs are decided by scanning the code.
func IsDateFormat(id int, formatStr string) bool {
	if IsBuiltInDateID(id) {
		return true
	}
	if id < 164 && formatStr == "" {
		return false
	}
	return ScanFormatStr(formatStr)
}

// IsTextFormat reports whether the format forces the cell to be shown as
// text ("@").  A numeric literal stored under such a format is kept verbatim.
func IsTextFormat(id int, formatStr string) bool {
	if formatStr == "" {
		return id == TextFormatID
	}
	return strings.TrimSpace(formatStr) == "@"
}

// ScanFormatStr scans the unquoted portion of a custom number-format string
// for date/time token characters and returns true if any are found.
//
// The following characters are treated as date/time tokens when they appear
// outside double-quoted literals and outside square-bracket sections:
//
//   - d, D — day
//   - m, M — month
//   - y, Y — year
//   - h, H — hour
//   - s, S — second
//   - e, E — Japanese era (only when NOT preceded by a digit placeholder
//     0, #, ?, or .)
//
// "General" is never a date even though it contains an 'e'.
func ScanFormatStr(formatStr string) bool {
	if strings.EqualFold(strings.TrimSpace(formatStr), "General") {
		return false
	}
	inDoubleQuote := false
	inBracket := false
	escaped := false
	var prev rune
	for _, ch := range formatStr {
		switch {
		case escaped:
			escaped = false
		case inDoubleQuote:
			if ch == '"' {
				inDoubleQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '\\':
			escaped = true
		case ch == '"':
			inDoubleQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' ||
			ch == 'm' || ch == 'M' ||
			ch == 'y' || ch == 'Y' ||
			ch == 'h' || ch == 'H' ||
			ch == 's' || ch == 'S':
			return true
		case ch == 'e' || ch == 'E':
			// E/e after a digit placeholder is a scientific exponent.
			if prev != '0' && prev != '#' && prev != '?' && prev != '.' {
				return true
			}
		}
		if !inDoubleQuote && !inBracket {
			prev = ch
		}
	}
	return false
}

// maxSerial is one past the last valid 1900-system serial (9999-12-31).
const maxSerial = 2_958_466

// ConvertSerial converts a date serial number to a time.Time in UTC.
//
// In the 1900 system serial 1 is 1900-01-01 and serial 60 is the phantom
// 1900-02-29 inherited from Lotus 1-2-3, so serials from 61 on are shifted
// back one day.  In the 1904 system serial 0 is 1904-01-01 with no
// correction.
func ConvertSerial(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, fmt.Errorf("dateformat: invalid serial %v", serial)
	}
	if serial < 0 {
		return time.Time{}, fmt.Errorf("dateformat: negative serial %v not supported", serial)
	}
	limit := float64(maxSerial)
	if date1904 {
		limit -= 1462
	}
	if serial > limit {
		return time.Time{}, fmt.Errorf("dateformat: serial %v exceeds maximum supported value %v", serial, limit)
	}

	fracSec, dayRollover := serialToFracSec(serial)
	day := time.Duration(24) * time.Hour
	intPart := int(serial) + dayRollover

	if date1904 {
		base := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
		return base.Add(time.Duration(intPart)*day + time.Duration(fracSec)*time.Second), nil
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	switch {
	case intPart == 0:
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(fracSec) * time.Second), nil
	case intPart >= 61:
		return base.Add(time.Duration(intPart-1)*day + time.Duration(fracSec)*time.Second), nil
	default:
		return base.Add(time.Duration(intPart)*day + time.Duration(fracSec)*time.Second), nil
	}
}

// serialToFracSec converts the fractional-day part of a serial to a whole
// second count within the day (0–86399), plus a day-rollover flag.  Rounding
// follows excelize: add 1e-9, then round half-seconds up.
func serialToFracSec(serial float64) (fracSec int64, dayRollover int) {
	const roundEpsilon = 1e-9
	fracDay := (serial - math.Trunc(serial)) + roundEpsilon
	const nanosInADay = float64(24 * 60 * 60 * 1e9)
	durNanos := time.Duration(fracDay * nanosInADay)
	ns := int(durNanos % time.Second)
	secs := int64(durNanos / time.Second)
	if ns > 500_000_000 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	rollover := int(secs / 86400)
	return secs % 86400, rollover
}
