// Package qrcode builds QR Code Model 2 symbols (ISO/IEC 18004) from byte
// payloads.
//
// Only byte mode is supported.  Generate picks the smallest symbol that
// holds the payload, preferring the strongest error-correction level the
// version allows; GenerateLevel pins the level.
package qrcode

import (
	"fmt"
	"strings"
)

// Level is an error-correction level.
type Level int

const (
	L Level = iota // recovers ~7% of codewords
	M              // ~15%
	Q              // ~25%
	H              // ~30%
)

func (l Level) String() string {
	switch l {
	case L:
		return "L"
	case M:
		return "M"
	case Q:
		return "Q"
	case H:
		return "H"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses "L", "M", "Q" or "H" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return L, nil
	case "M":
		return M, nil
	case "Q":
		return Q, nil
	case "H":
		return H, nil
	}
	return 0, fmt.Errorf("qrcode: unknown error-correction level %q", s)
}

// formatBits are the two level bits of the format information.
var formatBits = [4]int{L: 1, M: 0, Q: 3, H: 2}

const (
	MinVersion = 1
	MaxVersion = 40
)

// MaxBytes is the largest payload any symbol can carry (version 40-L).
const MaxBytes = 2953

// CapacityError reports a payload too large for any symbol.
type CapacityError struct {
	Size int // payload length in bytes
	Max  int // largest payload the attempted levels allow
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("qrcode: payload of %d bytes exceeds the capacity of %d bytes", e.Size, e.Max)
}

// Symbol is a generated QR symbol.  The module grid is fixed once built.
type Symbol struct {
	Version int
	Level   Level
	Mask    int

	size    int
	modules []bool // row-major, true = dark
}

// Size returns the number of modules per side, 17 + 4·Version.
func (s *Symbol) Size() int { return s.size }

// At reports whether the module at (row, col) is dark.  Coordinates outside
// the symbol (the quiet zone) are light.
func (s *Symbol) At(row, col int) bool {
	if row < 0 || col < 0 || row >= s.size || col >= s.size {
		return false
	}
	return s.modules[row*s.size+col]
}

// searchOrder is the level order tried within each version by Generate.
var searchOrder = [...]Level{H, Q, M, L}

// Generate encodes data in the smallest version that fits, trying levels
// H, Q, M, L within each version.  The only failure is a *CapacityError.
func Generate(data []byte) (*Symbol, error) {
	for v := MinVersion; v <= MaxVersion; v++ {
		for _, l := range searchOrder {
			if fits(len(data), v, l) {
				return build(data, v, l), nil
			}
		}
	}
	return nil, &CapacityError{Size: len(data), Max: MaxBytes}
}

// GenerateLevel encodes data in the smallest version at the given level.
func GenerateLevel(data []byte, level Level) (*Symbol, error) {
	if level < L || level > H {
		return nil, fmt.Errorf("qrcode: invalid level %d", int(level))
	}
	for v := MinVersion; v <= MaxVersion; v++ {
		if fits(len(data), v, level) {
			return build(data, v, level), nil
		}
	}
	return nil, &CapacityError{Size: len(data), Max: Capacity(MaxVersion, level)}
}

// Capacity returns the largest byte-mode payload of a version and level.
func Capacity(version int, level Level) int {
	return (dataCodewords(version, level)*8 - 4 - countBits(version)) / 8
}

func fits(n, version int, level Level) bool {
	return 4+countBits(version)+8*n <= dataCodewords(version, level)*8
}

// countBits is the width of the byte-mode character count indicator.
func countBits(version int) int {
	if version <= 9 {
		return 8
	}
	return 16
}

// ── codewords ─────────────────────────────────────────────────────────────────

type bitWriter struct {
	buf []byte
	n   int
}

func (w *bitWriter) write(v uint32, bits int) {
	for i := bits - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[w.n/8] |= 0x80 >> (w.n % 8)
		}
		w.n++
	}
}

// dataBytes builds the data codeword sequence: mode, count, payload,
// terminator, bit padding, then alternating pad bytes.
func dataBytes(data []byte, version int, level Level) []byte {
	capBits := dataCodewords(version, level) * 8
	var w bitWriter
	w.write(0b0100, 4)
	w.write(uint32(len(data)), countBits(version))
	for _, b := range data {
		w.write(uint32(b), 8)
	}
	w.write(0, min(4, capBits-w.n))
	w.write(0, (8-w.n%8)%8)
	for pad := uint32(0xEC); w.n < capBits; pad ^= 0xEC ^ 0x11 {
		w.write(pad, 8)
	}
	return w.buf
}

// interleave splits data into blocks, appends each block's error
// correction, and interleaves the result.
func interleave(data []byte, version int, level Level) []byte {
	numBlocks := int(eccBlocks[level][version])
	eccLen := int(eccPerBlock[level][version])
	raw := rawDataModules(version) / 8
	numShort := numBlocks - raw%numBlocks
	shortLen := raw / numBlocks

	gen := rsGenerator(eccLen)
	blocks := make([][]byte, numBlocks)
	k := 0
	for i := range blocks {
		n := shortLen - eccLen
		if i >= numShort {
			n++
		}
		dat := data[k : k+n]
		k += n
		b := make([]byte, 0, shortLen+1)
		b = append(b, dat...)
		if i < numShort {
			b = append(b, 0)
		}
		blocks[i] = append(b, rsRemainder(dat, gen)...)
	}

	out := make([]byte, 0, raw)
	for i := range blocks[0] {
		for j, b := range blocks {
			// Short blocks carry a placeholder at the last data position.
			if i != shortLen-eccLen || j >= numShort {
				out = append(out, b[i])
			}
		}
	}
	return out
}

// rawDataModules counts the modules available for codewords and remainder
// bits once function patterns are drawn.
func rawDataModules(version int) int {
	n := (16*version+128)*version + 64
	if version >= 2 {
		align := version/7 + 2
		n -= (25*align-10)*align - 55
		if version >= 7 {
			n -= 36
		}
	}
	return n
}

func dataCodewords(version int, level Level) int {
	return rawDataModules(version)/8 - int(eccPerBlock[level][version])*int(eccBlocks[level][version])
}

// ── tables ────────────────────────────────────────────────────────────────────

// eccPerBlock and eccBlocks are indexed by [level][version]; index 0 is
// unused.
var eccPerBlock = [4][41]int8{
	L: {0, 7, 10, 15, 20, 26, 18, 20, 24, 30, 18, 20, 24, 26, 30, 22, 24, 28, 30, 28, 28, 28, 28, 30, 30, 26, 28, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
	M: {0, 10, 16, 26, 18, 24, 16, 18, 22, 22, 26, 30, 22, 22, 24, 24, 28, 28, 26, 26, 26, 26, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28, 28},
	Q: {0, 13, 22, 18, 26, 18, 24, 18, 22, 20, 24, 28, 26, 24, 20, 30, 24, 28, 28, 26, 30, 28, 30, 30, 30, 30, 28, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
	H: {0, 17, 28, 22, 16, 22, 28, 26, 26, 24, 28, 24, 28, 22, 24, 24, 30, 28, 28, 26, 28, 30, 24, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
}

var eccBlocks = [4][41]int8{
	L: {0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 4, 4, 4, 4, 4, 6, 6, 6, 6, 7, 8, 8, 9, 9, 10, 12, 12, 12, 13, 14, 15, 16, 17, 18, 19, 19, 20, 21, 22, 24, 25},
	M: {0, 1, 1, 1, 2, 2, 4, 4, 4, 5, 5, 5, 8, 9, 9, 10, 10, 11, 13, 14, 16, 17, 17, 18, 20, 21, 23, 25, 26, 28, 29, 31, 33, 35, 37, 38, 40, 43, 45, 47, 49},
	Q: {0, 1, 1, 2, 2, 4, 4, 6, 6, 8, 8, 8, 10, 12, 16, 12, 17, 16, 18, 21, 20, 23, 23, 25, 27, 29, 34, 34, 35, 38, 40, 43, 45, 48, 51, 53, 56, 59, 62, 65, 68},
	H: {0, 1, 1, 2, 4, 4, 4, 5, 6, 8, 8, 11, 11, 16, 16, 18, 16, 19, 21, 25, 25, 25, 34, 30, 32, 35, 37, 40, 42, 45, 48, 51, 54, 57, 60, 63, 66, 70, 74, 77, 81},
}
