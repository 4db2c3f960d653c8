package qrcode

// grid is the module matrix under construction.  Coordinates are (x, y) =
// (column, row); function marks modules that data placement and masking
// must leave alone.
type grid struct {
	size     int
	dark     []bool
	function []bool
}

func newGrid(version int) *grid {
	size := 17 + 4*version
	return &grid{size: size, dark: make([]bool, size*size), function: make([]bool, size*size)}
}

func (g *grid) setFunction(x, y int, dark bool) {
	g.dark[y*g.size+x] = dark
	g.function[y*g.size+x] = true
}

func (g *grid) get(x, y int) bool { return g.dark[y*g.size+x] }

// build assembles the final symbol for data at a fixed version and level.
func build(data []byte, version int, level Level) *Symbol {
	g := newGrid(version)
	g.drawFunctionPatterns(version)
	// Reserve the format areas before placing data.
	g.drawFormat(level, 0)
	g.drawCodewords(interleave(dataBytes(data, version, level), version, level))

	best, bestScore := 0, -1
	for mask := range 8 {
		g.applyMask(mask)
		g.drawFormat(level, mask)
		if score := g.penalty(); bestScore < 0 || score < bestScore {
			best, bestScore = mask, score
		}
		g.applyMask(mask) // XOR twice restores the unmasked grid
	}
	g.applyMask(best)
	g.drawFormat(level, best)

	return &Symbol{Version: version, Level: level, Mask: best, size: g.size, modules: g.dark}
}

// ── function patterns ─────────────────────────────────────────────────────────

func (g *grid) drawFunctionPatterns(version int) {
	for i := range g.size {
		g.setFunction(6, i, i%2 == 0)
		g.setFunction(i, 6, i%2 == 0)
	}

	g.drawFinder(3, 3)
	g.drawFinder(g.size-4, 3)
	g.drawFinder(3, g.size-4)

	pos := alignmentPositions(version)
	last := len(pos) - 1
	for i, y := range pos {
		for j, x := range pos {
			// The three finder corners have no alignment pattern.
			if (i == 0 && j == 0) || (i == 0 && j == last) || (i == last && j == 0) {
				continue
			}
			g.drawAlignment(x, y)
		}
	}

	g.drawVersion(version)
}

// drawFinder draws a finder pattern centred on (x, y) together with its
// separator.
func (g *grid) drawFinder(x, y int) {
	for dy := -4; dy <= 4; dy++ {
		for dx := -4; dx <= 4; dx++ {
			xx, yy := x+dx, y+dy
			if xx < 0 || xx >= g.size || yy < 0 || yy >= g.size {
				continue
			}
			d := max(abs(dx), abs(dy))
			g.setFunction(xx, yy, d != 2 && d != 4)
		}
	}
}

func (g *grid) drawAlignment(x, y int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			g.setFunction(x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
		}
	}
}

// alignmentPositions returns the centre coordinates of the alignment
// patterns, ascending.  Version 1 has none.
func alignmentPositions(version int) []int {
	if version == 1 {
		return nil
	}
	n := version/7 + 2
	step := (version*8 + n*3 + 5) / (n*4 - 4) * 2
	pos := make([]int, n)
	pos[0] = 6
	for i, p := n-1, 17+4*version-7; i >= 1; i, p = i-1, p-step {
		pos[i] = p
	}
	return pos
}

// formatInfo returns the 15 format bits: level and mask protected by a
// BCH(15,5) code and XORed with the fixed mask pattern.
func formatInfo(level Level, mask int) int {
	data := formatBits[level]<<3 | mask
	rem := data
	for range 10 {
		rem = (rem << 1) ^ ((rem >> 9) * 0x537)
	}
	return (data<<10 | rem) ^ 0x5412
}

// versionInfo returns the 18 version bits, a BCH(18,6) code.
func versionInfo(version int) int {
	rem := version
	for range 12 {
		rem = (rem << 1) ^ ((rem >> 11) * 0x1F25)
	}
	return version<<12 | rem
}

func bit(v, i int) bool { return v>>i&1 != 0 }

func (g *grid) drawFormat(level Level, mask int) {
	bits := formatInfo(level, mask)

	for i := range 6 {
		g.setFunction(8, i, bit(bits, i))
	}
	g.setFunction(8, 7, bit(bits, 6))
	g.setFunction(8, 8, bit(bits, 7))
	g.setFunction(7, 8, bit(bits, 8))
	for i := 9; i < 15; i++ {
		g.setFunction(14-i, 8, bit(bits, i))
	}

	for i := range 8 {
		g.setFunction(g.size-1-i, 8, bit(bits, i))
	}
	for i := 8; i < 15; i++ {
		g.setFunction(8, g.size-15+i, bit(bits, i))
	}
	g.setFunction(8, g.size-8, true) // dark module
}

func (g *grid) drawVersion(version int) {
	if version < 7 {
		return
	}
	bits := versionInfo(version)
	for i := range 18 {
		a, b := g.size-11+i%3, i/3
		g.setFunction(a, b, bit(bits, i))
		g.setFunction(b, a, bit(bits, i))
	}
}

// ── data placement ────────────────────────────────────────────────────────────

// drawCodewords places codeword bits in the zig-zag order: two-column
// strips from the right edge, alternating upward and downward, skipping
// the vertical timing column.  Leftover modules stay light.
func (g *grid) drawCodewords(data []byte) {
	i := 0
	for right := g.size - 1; right >= 1; right -= 2 {
		if right == 6 {
			right = 5
		}
		upward := (right+1)&2 == 0
		for vert := range g.size {
			y := vert
			if upward {
				y = g.size - 1 - vert
			}
			for j := range 2 {
				x := right - j
				if g.function[y*g.size+x] || i >= len(data)*8 {
					continue
				}
				g.dark[y*g.size+x] = data[i>>3]>>(7-i&7)&1 != 0
				i++
			}
		}
	}
}

// applyMask XORs the data modules with mask pattern m.
func (g *grid) applyMask(m int) {
	for y := range g.size {
		for x := range g.size {
			var invert bool
			switch m {
			case 0:
				invert = (x+y)%2 == 0
			case 1:
				invert = y%2 == 0
			case 2:
				invert = x%3 == 0
			case 3:
				invert = (x+y)%3 == 0
			case 4:
				invert = (x/3+y/2)%2 == 0
			case 5:
				invert = x*y%2+x*y%3 == 0
			case 6:
				invert = (x*y%2+x*y%3)%2 == 0
			case 7:
				invert = ((x+y)%2+x*y%3)%2 == 0
			}
			k := y*g.size + x
			if invert && !g.function[k] {
				g.dark[k] = !g.dark[k]
			}
		}
	}
}

// ── mask evaluation ───────────────────────────────────────────────────────────

const (
	penaltyN1 = 3
	penaltyN2 = 3
	penaltyN3 = 40
	penaltyN4 = 10
)

// penalty scores the current grid; lower is better.
func (g *grid) penalty() int {
	score := 0
	line := make([]bool, g.size)
	for y := range g.size {
		for x := range g.size {
			line[x] = g.get(x, y)
		}
		score += linePenalty(line)
	}
	for x := range g.size {
		for y := range g.size {
			line[y] = g.get(x, y)
		}
		score += linePenalty(line)
	}

	dark := 0
	for y := range g.size {
		for x := range g.size {
			c := g.get(x, y)
			if c {
				dark++
			}
			if x+1 < g.size && y+1 < g.size && c == g.get(x+1, y) && c == g.get(x, y+1) && c == g.get(x+1, y+1) {
				score += penaltyN2
			}
		}
	}

	total := g.size * g.size
	// Whole 5% steps away from a 50% dark ratio.
	score += abs(dark*20-total*10) / total * penaltyN4
	return score
}

// finderCore is the 1:1:3:1:1 dark/light ratio of a finder pattern.
var finderCore = [7]bool{true, false, true, true, true, false, true}

// linePenalty scores one row or column for runs (N1) and finder-like
// patterns (N3).  Modules beyond the edge count as light.
func linePenalty(line []bool) int {
	score := 0
	run := 1
	for i := 1; i <= len(line); i++ {
		if i < len(line) && line[i] == line[i-1] {
			run++
			continue
		}
		if run >= 5 {
			score += penaltyN1 + run - 5
		}
		run = 1
	}

	at := func(i int) bool { return i >= 0 && i < len(line) && line[i] }
	lightRun := func(from int) bool {
		for i := from; i < from+4; i++ {
			if at(i) {
				return false
			}
		}
		return true
	}
	for p := 0; p+len(finderCore) <= len(line); p++ {
		match := true
		for k, d := range finderCore {
			if line[p+k] != d {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if lightRun(p - 4) {
			score += penaltyN3
		}
		if lightRun(p + len(finderCore)) {
			score += penaltyN3
		}
	}
	return score
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
