package qrcode

// ── GF(256) ───────────────────────────────────────────────────────────────────

// gfPoly is the field's primitive polynomial x⁸+x⁴+x³+x²+1.
const gfPoly = 0x11D

// gfMul multiplies two field elements (Russian peasant multiplication).
func gfMul(x, y byte) byte {
	z := 0
	for i := 7; i >= 0; i-- {
		z = (z << 1) ^ ((z >> 7) * gfPoly)
		z ^= int((y>>i)&1) * int(x)
	}
	return byte(z)
}

// ── Reed–Solomon ──────────────────────────────────────────────────────────────

// rsGenerator returns the coefficients of ∏(x − αⁱ) for i in [0, degree),
// highest power first with the leading 1 omitted.
func rsGenerator(degree int) []byte {
	g := make([]byte, degree)
	g[degree-1] = 1
	root := byte(1)
	for range degree {
		for j := range g {
			g[j] = gfMul(g[j], root)
			if j+1 < len(g) {
				g[j] ^= g[j+1]
			}
		}
		root = gfMul(root, 0x02)
	}
	return g
}

// rsRemainder returns the error-correction codewords for data.
func rsRemainder(data, generator []byte) []byte {
	rem := make([]byte, len(generator))
	for _, b := range data {
		factor := b ^ rem[0]
		copy(rem, rem[1:])
		rem[len(rem)-1] = 0
		for i, g := range generator {
			rem[i] ^= gfMul(g, factor)
		}
	}
	return rem
}
