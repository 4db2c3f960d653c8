package qrcode_test

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykszk/benri-qr/qrcode"
)

func TestGenerateChoosesSmallestSymbol(t *testing.T) {
	tests := []struct {
		n       int
		version int
		level   qrcode.Level
	}{
		{0, 1, qrcode.H},
		{7, 1, qrcode.H},
		{8, 1, qrcode.Q},
		{10, 1, qrcode.Q},
		{14, 1, qrcode.M},
		{17, 1, qrcode.L},
		{18, 2, qrcode.Q},
		{qrcode.MaxBytes, 40, qrcode.L},
	}
	for _, tt := range tests {
		s, err := qrcode.Generate(bytes.Repeat([]byte{'a'}, tt.n))
		require.NoError(t, err, "%d bytes", tt.n)
		assert.Equal(t, tt.version, s.Version, "%d bytes", tt.n)
		assert.Equal(t, tt.level, s.Level, "%d bytes", tt.n)
		assert.Equal(t, 17+4*tt.version, s.Size())
		assert.GreaterOrEqual(t, s.Mask, 0)
		assert.Less(t, s.Mask, 8)
	}
}

func TestGenerateCapacityError(t *testing.T) {
	for _, n := range []int{qrcode.MaxBytes + 1, 3000} {
		_, err := qrcode.Generate(make([]byte, n))
		var ce *qrcode.CapacityError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, n, ce.Size)
		assert.Equal(t, 2953, ce.Max)
	}
	assert.Equal(t, "qrcode: payload of 3000 bytes exceeds the capacity of 2953 bytes",
		(&qrcode.CapacityError{Size: 3000, Max: 2953}).Error())
}

func TestGenerateLevel(t *testing.T) {
	s, err := qrcode.GenerateLevel(make([]byte, 10), qrcode.L)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, qrcode.L, s.Level)

	s, err = qrcode.GenerateLevel(make([]byte, 18), qrcode.L)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Version)

	_, err = qrcode.GenerateLevel(make([]byte, 1300), qrcode.H)
	var ce *qrcode.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, qrcode.Capacity(40, qrcode.H), ce.Max)

	_, err = qrcode.GenerateLevel(nil, qrcode.Level(9))
	assert.Error(t, err)
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, 17, qrcode.Capacity(1, qrcode.L))
	assert.Equal(t, 14, qrcode.Capacity(1, qrcode.M))
	assert.Equal(t, 11, qrcode.Capacity(1, qrcode.Q))
	assert.Equal(t, 7, qrcode.Capacity(1, qrcode.H))
	assert.Equal(t, 1273, qrcode.Capacity(40, qrcode.H))
	assert.Equal(t, qrcode.MaxBytes, qrcode.Capacity(40, qrcode.L))
}

func TestGenerateDeterministic(t *testing.T) {
	data := []byte("MECARD:N:田中太郎;SOUND:たなかたろう;TEL:09000000000;;")
	a, err := qrcode.Generate(data)
	require.NoError(t, err)
	b, err := qrcode.Generate(data)
	require.NoError(t, err)
	require.Equal(t, a.Size(), b.Size())
	assert.Equal(t, a.Mask, b.Mask)
	for r := range a.Size() {
		for c := range a.Size() {
			require.Equal(t, a.At(r, c), b.At(r, c), "module (%d, %d)", r, c)
		}
	}
}

// render draws s with a 4-module quiet zone at 4 pixels per module.
func render(s *qrcode.Symbol) image.Image {
	const scale, quiet = 4, 4
	n := (s.Size() + 2*quiet) * scale
	img := image.NewGray(image.Rect(0, 0, n, n))
	for y := range n {
		for x := range n {
			c := color.Gray{Y: 0xFF}
			if s.At(y/scale-quiet, x/scale-quiet) {
				c.Y = 0
			}
			img.SetGray(x, y, c)
		}
	}
	return img
}

func decode(t *testing.T, s *qrcode.Symbol) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(render(s))
	require.NoError(t, err)
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE:  true,
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	require.NoError(t, err)
	return res.GetText()
}

func TestRoundTrip(t *testing.T) {
	payloads := map[string]string{
		"mecard":  "MECARD:N:田中太郎;SOUND:たなかたろう;TEL:09000000000;;",
		"vcard":   "BEGIN:VCARD\r\nVERSION:3.0\r\nN:John;;;;\r\nFN:John\r\nTEL:1234-5678\r\nEND:VCARD\r\n",
		"short":   "a",
		"version": strings.Repeat("0123456789abcdef", 30),
		"large":   strings.Repeat("連絡先", 120),
	}
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			s, err := qrcode.Generate([]byte(p))
			require.NoError(t, err)
			assert.Equal(t, p, decode(t, s))
		})
	}

	t.Run("pinned level", func(t *testing.T) {
		s, err := qrcode.GenerateLevel([]byte("https://example.jp/"), qrcode.L)
		require.NoError(t, err)
		assert.Equal(t, "https://example.jp/", decode(t, s))
	})
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]qrcode.Level{"L": qrcode.L, "m": qrcode.M, " q ": qrcode.Q, "H": qrcode.H} {
		got, err := qrcode.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
		assert.Equal(t, strings.ToUpper(strings.TrimSpace(in)), got.String())
	}
	_, err := qrcode.ParseLevel("X")
	assert.Error(t, err)
}
