package document_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykszk/benri-qr/contact"
	"github.com/ykszk/benri-qr/document"
	"github.com/ykszk/benri-qr/qrcode"
)

func entries(t *testing.T, n int) []document.Entry {
	t.Helper()
	out := make([]document.Entry, n)
	for i := range out {
		name := fmt.Sprintf("contact-%02d", i)
		s, err := qrcode.Generate([]byte(name))
		require.NoError(t, err)
		out[i] = document.Entry{Symbol: s, Contact: contact.Contact{Name: name}}
	}
	return out
}

// assertSelfContained checks that out references no external resource.
func assertSelfContained(t *testing.T, out string) {
	t.Helper()
	lower := strings.ToLower(out)
	for _, ref := range []string{"src=", "href=", "url(", "@import"} {
		assert.NotContains(t, lower, ref)
	}
}

func TestAssembleEmpty(t *testing.T) {
	out := document.Assemble(nil, document.Options{})
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>\n<html lang=\"ja\">"))
	assert.Contains(t, out, "<title>qr</title>")
	assert.Contains(t, out, "<body></body></html>")
	assert.NotContains(t, out, "<section")
	assert.NotContains(t, out, "<svg")
	assertSelfContained(t, out)
}

func TestAssemblePagination(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		opts    document.Options
		pages   int
		perPage int
	}{
		{"one partial page", 5, document.Options{}, 1, 12},
		{"exactly one page", 12, document.Options{}, 1, 12},
		{"default theme", 13, document.Options{}, 2, 12},
		{"override", 11, document.Options{EntriesPerPage: 5}, 3, 5},
		{"compact theme", 30, document.Options{Theme: "compact"}, 2, 24},
		{"large theme", 9, document.Options{Theme: "large"}, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := document.Assemble(entries(t, tt.n), tt.opts)
			assert.Equal(t, tt.pages, strings.Count(out, `<section class="page"`))
			assert.Equal(t, tt.pages-1, strings.Count(out, `<div class="page-break"></div>`))
			assert.Equal(t, tt.n, strings.Count(out, "<svg"))
			for p := 1; p <= tt.pages; p++ {
				assert.Contains(t, out, fmt.Sprintf(`data-page="%d"`, p))
			}

			// Each page holds at most perPage figures.
			sections := strings.Split(out, `<section class="page"`)[1:]
			for i, s := range sections {
				want := tt.perPage
				if i == len(sections)-1 {
					want = tt.n - tt.perPage*(tt.pages-1)
				}
				assert.Equal(t, want, strings.Count(s, "<figure"), "page %d", i+1)
			}
		})
	}
}

func TestAssemblePreservesOrder(t *testing.T) {
	out := document.Assemble(entries(t, 30), document.Options{})
	last := -1
	for i := range 30 {
		idx := strings.Index(out, fmt.Sprintf("<figcaption>contact-%02d</figcaption>", i))
		require.Greater(t, idx, last, "entry %d out of order", i)
		last = idx
	}
}

func TestAssembleThemes(t *testing.T) {
	e := entries(t, 1)
	assert.Contains(t, document.Assemble(e, document.Options{}), `width="128" height="128"`)
	assert.Contains(t, document.Assemble(e, document.Options{}), "repeat(3, 1fr)")
	assert.Contains(t, document.Assemble(e, document.Options{Theme: "compact"}), `width="96"`)
	assert.Contains(t, document.Assemble(e, document.Options{Theme: "compact"}), "repeat(4, 1fr)")
	assert.Contains(t, document.Assemble(e, document.Options{Theme: "large"}), `width="256"`)
	assert.Contains(t, document.Assemble(e, document.Options{Theme: "nope"}), "repeat(3, 1fr)")
	assert.Contains(t, document.Assemble(e, document.Options{Width: 200, Height: 150}), `width="200" height="150"`)

	assert.Equal(t, []string{"compact", "default", "large"}, document.ThemeNames())
	assert.Equal(t, "default", document.LookupTheme("").Name)
}

func TestAssembleEscapes(t *testing.T) {
	s, err := qrcode.Generate([]byte("x"))
	require.NoError(t, err)
	out := document.Assemble([]document.Entry{{
		Symbol:  s,
		Contact: contact.Contact{Name: `<img src="x.png"> url(a) @import b`},
	}}, document.Options{
		Title: `<script src=evil.js></script>`,
		Dark:  "url(#pattern)",
		Light: `white" onload="x`,
	})
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, `<path fill="black"`)
	assert.Contains(t, out, `<rect width="29" height="29" fill="transparent"/>`)
	assertSelfContained(t, out)
}

func TestAssembleColors(t *testing.T) {
	out := document.Assemble(entries(t, 1), document.Options{Dark: "#123456", Light: "rgb(255, 255, 255)"})
	assert.Contains(t, out, `<path fill="#123456"`)
	assert.Contains(t, out, `fill="rgb(255, 255, 255)"`)
}

func TestLabel(t *testing.T) {
	c := contact.Contact{Name: "田中太郎", Reading: "たなかたろう", Nickname: "Taro"}
	assert.Equal(t, "田中太郎（たなかたろう）", document.Label(c, "ja"))
	assert.Equal(t, "田中太郎（たなかたろう）", document.Label(c, "ja-JP"))
	assert.Equal(t, `田中太郎 "Taro"`, document.Label(c, "en-US"))
	assert.Equal(t, "田中太郎", document.Label(c, "fr"))
	assert.Equal(t, "田中太郎", document.Label(c, "!!"))
	assert.Equal(t, "Sato", document.Label(contact.Contact{Name: "Sato"}, "ja"))

	out := document.Assemble([]document.Entry{{Symbol: entries(t, 1)[0].Symbol, Contact: c}}, document.Options{Language: "en"})
	assert.Contains(t, out, `<html lang="en">`)
	assert.Contains(t, out, "<figcaption>田中太郎 &#34;Taro&#34;</figcaption>")
}

func TestSVG(t *testing.T) {
	s, err := qrcode.Generate([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, 21, s.Size())

	out := document.SVG(s, 64, 64, "", "")
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg"`))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Contains(t, out, `viewBox="0 0 29 29"`)
	// The top row starts with the 7-module finder edge, offset by the quiet zone.
	assert.Contains(t, out, `d="M4 4h7v1h-7z`)
	assert.Equal(t, 1, strings.Count(out, "<path"))
	assertSelfContained(t, out)
}
