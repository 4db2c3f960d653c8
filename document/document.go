// Package document lays out QR symbols and their labels as a printable,
// self-contained HTML page.
//
// Every symbol is an inline SVG; the output references no stylesheets,
// images, fonts or scripts, so it can be saved or printed as-is.
package document

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/ykszk/benri-qr/contact"
	"github.com/ykszk/benri-qr/qrcode"
)

// Entry is one symbol and the contact it encodes.
type Entry struct {
	Symbol  *qrcode.Symbol
	Contact contact.Contact
}

// QuietZone is the light margin around each symbol, in modules.
const QuietZone = 4

const (
	DefaultTitle    = "qr"
	DefaultLanguage = "ja"
	DefaultDark     = "black"
	DefaultLight    = "transparent"
)

// Options controls the layout.  Zero values take the theme's or the
// package defaults.
type Options struct {
	Title    string
	Language string // BCP 47 tag for <html lang> and label selection
	Theme    string // see Themes

	// EntriesPerPage overrides the theme's page size.
	EntriesPerPage int
	// Width and Height are the rendered symbol size in pixels.
	Width, Height int
	// Dark and Light are CSS colours of the modules and the background.
	Dark, Light string
}

func (o Options) withDefaults() (Options, Theme) {
	th := LookupTheme(o.Theme)
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.EntriesPerPage <= 0 {
		o.EntriesPerPage = th.EntriesPerPage
	}
	if o.Width <= 0 {
		o.Width = th.Size
	}
	if o.Height <= 0 {
		o.Height = th.Size
	}
	o.Dark = safeColor(o.Dark, DefaultDark)
	o.Light = safeColor(o.Light, DefaultLight)
	return o, th
}

// Assemble renders entries into one HTML document, in order.  Entries are
// split into pages of EntriesPerPage; each page is a <section class="page">
// and every page after the first is preceded by a page-break marker.  An
// empty entry list yields a valid document with an empty body.
func Assemble(entries []Entry, opts Options) string {
	opts, th := opts.withDefaults()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, `<html lang="%s"><head><meta charset="utf-8"><title>%s</title><style>`,
		escape(opts.Language), escape(opts.Title))
	b.WriteString("\n")
	b.WriteString(th.css())
	b.WriteString("</style></head>\n<body>")

	for page, start := 1, 0; start < len(entries); page, start = page+1, start+opts.EntriesPerPage {
		end := min(start+opts.EntriesPerPage, len(entries))
		if page > 1 {
			b.WriteString(`<div class="page-break"></div>`)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\n<section class=\"page\" data-page=\"%d\">\n", page)
		for _, e := range entries[start:end] {
			b.WriteString(`<figure class="card"><figcaption>`)
			b.WriteString(escape(Label(e.Contact, opts.Language)))
			b.WriteString("</figcaption>")
			writeSVG(&b, e.Symbol, opts.Width, opts.Height, opts.Dark, opts.Light)
			b.WriteString("</figure>\n")
		}
		b.WriteString("</section>\n")
	}

	b.WriteString("</body></html>\n")
	return b.String()
}

// Label returns the caption of a contact.  Japanese documents append the
// reading in full-width parentheses and English ones the nickname in
// quotes, when set.
func Label(c contact.Contact, tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return c.Name
	}
	base, _ := t.Base()
	switch {
	case base.String() == "ja" && c.Reading != "":
		return c.Name + "（" + c.Reading + "）"
	case base.String() == "en" && c.Nickname != "":
		return c.Name + ` "` + c.Nickname + `"`
	}
	return c.Name
}

// ── SVG ───────────────────────────────────────────────────────────────────────

// SVG renders one symbol as a standalone SVG image.
func SVG(s *qrcode.Symbol, width, height int, dark, light string) string {
	var b strings.Builder
	writeSVG(&b, s, width, height, safeColor(dark, DefaultDark), safeColor(light, DefaultLight))
	return b.String()
}

// writeSVG draws the quiet zone as the background and all dark modules as
// a single path, merging horizontal runs.
func writeSVG(b *strings.Builder, s *qrcode.Symbol, width, height int, dark, light string) {
	n := s.Size() + 2*QuietZone
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		width, height, n, n)
	fmt.Fprintf(b, `<rect width="%d" height="%d" fill="%s"/>`, n, n, html.EscapeString(light))
	fmt.Fprintf(b, `<path fill="%s" d="`, html.EscapeString(dark))
	for r := range s.Size() {
		for c := 0; c < s.Size(); {
			if !s.At(r, c) {
				c++
				continue
			}
			run := 1
			for s.At(r, c+run) {
				run++
			}
			b.WriteString("M")
			b.WriteString(strconv.Itoa(c + QuietZone))
			b.WriteString(" ")
			b.WriteString(strconv.Itoa(r + QuietZone))
			b.WriteString("h")
			b.WriteString(strconv.Itoa(run))
			b.WriteString("v1h-")
			b.WriteString(strconv.Itoa(run))
			b.WriteString("z")
			c += run
		}
	}
	b.WriteString(`"/></svg>`)
}

// refEscaper breaks up the character sequences that could form a resource
// reference (src=, href=, url(, @import) once text is in the document.
var refEscaper = strings.NewReplacer("=", "&#61;", "(", "&#40;", "@", "&#64;")

// escape HTML-escapes user text.
func escape(s string) string {
	return refEscaper.Replace(html.EscapeString(s))
}

// safeColor returns c when it is a plain CSS colour (a name, hex value or
// functional notation without references), otherwise def.
func safeColor(c, def string) string {
	c = strings.TrimSpace(c)
	if c == "" || strings.Contains(strings.ToLower(c), "url") {
		return def
	}
	for _, r := range c {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("#(),.% ", r):
		default:
			return def
		}
	}
	return c
}
