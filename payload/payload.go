// Package payload serializes a contact into the text carried by its QR
// symbol.  Two dialects exist: MECARD, the compact form read by Japanese
// handsets, and vCard 3.0.  A language tag selects between them.
package payload

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/ykszk/benri-qr/contact"
)

// Format is a payload dialect.
type Format int

const (
	// MECARD is the default dialect.
	MECARD Format = iota
	// VCard is vCard 3.0.
	VCard
)

func (f Format) String() string {
	if f == VCard {
		return "vcard"
	}
	return "mecard"
}

// DefaultLanguage is the tag whose dialect applies when a tag is empty,
// malformed or unsupported.
const DefaultLanguage = "ja"

// supported lists the tags with a dialect of their own; the first entry is
// the fallback.
var supported = []struct {
	tag    language.Tag
	format Format
}{
	{language.Japanese, MECARD},
	{language.English, VCard},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = s.tag
	}
	return language.NewMatcher(tags)
}()

// Dialect reports the payload dialect for a BCP 47 language tag.  "en" and
// its regional variants select vCard; anything else selects MECARD.
func Dialect(tag string) Format {
	t, err := language.Parse(tag)
	if err != nil {
		return supported[0].format
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return supported[0].format
	}
	return supported[idx].format
}

// Encode serializes c in the dialect selected by tag.  It never fails and
// is deterministic: the same contact and tag always give identical bytes.
func Encode(c contact.Contact, tag string) []byte {
	return EncodeFormat(c, Dialect(tag))
}

// EncodeFormat serializes c in the given dialect.
func EncodeFormat(c contact.Contact, f Format) []byte {
	if f == VCard {
		return encodeVCard(c)
	}
	return encodeMECARD(c)
}

// ── MECARD ────────────────────────────────────────────────────────────────────

var mecardEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `:`, `\:`, `,`, `\,`)

// encodeMECARD writes "MECARD:N:…;SOUND:…;…;;".  Unset fields are omitted.
func encodeMECARD(c contact.Contact) []byte {
	var b strings.Builder
	b.WriteString("MECARD:")
	for _, f := range []struct{ key, val string }{
		{"N", c.Name},
		{"SOUND", c.Reading},
		{"TEL", c.Phone},
		{"EMAIL", c.Email},
		{"NOTE", c.Memo},
		{"BDAY", c.Birthday},
		{"ADR", c.Address},
		{"URL", c.URL},
		{"NICKNAME", c.Nickname},
	} {
		if f.val == "" {
			continue
		}
		b.WriteString(f.key)
		b.WriteByte(':')
		b.WriteString(mecardEscaper.Replace(f.val))
		b.WriteByte(';')
	}
	b.WriteByte(';')
	return []byte(b.String())
}

// ── vCard ─────────────────────────────────────────────────────────────────────

var vcardEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// uriCleaner strips line breaks from URI values, which are not escaped.
var uriCleaner = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// maxLineOctets is the vCard line length limit before folding.
const maxLineOctets = 75

func encodeVCard(c contact.Contact) []byte {
	var b strings.Builder
	line := func(s string) {
		writeFolded(&b, s)
		b.WriteString("\r\n")
	}
	prop := func(name, val string) {
		if val != "" {
			line(name + ":" + vcardEscaper.Replace(val))
		}
	}

	line("BEGIN:VCARD")
	line("VERSION:3.0")
	name := vcardEscaper.Replace(c.Name)
	line("N:" + name + ";;;;")
	line("FN:" + name)
	prop("X-PHONETIC-FIRST-NAME", c.Reading)
	prop("TEL", c.Phone)
	prop("EMAIL", c.Email)
	prop("NOTE", c.Memo)
	prop("BDAY", c.Birthday)
	if c.Address != "" {
		line("ADR:;;" + vcardEscaper.Replace(c.Address) + ";;;;")
	}
	if c.URL != "" {
		line("URL:" + uriCleaner.Replace(c.URL))
	}
	prop("NICKNAME", c.Nickname)
	line("END:VCARD")
	return []byte(b.String())
}

// writeFolded writes s, breaking it into lines of at most maxLineOctets
// bytes.  Continuation lines start with a single space, and breaks never
// split a UTF-8 sequence.
func writeFolded(b *strings.Builder, s string) {
	limit := maxLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !startsRune(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		// The leading space counts toward the next line's length.
		limit = maxLineOctets - 1
	}
	b.WriteString(s)
}

func startsRune(c byte) bool { return c&0xC0 != 0x80 }
