// Package benriqr converts a contact spreadsheet (.xlsx) into a printable
// HTML sheet of QR codes, one per contact.
//
// # Quick start
//
//	data, _ := os.ReadFile("contacts.xlsx")
//	page, err := benriqr.Convert(data, benriqr.Options{Title: "contacts"})
//	if err != nil { ... }
//	os.WriteFile("contacts.html", []byte(page), 0o644)
//
// # Input
//
// The first worksheet is read.  Its first non-blank row is the header and
// names the columns: Name (required), Reading, TEL, Email (or EMail), Memo,
// Birthday, Address, URL and Nickname.  Other columns are ignored; every
// following row is one contact.
//
// # Errors
//
// A conversion is all-or-nothing.  It fails with a [*FormatError] when the
// input is not a readable workbook, a [*ValidationError] when a row has no
// name, or a [*CapacityError] when a contact does not fit in any QR symbol.
// The error values are returned as produced, so [errors.As] recovers them.
package benriqr

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ykszk/benri-qr/contact"
	"github.com/ykszk/benri-qr/document"
	"github.com/ykszk/benri-qr/payload"
	"github.com/ykszk/benri-qr/qrcode"
	"github.com/ykszk/benri-qr/workbook"
)

// Version is the current version of benri-qr.
const Version = "0.3.0"

type (
	// FormatError reports an unreadable or corrupt workbook.
	FormatError = workbook.FormatError
	// ValidationError reports a row that cannot become a contact.
	ValidationError = contact.ValidationError
	// CapacityError reports a contact too large for any QR symbol.
	CapacityError = qrcode.CapacityError
)

// Convert turns the bytes of an .xlsx file into an HTML document.
func Convert(input []byte, opts Options) (string, error) {
	wb, err := workbook.Decode(input)
	if err != nil {
		return "", err
	}
	return convert(wb, opts)
}

// ConvertReader is Convert for an [io.ReaderAt]; size must equal the total
// byte length of the data.
func ConvertReader(r io.ReaderAt, size int64, opts Options) (string, error) {
	wb, err := workbook.OpenReader(r, size)
	if err != nil {
		return "", err
	}
	return convert(wb, opts)
}

// ConvertFile is Convert for the named file.
func ConvertFile(name string, opts Options) (string, error) {
	wb, err := workbook.Open(name)
	if err != nil {
		return "", err
	}
	defer wb.Close()
	return convert(wb, opts)
}

func convert(wb *workbook.Workbook, opts Options) (string, error) {
	opts = opts.withDefaults()
	log := opts.Logger
	start := time.Now()

	contacts, err := contact.FromWorkbook(wb)
	if err != nil {
		return "", err
	}
	log.Debug("mapped contacts", "sheet", firstSheet(wb), "contacts", len(contacts))

	entries, err := Encode(contacts, opts)
	if err != nil {
		return "", err
	}

	page := document.Assemble(entries, opts.document())
	log.Debug("assembled document",
		"entries", len(entries),
		"theme", document.LookupTheme(opts.Theme).Name,
		"bytes", len(page),
		"elapsed", time.Since(start))
	return page, nil
}

func firstSheet(wb *workbook.Workbook) string {
	if names := wb.Sheets(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Encode builds the QR symbol of every contact.  Symbols are generated on
// up to opts.Workers goroutines; the result keeps the order of contacts.
// When several contacts fail, the error of the first failing contact is
// returned.
func Encode(contacts []contact.Contact, opts Options) ([]document.Entry, error) {
	opts = opts.withDefaults()
	generate, err := opts.generator()
	if err != nil {
		return nil, err
	}

	entries := make([]document.Entry, len(contacts))
	errs := make([]error, len(contacts))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, c := range contacts {
		g.Go(func() error {
			data := payload.Encode(c, opts.LanguageTag)
			sym, err := generate(data)
			if err != nil {
				errs[i] = err
				return nil
			}
			entries[i] = document.Entry{Symbol: sym, Contact: c}
			return nil
		})
	}
	_ = g.Wait() // workers record failures in errs

	for i, err := range errs {
		if err != nil {
			opts.Logger.Debug("contact does not fit in a symbol",
				slog.Int("index", i), slog.String("name", contacts[i].Name), slog.Any("err", err))
			return nil, err
		}
	}
	return entries, nil
}

// Card renders the QR symbol of a single contact as a standalone SVG.
func Card(c contact.Contact, opts Options) (string, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return "", err
	}
	opts = opts.withDefaults()
	entries, err := Encode([]contact.Contact{c}, opts)
	if err != nil {
		return "", err
	}
	th := document.LookupTheme(opts.Theme)
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = th.Size
	}
	if height <= 0 {
		height = th.Size
	}
	return document.SVG(entries[0].Symbol, width, height, "", ""), nil
}
