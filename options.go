package benriqr

import (
	"log/slog"
	"runtime"

	"github.com/ykszk/benri-qr/document"
	"github.com/ykszk/benri-qr/payload"
	"github.com/ykszk/benri-qr/qrcode"
)

// Options configures a conversion.  Zero values take the defaults of
// [DefaultOptions].
type Options struct {
	// Theme names the page layout: "default", "compact" or "large".
	Theme string
	// LanguageTag selects the payload dialect and the label form, and is
	// written to <html lang>.  Defaults to "ja".
	LanguageTag string
	// Title is the document title.  Defaults to "qr".
	Title string
	// EntriesPerPage overrides the theme's page size when positive.
	EntriesPerPage int
	// Width and Height override the theme's symbol size in pixels.
	Width, Height int
	// Level pins the error-correction level ("L", "M", "Q" or "H").  When
	// empty, each symbol uses the strongest level its version allows.
	Level string
	// Workers bounds the number of symbols generated concurrently.
	// Defaults to GOMAXPROCS.
	Workers int
	// Logger receives debug-level progress.  Nil discards it.
	Logger *slog.Logger
}

// DefaultOptions returns the default conversion options.
func DefaultOptions() Options {
	return Options{
		Theme:       document.DefaultTheme,
		LanguageTag: payload.DefaultLanguage,
		Title:       document.DefaultTitle,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Theme == "" {
		o.Theme = def.Theme
	}
	if o.LanguageTag == "" {
		o.LanguageTag = def.LanguageTag
	}
	if o.Title == "" {
		o.Title = def.Title
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// generator returns the symbol constructor selected by o.Level.
func (o Options) generator() (func([]byte) (*qrcode.Symbol, error), error) {
	if o.Level == "" {
		return qrcode.Generate, nil
	}
	level, err := qrcode.ParseLevel(o.Level)
	if err != nil {
		return nil, err
	}
	return func(data []byte) (*qrcode.Symbol, error) {
		return qrcode.GenerateLevel(data, level)
	}, nil
}

func (o Options) document() document.Options {
	return document.Options{
		Title:          o.Title,
		Language:       o.LanguageTag,
		Theme:          o.Theme,
		EntriesPerPage: o.EntriesPerPage,
		Width:          o.Width,
		Height:         o.Height,
	}
}
