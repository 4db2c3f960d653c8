package document

import (
	"fmt"
	"maps"
	"slices"
)

// Theme is a page layout.
type Theme struct {
	Name           string
	EntriesPerPage int
	Columns        int
	Size           int // default symbol size in pixels
}

// DefaultTheme is used for empty or unknown theme names.
const DefaultTheme = "default"

// Themes lists the built-in layouts by name.
var Themes = map[string]Theme{
	"default": {Name: "default", EntriesPerPage: 12, Columns: 3, Size: 128},
	"compact": {Name: "compact", EntriesPerPage: 24, Columns: 4, Size: 96},
	"large":   {Name: "large", EntriesPerPage: 4, Columns: 2, Size: 256},
}

// ThemeNames returns the built-in theme names, sorted.
func ThemeNames() []string {
	return slices.Sorted(maps.Keys(Themes))
}

// LookupTheme returns the named theme, or the default theme when the name
// is unknown.
func LookupTheme(name string) Theme {
	if th, ok := Themes[name]; ok {
		return th
	}
	return Themes[DefaultTheme]
}

func (th Theme) css() string {
	return fmt.Sprintf(`body { margin: 0; font-family: sans-serif; }
.page { display: grid; grid-template-columns: repeat(%d, 1fr); gap: 6mm; padding: 10mm; box-sizing: border-box; }
.page-break { break-after: page; page-break-after: always; height: 0; }
.card { margin: 0; text-align: center; break-inside: avoid; }
.card figcaption { font-size: %dpt; margin-bottom: 2mm; overflow-wrap: anywhere; }
.card svg { display: block; margin: 0 auto; }
@media print { .page { padding: 0; } }
`, th.Columns, th.fontSize())
}

func (th Theme) fontSize() int {
	return max(8, th.Size/12)
}
