package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	benriqr "github.com/ykszk/benri-qr"
	"github.com/ykszk/benri-qr/document"
)

var convertFlags struct {
	output  string
	title   string
	lang    string
	theme   string
	perPage int
	width   int
	height  int
	workers int
	level   string
}

var convertCmd = &cobra.Command{
	Use:   "convert input.xlsx",
	Short: "Convert a contact spreadsheet into an HTML page of QR codes",
	Long: `convert reads the first sheet of an .xlsx file and writes one HTML page
with a QR code per contact row.  The header row must contain a Name column;
Reading, TEL, Email, Memo, Birthday, Address, URL and Nickname are optional.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertFlags.output, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&convertFlags.title, "title", "", "Document title (default: input file name without extension)")
	f.StringVar(&convertFlags.lang, "lang", "ja", "Language tag: selects MECARD (ja) or vCard (en) and the label form")
	f.StringVar(&convertFlags.theme, "theme", document.DefaultTheme, "Layout: "+strings.Join(document.ThemeNames(), ", "))
	f.IntVar(&convertFlags.perPage, "per-page", 0, "Entries per page (default: from theme)")
	f.IntVar(&convertFlags.width, "width", 0, "Symbol width in pixels (default: from theme)")
	f.IntVar(&convertFlags.height, "height", 0, "Symbol height in pixels (default: from theme)")
	f.IntVar(&convertFlags.workers, "workers", 0, "Concurrent symbol generators (default: GOMAXPROCS)")
	f.StringVar(&convertFlags.level, "level", "", "Pin the error-correction level: L, M, Q or H (default: strongest that fits)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	title := convertFlags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	page, err := benriqr.ConvertFile(input, benriqr.Options{
		Theme:          convertFlags.theme,
		LanguageTag:    convertFlags.lang,
		Title:          title,
		EntriesPerPage: convertFlags.perPage,
		Width:          convertFlags.width,
		Height:         convertFlags.height,
		Workers:        convertFlags.workers,
		Level:          convertFlags.level,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, convertFlags.output, page)
}

// writeOutput writes s to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path, s string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), s)
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote output", "path", path, "bytes", len(s))
	return nil
}
