package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	benriqr "github.com/ykszk/benri-qr"
	"github.com/ykszk/benri-qr/contact"
)

var cardFlags struct {
	output string
	lang   string
	width  int
	height int
	level  string
}

var cardCmd = &cobra.Command{
	Use:   "card input.json",
	Short: "Render one contact, given as JSON, as an SVG QR code",
	Long: `card reads one contact from a JSON object whose keys are the spreadsheet
header names, for example {"Name":"John","TEL":"1234-5678"}, and writes its
QR code as SVG.`,
	Args: cobra.ExactArgs(1),
	RunE: runCard,
}

func init() {
	f := cardCmd.Flags()
	f.StringVarP(&cardFlags.output, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&cardFlags.lang, "lang", "ja", "Language tag: selects MECARD (ja) or vCard (en)")
	f.IntVar(&cardFlags.width, "width", 128, "Symbol width in pixels")
	f.IntVar(&cardFlags.height, "height", 128, "Symbol height in pixels")
	f.StringVar(&cardFlags.level, "level", "", "Pin the error-correction level: L, M, Q or H")
	rootCmd.AddCommand(cardCmd)
}

func runCard(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var c contact.Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("card: %s: %w", args[0], err)
	}
	svg, err := benriqr.Card(c, benriqr.Options{
		LanguageTag: cardFlags.lang,
		Width:       cardFlags.width,
		Height:      cardFlags.height,
		Level:       cardFlags.level,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, cardFlags.output, svg+"\n")
}
