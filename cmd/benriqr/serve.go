package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	benriqr "github.com/ykszk/benri-qr"
)

// addrEnv overrides the default listen address of serve.
const addrEnv = "BENRIQR_ADDR"

// maxUpload bounds the size of an uploaded workbook.
const maxUpload = 32 << 20

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an upload page that converts spreadsheets in the browser",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	def := ":8080"
	if v := os.Getenv(addrEnv); v != "" {
		def = v
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", def, "Listen address (env "+addrEnv+")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           newRouter(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", serveAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newRouter(log *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, uploadPage)
	}).Methods(http.MethodGet)
	r.HandleFunc("/convert", convertHandler(log)).Methods(http.MethodPost)
	return r
}

// convertHandler accepts a workbook either as the raw request body or as
// the "file" field of a multipart form.  The query or form parameters
// title, lang, theme and level map to the conversion options.  Conversion
// errors are reported as 400 with the error message as the body.
func convertHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		data, err := readUpload(r)
		if err != nil {
			log.Debug("bad upload", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		page, err := benriqr.ConvertReader(bytes.NewReader(data), int64(len(data)), benriqr.Options{
			Title:       r.FormValue("title"),
			LanguageTag: r.FormValue("lang"),
			Theme:       r.FormValue("theme"),
			Level:       r.FormValue("level"),
			Logger:      log,
		})
		if err != nil {
			log.Info("conversion failed", "error", err, "bytes", len(data))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, page)
	}
}

func readUpload(r *http.Request) ([]byte, error) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

const uploadPage = `<!DOCTYPE html>
<html lang="ja"><head><meta charset="utf-8"><title>benri-qr</title></head>
<body>
<h1>benri-qr</h1>
<form action="/convert" method="post" enctype="multipart/form-data">
<p><input type="file" name="file" accept=".xlsx" required></p>
<p><label>Title <input type="text" name="title" value="qr"></label></p>
<p><button type="submit">Convert</button></p>
</form>
</body></html>
`
