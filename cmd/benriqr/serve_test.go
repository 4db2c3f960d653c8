package main

import (
	"bytes"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykszk/benri-qr/internal/xlsxtest"
)

func serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	newRouter(slog.New(slog.DiscardHandler)).ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestUploadPage(t *testing.T) {
	rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="file"`)

	rec = serve(t, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConvertRawBody(t *testing.T) {
	data := xlsxtest.Build(t, [][]any{{"Name", "TEL"}, {"田中太郎", "090-0000-0000"}})
	req := httptest.NewRequest(http.MethodPost, "/convert?title=office&theme=large", bytes.NewReader(data))
	rec := serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>office</title>")
	assert.Contains(t, body, `width="256"`)
	assert.Contains(t, body, "<figcaption>田中太郎</figcaption>")
}

func TestConvertMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contacts.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(xlsxtest.Build(t, [][]any{{"Name"}, {"Sato"}}))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", "team"))
	require.NoError(t, mw.WriteField("lang", "en"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "<title>team</title>")
	assert.Contains(t, rec.Body.String(), `<html lang="en">`)
}

func TestConvertErrorsAreBadRequest(t *testing.T) {
	tests := map[string]*http.Request{
		"not a workbook": httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("Name,TEL\n")),
		"empty name": httptest.NewRequest(http.MethodPost, "/convert",
			bytes.NewReader(xlsxtest.Build(t, [][]any{{"Name", "TEL"}, {nil, "1"}}))),
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, strings.TrimSpace(rec.Body.String()))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("x"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=zzz")
	assert.Equal(t, http.StatusBadRequest, serve(t, req).Code)
}
