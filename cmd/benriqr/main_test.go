package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykszk/benri-qr/internal/xlsxtest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "members.xlsx")
	require.NoError(t, os.WriteFile(input, xlsxtest.Build(t, [][]any{{"Name", "Reading"}, {"山田", "やまだ"}}), 0o600))

	stdout, err := execute(t, "convert", input, "--theme", "compact")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<title>members</title>", "title defaults to the file stem")
	assert.Contains(t, stdout, "<figcaption>山田（やまだ）</figcaption>")
	assert.Contains(t, stdout, `width="96"`)

	output := filepath.Join(dir, "out.html")
	_, err = execute(t, "convert", input, "-o", output, "--title", "名簿", "--theme", "default")
	require.NoError(t, err)
	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(written), "<title>名簿</title>")

	_, err = execute(t, "convert", filepath.Join(dir, "missing.xlsx"), "-o", "")
	assert.Error(t, err)
}

func TestCardCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "john.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"Name":"John","TEL":"1234-5678","EMail":"john@example.com"}`), 0o600))

	stdout, err := execute(t, "card", input, "--width", "64", "--height", "64")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "<svg"))
	assert.Contains(t, stdout, `width="64" height="64"`)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"TEL":"1"}`), 0o600))
	_, err = execute(t, "card", bad)
	assert.Error(t, err)
}
