// Package opc reads parts out of an Open Packaging Conventions container
// (the ZIP archive behind .xlsx files).  It guards against inputs that are
// not ZIP archives at all and against parts whose decompressed size would
// exhaust memory.
package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ykszk/benri-qr/internal/rels"
)

// MaxPartSize bounds the decompressed size of a single part.  No legitimate
// spreadsheet part used by this module comes close; anything larger is
// treated as a corrupt or hostile archive.
const MaxPartSize = 64 << 20

// signature is the ZIP local file header magic.
var signature = []byte{'P', 'K', 0x03, 0x04}

// ErrNotZip is returned when the input does not start with a ZIP local file
// header.
var ErrNotZip = errors.New("opc: missing ZIP signature")

// ErrPartNotFound is returned by ReadPart for names absent from the archive.
var ErrPartNotFound = errors.New("opc: part not found")

// Package is an opened container.
type Package struct {
	zr    *zip.ReadCloser // non-nil when opened by file name
	files map[string]*zip.File
}

// Open opens the named file.  The caller must Close the package.
func Open(name string) (*Package, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
		}
		return nil, fmt.Errorf("opc: open %q: %w", name, err)
	}
	p := newPackage(&rc.Reader)
	p.zr = rc
	return p, nil
}

// OpenReader opens a container from r.  size must equal the total byte
// length of the data.
func OpenReader(r io.ReaderAt, size int64) (*Package, error) {
	head := make([]byte, len(signature))
	if _, err := r.ReadAt(head, 0); err != nil || !bytes.Equal(head, signature) {
		return nil, ErrNotZip
	}
	zf, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opc: read central directory: %w", err)
	}
	return newPackage(zf), nil
}

// OpenBytes is OpenReader over an in-memory buffer.
func OpenBytes(data []byte) (*Package, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

func newPackage(zf *zip.Reader) *Package {
	p := &Package{files: make(map[string]*zip.File, len(zf.File))}
	for _, f := range zf.File {
		// Part names are case-insensitive; the first entry wins on clashes.
		key := strings.ToLower(strings.TrimPrefix(f.Name, "/"))
		if _, dup := p.files[key]; !dup {
			p.files[key] = f
		}
	}
	return p
}

// Has reports whether the archive contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.files[strings.ToLower(name)]
	return ok
}

// ReadPart returns the full decompressed contents of the named part.
func (p *Package) ReadPart(name string) ([]byte, error) {
	f, ok := p.files[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPartNotFound, name)
	}
	if f.UncompressedSize64 > MaxPartSize {
		return nil, fmt.Errorf("opc: part %q declares %d bytes, limit is %d", name, f.UncompressedSize64, MaxPartSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opc: open part %q: %w", name, err)
	}
	// The declared size can lie; read one byte past the limit to detect it.
	data, readErr := io.ReadAll(io.LimitReader(rc, MaxPartSize+1))
	closeErr := rc.Close()
	if readErr != nil {
		return nil, fmt.Errorf("opc: read part %q: %w", name, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("opc: close part %q: %w", name, closeErr)
	}
	if len(data) > MaxPartSize {
		return nil, fmt.Errorf("opc: part %q exceeds %d bytes", name, MaxPartSize)
	}
	return data, nil
}

// Relationships reads and parses the relationship part belonging to source.
// A missing .rels part yields (nil, ErrPartNotFound).
func (p *Package) Relationships(source string) (*rels.Set, error) {
	data, err := p.ReadPart(rels.PartName(source))
	if err != nil {
		return nil, err
	}
	s, err := rels.Parse(source, data)
	if err != nil {
		return nil, fmt.Errorf("opc: %s: %w", rels.PartName(source), err)
	}
	return s, nil
}

// MainDocument returns the part name of the package's main document as
// declared by the root relationships, falling back to fallback when the
// root relationships are absent or do not name one.
func (p *Package) MainDocument(fallback string) (string, error) {
	root, err := p.Relationships("")
	if err != nil {
		if errors.Is(err, ErrPartNotFound) {
			return fallback, nil
		}
		return "", err
	}
	if target, ok := root.FirstOfType(rels.TypeOfficeDocument); ok {
		return target, nil
	}
	return fallback, nil
}

// Close releases the file handle when the package was opened by name.
func (p *Package) Close() error {
	if p.zr != nil {
		return p.zr.Close()
	}
	return nil
}
