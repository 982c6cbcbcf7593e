// Package upload validates and stores drawings submitted by the user.
package upload

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/storage"
)

var (
	// ErrInvalidFileType is returned for anything other than images and PDFs.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrUnsupportedEncoding is returned for transfer encodings other than gzip.
	ErrUnsupportedEncoding = errors.New("unsupported upload encoding")
)

const (
	mimePDF         = "application/pdf"
	mimeOctetStream = "application/octet-stream"
	sniffLen        = 512
)

// Gate accepts a single drawing file and stores its bytes.
type Gate struct {
	store storage.Store
}

// NewGate creates a gate backed by store.
func NewGate(store storage.Store) *Gate {
	return &Gate{store: store}
}

// NormalizeMIME strips parameters and lowercases a media type.
func NormalizeMIME(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(mimeType)
}

// ValidateMIME accepts any image/* type or exactly application/pdf.
func ValidateMIME(mimeType string) error {
	mt := NormalizeMIME(mimeType)
	if strings.HasPrefix(mt, "image/") && len(mt) > len("image/") {
		return nil
	}
	if mt == mimePDF {
		return nil
	}
	if mt == "" {
		mt = "unknown"
	}
	return fmt.Errorf("%w: %s (expected an image or PDF)", ErrInvalidFileType, mt)
}

// Submit validates the declared type and stores the bytes. When no type is
// declared it is sniffed from the content. Rejected files are never written.
func (g *Gate) Submit(name, mimeType string, r io.Reader) (*models.Asset, error) {
	mt := NormalizeMIME(mimeType)

	br := bufio.NewReaderSize(r, sniffLen)
	if mt == "" || mt == mimeOctetStream {
		head, err := br.Peek(sniffLen)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, fmt.Errorf("reading upload: %w", err)
		}
		mt = NormalizeMIME(http.DetectContentType(head))
	}

	if err := ValidateMIME(mt); err != nil {
		return nil, err
	}

	asset, err := g.store.Save(name, mt, br)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	fmt.Printf("[Upload %s] Stored %s (%s, %d bytes)\n", asset.ID[:8], asset.Name, asset.MIMEType, asset.Size)
	return asset, nil
}

// Release frees the stored bytes of an asset.
func (g *Gate) Release(asset *models.Asset) error {
	if asset == nil {
		return nil
	}
	if err := g.store.Delete(asset.Ref); err != nil {
		return fmt.Errorf("releasing asset %s: %w", asset.ID, err)
	}
	return nil
}

// Open returns a reader over an asset's bytes.
func (g *Gate) Open(asset *models.Asset) (io.ReadCloser, error) {
	return g.store.Open(asset.Ref)
}

// Decode unwraps a transfer-encoded upload. An empty encoding or "identity"
// returns r unchanged; "gzip" must start with the gzip magic bytes.
func Decode(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return io.NopCloser(r), nil
	case "gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: not a gzip stream: %v", ErrInvalidFileType, err)
		}
		return zr, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
}
