// Package extractor pulls plain text out of uploaded study material.
package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Supported MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMETXT  = "text/plain"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedType is returned for MIME types with no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmpty is returned when no text could be recovered.
	ErrEmpty = errors.New("no text content found")
)

// Extractor reads at most MaxBytes of a document and returns its text.
type Extractor struct {
	MaxBytes int64
}

// New creates an extractor bounded to maxBytes per document.
func New(maxBytes int64) *Extractor {
	return &Extractor{MaxBytes: maxBytes}
}

// Extract returns the trimmed text of r, interpreted as mimeType.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > e.MaxBytes {
		return "", fmt.Errorf("document exceeds %d bytes", e.MaxBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	switch mimeType {
	case MIMEPDF:
		text, err = fromPDF(data)
	case MIMEDOCX:
		text, err = fromDOCX(data)
	case MIMEDOC:
		text, err = fromDOC(data)
	case MIMETXT:
		text, err = fromTXT(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func fromDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("open docx: word/document.xml missing")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	var b strings.Builder
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "t": // <w:t>
			var text string
			if err := decoder.DecodeElement(&text, &se); err == nil {
				b.WriteString(text)
			}
		case "p": // <w:p>
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
		case "tab":
			b.WriteByte('\t')
		}
	}
	return b.String(), nil
}

// fromDOC recovers printable runs from a legacy binary Word document. Formatting is lost.
func fromDOC(data []byte) (string, error) {
	var b, run strings.Builder
	flush := func() {
		if utf8.RuneCountInString(run.String()) >= 4 {
			b.WriteString(run.String())
			b.WriteByte(' ')
		}
		run.Reset()
	}
	for _, c := range data {
		if c == '\t' || c == '\r' || c == '\n' || (c >= 0x20 && c < 0x7f) {
			run.WriteByte(c)
			continue
		}
		flush()
	}
	flush()
	return b.String(), nil
}

func fromTXT(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), ""), nil
	}
	return string(data), nil
}
