package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format identifies a supported input document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatPPTX     Format = "pptx"
)

// ErrUnsupportedFormat is returned for file extensions outside the accepted
// set. It is raised before any bytes are inspected and is not retryable.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ExtractionError wraps a parse failure for a recognized format. No partial
// text accompanies it.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FormatForFile resolves the format from the file name's extension.
// Accepted: .md, .pdf, .doc, .docx, .ppt, .pptx.
func FormatForFile(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".md":
		return FormatMarkdown, nil
	case ".pdf":
		return FormatPDF, nil
	case ".doc", ".docx":
		return FormatDOCX, nil
	case ".ppt", ".pptx":
		return FormatPPTX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
}

// Text extracts UTF-8 plain text from raw file bytes, dispatching on the file
// name's extension. Visible text runs keep their reading order.
func Text(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format, err := FormatForFile(fileName)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatMarkdown:
		return string(data), nil
	case FormatPDF:
		return extractPDF(data)
	case FormatDOCX:
		return extractDOCX(data)
	case FormatPPTX:
		return extractPPTX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: FormatPDF, Err: err}
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", &ExtractionError{Format: FormatPDF, Err: err}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", &ExtractionError{Format: FormatPDF, Err: err}
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ExtractionError{Format: FormatDOCX, Err: errors.New("empty docx data")}
	}
	rd, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: FormatDOCX, Err: err}
	}
	defer rd.Close()

	text, err := collectRuns(rd.Editable().GetContent(), "t")
	if err != nil {
		return "", &ExtractionError{Format: FormatDOCX, Err: err}
	}
	return text, nil
}

func extractPPTX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: FormatPPTX, Err: err}
	}

	var slides []*zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var out strings.Builder
	for _, slide := range slides {
		rc, err := slide.Open()
		if err != nil {
			return "", &ExtractionError{Format: FormatPPTX, Err: err}
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", &ExtractionError{Format: FormatPPTX, Err: err}
		}
		text, err := collectRuns(string(raw), "t")
		if err != nil {
			return "", &ExtractionError{Format: FormatPPTX, Err: err}
		}
		out.WriteString(text)
	}
	return out.String(), nil
}

// collectRuns walks OOXML and concatenates text-run elements with the given
// local name, one line per run.
func collectRuns(raw string, runLocal string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	depth := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == runLocal {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == runLocal && depth > 0 {
				depth--
				buf.WriteString("\n")
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write([]byte(t))
			}
		}
	}
	return buf.String(), nil
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), ".xml")
	digits := strings.TrimLeft(base, "slide")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
