package search

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"docfind/logging"
	pdfsalvage "docfind/search/pdf"
)

// ExtractionKind tells real text apart from best-effort or stand-in text.
type ExtractionKind int

const (
	// KindText is text decoded from the document itself.
	KindText ExtractionKind = iota
	// KindPartial is text salvaged from a document the main decoder could not fully read.
	KindPartial
	// KindPlaceholder is stand-in text naming the file.
	KindPlaceholder
)

func (k ExtractionKind) String() string {
	switch k {
	case KindPartial:
		return "partial"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "text"
	}
}

// MarshalText renders the kind by name in JSON and msgpack output.
func (k ExtractionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Extraction is the result of decoding one file.
type Extraction struct {
	Format Format
	Kind   ExtractionKind
	Text   string
}

// Extractor defines the interface for extracting text from one document format
type Extractor interface {
	// ExtractText takes the file name and raw bytes and returns plain text
	ExtractText(name string, data []byte) (string, ExtractionKind, error)
}

// ExtractorOptions toggles the best-effort salvage paths.
type ExtractorOptions struct {
	SalvageLegacyDoc bool
	PDFSalvage       bool
}

// ExtractorRegistry holds extractors for the supported formats
type ExtractorRegistry struct {
	extractors map[Format]Extractor
	logger     *zap.Logger
}

// NewExtractorRegistry creates a new registry with built-in extractors
func NewExtractorRegistry(opts ExtractorOptions, logger *zap.Logger) *ExtractorRegistry {
	logger = logging.OrNop(logger)
	return &ExtractorRegistry{
		extractors: map[Format]Extractor{
			FormatTxt:  &TXTExtractor{},
			FormatDocx: &DOCXExtractor{},
			FormatPdf:  &PDFExtractor{Salvage: opts.PDFSalvage},
			FormatDoc:  &DOCExtractor{Salvage: opts.SalvageLegacyDoc},
		},
		logger: logger,
	}
}

// GetExtractor returns the extractor registered for a format
func (r *ExtractorRegistry) GetExtractor(f Format) (Extractor, bool) {
	extractor, exists := r.extractors[f]
	return extractor, exists
}

// Extract detects the format of a file and decodes it.
func (r *ExtractorRegistry) Extract(name, mimeType string, data []byte) (Extraction, error) {
	format, err := DetectFormat(name, mimeType)
	if err != nil {
		return Extraction{}, err
	}
	return r.ExtractFormat(format, name, data)
}

// ExtractFormat decodes a file whose format is already known.
func (r *ExtractorRegistry) ExtractFormat(format Format, name string, data []byte) (ex Extraction, err error) {
	extractor, ok := r.GetExtractor(format)
	if !ok {
		return Extraction{}, &UnsupportedFormatError{FileName: name, MIMEType: format.MIMEType()}
	}

	defer func() {
		if rec := recover(); rec != nil {
			ex = Extraction{}
			err = &ExtractionError{FileName: name, Cause: fmt.Errorf("decoder panic: %v", rec)}
		}
	}()

	text, kind, err := extractor.ExtractText(name, data)
	if err != nil {
		return Extraction{}, &ExtractionError{FileName: name, Cause: err}
	}
	if kind != KindText {
		r.logger.Warn("degraded extraction",
			zap.String("file", name),
			zap.Stringer("format", format),
			zap.Stringer("kind", kind))
	}
	return Extraction{Format: format, Kind: kind, Text: text}, nil
}

// TXTExtractor decodes plain text as UTF-8, honouring a UTF-8 or UTF-16 BOM
type TXTExtractor struct{}

// ExtractText implements the Extractor interface for TXT files
func (e *TXTExtractor) ExtractText(_ string, data []byte) (string, ExtractionKind, error) {
	dec := textunicode.BOMOverride(textunicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", KindText, fmt.Errorf("decode text: %w", err)
	}
	return string(out), KindText, nil
}

// DOCXExtractor extracts text from .docx files (Office Open XML)
type DOCXExtractor struct{}

// ExtractText implements the Extractor interface for DOCX files
func (e *DOCXExtractor) ExtractText(_ string, data []byte) (string, ExtractionKind, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", KindText, fmt.Errorf("open docx package: %w", err)
	}

	for _, file := range zipReader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", KindText, fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()

		text, err := docxBodyText(rc)
		if err != nil {
			return "", KindText, err
		}
		return text, KindText, nil
	}

	return "", KindText, errors.New("docx package has no word/document.xml")
}

// docxBodyText walks the WordprocessingML token stream and keeps run text.
// Paragraphs end with a newline; tab and break elements map to \t and \n.
func docxBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	tabStops := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document part: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				tabStops++
			case "tab":
				if tabStops == 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				tabStops--
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// PDFExtractor extracts text from .pdf files page by page
type PDFExtractor struct {
	// Salvage enables the content-stream fallback when page decoding fails
	Salvage bool
}

// ExtractText implements the Extractor interface for PDF files.
// A document that cannot be opened is an error; one that opens but whose
// pages cannot be decoded degrades to salvaged or placeholder text.
func (e *PDFExtractor) ExtractText(name string, data []byte) (string, ExtractionKind, error) {
	reader, err := openPDF(data)
	if err != nil {
		return "", KindText, err
	}

	text, failedPages, total := pdfPageText(reader)
	switch {
	case total > 0 && failedPages == 0 && strings.TrimSpace(text) != "":
		return text, KindText, nil
	case failedPages < total && strings.TrimSpace(text) != "":
		return text, KindPartial, nil
	}

	if e.Salvage {
		if salvaged, err := pdfsalvage.ExtractContentText(data, 0, 0); err == nil && strings.TrimSpace(salvaged) != "" {
			return salvaged, KindPartial, nil
		}
	}
	return fmt.Sprintf("[PDF file: %s - text could not be extracted]", name), KindPlaceholder, nil
}

// openPDF builds a reader, turning library panics on malformed input into errors.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("open pdf: %v", r)
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return reader, nil
}

// pdfPageText decodes every page, joining the page's text runs with single
// spaces and ending each page with a newline. Pages that panic, fail to
// decode or carry no page object count as failed.
func pdfPageText(reader *pdf.Reader) (text string, failed, total int) {
	func() {
		defer func() { _ = recover() }()
		total = reader.NumPage()
	}()

	var b strings.Builder
	for i := 1; i <= total; i++ {
		pageText, ok := func() (s string, ok bool) {
			defer func() {
				if r := recover(); r != nil {
					ok = false
				}
			}()
			page := reader.Page(i)
			if page.V.IsNull() {
				return "", false
			}
			raw, err := page.GetPlainText(nil)
			if err != nil {
				return "", false
			}
			return joinRuns(raw), true
		}()
		if !ok {
			failed++
			continue
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}
	return b.String(), failed, total
}

// joinRuns turns the newline-separated text objects of a page into one line
func joinRuns(raw string) string {
	lines := strings.Split(raw, "\n")
	runs := lines[:0]
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			runs = append(runs, ln)
		}
	}
	return strings.Join(runs, " ")
}

// DOCExtractor handles legacy binary .doc files
type DOCExtractor struct {
	// Salvage enables best-effort text recovery from the OLE streams
	Salvage bool
}

// ExtractText implements the Extractor interface for DOC files
func (e *DOCExtractor) ExtractText(name string, data []byte) (string, ExtractionKind, error) {
	if e.Salvage {
		if text, err := salvageLegacyDoc(data, legacyDocBudget); err == nil && text != "" {
			return text, KindPartial, nil
		}
	}
	return docPlaceholder(name), KindPlaceholder, nil
}

func docPlaceholder(name string) string {
	return fmt.Sprintf("[DOC file: %s - text extraction not supported]", name)
}
