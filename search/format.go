package search

import (
	"mime"
	"path/filepath"
	"strings"
)

// Format is the document format chosen once when a file is ingested.
type Format int

const (
	FormatUnknown Format = iota
	FormatTxt
	FormatDocx
	FormatPdf
	FormatDoc
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePdf  = "application/pdf"
	mimeDoc  = "application/msword"
	mimeText = "text/plain"
)

func (f Format) String() string {
	switch f {
	case FormatTxt:
		return "txt"
	case FormatDocx:
		return "docx"
	case FormatPdf:
		return "pdf"
	case FormatDoc:
		return "doc"
	default:
		return "unknown"
	}
}

// MIMEType returns the canonical media type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatTxt:
		return mimeText
	case FormatDocx:
		return mimeDocx
	case FormatPdf:
		return mimePdf
	case FormatDoc:
		return mimeDoc
	default:
		return "application/octet-stream"
	}
}

// MarshalText renders the format by name in JSON and msgpack output.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// DetectFormat maps a file name and declared media type to a Format.
// Checks run DOCX, PDF, DOC, TXT and the first match wins.
func DetectFormat(name, mimeType string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mt := baseMediaType(mimeType)

	switch {
	case ext == ".docx" || mt == mimeDocx:
		return FormatDocx, nil
	case ext == ".pdf" || mt == mimePdf:
		return FormatPdf, nil
	case ext == ".doc" || mt == mimeDoc:
		return FormatDoc, nil
	case ext == ".txt" || strings.HasPrefix(mt, "text/"):
		return FormatTxt, nil
	}
	return FormatUnknown, &UnsupportedFormatError{FileName: name, MIMEType: mimeType}
}

// baseMediaType strips parameters such as charset and lowercases the type.
func baseMediaType(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
