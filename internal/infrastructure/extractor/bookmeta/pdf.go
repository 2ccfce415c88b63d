package bookmeta

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/book-library/internal/core/domain"
)

// maxPDFNesting caps array and dictionary depth. The pdf reader recurses once
// per level and a stack overflow is fatal, not a panic.
const maxPDFNesting = 256

var (
	streamKeyword    = []byte("stream")
	endstreamKeyword = []byte("endstream")
)

// PDFParser reads the document information dictionary and the page tree count.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Parse(data []byte) (fields domain.ParsedFields, ok bool) {
	if len(data) == 0 {
		return domain.ParsedFields{}, false
	}
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("pdf_metadata_panic", "panic", r)
			fields, ok = domain.ParsedFields{}, false
		}
	}()

	if !nestingWithin(data, maxPDFNesting) {
		slog.Debug("pdf_metadata_nesting_too_deep", "limit", maxPDFNesting)
		return domain.ParsedFields{}, false
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Debug("pdf_metadata_unreadable", "error", err)
		return domain.ParsedFields{}, false
	}

	info := reader.Trailer().Key("Info")
	pages := reader.NumPage()
	if pages < 0 {
		pages = 0
	}

	return domain.ParsedFields{
		Title:     cleanPDFText(info.Key("Title").Text()),
		Author:    cleanPDFText(info.Key("Author").Text()),
		PageCount: pages,
	}, true
}

func cleanPDFText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// nestingWithin reports whether no array or dictionary in data is nested
// deeper than limit. Comments, strings and stream bodies are skipped.
func nestingWithin(data []byte, limit int) bool {
	depth := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case '(':
			i = skipLiteralString(data, i)
		case '<':
			if i+1 < len(data) && data[i+1] == '<' {
				i++
				depth++
				if depth > limit {
					return false
				}
				continue
			}
			for i < len(data) && data[i] != '>' {
				i++
			}
		case '>':
			if i+1 < len(data) && data[i+1] == '>' {
				i++
				depth = max(depth-1, 0)
			}
		case '[':
			depth++
			if depth > limit {
				return false
			}
		case ']':
			depth = max(depth-1, 0)
		case 's':
			if !bytes.HasPrefix(data[i:], streamKeyword) || (i > 0 && isPDFNameByte(data[i-1])) {
				continue
			}
			end := bytes.Index(data[i+len(streamKeyword):], endstreamKeyword)
			if end < 0 {
				return true
			}
			i += len(streamKeyword) + end + len(endstreamKeyword) - 1
		}
	}
	return true
}

// skipLiteralString returns the index of the parenthesis closing the string
// that opens at start, or len(data) when it never closes.
func skipLiteralString(data []byte, start int) int {
	open := 0
	for i := start; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			open++
		case ')':
			open--
			if open == 0 {
				return i
			}
		}
	}
	return len(data)
}

func isPDFNameByte(c byte) bool {
	return c == '/' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
