// Package bookmeta recovers title, author and page count from uploaded book files.
//
// Extraction is a fixed chain of stages. Container metadata (PDF info
// dictionary, EPUB package document) is tried first; the filename is parsed
// when the container gives no title. Extract never fails: every broken input
// degrades to the next stage.
package bookmeta

import (
	"strings"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
)

type Extractor struct {
	parsers map[string]ports.FormatParser
}

func NewExtractor() *Extractor {
	return NewExtractorWithParsers(map[string]ports.FormatParser{
		"pdf":  NewPDFParser(),
		"epub": NewEPUBParser(),
	})
}

// NewExtractorWithParsers wires a custom format table keyed by lowercase extension.
func NewExtractorWithParsers(parsers map[string]ports.FormatParser) *Extractor {
	table := make(map[string]ports.FormatParser, len(parsers))
	for format, parser := range parsers {
		if parser == nil {
			continue
		}
		table[strings.ToLower(format)] = parser
	}
	return &Extractor{parsers: table}
}

type stage func() (domain.ParsedFields, bool)

func (e *Extractor) Extract(data []byte, filename string) domain.ExtractedMetadata {
	format := FormatOf(filename)

	var containerFields domain.ParsedFields
	stages := []stage{
		func() (domain.ParsedFields, bool) {
			fields, ok := e.parseContainer(format, data)
			if !ok {
				return domain.ParsedFields{}, false
			}
			containerFields = fields
			return fields, fields.Title != ""
		},
		func() (domain.ParsedFields, bool) {
			title, author := ParseFilename(filename)
			return domain.ParsedFields{
				Title:     title,
				Author:    author,
				PageCount: containerFields.PageCount,
			}, true
		},
	}

	var result domain.ParsedFields
	for _, run := range stages {
		fields, ok := run()
		if ok {
			result = fields
			break
		}
	}

	return domain.ExtractedMetadata{
		Title:     result.Title,
		Author:    result.Author,
		PageCount: result.PageCount,
		Format:    format,
	}
}

func (e *Extractor) parseContainer(format string, data []byte) (domain.ParsedFields, bool) {
	parser, ok := e.parsers[format]
	if !ok {
		return domain.ParsedFields{}, false
	}
	fields, ok := parser.Parse(data)
	if !ok {
		return domain.ParsedFields{}, false
	}
	if fields.PageCount < 0 {
		fields.PageCount = 0
	}
	return fields, true
}

// FormatOf returns the lowercase text after the last dot, or "" when there is none.
func FormatOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
