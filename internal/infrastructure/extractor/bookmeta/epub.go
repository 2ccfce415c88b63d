package bookmeta

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kirillkom/book-library/internal/core/domain"
)

const (
	epubContainerPath = "META-INF/container.xml"
	dublinCoreNS      = "http://purl.org/dc/elements/1.1/"

	// maxEPUBEntryBytes bounds how much of a single archive entry is decompressed.
	maxEPUBEntryBytes = 4 << 20
)

// EPUBParser reads dc:title and dc:creator from the package document of an EPUB.
type EPUBParser struct{}

func NewEPUBParser() *EPUBParser {
	return &EPUBParser{}
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

func (p *EPUBParser) Parse(data []byte) (domain.ParsedFields, bool) {
	title, author, err := readEPUBMetadata(data)
	if err != nil {
		slog.Debug("epub_metadata_unreadable", "error", err)
		return domain.ParsedFields{}, false
	}
	return domain.ParsedFields{Title: title, Author: author}, true
}

func readEPUBMetadata(data []byte) (string, string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("open archive: %w", err)
	}

	rawContainer, err := readZipEntry(archive, epubContainerPath)
	if err != nil {
		return "", "", err
	}
	var container epubContainer
	if err := xml.Unmarshal(rawContainer, &container); err != nil {
		return "", "", fmt.Errorf("parse container: %w", err)
	}
	if len(container.Rootfiles) == 0 || strings.TrimSpace(container.Rootfiles[0].FullPath) == "" {
		return "", "", errors.New("container has no rootfile")
	}

	rawPackage, err := readZipEntry(archive, container.Rootfiles[0].FullPath)
	if err != nil {
		return "", "", err
	}
	title, author, err := firstDublinCore(rawPackage)
	if err != nil {
		return "", "", fmt.Errorf("parse package document: %w", err)
	}
	if title == "" && author == "" {
		return "", "", errors.New("package document has no title or creator")
	}
	return title, author, nil
}

func readZipEntry(archive *zip.Reader, name string) ([]byte, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		raw, err := io.ReadAll(io.LimitReader(rc, maxEPUBEntryBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if len(raw) > maxEPUBEntryBytes {
			return nil, fmt.Errorf("entry %s exceeds %d bytes", name, maxEPUBEntryBytes)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("missing entry %s", name)
}

// firstDublinCore returns the text of the first dc:title and first dc:creator
// anywhere in the document. A malformed document is an error even when both
// elements were already seen.
func firstDublinCore(raw []byte) (title, author string, err error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.Strict = true

	var titleSeen, authorSeen bool
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return title, author, nil
		}
		if err != nil {
			return "", "", err
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Space != dublinCoreNS {
			continue
		}
		switch {
		case start.Name.Local == "title" && !titleSeen:
			titleSeen = true
			title, err = elementText(decoder, start)
		case start.Name.Local == "creator" && !authorSeen:
			authorSeen = true
			author, err = elementText(decoder, start)
		}
		if err != nil {
			return "", "", err
		}
	}
}

func elementText(decoder *xml.Decoder, start xml.StartElement) (string, error) {
	var node struct {
		Text string `xml:",chardata"`
	}
	if err := decoder.DecodeElement(&node, &start); err != nil {
		return "", err
	}
	return strings.TrimSpace(node.Text), nil
}
