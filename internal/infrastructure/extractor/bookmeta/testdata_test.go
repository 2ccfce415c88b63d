package bookmeta

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF assembles a minimal PDF with the given number of pages and an
// optional document information dictionary.
func buildPDF(t *testing.T, pages int, info map[string]string) []byte {
	t.Helper()

	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", i+3))
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	infoRef := ""
	if info != nil {
		var dict strings.Builder
		dict.WriteString("<<")
		for key, value := range info {
			dict.WriteString(fmt.Sprintf(" /%s (%s)", key, value))
		}
		dict.WriteString(" >>")
		objects = append(objects, dict.String())
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(objects))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\n", len(objects)+1, infoRef)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

// withNestedTrailerEntry adds a /Nested entry holding depth arrays, each
// containing the next, to the trailer of a buildPDF document. The trailer
// follows the xref table so offsets stay valid.
func withNestedTrailerEntry(t *testing.T, data []byte, depth int) []byte {
	t.Helper()

	entry := "/Nested " + strings.Repeat("[", depth) + strings.Repeat("]", depth) + " "
	out := bytes.Replace(data, []byte("trailer\n<< "), []byte("trailer\n<< "+entry), 1)
	if bytes.Equal(out, data) {
		t.Fatalf("trailer not found")
	}
	return out
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := writer.Create(name)
		if err != nil {
			t.Fatalf("zip Create(%s) error = %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip Write(%s) error = %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("zip Close() error = %v", err)
	}
	return buf.Bytes()
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func testPackageDocument(title, creator string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>` + title + `</dc:title>
    <dc:creator>` + creator + `</dc:creator>
    <dc:creator>Second Author</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
</package>`
}

func buildEPUB(t *testing.T, title, creator string) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testPackageDocument(title, creator),
	})
}
