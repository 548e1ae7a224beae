package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestTextFromDOCX(t *testing.T) {
	data := buildDOCX(t, []string{"Hello world", "Second paragraph"})

	text, err := Text(data, "sample.docx")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(text, "Hello world") || !strings.Contains(text, "Second paragraph") {
		t.Fatalf("text = %q", text)
	}
	if strings.Contains(text, "<w:") {
		t.Fatalf("markup leaked into text: %q", text)
	}
}

func TestTextDOCXExtensionCaseInsensitive(t *testing.T) {
	data := buildDOCX(t, []string{"case test"})
	if _, err := Text(data, "SAMPLE.DOCX"); err != nil {
		t.Fatalf("Text: %v", err)
	}
}

func TestTextUnsupportedFormat(t *testing.T) {
	_, err := Text([]byte("plain text"), "notes.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTextCorruptPDFFailsGracefully(t *testing.T) {
	if _, err := Text([]byte("definitely not a pdf"), "broken.pdf"); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}

func TestTextCorruptDOCXFailsGracefully(t *testing.T) {
	if _, err := Text([]byte("not a zip archive"), "broken.docx"); err == nil {
		t.Fatal("expected error for corrupt docx")
	}
}

func TestTextDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/other.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte("<x/>")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := Text(buf.Bytes(), "odd.docx"); err == nil {
		t.Fatal("expected error when document.xml is absent")
	}
}
