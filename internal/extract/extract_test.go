package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, bodyXML, coreXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	if _, err := w.Write([]byte(bodyXML)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}

	if coreXML != "" {
		cw, err := zw.Create("docProps/core.xml")
		if err != nil {
			t.Fatalf("create core.xml: %v", err)
		}
		if _, err := cw.Write([]byte(coreXML)); err != nil {
			t.Fatalf("write core.xml: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const sampleBody = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
    <w:p><w:r><w:t>Revenue grew in all segments.</w:t></w:r></w:p>
  </w:body>
</w:document>`

const sampleCore = `<?xml version="1.0"?>
<cp:coreProperties
    xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>Q3 Financial Summary</dc:title>
  <dc:creator>Jordan Lee</dc:creator>
  <dcterms:created>2024-10-02T08:30:00Z</dcterms:created>
</cp:coreProperties>`

func TestDocxTextAndCoreProps(t *testing.T) {
	data := buildDocx(t, sampleBody, sampleCore)

	res, err := FromBytes(context.Background(), data, mimeDOCX, "report.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "Quarterly Report") || !strings.Contains(res.Text, "Revenue grew") {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.TitleGuess != "Q3 Financial Summary" {
		t.Fatalf("expected core title, got %q", res.TitleGuess)
	}
	if res.AuthorsGuess != "Jordan Lee" {
		t.Fatalf("expected core creator, got %q", res.AuthorsGuess)
	}
	if res.DateGuess != "2024-10-02T08:30:00Z" {
		t.Fatalf("expected core created, got %q", res.DateGuess)
	}
}

func TestDocxFallsBackToTextHeuristics(t *testing.T) {
	data := buildDocx(t, sampleBody, "")

	res, err := FromBytes(context.Background(), data, "application/zip", "report.docx")
	if err != nil {
		t.Fatalf("extract from zip mime: %v", err)
	}
	if res.TitleGuess != "Quarterly Report" {
		t.Fatalf("expected first-line title guess, got %q", res.TitleGuess)
	}
}

func TestGuessFromText(t *testing.T) {
	text := "A Study of Tides\nBy: Ada Marsh\nPublished 2023-06-14 in the coastal journal\nbody text"
	title, authors, date := guessFromText(text)
	if title != "A Study of Tides" {
		t.Fatalf("title guess %q", title)
	}
	if authors != "Ada Marsh" {
		t.Fatalf("authors guess %q", authors)
	}
	if date != "2023-06-14" {
		t.Fatalf("date guess %q", date)
	}
}

func TestGuessFromTextLongDate(t *testing.T) {
	_, _, date := guessFromText("Title Line\nReleased on March 5, 2021 by the press office")
	if date != "March 5, 2021" {
		t.Fatalf("date guess %q", date)
	}
}

func TestPlainZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = FromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if err == nil {
		t.Fatal("expected unsupported mime error for zip")
	}
	if !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnsupportedMime(t *testing.T) {
	if _, err := FromBytes(context.Background(), []byte("x"), "text/plain", "a.txt"); err == nil {
		t.Fatal("expected unsupported mime error")
	}
}
