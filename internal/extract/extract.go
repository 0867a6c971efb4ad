package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Result is the extractor output: raw text plus weakly-confident metadata
// guesses. Guesses are empty strings when nothing plausible was found; date
// guesses are raw strings that still need calendar validation downstream.
type Result struct {
	Text         string
	TitleGuess   string
	AuthorsGuess string
	DateGuess    string
}

// FromFile extracts text and metadata guesses from a file on disk.
func FromFile(ctx context.Context, path, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("extract path=%s: read: %w", path, err)
	}
	return FromBytes(ctx, data, mimeType, fileName)
}

// FromBytes extracts text and metadata guesses from an in-memory payload.
func FromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	default:
		return Result{}, fmt.Errorf("unsupported mime type: %s", normalized)
	}
}

func extractPDF(data []byte) (Result, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Result{}, err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, err
	}

	res := Result{Text: buf.String()}
	res.TitleGuess, res.AuthorsGuess, res.DateGuess = guessFromText(res.Text)
	return res, nil
}

func extractDOCX(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	var docFile, coreFile *zip.File
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			docFile = f
		case "docProps/core.xml":
			coreFile = f
		}
	}
	if docFile == nil {
		return Result{}, errors.New("document.xml file not found")
	}

	raw, err := readZipFile(docFile)
	if err != nil {
		return Result{}, err
	}

	res := Result{Text: stripDocxXML(string(raw))}

	if coreFile != nil {
		if coreRaw, err := readZipFile(coreFile); err == nil {
			res.TitleGuess, res.AuthorsGuess, res.DateGuess = parseCoreProps(coreRaw)
		}
	}
	if res.TitleGuess == "" && res.AuthorsGuess == "" && res.DateGuess == "" {
		res.TitleGuess, res.AuthorsGuess, res.DateGuess = guessFromText(res.Text)
	}
	return res, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseCoreProps reads the OOXML Dublin Core properties: dc:title,
// dc:creator and dcterms:created.
func parseCoreProps(raw []byte) (title, authors, date string) {
	var props struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
		Created string `xml:"created"`
	}
	if err := xml.Unmarshal(raw, &props); err != nil {
		return "", "", ""
	}
	return strings.TrimSpace(props.Title), strings.TrimSpace(props.Creator), strings.TrimSpace(props.Created)
}

var (
	authorLineRe = regexp.MustCompile(`(?i)^(?:authors?|by)[:\s]\s*(.+)$`)
	isoDateRe    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	longDateRe   = regexp.MustCompile(`\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4})\b`)
)

// guessFromText applies first-page heuristics: the first substantial line is
// the title, an "Author:"/"By" line names the authors, and the first
// date-shaped string is the date guess.
func guessFromText(text string) (title, authors, date string) {
	lines := strings.Split(text, "\n")
	scanned := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		scanned++
		if scanned > 25 {
			break
		}

		if title == "" && len(line) >= 3 && len(line) <= 200 {
			title = line
			continue
		}
		if authors == "" {
			if m := authorLineRe.FindStringSubmatch(line); m != nil {
				authors = strings.TrimSpace(m[1])
				continue
			}
		}
		if date == "" {
			if m := isoDateRe.FindString(line); m != "" {
				date = m
			} else if m := longDateRe.FindString(line); m != "" {
				date = m
			}
		}
		if title != "" && authors != "" && date != "" {
			break
		}
	}
	return title, authors, date
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".docx":
		return mimeDOCX
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
