package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

var (
	pdfMagic = []byte("%PDF-")

	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// decode converts a downloaded document into raw text. Only PDFs are
// accepted. arXiv answers some requests with an HTML page (withdrawn notices,
// rate limit pages); those are rejected with the page headline as the reason.
func decode(data []byte, maxPages int) (string, error) {
	switch {
	case bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), pdfMagic):
		return pdfText(data, maxPages)
	case strings.HasPrefix(http.DetectContentType(data), "text/html"):
		if headline := htmlHeadline(data); headline != "" {
			return "", fmt.Errorf("extractor: %w: html page %q", ErrUnsupportedDocument, headline)
		}
		return "", fmt.Errorf("extractor: %w: html page", ErrUnsupportedDocument)
	default:
		return "", fmt.Errorf("extractor: %w: %s", ErrUnsupportedDocument, http.DetectContentType(data))
	}
}

// pdfText extracts the text of the first maxPages pages, skipping blank ones,
// separated by a blank line.
func pdfText(data []byte, maxPages int) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extractor: malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extractor: failed to open pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extractor: failed to read page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, pageText)
	}

	return strings.Join(parts, "\n\n"), nil
}

// htmlHeadline returns the page title, or the first heading when the title
// is missing.
func htmlHeadline(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	headline := strings.TrimSpace(doc.Find("title").First().Text())
	if headline == "" {
		headline = strings.TrimSpace(doc.Find("h1, h2").First().Text())
	}
	headline = strings.Join(strings.Fields(headline), " ")
	if runes := []rune(headline); len(runes) > 120 {
		headline = string(runes[:120])
	}
	return headline
}
