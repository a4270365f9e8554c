package framing

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits how much of a document is inspected
const MaxHTMLSize = 2 * 1024 * 1024

// DetectCharset detects the charset of an HTML document
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func utf8(data []byte) []byte {
	if len(data) > MaxHTMLSize {
		data = data[:MaxHTMLSize]
	}
	r, err := charset.NewReader(bytes.NewReader(data), DetectCharset(data))
	if err != nil {
		return data
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return data
	}
	return buf.Bytes()
}

// loadDocument parses data for CSS queries
func loadDocument(data []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(data))
}

// loadNode parses data for XPath queries
func loadNode(data []byte) (*html.Node, error) {
	return htmlquery.Parse(bytes.NewReader(data))
}
