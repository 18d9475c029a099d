// Package textsrc loads the text of a document to be scanned.
package textsrc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauseflag/internal/apperr"
	"golang.org/x/net/html"
)

// Source turns raw file content into document text.
type Source interface {
	Name() string
	Text(content []byte) (string, error)
}

// For picks a source by file extension.
func For(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".txt", ".text":
		return Plain{}, nil
	case ".html", ".htm":
		return HTML{}, nil
	default:
		return nil, apperr.New(apperr.CodeUnsupported,
			fmt.Sprintf("unsupported document type %q", filepath.Ext(path))).WithPath(path)
	}
}

// Load reads path and returns its document text.
func Load(path string) (string, error) {
	src, err := For(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", apperr.NotFound(path, err)
	}
	if info.IsDir() {
		return "", apperr.InvalidFormat(path, fmt.Errorf("is a directory"))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.NotFound(path, err)
	}
	text, err := src.Text(content)
	if err != nil {
		return "", apperr.InvalidFormat(path, err)
	}
	return text, nil
}

// Plain trims every line and drops blank ones.
type Plain struct{}

func (Plain) Name() string { return "text" }

func (Plain) Text(content []byte) (string, error) {
	return cleanLines(strings.Split(string(content), "\n")), nil
}

// HTML keeps visible text only, one block element per line.
type HTML struct{}

func (HTML) Name() string { return "html" }

func (HTML) Text(content []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return cleanLines(strings.Split(visibleText(doc), "\n")), nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
	"td": true, "th": true, "dd": true, "dt": true, "title": true,
}

// visibleText collects text nodes, skipping scripts and styles.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return buf.String()
}

func cleanLines(lines []string) string {
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
