// Package parser extracts readable text from HTML topic bodies.
package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Elements whose children never render as text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Embedded elements that give a body substance without any text.
var mediaElements = map[string]bool{
	"img":     true,
	"picture": true,
	"video":   true,
	"audio":   true,
	"iframe":  true,
	"object":  true,
	"embed":   true,
	"svg":     true,
	"math":    true,
	"canvas":  true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
}

// bodyContext parses fragments the way a browser parses the inside of <body>.
var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// Fragment is the readable outline of an HTML body.
type Fragment struct {
	// Text is the visible text with whitespace collapsed.
	Text string

	// Media counts embedded elements such as images and video.
	Media int
}

// HasBody reports whether the fragment renders anything.
func (f *Fragment) HasBody() bool {
	return f.Text != "" || f.Media > 0
}

// ParseHTML parses an HTML fragment as body content.
func ParseHTML(fragment string) (*Fragment, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	out := &Fragment{}

	var f func(*html.Node)
	f = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteString(" ")
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
			if mediaElements[n.Data] {
				out.Media++
				return
			}
			if blockElements[n.Data] {
				text.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	for _, n := range nodes {
		f(n)
	}

	out.Text = cleanText(text.String())
	return out, nil
}

// cleanText collapses runs of whitespace to one space.
func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
