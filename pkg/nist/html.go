package nist

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Anchor titles on the WebBook compound page that label the values we want.
const (
	formulaTitle = "IUPAC definition of empirical formula"
	weightTitle  = "IUPAC definition of relative molecular mass (molecular weight)"
)

type document struct {
	root *html.Node
}

func parseDocument(body []byte) (*document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &document{root: root}, nil
}

// anchors calls fn for each <a> element in document order until fn returns false.
func (d *document) anchors(fn func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if !fn(n) {
				return false
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if !walk(child) {
				return false
			}
		}
		return true
	}
	walk(d.root)
}

func (d *document) findHref(marker string) (string, bool) {
	var found string
	d.anchors(func(n *html.Node) bool {
		if href, ok := attr(n, "href"); ok && strings.Contains(href, marker) {
			found = href
			return false
		}
		return true
	})
	return found, found != ""
}

// labelledValue finds the anchor with the given title and returns the text that follows
// its parent element, e.g. <strong><a title=...>Formula</a>:</strong> CH<sub>4</sub>O.
func labelledValue(d *document, title string) (string, bool) {
	var label *html.Node
	d.anchors(func(n *html.Node) bool {
		if t, ok := attr(n, "title"); ok && t == title {
			label = n
			return false
		}
		return true
	})
	if label == nil || label.Parent == nil {
		return "", false
	}

	var b strings.Builder
	for sib := label.Parent.NextSibling; sib != nil; sib = sib.NextSibling {
		b.WriteString(text(sib))
	}
	return strings.TrimSpace(b.String()), true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(text(child))
	}
	return b.String()
}

// parseWeight reads the leading number of a value such as "32.0419" or "32.0419 g/mol".
func parseWeight(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty molecular weight")
	}
	return strconv.ParseFloat(fields[0], 64)
}
