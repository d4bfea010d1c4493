package metadata

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// document holds the head fields we care about. The first occurrence of
// each key wins.
type document struct {
	title    string
	named    map[string]string
	property map[string]string
}

func parseDocument(r io.Reader) (*document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &document{
		named:    make(map[string]string),
		property: make(map[string]string),
	}
	doc.walk(root)
	return doc, nil
}

func (d *document) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Meta:
			d.addMeta(n)
		case atom.Title:
			if d.title == "" {
				d.title = strings.TrimSpace(textOf(n))
			}
		case atom.Script, atom.Style:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
}

func (d *document) addMeta(n *html.Node) {
	var name, property, content string
	hasContent := false
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "name":
			name = strings.ToLower(strings.TrimSpace(a.Val))
		case "property":
			property = strings.ToLower(strings.TrimSpace(a.Val))
		case "content":
			content = strings.TrimSpace(a.Val)
			hasContent = true
		}
	}
	if !hasContent {
		return
	}
	if name != "" {
		if _, ok := d.named[name]; !ok {
			d.named[name] = content
		}
	}
	if property != "" {
		if _, ok := d.property[property]; !ok {
			d.property[property] = content
		}
	}
}

func (d *document) meta(name string) string {
	return d.named[name]
}

func (d *document) og(field string) string {
	return d.property["og:"+field]
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
