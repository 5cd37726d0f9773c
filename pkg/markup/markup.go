// Package markup renders the client markup page, linking the style sheet
// and script bundle of a build into an HTML template.
package markup

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/arthur-debert/isobundle/pkg/errors"
)

// DefaultTemplate is used when the project has no markup template
const DefaultTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>App</title>
</head>
<body>
<div id="root"></div>
</body>
</html>
`

// Inject adds a stylesheet link per style URL at the end of head and a
// script tag per script URL at the end of body. URLs already referenced by
// the template are not added twice.
func Inject(template []byte, styles, scripts []string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(template))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTransform, "cannot parse markup template")
	}

	head := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if head == nil || body == nil {
		return nil, errors.New(errors.ErrTransform, "markup template has no head or body")
	}

	existing := referencedURLs(doc)

	for _, href := range styles {
		if existing[href] {
			continue
		}
		head.AppendChild(element(atom.Link, html.Attribute{Key: "rel", Val: "stylesheet"}, html.Attribute{Key: "href", Val: href}))
		existing[href] = true
	}
	for _, src := range scripts {
		if existing[src] {
			continue
		}
		body.AppendChild(element(atom.Script, html.Attribute{Key: "src", Val: src}))
		existing[src] = true
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot render markup")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     attrs,
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func referencedURLs(doc *html.Node) map[string]bool {
	urls := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Link || n.DataAtom == atom.Script) {
			for _, attr := range n.Attr {
				if attr.Key == "href" || attr.Key == "src" {
					urls[attr.Val] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}
