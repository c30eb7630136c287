// Package dom provides an HTML document whose elements can be addressed by id
// and filled with fragment markup.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// ErrTargetNotFound is returned when no element carries the requested id.
var ErrTargetNotFound = errors.New("target element not found")

// Document is a parsed HTML document. It is safe for concurrent use.
// A nil *Document has no elements.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses s as an HTML document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HasElement reports whether an element with the given id exists.
func (d *Document) HasElement(id string) bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return findByID(d.root, id) != nil
}

// Inject replaces the children of the element with the given id by the
// parsed fragment. The document is left unchanged when the element is
// missing or the fragment cannot be parsed.
func (d *Document) Inject(id, fragment string) error {
	if d == nil {
		return fmt.Errorf("%w: #%s (nil document)", ErrTargetNotFound, id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	target := findByID(d.root, id)
	if target == nil {
		return fmt.Errorf("%w: #%s", ErrTargetNotFound, id)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), target)
	if err != nil {
		return fmt.Errorf("parse fragment for #%s: %w", id, err)
	}

	for c := target.FirstChild; c != nil; {
		next := c.NextSibling
		target.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		target.AppendChild(n)
	}
	return nil
}

// InnerHTML renders the children of the element with the given id.
func (d *Document) InnerHTML(id string) (string, error) {
	if d == nil {
		return "", fmt.Errorf("%w: #%s (nil document)", ErrTargetNotFound, id)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	target := findByID(d.root, id)
	if target == nil {
		return "", fmt.Errorf("%w: #%s", ErrTargetNotFound, id)
	}

	var b strings.Builder
	for c := target.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render #%s: %w", id, err)
		}
	}
	return b.String(), nil
}

// Render writes the whole document to w.
func (d *Document) Render(w io.Writer) error {
	if d == nil {
		return errors.New("render nil document")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document. Render errors yield an empty string.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// findByID walks the tree depth-first and returns the first element whose id
// attribute equals id.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Namespace == "" && attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}

	return nil
}
