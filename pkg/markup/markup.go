// Package markup is the XML tree collaborator of the container engine.
// It exposes just what the rebuilder needs (element name, attribute lookup,
// ordered child elements, text content) on top of xmlquery.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

const (
	// TagPrefix qualifies element names that XML would otherwise reject
	TagPrefix = "t"
	// TagNamespace is the namespace bound to TagPrefix on the root element
	TagNamespace = "urn:chim:tag"
)

var (
	// ErrSyntax indicates a document that is not well-formed XML
	ErrSyntax = errors.New("markup: malformed document")
	// ErrNoRoot indicates a document without a root element
	ErrNoRoot = errors.New("markup: document has no root element")
)

var rootExpr = xpath.MustCompile("/*")

// Element is a parsed XML element
type Element struct {
	node *xmlquery.Node
}

// Parse parses an XML document and returns its root element
func Parse(data []byte) (*Element, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	root := xmlquery.QuerySelector(doc, rootExpr)
	if root == nil {
		return nil, ErrNoRoot
	}
	return &Element{node: root}, nil
}

// Name returns the local element name, without any namespace prefix
func (e *Element) Name() string {
	return e.node.Data
}

// Attr looks up an unqualified attribute by name
func (e *Element) Attr(name string) (string, bool) {
	for _, attr := range e.node.Attr {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Children returns the child elements in document order
func (e *Element) Children() []*Element {
	var children []*Element
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Element{node: child})
		}
	}
	return children
}

// Text returns the concatenated text and CDATA content of the element
func (e *Element) Text() string {
	var sb strings.Builder
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}

// QualifiedName returns name unchanged when it can start an XML element
// name, and prefixed with TagPrefix otherwise (hex tags such as "01020304").
func QualifiedName(name string) string {
	if name == "" || isNameStart(name[0]) {
		return name
	}
	return TagPrefix + ":" + name
}

// RootStart returns the opening tag of a root element that binds TagPrefix
func RootStart(name string) string {
	return fmt.Sprintf("<%s xmlns:%s=%q>", name, TagPrefix, TagNamespace)
}

func isNameStart(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || c == '_'
}
