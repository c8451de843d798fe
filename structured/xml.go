// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package structured

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// abxMagic starts Android binary XML files, e.g. packages.xml on Android 12+.
var abxMagic = []byte("ABX\x00")

// Attr is an XML attribute.
type Attr struct {
	Space string `json:"space,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Node is an XML element.
type Node struct {
	Space    string  `json:"space,omitempty"`
	Tag      string  `json:"tag"`
	Attrs    []Attr  `json:"attrs,omitempty"`
	Text     string  `json:"text,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Attr returns the value of the attribute key. The key may contain a
// namespace prefix like "android:name".
func (n *Node) Attr(key string) (string, bool) {
	space, key := splitSpace(key)
	for _, a := range n.Attrs {
		if a.Key == key && (space == "" || a.Space == space) {
			return a.Value, true
		}
	}
	return "", false
}

// FullTag returns the tag including its namespace prefix.
func (n *Node) FullTag() string {
	if n.Space == "" {
		return n.Tag
	}
	return n.Space + ":" + n.Tag
}

// Child returns the first child element with the given tag.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.FullTag() == tag {
			return c
		}
	}
	return nil
}

// Walk calls fn for n and all descendants in document order until fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

func splitSpace(key string) (string, string) {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

// Document is a parsed XML document.
type Document struct {
	Root  *Node
	doc   *etree.Document
	nodes map[*etree.Element]*Node
}

// ParseXML parses a well-formed XML document.
func ParseXML(data []byte) (*Document, error) {
	if bytes.HasPrefix(data, abxMagic) {
		return nil, errdefs.New(errdefs.ErrParse, "parse xml", "", errors.New("android binary xml (ABX) is not supported"))
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrParse, "parse xml", "", err)
	}
	switch n := len(doc.ChildElements()); {
	case n == 0:
		return nil, errdefs.New(errdefs.ErrParse, "parse xml", "", errors.New("no root element"))
	case n > 1:
		return nil, errdefs.New(errdefs.ErrParse, "parse xml", "", errors.Errorf("%d root elements", n))
	}
	for _, token := range doc.Child {
		if cd, ok := token.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return nil, errdefs.New(errdefs.ErrParse, "parse xml", "", errors.New("text outside of root element"))
		}
	}
	root := doc.Root()

	d := &Document{doc: doc, nodes: map[*etree.Element]*Node{}}
	d.Root = d.convert(root)
	return d, nil
}

func (d *Document) convert(e *etree.Element) *Node {
	n := &Node{Space: e.Space, Tag: e.Tag, Text: strings.TrimSpace(e.Text())}
	for _, a := range e.Attr {
		n.Attrs = append(n.Attrs, Attr{Space: a.Space, Key: a.Key, Value: a.Value})
	}
	for _, c := range e.ChildElements() {
		n.Children = append(n.Children, d.convert(c))
	}
	d.nodes[e] = n
	return n
}

// Find returns all nodes matching an etree path expression such as
// "./package[@name='com.whatsapp']" or "//perms/item".
func (d *Document) Find(path string) ([]*Node, error) {
	p, err := etree.CompilePath(path)
	if err != nil {
		return nil, errors.Wrap(err, "compile path")
	}
	var found []*Node
	for _, e := range d.doc.FindElementsPath(p) {
		if n, ok := d.nodes[e]; ok {
			found = append(found, n)
		}
	}
	return found, nil
}
