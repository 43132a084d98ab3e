package geom

import "strings"

// ElementType is the semantic category of an element.
type ElementType string

// Semantic element categories.
const (
	TypeText        ElementType = "text"
	TypeShape       ElementType = "shape"
	TypeVector      ElementType = "vector" // icon-like vector artwork
	TypeContainer   ElementType = "container"
	TypeDecorative  ElementType = "decorative"
	TypeInteractive ElementType = "interactive"
)

// ElementTypes lists every category in declaration order.
var ElementTypes = []ElementType{
	TypeText, TypeShape, TypeVector, TypeContainer, TypeDecorative, TypeInteractive,
}

// Valid reports whether t is one of the known categories.
func (t ElementType) Valid() bool {
	for _, k := range ElementTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseElementType resolves a category name case-insensitively.
func ParseElementType(s string) (ElementType, bool) {
	t := ElementType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Element is an immutable snapshot of one positioned visual element.
//
// X, Y, Width and Height are expressed in a single absolute coordinate space
// shared by the whole tree. Children are owned by their parent; Source is an
// opaque handle back to the host document and is never interpreted.
type Element struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Type     ElementType `json:"type"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Layout   *AutoLayout `json:"layout,omitempty"`
	Sizing   *SizingPair `json:"sizing,omitempty"`
	Children []Element   `json:"children,omitempty"`
	Source   any         `json:"-"`
}

// HasChildren reports whether the element owns any children.
func (e Element) HasChildren() bool { return len(e.Children) > 0 }

// IsContainer reports whether the element can hold a layout of its own.
func (e Element) IsContainer() bool { return e.Type == TypeContainer || e.HasChildren() }

// HasAutoLayout reports whether the element currently uses a flow layout.
func (e Element) HasAutoLayout() bool {
	return e.Layout != nil && e.Layout.Mode != ModeNone
}

// Walk visits e and all descendants depth-first, parents before children.
// Returning false from fn prunes the subtree below that element.
func (e Element) Walk(fn func(el Element, parent *Element) bool) {
	walk(e, nil, fn)
}

func walk(e Element, parent *Element, fn func(Element, *Element) bool) {
	if !fn(e, parent) {
		return
	}
	for _, c := range e.Children {
		walk(c, &e, fn)
	}
}

// Find returns the element with the given id from the tree rooted at e.
func (e Element) Find(id string) (Element, bool) {
	var (
		found Element
		ok    bool
	)
	e.Walk(func(el Element, _ *Element) bool {
		if ok {
			return false
		}
		if el.ID == id {
			found, ok = el, true
			return false
		}
		return true
	})
	return found, ok
}

// Clone returns a deep copy of the element tree. Source handles are shared.
func (e Element) Clone() Element {
	c := e
	if e.Layout != nil {
		l := *e.Layout
		c.Layout = &l
	}
	if e.Sizing != nil {
		s := *e.Sizing
		c.Sizing = &s
	}
	if e.Children != nil {
		c.Children = make([]Element, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}
