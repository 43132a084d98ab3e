// Package snapshot reads and writes element trees as JSON.
//
// # Format
//
// A snapshot is either a single element object (the root of a subtree) or an
// array of sibling elements (a selection):
//
//	{
//	  "id": "1:2",
//	  "name": "Card",
//	  "type": "FRAME",
//	  "x": 0, "y": 0, "width": 320, "height": 200,
//	  "children": [
//	    {"id": "1:3", "name": "Title", "type": "TEXT", "x": 16, "y": 16, "width": 288, "height": 24}
//	  ]
//	}
//
// Type names are resolved through [config.Vocabulary.Category], so either the
// engine's categories ("text", "container", ...) or raw host type names
// ("FRAME", "RECTANGLE", ...) are accepted. The optional "layout" and
// "sizing" objects describe the current auto-layout state. The optional
// "source" value is kept as an opaque handle and written back unchanged.
//
// A selection is wrapped into a synthetic container with id [SelectionID]
// spanning the union of its members.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
)

// SelectionID is the id of the container synthesized for array snapshots.
const SelectionID = "selection"

type node struct {
	ID       string           `json:"id"`
	Name     string           `json:"name,omitempty"`
	Type     string           `json:"type"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	Layout   *geom.AutoLayout `json:"layout,omitempty"`
	Sizing   *geom.SizingPair `json:"sizing,omitempty"`
	Children []node           `json:"children,omitempty"`
	Source   json.RawMessage  `json:"source,omitempty"`
}

// Read decodes a snapshot from r, mapping type names through vocab.
//
// Read returns INVALID_SNAPSHOT for malformed JSON, unknown type names and
// duplicate ids. Members of a selection may not use [SelectionID]. Geometry
// is not validated here; negative sizes are reported by the analysis stages.
// Read does not close r.
func Read(r io.Reader, vocab config.Vocabulary) (geom.Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return geom.Element{}, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return geom.Element{}, errors.New(errors.ErrCodeEmptyInput, "snapshot is empty")
	}

	d := decoder{vocab: vocab, seen: make(map[string]bool)}
	if data[0] == '[' {
		var sel []node
		if err := json.Unmarshal(data, &sel); err != nil {
			return geom.Element{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode selection")
		}
		return d.selection(sel)
	}
	var root node
	if err := json.Unmarshal(data, &root); err != nil {
		return geom.Element{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode snapshot")
	}
	return d.element(root, "")
}

// Load reads the snapshot file at path.
func Load(path string, vocab config.Vocabulary) (geom.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return geom.Element{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", path)
		}
		return geom.Element{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, vocab)
}

type decoder struct {
	vocab config.Vocabulary
	seen  map[string]bool
}

func (d decoder) selection(nodes []node) (geom.Element, error) {
	root := geom.Element{ID: SelectionID, Name: "Selection", Type: geom.TypeContainer}
	d.seen[SelectionID] = true
	boxes := make([]geom.BoundingBox, 0, len(nodes))
	for _, n := range nodes {
		el, err := d.element(n, SelectionID)
		if err != nil {
			return geom.Element{}, err
		}
		root.Children = append(root.Children, el)
		if b, err := geom.BoundsOf(el); err == nil {
			boxes = append(boxes, b)
		}
	}
	u, err := geom.UnionOf(boxes)
	if err != nil {
		return geom.Element{}, errors.Wrap(errors.ErrCodeEmptyInput, err, "selection has no measurable elements")
	}
	root.X, root.Y, root.Width, root.Height = u.MinX, u.MinY, u.Width, u.Height
	return root, nil
}

func (d decoder) element(n node, parent string) (geom.Element, error) {
	if err := errors.ValidateElementID(n.ID); err != nil {
		return geom.Element{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "element under %q", parent)
	}
	if d.seen[n.ID] {
		return geom.Element{}, errors.New(errors.ErrCodeInvalidSnapshot, "duplicate element id %s", n.ID)
	}
	d.seen[n.ID] = true

	t, ok := d.vocab.Category(n.Type)
	if !ok {
		return geom.Element{}, errors.New(errors.ErrCodeInvalidSnapshot, "element %s: unknown type %q", n.ID, n.Type)
	}
	el := geom.Element{
		ID:     n.ID,
		Name:   n.Name,
		Type:   t,
		X:      n.X,
		Y:      n.Y,
		Width:  n.Width,
		Height: n.Height,
		Layout: n.Layout,
		Sizing: n.Sizing,
	}
	if len(n.Source) > 0 {
		el.Source = n.Source
	}
	for _, c := range n.Children {
		child, err := d.element(c, n.ID)
		if err != nil {
			return geom.Element{}, err
		}
		el.Children = append(el.Children, child)
	}
	return el, nil
}

// Write encodes root as indented JSON. Types are written as engine categories
// and Source handles are written back only when they are raw JSON.
func Write(w io.Writer, root geom.Element) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encode(root)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Save writes root to the file at path.
func Save(path string, root geom.Element) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, root)
}

func encode(el geom.Element) node {
	n := node{
		ID:     el.ID,
		Name:   el.Name,
		Type:   string(el.Type),
		X:      el.X,
		Y:      el.Y,
		Width:  el.Width,
		Height: el.Height,
		Layout: el.Layout,
		Sizing: el.Sizing,
	}
	if raw, ok := el.Source.(json.RawMessage); ok {
		n.Source = raw
	}
	for _, c := range el.Children {
		n.Children = append(n.Children, encode(c))
	}
	return n
}
