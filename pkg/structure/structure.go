// Package structure synthesizes target auto-layout structures from
// absolutely positioned element trees.
//
// Given a container, the [Synthesizer] decides the dominant flow axis of its
// children, extracts spacing and padding from measured gaps, infers the
// cross-axis alignment from sibling alignment confidences and assigns every
// child a layout role. Children that are containers themselves are
// synthesized recursively; each [Structure] exclusively owns its nested
// nodes.
//
// The result describes the target layout, not the current one. The current
// auto-layout state of each container is carried along in [Structure.Current]
// so that a plan can skip properties that already match.
package structure

import (
	"github.com/matzehuels/autoflex/pkg/geom"
)

// LayoutType is the inferred arrangement of a container's children.
type LayoutType string

const (
	LayoutHorizontal LayoutType = "horizontal"
	LayoutVertical   LayoutType = "vertical"
	LayoutGrid       LayoutType = "grid"
	LayoutAbsolute   LayoutType = "absolute"
	LayoutMixed      LayoutType = "mixed"
)

// Flow reports whether the layout maps onto an auto-layout flow.
func (t LayoutType) Flow() bool {
	return t == LayoutHorizontal || t == LayoutVertical || t == LayoutGrid
}

// NodeType distinguishes leaves from nested containers.
type NodeType string

const (
	NodeLeaf      NodeType = "leaf"
	NodeContainer NodeType = "container"
)

// Role is the layout role of a node within its container.
type Role string

const (
	RolePrimary    Role = "primary"
	RoleSecondary  Role = "secondary"
	RoleDecorative Role = "decorative"
)

// Constraints bound a node's size. Zero means unconstrained.
type Constraints struct {
	MinWidth  float64 `json:"min_width,omitempty"`
	MinHeight float64 `json:"min_height,omitempty"`
	MaxWidth  float64 `json:"max_width,omitempty"`
	MaxHeight float64 `json:"max_height,omitempty"`
}

// Node is one child of a synthesized structure.
type Node struct {
	ElementID string           `json:"element_id"`
	Name      string           `json:"name,omitempty"`
	Type      geom.ElementType `json:"type"`
	NodeType  NodeType         `json:"node_type"`
	Role      Role             `json:"role"`
	Bounds    geom.BoundingBox `json:"bounds"`

	// Sizing is the recommended policy, filled in by the sizing classifier.
	Sizing geom.SizingPair `json:"sizing"`
	// CurrentSizing is the policy the element has today, if any.
	CurrentSizing *geom.SizingPair `json:"current_sizing,omitempty"`
	Constraints   *Constraints     `json:"constraints,omitempty"`

	// Structure is the nested layout of container nodes.
	Structure *Structure `json:"structure,omitempty"`
	// Synthetic marks groups created from clusters; Members lists the
	// wrapped element ids.
	Synthetic bool     `json:"synthetic,omitempty"`
	Members   []string `json:"members,omitempty"`
}

// Stats are the raw gap measurements behind a spacing value.
type Stats struct {
	Samples []float64 `json:"samples,omitempty"`
	Average float64   `json:"average"`
	Mode    float64   `json:"mode"`
}

// SpacingStats hold gap statistics per axis.
type SpacingStats struct {
	Horizontal Stats `json:"horizontal"`
	Vertical   Stats `json:"vertical"`
}

// Structure is the target layout of one container.
type Structure struct {
	RootID     string           `json:"root_id"`
	Name       string           `json:"name,omitempty"`
	LayoutType LayoutType       `json:"layout_type"`
	FlowAxis   geom.Axis        `json:"flow_axis,omitempty"`
	Bounds     geom.BoundingBox `json:"bounds"`
	Children   []Node           `json:"children"`
	Spacing    geom.Spacing     `json:"spacing"`
	Padding    geom.Padding     `json:"padding"`
	Alignment  geom.Alignment   `json:"alignment"`
	Stats      SpacingStats     `json:"stats"`
	Rows       int              `json:"rows,omitempty"`
	Columns    int              `json:"columns,omitempty"`

	// Current is the container's auto layout today; nil when absolute.
	Current *geom.AutoLayout `json:"current,omitempty"`
}

// Target returns the auto layout the structure asks for.
func (s *Structure) Target() geom.AutoLayout {
	mode := geom.ModeNone
	switch s.LayoutType {
	case LayoutHorizontal, LayoutGrid:
		mode = geom.ModeHorizontal
	case LayoutVertical:
		mode = geom.ModeVertical
	}
	return geom.AutoLayout{
		Mode:      mode,
		Wrap:      s.LayoutType == LayoutGrid,
		Spacing:   s.Spacing,
		Padding:   s.Padding,
		Alignment: s.Alignment,
	}
}

// Walk visits s and every nested structure depth-first, parents first.
// The parent node is nil for s itself.
func (s *Structure) Walk(fn func(st *Structure, parent *Node) error) error {
	return walk(s, nil, fn)
}

func walk(s *Structure, parent *Node, fn func(*Structure, *Node) error) error {
	if err := fn(s, parent); err != nil {
		return err
	}
	for i := range s.Children {
		n := &s.Children[i]
		if n.Structure == nil {
			continue
		}
		if err := walk(n.Structure, n, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the tree, excluding the root.
func (s *Structure) Count() int {
	n := 0
	_ = s.Walk(func(st *Structure, _ *Node) error {
		n += len(st.Children)
		return nil
	})
	return n
}
