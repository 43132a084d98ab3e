// Package relate detects pairwise spatial relationships between sibling elements.
//
// For every element of a sibling set the [Analyzer] computes one
// [Relationship]: alignments with other elements (shared edges or centers
// within a tolerance window, each with a confidence), adjacency per direction
// (nearest neighbours with their gap) and containment (bounding-box
// subsumption, with the tightest enclosing element as parent).
//
// Analysis is a pure function of the input snapshot. All orderings are
// explicit so results are reproducible:
//
//	a := relate.New(config.Default().Relate)
//	rels, err := a.Analyze(children)
//	if err != nil {
//	    return err // invalid geometry fails fast
//	}
//	for _, r := range rels {
//	    fmt.Println(r.ElementID, len(r.Horizontal), r.Adjacency.Right)
//	}
package relate

import (
	"math"
	"sort"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
)

// Kind is the reference line an alignment was measured on.
type Kind string

const (
	KindLeft    Kind = "left"
	KindRight   Kind = "right"
	KindCenterX Kind = "center-x"
	KindTop     Kind = "top"
	KindBottom  Kind = "bottom"
	KindCenterY Kind = "center-y"
)

// Kinds lists all alignment kinds in canonical order.
var Kinds = []Kind{KindLeft, KindRight, KindCenterX, KindTop, KindBottom, KindCenterY}

// Axis returns the axis whose coordinate the kind compares.
func (k Kind) Axis() geom.Axis {
	switch k {
	case KindLeft, KindRight, KindCenterX:
		return geom.AxisHorizontal
	default:
		return geom.AxisVertical
	}
}

// Align returns the reference line of the kind as an alignment position.
func (k Kind) Align() geom.Align {
	switch k {
	case KindLeft, KindTop:
		return geom.AlignMin
	case KindCenterX, KindCenterY:
		return geom.AlignCenter
	default:
		return geom.AlignMax
	}
}

func (k Kind) rank() int {
	for i, kk := range Kinds {
		if kk == k {
			return i
		}
	}
	return len(Kinds)
}

func (k Kind) coord(b geom.BoundingBox) float64 {
	switch k {
	case KindLeft:
		return b.MinX
	case KindRight:
		return b.MaxX
	case KindCenterX:
		return b.CenterX
	case KindTop:
		return b.MinY
	case KindBottom:
		return b.MaxY
	default:
		return b.CenterY
	}
}

// Alignment is a directed alignment from the owning element to TargetID.
type Alignment struct {
	TargetID   string  `json:"target_id"`
	Kind       Kind    `json:"kind"`
	Deviation  float64 `json:"deviation"`
	Confidence float64 `json:"confidence"`
}

// Neighbor is an adjacent element and the edge-to-edge gap to it.
type Neighbor struct {
	ID  string  `json:"id"`
	Gap float64 `json:"gap"`
}

// Adjacency lists neighbours per direction, nearest first.
type Adjacency struct {
	Left   []Neighbor `json:"left"`
	Right  []Neighbor `json:"right"`
	Top    []Neighbor `json:"top"`
	Bottom []Neighbor `json:"bottom"`
}

// Empty reports whether no direction has a neighbour.
func (a Adjacency) Empty() bool {
	return len(a.Left) == 0 && len(a.Right) == 0 && len(a.Top) == 0 && len(a.Bottom) == 0
}

// Containment describes bounding-box subsumption around one element.
// ParentID is a lookup key into the same sibling set, never an owning reference.
type Containment struct {
	IsContainer bool     `json:"is_container"`
	Contains    []string `json:"contains,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
}

// Relationship aggregates everything known about one element's position
// relative to its siblings.
type Relationship struct {
	ElementID   string      `json:"element_id"`
	Horizontal  []Alignment `json:"horizontal"`
	Vertical    []Alignment `json:"vertical"`
	Adjacency   Adjacency   `json:"adjacency"`
	Containment Containment `json:"containment"`
}

// Set is the result of one analysis, in input order.
type Set []Relationship

// Lookup returns the relationship of element id.
func (s Set) Lookup(id string) (Relationship, bool) {
	for _, r := range s {
		if r.ElementID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

// Confidence returns the alignment confidence for a deviation within window.
// It is 1 at zero deviation and decays linearly to 0 at the window edge.
func Confidence(deviation, window float64) float64 {
	if deviation == 0 {
		return 1
	}
	if window <= 0 {
		return 0
	}
	return math.Max(0, 1-deviation/window)
}

// Analyzer computes relationships for sibling sets.
type Analyzer struct {
	cfg config.Relate
}

// New returns an analyzer using cfg.
func New(cfg config.Relate) *Analyzer {
	return &Analyzer{cfg: cfg}
}

type item struct {
	el  geom.Element
	box geom.BoundingBox
}

// Analyze returns one relationship per element, in input order.
//
// Sets with fewer than two elements yield empty relationships. Elements with
// invalid geometry or duplicate ids fail the whole call.
func (a *Analyzer) Analyze(elements []geom.Element) (Set, error) {
	items := make([]item, len(elements))
	seen := make(map[string]bool, len(elements))
	for i, el := range elements {
		if err := errors.ValidateElementID(el.ID); err != nil {
			return nil, err
		}
		if seen[el.ID] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate element id %q", el.ID)
		}
		seen[el.ID] = true
		box, err := geom.BoundsOf(el)
		if err != nil {
			return nil, err
		}
		items[i] = item{el: el, box: box}
	}

	out := make(Set, len(items))
	for i, it := range items {
		out[i] = Relationship{ElementID: it.el.ID}
	}
	if len(items) < 2 {
		return out, nil
	}

	a.alignments(items, out)
	adjacency(items, out)
	a.containment(items, out)
	return out, nil
}

func (a *Analyzer) alignments(items []item, out Set) {
	window := a.cfg.Window()
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			for _, k := range Kinds {
				dev := math.Abs(k.coord(items[i].box) - k.coord(items[j].box))
				if dev > window {
					continue
				}
				conf := Confidence(dev, window)
				add(&out[i], Alignment{TargetID: items[j].el.ID, Kind: k, Deviation: dev, Confidence: conf})
				add(&out[j], Alignment{TargetID: items[i].el.ID, Kind: k, Deviation: dev, Confidence: conf})
			}
		}
	}
	for i := range out {
		sortAlignments(out[i].Horizontal)
		sortAlignments(out[i].Vertical)
	}
}

func add(r *Relationship, al Alignment) {
	if al.Kind.Axis() == geom.AxisHorizontal {
		r.Horizontal = append(r.Horizontal, al)
	} else {
		r.Vertical = append(r.Vertical, al)
	}
}

func sortAlignments(als []Alignment) {
	sort.SliceStable(als, func(i, j int) bool {
		if als[i].Deviation != als[j].Deviation {
			return als[i].Deviation < als[j].Deviation
		}
		if als[i].TargetID != als[j].TargetID {
			return als[i].TargetID < als[j].TargetID
		}
		return als[i].Kind.rank() < als[j].Kind.rank()
	})
}

func adjacency(items []item, out Set) {
	for i, a := range items {
		adj := &out[i].Adjacency
		for j, b := range items {
			if i == j {
				continue
			}
			if a.box.Overlap(b.box, geom.AxisVertical) > 0 {
				if gap := b.box.MinX - a.box.MaxX; gap > 0 {
					adj.Right = append(adj.Right, Neighbor{ID: b.el.ID, Gap: gap})
				}
				if gap := a.box.MinX - b.box.MaxX; gap > 0 {
					adj.Left = append(adj.Left, Neighbor{ID: b.el.ID, Gap: gap})
				}
			}
			if a.box.Overlap(b.box, geom.AxisHorizontal) > 0 {
				if gap := b.box.MinY - a.box.MaxY; gap > 0 {
					adj.Bottom = append(adj.Bottom, Neighbor{ID: b.el.ID, Gap: gap})
				}
				if gap := a.box.MinY - b.box.MaxY; gap > 0 {
					adj.Top = append(adj.Top, Neighbor{ID: b.el.ID, Gap: gap})
				}
			}
		}
		for _, ns := range [][]Neighbor{adj.Left, adj.Right, adj.Top, adj.Bottom} {
			sortNeighbors(ns)
		}
	}
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Gap != ns[j].Gap {
			return ns[i].Gap < ns[j].Gap
		}
		return ns[i].ID < ns[j].ID
	})
}

// encloses reports whether outer contains inner. Boxes of equal area only
// contain one another in id order, so containment is never mutual.
func (a *Analyzer) encloses(outer, inner item) bool {
	if !outer.box.Contains(inner.box, a.cfg.ContainmentInset) {
		return false
	}
	oa, ia := outer.box.Area(), inner.box.Area()
	if oa != ia {
		return oa > ia
	}
	return outer.el.ID < inner.el.ID
}

func (a *Analyzer) containment(items []item, out Set) {
	for j, child := range items {
		parent := -1
		for i, cand := range items {
			if i == j || !a.encloses(cand, child) {
				continue
			}
			if parent < 0 {
				parent = i
				continue
			}
			pa, ca := items[parent].box.Area(), cand.box.Area()
			if ca < pa || (ca == pa && cand.el.ID < items[parent].el.ID) {
				parent = i
			}
		}
		if parent >= 0 {
			out[j].Containment.ParentID = items[parent].el.ID
			out[parent].Containment.Contains = append(out[parent].Containment.Contains, child.el.ID)
		}
	}
	for i := range out {
		c := &out[i].Containment
		sort.Strings(c.Contains)
		c.IsContainer = len(c.Contains) > 0
	}
}
