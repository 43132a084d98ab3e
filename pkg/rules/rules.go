// Package rules validates element trees against a fixed table of design rules.
//
// The checker is advisory: it walks a snapshot and reports violations with
// remediation suggestions, and never modifies anything. Running it before
// and after a conversion (see [Compare]) shows which problems a plan fixed.
package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/geom"
)

// Severity ranks violations.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ID names a rule.
type ID string

const (
	RuleInvalidGeometry     ID = "invalid-geometry"
	RuleEmptyContainer      ID = "empty-container"
	RuleMissingAutoLayout   ID = "missing-auto-layout"
	RuleInconsistentSpacing ID = "inconsistent-spacing"
	RuleAbsoluteNesting     ID = "absolute-nesting"
	RuleChildOverflow       ID = "child-overflow"
	RuleOverlappingChildren ID = "overlapping-children"
)

// Violation is one rule failure on one node.
//
// Subject is the id of the other element involved, if any (the parent an
// element overflows, the sibling it overlaps).
type Violation struct {
	NodeID      string   `json:"node_id"`
	NodeName    string   `json:"node_name,omitempty"`
	RuleID      ID       `json:"rule_id"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Subject     string   `json:"subject,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Rule is one entry of the rule table.
type Rule struct {
	ID          ID
	Severity    Severity
	Description string

	check func(c *Checker, n node) []Violation
}

// node is an element visited during a check, with its parent when it has one.
type node struct {
	el     geom.Element
	box    geom.BoundingBox
	parent *geom.Element
}

var table = []Rule{
	{RuleInvalidGeometry, SeverityError, "element has negative or non-finite size", nil},
	{RuleEmptyContainer, SeverityInfo, "container has no children", checkEmpty},
	{RuleMissingAutoLayout, SeverityWarning, "container with several children has no auto layout", checkMissingLayout},
	{RuleInconsistentSpacing, SeverityWarning, "manually spaced row or column has uneven gaps", checkSpacing},
	{RuleAbsoluteNesting, SeverityWarning, "absolutely positioned container inside an auto layout", checkNesting},
	{RuleChildOverflow, SeverityWarning, "child extends beyond its parent", checkOverflow},
	{RuleOverlappingChildren, SeverityWarning, "sibling overlaps another sibling", checkOverlap},
}

// Rules returns the rule table in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), table...)
}

// Checker evaluates the rule table.
type Checker struct {
	cfg config.Rules
}

// New returns a checker using cfg.
func New(cfg config.Rules) *Checker {
	return &Checker{cfg: cfg}
}

// Check walks root depth-first and returns every violation, parents before
// children and rules in table order within a node. An element with invalid
// geometry only reports invalid-geometry; its subtree is still checked.
func (c *Checker) Check(root geom.Element) []Violation {
	out := []Violation{}
	root.Walk(func(el geom.Element, parent *geom.Element) bool {
		box, err := geom.BoundsOf(el)
		if err != nil {
			out = append(out, Violation{
				NodeID:      el.ID,
				NodeName:    el.Name,
				RuleID:      RuleInvalidGeometry,
				Severity:    SeverityError,
				Message:     err.Error(),
				Suggestions: []string{"Set a non-negative width and height"},
			})
			return true
		}
		n := node{el: el, box: box, parent: parent}
		for _, r := range table {
			if r.check == nil {
				continue
			}
			for _, v := range r.check(c, n) {
				v.NodeID, v.NodeName = el.ID, el.Name
				v.RuleID, v.Severity = r.ID, r.Severity
				out = append(out, v)
			}
		}
		return true
	})
	return out
}

func checkEmpty(_ *Checker, n node) []Violation {
	if n.el.Type != geom.TypeContainer || n.el.HasChildren() {
		return nil
	}
	return []Violation{{
		Message:     fmt.Sprintf("%s has no children", describe(n.el)),
		Suggestions: []string{"Remove the empty container", "Replace it with a shape if it only draws a background"},
	}}
}

func checkMissingLayout(_ *Checker, n node) []Violation {
	if len(n.el.Children) < 2 || n.el.HasAutoLayout() {
		return nil
	}
	return []Violation{{
		Message: fmt.Sprintf("%s positions %d children absolutely", describe(n.el), len(n.el.Children)),
		Suggestions: []string{
			"Run `autoflex plan` to infer an auto layout",
			"Enable auto layout so children reflow when the container resizes",
		},
	}}
}

// checkSpacing flags absolutely positioned children that form a single row or
// column whose gaps differ by more than the spacing tolerance.
func checkSpacing(c *Checker, n node) []Violation {
	if len(n.el.Children) < 3 || n.el.HasAutoLayout() {
		return nil
	}
	boxes := childBoxes(n.el)
	if len(boxes) < 3 {
		return nil
	}
	for _, axis := range []geom.Axis{geom.AxisHorizontal, geom.AxisVertical} {
		gaps, ok := lineGaps(boxes, axis)
		if !ok {
			continue
		}
		lo, hi := gaps[0], gaps[0]
		for _, g := range gaps[1:] {
			lo, hi = math.Min(lo, g), math.Max(hi, g)
		}
		if hi-lo <= c.cfg.SpacingTolerance {
			return nil
		}
		sorted := append([]float64(nil), gaps...)
		sort.Float64s(sorted)
		median := sorted[(len(sorted)-1)/2]
		return []Violation{{
			Message: fmt.Sprintf("%s gaps along the %s axis range from %gpx to %gpx: %s",
				describe(n.el), axis, round(lo), round(hi), formatGaps(gaps)),
			Suggestions: []string{fmt.Sprintf("Use a uniform %gpx gap", math.Round(median))},
		}}
	}
	return nil
}

// lineGaps returns the gaps between consecutive boxes along axis when all
// boxes share a band on the cross axis and do not overlap along axis.
func lineGaps(boxes []geom.BoundingBox, axis geom.Axis) ([]float64, bool) {
	cross := axis.Cross()
	lo, hi := math.Inf(-1), math.Inf(1)
	for _, b := range boxes {
		lo, hi = math.Max(lo, b.Min(cross)), math.Min(hi, b.Max(cross))
	}
	if hi <= lo {
		return nil, false
	}
	sorted := append([]geom.BoundingBox(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min(axis) < sorted[j].Min(axis) })
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		g := sorted[i].Min(axis) - sorted[i-1].Max(axis)
		if g < 0 {
			return nil, false
		}
		gaps = append(gaps, g)
	}
	return gaps, true
}

func checkNesting(_ *Checker, n node) []Violation {
	if n.parent == nil || !n.parent.HasAutoLayout() {
		return nil
	}
	if !n.el.HasChildren() || n.el.HasAutoLayout() {
		return nil
	}
	return []Violation{{
		Message: fmt.Sprintf("%s is absolutely positioned inside the %s auto layout of %s",
			describe(n.el), n.parent.Layout.Mode, describe(*n.parent)),
		Subject:     n.parent.ID,
		Suggestions: []string{fmt.Sprintf("Enable auto layout on %s so it resizes with its parent", describe(n.el))},
	}}
}

func checkOverflow(c *Checker, n node) []Violation {
	if n.parent == nil {
		return nil
	}
	pbox, err := geom.BoundsOf(*n.parent)
	if err != nil || pbox.Contains(n.box, c.cfg.OverflowTolerance) {
		return nil
	}
	return []Violation{{
		Message: fmt.Sprintf("%s extends %gpx beyond %s", describe(n.el), round(overflow(pbox, n.box)), describe(*n.parent)),
		Subject: n.parent.ID,
		Suggestions: []string{
			fmt.Sprintf("Resize %s to fit its content", describe(*n.parent)),
			fmt.Sprintf("Move %s inside its parent", describe(n.el)),
		},
	}}
}

// checkOverlap reports each overlapping sibling pair once, on the later child.
func checkOverlap(_ *Checker, n node) []Violation {
	if n.parent == nil || n.el.Type == geom.TypeDecorative {
		return nil
	}
	var out []Violation
	for _, sib := range n.parent.Children {
		if sib.ID == n.el.ID {
			break
		}
		if sib.Type == geom.TypeDecorative {
			continue
		}
		sbox, err := geom.BoundsOf(sib)
		if err != nil || !sbox.Intersects(n.box) {
			continue
		}
		out = append(out, Violation{
			Message: fmt.Sprintf("%s overlaps %s", describe(n.el), describe(sib)),
			Subject: sib.ID,
			Suggestions: []string{
				"Separate the elements or group them into their own container",
				"Mark background elements as decorative",
			},
		})
	}
	return out
}

func childBoxes(el geom.Element) []geom.BoundingBox {
	boxes := make([]geom.BoundingBox, 0, len(el.Children))
	for _, c := range el.Children {
		if b, err := geom.BoundsOf(c); err == nil {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

func overflow(outer, inner geom.BoundingBox) float64 {
	return math.Max(math.Max(outer.MinX-inner.MinX, inner.MaxX-outer.MaxX),
		math.Max(outer.MinY-inner.MinY, inner.MaxY-outer.MaxY))
}

func describe(el geom.Element) string {
	if el.Name != "" {
		return fmt.Sprintf("%q", el.Name)
	}
	return el.ID
}

func round(v float64) float64 { return math.Round(v*100) / 100 }

func formatGaps(gaps []float64) string {
	parts := make([]string, len(gaps))
	for i, g := range gaps {
		parts[i] = fmt.Sprintf("%g", round(g))
	}
	return strings.Join(parts, ", ")
}
