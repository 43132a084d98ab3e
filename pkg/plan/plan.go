// Package plan turns synthesized layout structures into ordered conversion steps.
//
// A plan is a flat list of declarative mutation steps. The [Builder] is the
// only authority assigning step order: each container is fully configured
// (auto layout enabled, then spacing, padding and alignment) before any of
// its children, and groups created from clusters exist before anything
// targets them. Properties that already match the target within tolerance
// are skipped, so planning an already converted tree yields no steps.
//
// Plans are applied by an external [Executor] through [Apply], strictly in
// ascending order. [Simulate] applies a plan to an in-memory copy of a
// snapshot instead, which is how post-conversion checks are run.
package plan

import (
	"fmt"
	"math"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/structure"
)

// StepType is the kind of mutation a step performs.
type StepType string

const (
	StepEnableAutoLayout StepType = "enable_auto_layout"
	StepSetSpacing       StepType = "set_spacing"
	StepSetPadding       StepType = "set_padding"
	StepSetAlignment     StepType = "set_alignment"
	StepSetSizing        StepType = "set_sizing"
	StepCreateGroup      StepType = "create_group"
)

// EnableParams switch a container to a flow layout.
type EnableParams struct {
	Mode geom.LayoutMode `json:"mode"`
	Wrap bool            `json:"wrap,omitempty"`
}

// SpacingParams set the gap between children.
type SpacingParams struct {
	Spacing geom.Spacing `json:"spacing"`
}

// PaddingParams set the container inset.
type PaddingParams struct {
	Padding geom.Padding `json:"padding"`
}

// AlignmentParams set child alignment.
type AlignmentParams struct {
	Alignment geom.Alignment `json:"alignment"`
}

// SizingParams set a child's per-axis sizing policy.
type SizingParams struct {
	Sizing      geom.SizingPair        `json:"sizing"`
	Constraints *structure.Constraints `json:"constraints,omitempty"`
}

// GroupParams wrap existing children of ParentID into a new container.
type GroupParams struct {
	ParentID string           `json:"parent_id"`
	Name     string           `json:"name"`
	Members  []string         `json:"members"`
	Bounds   geom.BoundingBox `json:"bounds"`
}

// Step is one ordered mutation.
//
// Path lists the container ids from the root down to the container whose
// block produced the step; sizing steps of leaves end with the leaf id.
// Executors use it to abort a failed branch.
type Step struct {
	Order       int      `json:"order"`
	Type        StepType `json:"type"`
	TargetID    string   `json:"target_id"`
	Params      any      `json:"params"`
	Description string   `json:"description"`
	Path        []string `json:"path"`
}

// Builder assembles plans.
type Builder struct {
	cfg config.Plan
}

// New returns a builder using cfg.
func New(cfg config.Plan) *Builder {
	return &Builder{cfg: cfg}
}

type assembler struct {
	cfg   config.Plan
	steps []Step
	diags diag.List
}

// Build returns the steps converting the tree described by st. Sizing
// recommendations are read from each node's Sizing field, so st is expected
// to be annotated by the sizing classifier first.
func (b *Builder) Build(st *structure.Structure) ([]Step, diag.List) {
	bb := &assembler{cfg: b.cfg, steps: []Step{}}
	bb.block(st, nil, nil)
	return bb.steps, bb.diags
}

func (b *assembler) emit(path []string, t StepType, target string, params any, desc string) {
	b.steps = append(b.steps, Step{
		Order:       len(b.steps) + 1,
		Type:        t,
		TargetID:    target,
		Params:      params,
		Description: desc,
		Path:        path,
	})
}

// DefaultLayout is the state of a container right after auto layout is
// enabled on it.
func DefaultLayout(mode geom.LayoutMode, wrap bool) geom.AutoLayout {
	return geom.AutoLayout{
		Mode:      mode,
		Wrap:      wrap,
		Alignment: geom.Alignment{Horizontal: geom.AlignMin, Vertical: geom.AlignMin},
	}
}

func (b *assembler) block(st *structure.Structure, self *structure.Node, parent []string) {
	path := append(append([]string(nil), parent...), st.RootID)
	name := label(st.Name, st.RootID)

	for _, n := range st.Children {
		if !n.Synthetic {
			continue
		}
		b.emit(path, StepCreateGroup, n.ElementID, GroupParams{
			ParentID: st.RootID,
			Name:     n.Name,
			Members:  n.Members,
			Bounds:   n.Bounds,
		}, fmt.Sprintf("Group %d elements of %s into %s", len(n.Members), name, n.Name))
	}

	if st.LayoutType.Flow() {
		b.structural(st, path, name)
	} else if len(st.Children) > 0 {
		b.diags.Note(diag.StagePlan, st.RootID, "%s layout; no structural steps planned", st.LayoutType)
	}

	if self != nil {
		b.sizing(path, *self)
	}
	for _, n := range st.Children {
		if n.Structure == nil {
			b.sizing(append(path[:len(path):len(path)], n.ElementID), n)
		}
	}
	for i := range st.Children {
		n := &st.Children[i]
		if n.Structure != nil {
			b.block(n.Structure, n, path)
		}
	}
}

func (b *assembler) structural(st *structure.Structure, path []string, name string) {
	target := st.Target()
	var base geom.AutoLayout
	switch {
	case st.Current == nil || st.Current.Mode == geom.ModeNone:
		base = DefaultLayout(target.Mode, target.Wrap)
		b.emit(path, StepEnableAutoLayout, st.RootID, EnableParams{Mode: target.Mode, Wrap: target.Wrap},
			fmt.Sprintf("Enable %s auto layout on %s", describeMode(target), name))
	case st.Current.Mode != target.Mode || st.Current.Wrap != target.Wrap:
		base = *st.Current
		b.emit(path, StepEnableAutoLayout, st.RootID, EnableParams{Mode: target.Mode, Wrap: target.Wrap},
			fmt.Sprintf("Switch %s to %s auto layout", name, describeMode(target)))
	default:
		base = *st.Current
	}

	tol := b.cfg.Tolerance
	if differs(tol, base.Spacing.Horizontal, target.Spacing.Horizontal) || differs(tol, base.Spacing.Vertical, target.Spacing.Vertical) {
		b.emit(path, StepSetSpacing, st.RootID, SpacingParams{Spacing: target.Spacing},
			fmt.Sprintf("Set spacing of %s to %s", name, describeSpacing(st, target.Spacing)))
	}
	bp, tp := base.Padding, target.Padding
	if differs(tol, bp.Top, tp.Top) || differs(tol, bp.Right, tp.Right) || differs(tol, bp.Bottom, tp.Bottom) || differs(tol, bp.Left, tp.Left) {
		b.emit(path, StepSetPadding, st.RootID, PaddingParams{Padding: tp},
			fmt.Sprintf("Set padding of %s to %g %g %g %g", name, tp.Top, tp.Right, tp.Bottom, tp.Left))
	}
	if base.Alignment != target.Alignment {
		b.emit(path, StepSetAlignment, st.RootID, AlignmentParams{Alignment: target.Alignment},
			fmt.Sprintf("Align children of %s %s horizontally and %s vertically", name, target.Alignment.Horizontal, target.Alignment.Vertical))
	}
}

func (b *assembler) sizing(path []string, n structure.Node) {
	if n.Sizing.Horizontal == "" || n.Sizing.Vertical == "" {
		return
	}
	if n.CurrentSizing != nil && *n.CurrentSizing == n.Sizing {
		return
	}
	b.emit(path, StepSetSizing, n.ElementID, SizingParams{Sizing: n.Sizing, Constraints: n.Constraints},
		fmt.Sprintf("Size %s %s horizontally and %s vertically", label(n.Name, n.ElementID), n.Sizing.Horizontal, n.Sizing.Vertical))
}

func differs(tol, a, b float64) bool {
	return math.Abs(a-b) > tol
}

func label(name, id string) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return id
}

func describeMode(l geom.AutoLayout) string {
	if l.Wrap {
		return "wrapping " + string(l.Mode)
	}
	return string(l.Mode)
}

func describeSpacing(st *structure.Structure, s geom.Spacing) string {
	switch st.LayoutType {
	case structure.LayoutGrid:
		return fmt.Sprintf("%gpx x %gpx", s.Horizontal, s.Vertical)
	case structure.LayoutHorizontal:
		return fmt.Sprintf("%gpx", s.Horizontal)
	default:
		return fmt.Sprintf("%gpx", s.Vertical)
	}
}
