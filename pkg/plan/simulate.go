package plan

import (
	"context"

	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
)

// Simulate applies steps to a deep copy of root and returns the result. The
// input snapshot is never modified. Steps are applied in ascending order and
// the first step that cannot be applied aborts the simulation.
func Simulate(root geom.Element, steps []Step) (geom.Element, error) {
	doc := root.Clone()
	exec := ExecutorFunc(func(_ context.Context, s Step) error {
		return simulate(&doc, s)
	})
	report, err := Apply(context.Background(), steps, exec)
	if err != nil {
		return geom.Element{}, err
	}
	if len(report.Skipped) > 0 {
		return geom.Element{}, errors.New(errors.ErrCodeInternal, "simulation skipped %d steps", len(report.Skipped))
	}
	return doc, nil
}

func simulate(doc *geom.Element, s Step) error {
	if s.Type == StepCreateGroup {
		p, ok := s.Params.(GroupParams)
		if !ok {
			return badParams(s)
		}
		return createGroup(doc, s.TargetID, p)
	}

	target := find(doc, s.TargetID)
	if target == nil {
		return errors.New(errors.ErrCodeNotFound, "element %s not found", s.TargetID)
	}

	switch p := s.Params.(type) {
	case EnableParams:
		if !target.HasAutoLayout() {
			l := DefaultLayout(p.Mode, p.Wrap)
			target.Layout = &l
		}
		target.Layout.Mode, target.Layout.Wrap = p.Mode, p.Wrap
	case SpacingParams:
		if !target.HasAutoLayout() {
			return noLayout(s)
		}
		target.Layout.Spacing = p.Spacing
	case PaddingParams:
		if !target.HasAutoLayout() {
			return noLayout(s)
		}
		target.Layout.Padding = p.Padding
	case AlignmentParams:
		if !target.HasAutoLayout() {
			return noLayout(s)
		}
		target.Layout.Alignment = p.Alignment
	case SizingParams:
		sz := p.Sizing
		target.Sizing = &sz
	default:
		return badParams(s)
	}
	return nil
}

// createGroup moves the members out of the parent into a new container that
// takes the position of the first member.
func createGroup(doc *geom.Element, id string, p GroupParams) error {
	parent := find(doc, p.ParentID)
	if parent == nil {
		return errors.New(errors.ErrCodeNotFound, "group parent %s not found", p.ParentID)
	}
	if len(p.Members) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "group %s has no members", id)
	}
	if find(doc, id) != nil {
		return errors.New(errors.ErrCodeInvalidInput, "element %s already exists", id)
	}

	want := make(map[string]bool, len(p.Members))
	for _, m := range p.Members {
		want[m] = true
	}
	group := geom.Element{
		ID:     id,
		Name:   p.Name,
		Type:   geom.TypeContainer,
		X:      p.Bounds.MinX,
		Y:      p.Bounds.MinY,
		Width:  p.Bounds.Width,
		Height: p.Bounds.Height,
	}
	kept := make([]geom.Element, 0, len(parent.Children))
	at := -1
	for _, c := range parent.Children {
		if !want[c.ID] {
			kept = append(kept, c)
			continue
		}
		if at < 0 {
			at = len(kept)
		}
		group.Children = append(group.Children, c)
	}
	if len(group.Children) != len(p.Members) {
		return errors.New(errors.ErrCodeNotFound, "group %s: %d of %d members found in %s",
			id, len(group.Children), len(p.Members), p.ParentID)
	}

	children := make([]geom.Element, 0, len(kept)+1)
	children = append(children, kept[:at]...)
	children = append(children, group)
	children = append(children, kept[at:]...)
	parent.Children = children
	return nil
}

// find returns a pointer to the element with the given id inside doc.
// The pointer is invalidated by any change to the containing Children slice.
func find(doc *geom.Element, id string) *geom.Element {
	if doc.ID == id {
		return doc
	}
	for i := range doc.Children {
		if el := find(&doc.Children[i], id); el != nil {
			return el
		}
	}
	return nil
}

func noLayout(s Step) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s on %s before enable_auto_layout", s.Type, s.TargetID)
}

func badParams(s Step) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s step has %T params", s.Type, s.Params)
}
