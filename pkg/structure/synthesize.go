package structure

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autoflex/pkg/cluster"
	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/relate"
)

const epsilon = 1e-9

var alignOrder = []geom.Align{geom.AlignMin, geom.AlignCenter, geom.AlignMax}

// Synthesizer infers target layouts for container trees.
type Synthesizer struct {
	cfg      config.Structure
	relate   *relate.Analyzer
	vocab    config.Vocabulary
	grouper  *cluster.Engine
	minScore float64
}

// New returns a synthesizer. Relationships between siblings are measured
// with rel; roles are recognised with vocab.
func New(cfg config.Structure, rel config.Relate, vocab config.Vocabulary) *Synthesizer {
	return &Synthesizer{
		cfg:    cfg,
		relate: relate.New(rel),
		vocab:  vocab,
	}
}

// WithGrouping returns a copy of s that wraps clusters of children scoring at
// least minScore into synthetic groups. Grouping only applies to containers
// without auto layout that have three or more children.
func (s *Synthesizer) WithGrouping(engine *cluster.Engine, minScore float64) *Synthesizer {
	c := *s
	c.grouper = engine
	c.minScore = minScore
	return &c
}

type child struct {
	el  geom.Element
	box geom.BoundingBox
}

// Synthesize infers the target structure of container and all nested
// containers. Children that cannot be measured are skipped and reported in
// the diagnostics. The error is non-nil only when the container itself is
// invalid or ctx is done; partial results are never returned with an error.
func (s *Synthesizer) Synthesize(ctx context.Context, container geom.Element) (*Structure, diag.List, error) {
	box, err := geom.BoundsOf(container)
	if err != nil {
		return nil, nil, err
	}
	return s.synthesize(ctx, container, box)
}

func (s *Synthesizer) synthesize(ctx context.Context, container geom.Element, cbox geom.BoundingBox) (*Structure, diag.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var diags diag.List
	st := &Structure{
		RootID:   container.ID,
		Name:     container.Name,
		Bounds:   cbox,
		Children: []Node{},
		Alignment: geom.Alignment{
			Horizontal: geom.AlignMin,
			Vertical:   geom.AlignMin,
		},
	}
	if container.Layout != nil {
		l := *container.Layout
		st.Current = &l
	}

	kids := valid(container, &diags)
	var synthetic map[string][]string
	if s.grouper != nil && !container.HasAutoLayout() && len(kids) >= 3 {
		kids, synthetic = s.group(kids, &diags)
	}
	if len(kids) == 0 {
		st.LayoutType = LayoutAbsolute
		return st, diags, nil
	}

	rels, err := s.relate.Analyze(elements(kids))
	if err != nil {
		diags.Skip(diag.StageStructure, container.ID, err)
	}

	s.arrange(st, kids)
	st.Padding = padding(cbox, kids)
	st.Alignment = s.alignment(st, kids, rels)
	if !st.LayoutType.Flow() {
		diags.Note(diag.StageStructure, container.ID, "children are arranged as %s; no flow layout inferred", st.LayoutType)
	}

	roles := s.roles(kids)
	st.Children = make([]Node, len(kids))
	for i, k := range kids {
		st.Children[i] = s.node(k, roles[i], synthetic)
	}

	subs := make([]*Structure, len(kids))
	subDiags := make([]diag.List, len(kids))
	g, gctx := errgroup.WithContext(ctx)
	if !s.cfg.Parallel {
		g.SetLimit(1)
	}
	for i, k := range kids {
		if !k.el.IsContainer() {
			continue
		}
		g.Go(func() error {
			sub, d, err := s.synthesize(gctx, k.el, k.box)
			if err != nil {
				return err
			}
			subs[i], subDiags[i] = sub, d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	for i := range kids {
		st.Children[i].Structure = subs[i]
		diags.Merge(subDiags[i])
	}
	return st, diags, nil
}

// valid returns the measurable children of container in input order.
func valid(container geom.Element, diags *diag.List) []child {
	kids := make([]child, 0, len(container.Children))
	seen := make(map[string]bool, len(container.Children))
	for _, el := range container.Children {
		if err := errors.ValidateElementID(el.ID); err != nil {
			diags.Skip(diag.StageStructure, el.ID, err)
			continue
		}
		if seen[el.ID] {
			diags.Skip(diag.StageStructure, el.ID, errors.New(errors.ErrCodeInvalidInput, "duplicate element id %q in %s", el.ID, container.ID))
			continue
		}
		box, err := geom.BoundsOf(el)
		if err != nil {
			diags.Skip(diag.StageStructure, el.ID, err)
			continue
		}
		seen[el.ID] = true
		kids = append(kids, child{el: el, box: box})
	}
	return kids
}

func elements(kids []child) []geom.Element {
	els := make([]geom.Element, len(kids))
	for i, k := range kids {
		els[i] = k.el
	}
	return els
}

// ============================================================================
// Axis Detection and Spacing
// ============================================================================

// arrange decides the layout type and flow axis, puts kids into flow order
// and measures spacing.
func (s *Synthesizer) arrange(st *Structure, kids []child) {
	if len(kids) == 1 {
		st.LayoutType, st.FlowAxis = LayoutVertical, geom.AxisVertical
		return
	}

	lefts := make([]float64, len(kids))
	tops := make([]float64, len(kids))
	for i, k := range kids {
		lefts[i], tops[i] = k.box.MinX, k.box.MinY
	}
	vx, vy := variance(lefts), variance(tops)
	hi, lo := math.Max(vx, vy), math.Min(vx, vy)
	if hi <= epsilon || lo/hi >= s.cfg.AxisClosenessRatio {
		s.arrangeAmbiguous(st, kids)
		return
	}

	flow := geom.AxisHorizontal
	if vx < vy {
		flow = geom.AxisVertical
	}
	// A dominant axis only yields a flow when the children really form one
	// line along it; a wide grid also spreads its left edges more.
	if !disjoint(kids, flow) && s.lanes(kids, flow) != 1 {
		s.arrangeAmbiguous(st, kids)
		return
	}
	s.flow(st, kids, flow)
}

// flow lays kids out along a and measures the gaps between consecutive
// children.
func (s *Synthesizer) flow(st *Structure, kids []child, a geom.Axis) {
	st.FlowAxis = a
	st.LayoutType = LayoutHorizontal
	if a == geom.AxisVertical {
		st.LayoutType = LayoutVertical
	}

	sortAlong(kids, a)
	gaps := make([]float64, 0, len(kids)-1)
	for i := 1; i < len(kids); i++ {
		gaps = append(gaps, kids[i].box.Min(a)-kids[i-1].box.Max(a))
	}
	stats := gapStats(gaps, s.cfg.SpacingBucket)
	if a == geom.AxisHorizontal {
		st.Stats.Horizontal = stats
		st.Spacing.Horizontal = stats.Mode
	} else {
		st.Stats.Vertical = stats
		st.Spacing.Vertical = stats.Mode
	}
}

// disjoint reports whether consecutive kids along a do not overlap on a.
func disjoint(kids []child, a geom.Axis) bool {
	sorted := append([]child(nil), kids...)
	sortAlong(sorted, a)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].box.Min(a)-sorted[i-1].box.Max(a) < -epsilon {
			return false
		}
	}
	return true
}

// lanes counts the rows (horizontal flow) or columns (vertical flow) the
// kids occupy.
func (s *Synthesizer) lanes(kids []child, a geom.Axis) int {
	if a == geom.AxisHorizontal {
		return len(s.rows(kids))
	}
	return s.columns(kids)
}

// arrangeAmbiguous handles children without a clear single line. A lone
// row or a stack of one child per row becomes a flow when the children do
// not overlap along it. They form a grid when every row holds the same
// number of children and the columns line up; otherwise the arrangement is
// mixed.
func (s *Synthesizer) arrangeAmbiguous(st *Structure, kids []child) {
	rows := s.rows(kids)

	// Reorder kids row-major.
	i := 0
	for _, row := range rows {
		for _, k := range row {
			kids[i] = k
			i++
		}
	}

	if len(rows) == 1 && disjoint(kids, geom.AxisHorizontal) {
		s.flow(st, kids, geom.AxisHorizontal)
		return
	}
	if len(rows) == len(kids) && disjoint(kids, geom.AxisVertical) {
		s.flow(st, kids, geom.AxisVertical)
		return
	}

	cols := s.columns(kids)
	width := len(rows[0])
	grid := len(rows) >= 2 && width >= 2 && cols == width
	for _, row := range rows {
		if len(row) != width {
			grid = false
		}
	}
	if !grid {
		st.LayoutType = LayoutMixed
		return
	}

	st.LayoutType = LayoutGrid
	st.FlowAxis = geom.AxisHorizontal
	st.Rows, st.Columns = len(rows), width

	var hGaps, vGaps []float64
	for r, row := range rows {
		for c := 1; c < len(row); c++ {
			hGaps = append(hGaps, row[c].box.MinX-row[c-1].box.MaxX)
		}
		if r > 0 {
			vGaps = append(vGaps, rowTop(row)-rowBottom(rows[r-1]))
		}
	}
	st.Stats.Horizontal = gapStats(hGaps, s.cfg.SpacingBucket)
	st.Stats.Vertical = gapStats(vGaps, s.cfg.SpacingBucket)
	st.Spacing = geom.Spacing{
		Horizontal: st.Stats.Horizontal.Mode,
		Vertical:   st.Stats.Vertical.Mode,
	}
}

// rows buckets kids by top edge within RowTolerance; each row is ordered by
// left edge.
func (s *Synthesizer) rows(kids []child) [][]child {
	sorted := append([]child(nil), kids...)
	sortAlong(sorted, geom.AxisVertical)

	var rows [][]child
	start := math.Inf(-1)
	for _, k := range sorted {
		if len(rows) == 0 || k.box.MinY-start > s.cfg.RowTolerance {
			rows = append(rows, nil)
			start = k.box.MinY
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], k)
	}
	for _, row := range rows {
		sortAlong(row, geom.AxisHorizontal)
	}
	return rows
}

// columns counts distinct left edges within RowTolerance.
func (s *Synthesizer) columns(kids []child) int {
	lefts := make([]float64, len(kids))
	for i, k := range kids {
		lefts[i] = k.box.MinX
	}
	sort.Float64s(lefts)
	n := 0
	start := math.Inf(-1)
	for _, x := range lefts {
		if n == 0 || x-start > s.cfg.RowTolerance {
			n++
			start = x
		}
	}
	return n
}

func rowTop(row []child) float64 {
	top := math.Inf(1)
	for _, k := range row {
		top = math.Min(top, k.box.MinY)
	}
	return top
}

func rowBottom(row []child) float64 {
	bottom := math.Inf(-1)
	for _, k := range row {
		bottom = math.Max(bottom, k.box.MaxY)
	}
	return bottom
}

// sortAlong orders kids by their start on axis a, then on the cross axis,
// then by id.
func sortAlong(kids []child, a geom.Axis) {
	cross := a.Cross()
	sort.SliceStable(kids, func(i, j int) bool {
		bi, bj := kids[i].box, kids[j].box
		if bi.Min(a) != bj.Min(a) {
			return bi.Min(a) < bj.Min(a)
		}
		if bi.Min(cross) != bj.Min(cross) {
			return bi.Min(cross) < bj.Min(cross)
		}
		return kids[i].el.ID < kids[j].el.ID
	})
}

// ============================================================================
// Padding and Alignment
// ============================================================================

// padding measures the inset from the container bounds to the nearest child
// edge on each side. Children poking out of the container yield zero.
func padding(cbox geom.BoundingBox, kids []child) geom.Padding {
	boxes := make([]geom.BoundingBox, len(kids))
	for i, k := range kids {
		boxes[i] = k.box
	}
	u, _ := geom.UnionOf(boxes)
	return geom.Padding{
		Top:    math.Max(0, u.MinY-cbox.MinY),
		Right:  math.Max(0, cbox.MaxX-u.MaxX),
		Bottom: math.Max(0, cbox.MaxY-u.MaxY),
		Left:   math.Max(0, u.MinX-cbox.MinX),
	}
}

// alignment infers the cross-axis alignment. Primary-axis alignment is
// always MIN since padding already captures the leading offset.
func (s *Synthesizer) alignment(st *Structure, kids []child, rels relate.Set) geom.Alignment {
	out := geom.Alignment{Horizontal: geom.AlignMin, Vertical: geom.AlignMin}
	if !st.LayoutType.Flow() {
		return out
	}
	cross := st.FlowAxis.Cross()
	a := crossAlignment(cross, st.Bounds, kids, rels, st.Current)
	if cross == geom.AxisHorizontal {
		out.Horizontal = a
	} else {
		out.Vertical = a
	}
	return out
}

// crossAlignment sums sibling alignment confidences per reference line.
// Ties keep the container's current alignment when it is among the tied
// lines and otherwise default to MIN. Without any sibling signal the offsets
// of the children within the container decide.
func crossAlignment(cross geom.Axis, cbox geom.BoundingBox, kids []child, rels relate.Set, current *geom.AutoLayout) geom.Align {
	scores := make(map[geom.Align]float64, 3)
	for _, r := range rels {
		als := r.Vertical
		if cross == geom.AxisHorizontal {
			als = r.Horizontal
		}
		for _, al := range als {
			scores[al.Kind.Align()] += al.Confidence
		}
	}

	best := 0.0
	for _, a := range alignOrder {
		best = math.Max(best, scores[a])
	}
	if best <= epsilon {
		return offsetAlignment(cross, cbox, kids)
	}

	var tied []geom.Align
	for _, a := range alignOrder {
		if best-scores[a] <= epsilon {
			tied = append(tied, a)
		}
	}
	if len(tied) > 1 && current != nil && current.Mode != geom.ModeNone {
		cur := current.Alignment.Vertical
		if cross == geom.AxisHorizontal {
			cur = current.Alignment.Horizontal
		}
		for _, a := range tied {
			if a == cur {
				return a
			}
		}
	}
	return tied[0]
}

// offsetAlignment votes per child for the reference line it sits closest to
// within the container.
func offsetAlignment(cross geom.Axis, cbox geom.BoundingBox, kids []child) geom.Align {
	votes := make(map[geom.Align]int, 3)
	for _, k := range kids {
		start := k.box.Min(cross) - cbox.Min(cross)
		end := cbox.Max(cross) - k.box.Max(cross)
		offsets := map[geom.Align]float64{
			geom.AlignMin:    math.Abs(start),
			geom.AlignCenter: math.Abs(start-end) / 2,
			geom.AlignMax:    math.Abs(end),
		}
		pick := geom.AlignMin
		for _, a := range alignOrder[1:] {
			if offsets[a] < offsets[pick]-epsilon {
				pick = a
			}
		}
		votes[pick]++
	}
	pick := geom.AlignMin
	for _, a := range alignOrder[1:] {
		if votes[a] > votes[pick] {
			pick = a
		}
	}
	return pick
}

// ============================================================================
// Roles and Nodes
// ============================================================================

// roles marks decorative children by vocabulary, and text children plus the
// largest remaining child as primary.
func (s *Synthesizer) roles(kids []child) []Role {
	roles := make([]Role, len(kids))
	largest := -1
	for i, k := range kids {
		if s.vocab.IsDecorative(k.el) {
			roles[i] = RoleDecorative
			continue
		}
		roles[i] = RoleSecondary
		if k.el.Type == geom.TypeText {
			roles[i] = RolePrimary
		}
		if largest < 0 {
			largest = i
			continue
		}
		a, b := k.box.Area(), kids[largest].box.Area()
		if a > b || (a == b && k.el.ID < kids[largest].el.ID) {
			largest = i
		}
	}
	if largest >= 0 {
		roles[largest] = RolePrimary
	}
	return roles
}

func (s *Synthesizer) node(k child, role Role, synthetic map[string][]string) Node {
	n := Node{
		ElementID: k.el.ID,
		Name:      k.el.Name,
		Type:      k.el.Type,
		NodeType:  NodeLeaf,
		Role:      role,
		Bounds:    k.box,
	}
	if k.el.IsContainer() {
		n.NodeType = NodeContainer
	}
	if k.el.Sizing != nil {
		sz := *k.el.Sizing
		n.CurrentSizing = &sz
	}
	if members, ok := synthetic[k.el.ID]; ok {
		n.Synthetic = true
		n.Members = members
	}
	if s.vocab.IsInteractive(k.el) {
		n.Constraints = &Constraints{MinWidth: k.box.Width, MinHeight: k.box.Height}
	}
	return n
}

// ============================================================================
// Grouping
// ============================================================================

// group wraps cohesive clusters of kids into synthetic container elements.
// A cluster covering every child is left alone.
func (s *Synthesizer) group(kids []child, diags *diag.List) ([]child, map[string][]string) {
	clusters, d := s.grouper.Cluster(elements(kids))
	diags.Merge(d)

	taken := make(map[string]bool)
	synthetic := make(map[string][]string)
	var groups []child
	for _, c := range clusters {
		if c.TotalScore < s.minScore || len(c.Members) >= len(kids) {
			continue
		}
		members := make([]geom.Element, len(c.Members))
		for i, m := range c.Members {
			members[i] = m.Element
			taken[m.Element.ID] = true
		}
		el := geom.Element{
			ID:       c.ID,
			Name:     fmt.Sprintf("Group %d", len(groups)+1),
			Type:     geom.TypeContainer,
			X:        c.Bounds.MinX,
			Y:        c.Bounds.MinY,
			Width:    c.Bounds.Width,
			Height:   c.Bounds.Height,
			Children: members,
		}
		groups = append(groups, child{el: el, box: c.Bounds})
		synthetic[c.ID] = c.MemberIDs()
	}
	if len(groups) == 0 {
		return kids, nil
	}

	out := make([]child, 0, len(kids))
	for _, k := range kids {
		if !taken[k.el.ID] {
			out = append(out, k)
		}
	}
	return append(out, groups...), synthetic
}
