// Package sizing recommends FIXED, HUG or FILL per axis for layout children.
//
// Every child is scored on five factors: what it contains, how much of its
// container it spans, its layout role, whether it is an interactive control,
// and whether the axis under evaluation is the container's flow axis. Each
// factor looks up a score vector over the three policies in a configuration
// table; the vectors are combined with configurable weights and the highest
// total wins. Exact ties resolve HUG before FIXED before FILL.
//
// Every recommendation carries a reasoning string naming the factors that
// contributed most to it.
package sizing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/structure"
)

const epsilon = 1e-9

// Factor names one input of the sizing score.
type Factor string

const (
	FactorContentType     Factor = "content type"
	FactorSpatialPosition Factor = "spatial position"
	FactorSemanticRole    Factor = "semantic role"
	FactorUserBehavior    Factor = "user behavior"
	FactorLayoutDirection Factor = "layout direction"
)

// Contribution is one factor's weighted vote on one axis.
type Contribution struct {
	Factor Factor        `json:"factor"`
	Detail string        `json:"detail"`
	Weight float64       `json:"weight"`
	Scores config.Scores `json:"scores"`
}

func (c Contribution) weighted(m geom.SizingMode) float64 {
	return c.Weight * score(c.Scores, m)
}

// AxisResult is the decision for one axis.
type AxisResult struct {
	Mode          geom.SizingMode `json:"mode"`
	Totals        config.Scores   `json:"totals"`
	Contributions []Contribution  `json:"contributions"`
}

// Size is an element's current size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Analysis is the sizing recommendation for one child.
type Analysis struct {
	ElementID     string          `json:"element_id"`
	Name          string          `json:"name,omitempty"`
	ContainerID   string          `json:"container_id"`
	Current       Size            `json:"current"`
	IsIcon        bool            `json:"is_icon"`
	IsText        bool            `json:"is_text"`
	IsMainContent bool            `json:"is_main_content"`
	IsDecorative  bool            `json:"is_decorative"`
	Recommended   geom.SizingPair `json:"recommended"`
	Reasoning     string          `json:"reasoning"`
	Horizontal    AxisResult      `json:"horizontal"`
	Vertical      AxisResult      `json:"vertical"`
}

// Classifier scores children of synthesized structures.
type Classifier struct {
	cfg   config.Sizing
	vocab config.Vocabulary
}

// New returns a classifier using the weights and tables in cfg.
func New(cfg config.Sizing, vocab config.Vocabulary) *Classifier {
	return &Classifier{cfg: cfg, vocab: vocab}
}

// Classify analyzes the direct children of st. Containers without a flow
// layout have no sizing semantics; they yield no analyses and a diagnostic.
func (c *Classifier) Classify(st *structure.Structure) ([]Analysis, diag.List) {
	var diags diag.List
	if len(st.Children) == 0 {
		return nil, nil
	}
	if !st.LayoutType.Flow() {
		diags.Note(diag.StageSizing, st.RootID, "%s layout has no flow; sizing skipped for %d children", st.LayoutType, len(st.Children))
		return nil, diags
	}
	out := make([]Analysis, len(st.Children))
	for i, n := range st.Children {
		out[i] = c.classify(st, n)
	}
	return out, diags
}

// Annotate classifies every flow structure in the tree and writes the
// recommendations into each node's Sizing field.
func (c *Classifier) Annotate(st *structure.Structure) ([]Analysis, diag.List) {
	var (
		all   []Analysis
		diags diag.List
	)
	_ = st.Walk(func(s *structure.Structure, _ *structure.Node) error {
		as, d := c.Classify(s)
		diags.Merge(d)
		for i, a := range as {
			s.Children[i].Sizing = a.Recommended
		}
		all = append(all, as...)
		return nil
	})
	return all, diags
}

func (c *Classifier) classify(st *structure.Structure, n structure.Node) Analysis {
	probe := geom.Element{Name: n.Name, Type: n.Type}
	a := Analysis{
		ElementID:     n.ElementID,
		Name:          n.Name,
		ContainerID:   st.RootID,
		Current:       Size{Width: n.Bounds.Width, Height: n.Bounds.Height},
		IsIcon:        c.vocab.IsIcon(probe),
		IsText:        n.Type == geom.TypeText,
		IsMainContent: n.Role == structure.RolePrimary,
		IsDecorative:  n.Role == structure.RoleDecorative,
	}
	a.Horizontal = c.axis(st, n, probe, geom.AxisHorizontal)
	a.Vertical = c.axis(st, n, probe, geom.AxisVertical)
	a.Recommended = geom.SizingPair{Horizontal: a.Horizontal.Mode, Vertical: a.Vertical.Mode}
	a.Reasoning = reasoning(a)
	return a
}

func (c *Classifier) axis(st *structure.Structure, n structure.Node, probe geom.Element, ax geom.Axis) AxisResult {
	w := c.cfg.Weights
	extent := n.Bounds.Extent(ax)
	coverage := 0.0
	if ce := st.Bounds.Extent(ax); ce > 0 {
		coverage = extent / ce
	}
	spans := coverage >= c.cfg.FillCoverage

	contribs := []Contribution{
		c.contentType(n, probe, w.ContentType),
		c.spatialPosition(ax, extent, coverage, spans, w.SpatialPosition),
		c.semanticRole(n, w.SemanticRole),
		c.userBehavior(probe, spans, w.UserBehavior),
		c.layoutDirection(st, n, ax, spans, w.LayoutDirection),
	}

	var totals config.Scores
	for _, ct := range contribs {
		totals.Hug += ct.weighted(geom.SizingHug)
		totals.Fixed += ct.weighted(geom.SizingFixed)
		totals.Fill += ct.weighted(geom.SizingFill)
	}
	return AxisResult{Mode: pick(totals), Totals: totals, Contributions: contribs}
}

// ============================================================================
// Factors
// ============================================================================

func (c *Classifier) contentType(n structure.Node, probe geom.Element, weight float64) Contribution {
	t := c.cfg.Content
	primary := n.Role == structure.RolePrimary
	ct := Contribution{Factor: FactorContentType, Weight: weight}
	switch {
	case n.Role == structure.RoleDecorative || n.Type == geom.TypeDecorative:
		ct.Scores, ct.Detail = t.Decorative, "decorative content"
	case c.vocab.IsInteractive(probe):
		ct.Scores, ct.Detail = t.Interactive, "interactive control"
	case n.Type == geom.TypeText:
		ct.Scores, ct.Detail = t.Text, "text content"
	case c.vocab.IsIcon(probe):
		ct.Scores, ct.Detail = t.Icon, "icon-like content"
	case n.NodeType == structure.NodeContainer && primary:
		ct.Scores, ct.Detail = t.ContainerPrimary, "primary container"
	case n.NodeType == structure.NodeContainer:
		ct.Scores, ct.Detail = t.Container, "nested container"
	case primary:
		ct.Scores, ct.Detail = t.ShapePrimary, "primary shape"
	default:
		ct.Scores, ct.Detail = t.Shape, "shape"
	}
	return ct
}

func (c *Classifier) spatialPosition(ax geom.Axis, extent, coverage float64, spans bool, weight float64) Contribution {
	t := c.cfg.Spatial
	ct := Contribution{Factor: FactorSpatialPosition, Weight: weight}
	switch {
	case spans:
		ct.Scores = t.Spanning
		ct.Detail = fmt.Sprintf("spans %.0f%% of container %s", coverage*100, dimension(ax))
	case extent <= c.cfg.SmallElementSize:
		ct.Scores = t.Small
		ct.Detail = fmt.Sprintf("small %s of %.0fpx", dimension(ax), extent)
	default:
		ct.Scores = t.Medium
		ct.Detail = fmt.Sprintf("covers %.0f%% of container %s", coverage*100, dimension(ax))
	}
	return ct
}

func (c *Classifier) semanticRole(n structure.Node, weight float64) Contribution {
	t := c.cfg.Role
	ct := Contribution{Factor: FactorSemanticRole, Weight: weight}
	switch n.Role {
	case structure.RolePrimary:
		ct.Scores, ct.Detail = t.Primary, "primary content"
	case structure.RoleDecorative:
		ct.Scores, ct.Detail = t.Decorative, "decorative role"
	default:
		ct.Scores, ct.Detail = t.Secondary, "secondary content"
	}
	return ct
}

// userBehavior biases controls toward FIXED unless they are named to stretch
// and actually span the container.
func (c *Classifier) userBehavior(probe geom.Element, spans bool, weight float64) Contribution {
	t := c.cfg.Behavior
	ct := Contribution{Factor: FactorUserBehavior, Weight: weight}
	stretch := spans && c.vocab.IsStretchable(probe)
	switch {
	case stretch:
		ct.Scores, ct.Detail = t.Stretch, "stretchable element spanning its container"
	case c.vocab.IsInteractive(probe):
		ct.Scores, ct.Detail = t.Interactive, "interactive control keeps its size"
	default:
		ct.Scores, ct.Detail = t.Neutral, "no interaction signal"
	}
	return ct
}

func (c *Classifier) layoutDirection(st *structure.Structure, n structure.Node, ax geom.Axis, spans bool, weight float64) Contribution {
	t := c.cfg.Direction
	ct := Contribution{Factor: FactorLayoutDirection, Weight: weight}
	switch {
	case ax == st.FlowAxis && n.Role == structure.RolePrimary:
		ct.Scores, ct.Detail = t.FlowPrimary, "primary content on the flow axis"
	case ax == st.FlowAxis:
		ct.Scores, ct.Detail = t.FlowOther, "flow axis"
	case spans:
		ct.Scores, ct.Detail = t.CrossSpanning, "spanning the cross axis"
	default:
		ct.Scores, ct.Detail = t.CrossOther, "cross axis"
	}
	return ct
}

// ============================================================================
// Decision and Reasoning
// ============================================================================

var precedence = []geom.SizingMode{geom.SizingHug, geom.SizingFixed, geom.SizingFill}

func score(s config.Scores, m geom.SizingMode) float64 {
	switch m {
	case geom.SizingHug:
		return s.Hug
	case geom.SizingFixed:
		return s.Fixed
	default:
		return s.Fill
	}
}

// pick returns the highest-scoring mode; ties follow precedence order.
func pick(totals config.Scores) geom.SizingMode {
	best := precedence[0]
	for _, m := range precedence[1:] {
		if score(totals, m) > score(totals, best)+epsilon {
			best = m
		}
	}
	return best
}

// top returns the one or two factors contributing most to the chosen mode.
func top(r AxisResult) []Contribution {
	cs := append([]Contribution(nil), r.Contributions...)
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].weighted(r.Mode) > cs[j].weighted(r.Mode)
	})
	n := 0
	for n < len(cs) && n < 2 && cs[n].weighted(r.Mode) > 0 {
		n++
	}
	if n == 0 && len(cs) > 0 {
		n = 1
	}
	return cs[:n]
}

func reasoning(a Analysis) string {
	parts := []string{
		axisReason("width", a.Horizontal),
		axisReason("height", a.Vertical),
	}
	return strings.Join(parts, "; ")
}

func axisReason(dim string, r AxisResult) string {
	var why []string
	for _, c := range top(r) {
		why = append(why, fmt.Sprintf("%s: %s", c.Factor, c.Detail))
	}
	return fmt.Sprintf("%s %s (%s)", dim, r.Mode, strings.Join(why, ", "))
}

func dimension(ax geom.Axis) string {
	if ax == geom.AxisHorizontal {
		return "width"
	}
	return "height"
}

// Margin returns how far the winning mode leads the runner-up on an axis.
func (r AxisResult) Margin() float64 {
	win := score(r.Totals, r.Mode)
	runner := math.Inf(-1)
	for _, m := range precedence {
		if m != r.Mode {
			runner = math.Max(runner, score(r.Totals, m))
		}
	}
	return win - runner
}
