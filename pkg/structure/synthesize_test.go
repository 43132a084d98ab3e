package structure

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/autoflex/pkg/cluster"
	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
)

func el(id string, typ geom.ElementType, x, y, w, h float64) geom.Element {
	return geom.Element{ID: id, Name: id, Type: typ, X: x, Y: y, Width: w, Height: h}
}

func frame(id string, x, y, w, h float64, children ...geom.Element) geom.Element {
	f := el(id, geom.TypeContainer, x, y, w, h)
	f.Children = children
	return f
}

func newSynth() *Synthesizer {
	cfg := config.Default()
	return New(cfg.Structure, cfg.Relate, cfg.Vocabulary)
}

func synth(t *testing.T, container geom.Element) *Structure {
	t.Helper()
	st, _, err := newSynth().Synthesize(context.Background(), container)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	return st
}

func childIDs(st *Structure) []string {
	var ids []string
	for _, n := range st.Children {
		ids = append(ids, n.ElementID)
	}
	return ids
}

func TestScenarioEvenRow(t *testing.T) {
	st := synth(t, frame("row", 0, 0, 332, 100,
		el("c", geom.TypeShape, 232, 0, 100, 100),
		el("a", geom.TypeShape, 0, 0, 100, 100),
		el("b", geom.TypeShape, 116, 0, 100, 100),
	))

	if st.LayoutType != LayoutHorizontal {
		t.Errorf("LayoutType = %s, want horizontal", st.LayoutType)
	}
	if st.Spacing.Horizontal != 16 {
		t.Errorf("Spacing.Horizontal = %v, want 16", st.Spacing.Horizontal)
	}
	if st.Alignment.Vertical != geom.AlignMin {
		t.Errorf("Alignment.Vertical = %s, want MIN", st.Alignment.Vertical)
	}
	if got := childIDs(st); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("children in flow order = %v", got)
	}
	if st.Padding != (geom.Padding{}) {
		t.Errorf("Padding = %+v, want zero", st.Padding)
	}
}

func TestEmptyContainer(t *testing.T) {
	st, diags, err := newSynth().Synthesize(context.Background(), frame("empty", 0, 0, 100, 100))
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if st.LayoutType != LayoutAbsolute || len(st.Children) != 0 {
		t.Errorf("got %s with %d children, want absolute with none", st.LayoutType, len(st.Children))
	}
	if !diags.Empty() {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func TestSingleChildIsVertical(t *testing.T) {
	st := synth(t, frame("box", 0, 0, 200, 100,
		el("label", geom.TypeText, 20, 10, 160, 20),
	))
	if st.LayoutType != LayoutVertical || st.FlowAxis != geom.AxisVertical {
		t.Errorf("got %s/%s, want vertical", st.LayoutType, st.FlowAxis)
	}
	want := geom.Padding{Top: 10, Right: 20, Bottom: 70, Left: 20}
	if st.Padding != want {
		t.Errorf("Padding = %+v, want %+v", st.Padding, want)
	}
	// No siblings: the child is centered horizontally within the container.
	if st.Alignment.Horizontal != geom.AlignCenter {
		t.Errorf("Alignment.Horizontal = %s, want CENTER", st.Alignment.Horizontal)
	}
}

func TestVerticalStack(t *testing.T) {
	st := synth(t, frame("list", 0, 0, 200, 200,
		el("one", geom.TypeText, 16, 16, 120, 20),
		el("two", geom.TypeText, 16, 44, 80, 20),
		el("three", geom.TypeText, 16, 72, 100, 20),
	))
	if st.LayoutType != LayoutVertical {
		t.Fatalf("LayoutType = %s, want vertical", st.LayoutType)
	}
	if st.Spacing.Vertical != 8 || st.Spacing.Horizontal != 0 {
		t.Errorf("Spacing = %+v, want vertical 8", st.Spacing)
	}
	if st.Alignment.Horizontal != geom.AlignMin || st.Alignment.Vertical != geom.AlignMin {
		t.Errorf("Alignment = %+v, want MIN/MIN", st.Alignment)
	}
	if st.Padding.Left != 16 || st.Padding.Top != 16 {
		t.Errorf("Padding = %+v", st.Padding)
	}
}

func TestCenteredRow(t *testing.T) {
	st := synth(t, frame("bar", 0, 0, 300, 100,
		el("a", geom.TypeShape, 0, 40, 80, 20),
		el("b", geom.TypeShape, 100, 30, 80, 40),
		el("c", geom.TypeShape, 200, 35, 80, 30),
	))
	if st.LayoutType != LayoutHorizontal {
		t.Fatalf("LayoutType = %s, want horizontal", st.LayoutType)
	}
	if st.Alignment.Vertical != geom.AlignCenter {
		t.Errorf("Alignment.Vertical = %s, want CENTER", st.Alignment.Vertical)
	}
	if st.Alignment.Horizontal != geom.AlignMin {
		t.Errorf("primary-axis alignment = %s, want MIN", st.Alignment.Horizontal)
	}
}

func TestNoisySpacingUsesMode(t *testing.T) {
	gaps := []float64{16, 15.4, 16.3, 12, 16}
	var kids []geom.Element
	x := 0.0
	for i := 0; i <= len(gaps); i++ {
		kids = append(kids, el(string(rune('a'+i)), geom.TypeShape, x, 0, 50, 50))
		if i < len(gaps) {
			x += 50 + gaps[i]
		}
	}
	st := synth(t, frame("row", 0, 0, x+50, 50, kids...))

	if st.Spacing.Horizontal != 16 {
		t.Errorf("Spacing.Horizontal = %v, want mode 16", st.Spacing.Horizontal)
	}
	if math.Abs(st.Stats.Horizontal.Average-15.14) > 1e-6 {
		t.Errorf("Average = %v, want 15.14", st.Stats.Horizontal.Average)
	}
	if len(st.Stats.Horizontal.Samples) != 5 {
		t.Errorf("Samples = %v", st.Stats.Horizontal.Samples)
	}
}

func TestGapStats(t *testing.T) {
	tests := []struct {
		name string
		gaps []float64
		mode float64
	}{
		{"tie picks smaller", []float64{12, 10}, 10},
		{"negative clamps", []float64{-3, 8, 8}, 8},
		{"rounding", []float64{7.6, 8.4, 3}, 8},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gapStats(tt.gaps, 1).Mode; got != tt.mode {
				t.Errorf("Mode = %v, want %v", got, tt.mode)
			}
		})
	}
}

func TestGrid(t *testing.T) {
	st := synth(t, frame("grid", 0, 0, 220, 220,
		el("d", geom.TypeShape, 120, 120, 100, 100),
		el("a", geom.TypeShape, 0, 0, 100, 100),
		el("c", geom.TypeShape, 0, 120, 100, 100),
		el("b", geom.TypeShape, 120, 0, 100, 100),
	))
	if st.LayoutType != LayoutGrid {
		t.Fatalf("LayoutType = %s, want grid", st.LayoutType)
	}
	if st.Rows != 2 || st.Columns != 2 {
		t.Errorf("grid = %dx%d, want 2x2", st.Rows, st.Columns)
	}
	if st.Spacing != (geom.Spacing{Horizontal: 20, Vertical: 20}) {
		t.Errorf("Spacing = %+v", st.Spacing)
	}
	if got := childIDs(st); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("row-major order = %v", got)
	}
	target := st.Target()
	if target.Mode != geom.ModeHorizontal || !target.Wrap {
		t.Errorf("Target() = %+v, want wrapping horizontal", target)
	}
}

func TestMixed(t *testing.T) {
	st, diags, err := newSynth().Synthesize(context.Background(), frame("scatter", 0, 0, 200, 200,
		el("a", geom.TypeShape, 0, 0, 50, 50),
		el("b", geom.TypeShape, 100, 20, 50, 50),
		el("c", geom.TypeShape, 30, 100, 50, 50),
	))
	if err != nil {
		t.Fatal(err)
	}
	if st.LayoutType != LayoutMixed {
		t.Errorf("LayoutType = %s, want mixed", st.LayoutType)
	}
	if st.Target().Mode != geom.ModeNone {
		t.Error("mixed layouts have no target flow")
	}
	if diags.Empty() {
		t.Error("mixed layout should be noted in diagnostics")
	}
}

func TestWideGrid(t *testing.T) {
	var cells []geom.Element
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			id := string(rune('a' + r*3 + c))
			cells = append(cells, el(id, geom.TypeShape, float64(c)*116, float64(r)*116, 100, 100))
		}
	}
	st := synth(t, frame("cards", 0, 0, 332, 216, cells...))
	if st.LayoutType != LayoutGrid {
		t.Fatalf("LayoutType = %s, want grid", st.LayoutType)
	}
	if st.Rows != 2 || st.Columns != 3 {
		t.Errorf("grid = %dx%d, want 2x3", st.Rows, st.Columns)
	}
	if st.Spacing != (geom.Spacing{Horizontal: 16, Vertical: 16}) {
		t.Errorf("Spacing = %+v, want 16/16", st.Spacing)
	}
	if got := childIDs(st); !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "e", "f"}) {
		t.Errorf("row-major order = %v", got)
	}
}

func TestTallGrid(t *testing.T) {
	st := synth(t, frame("cards", 0, 0, 216, 332,
		el("a", geom.TypeShape, 0, 0, 100, 100),
		el("b", geom.TypeShape, 116, 0, 100, 100),
		el("c", geom.TypeShape, 0, 116, 100, 100),
		el("d", geom.TypeShape, 116, 116, 100, 100),
		el("e", geom.TypeShape, 0, 232, 100, 100),
		el("f", geom.TypeShape, 116, 232, 100, 100),
	))
	if st.LayoutType != LayoutGrid || st.Rows != 3 || st.Columns != 2 {
		t.Errorf("got %s %dx%d, want grid 3x2", st.LayoutType, st.Rows, st.Columns)
	}
}

func TestCenteredStack(t *testing.T) {
	st := synth(t, frame("list", 0, 0, 300, 144,
		el("wide", geom.TypeShape, 0, 0, 300, 40),
		el("mid", geom.TypeShape, 50, 52, 200, 40),
		el("narrow", geom.TypeShape, 100, 104, 100, 40),
	))
	if st.LayoutType != LayoutVertical || st.FlowAxis != geom.AxisVertical {
		t.Fatalf("got %s/%s, want vertical", st.LayoutType, st.FlowAxis)
	}
	if st.Spacing.Vertical != 12 {
		t.Errorf("Spacing.Vertical = %v, want 12", st.Spacing.Vertical)
	}
	if st.Alignment.Horizontal != geom.AlignCenter {
		t.Errorf("Alignment.Horizontal = %s, want CENTER", st.Alignment.Horizontal)
	}
	if got := childIDs(st); !reflect.DeepEqual(got, []string{"wide", "mid", "narrow"}) {
		t.Errorf("children in flow order = %v", got)
	}
}

func TestOverlappingRow(t *testing.T) {
	st := synth(t, frame("avatars", 0, 0, 112, 40,
		el("a1", geom.TypeShape, 0, 0, 40, 40),
		el("a2", geom.TypeShape, 36, 0, 40, 40),
		el("a3", geom.TypeShape, 72, 0, 40, 40),
	))
	if st.LayoutType != LayoutHorizontal {
		t.Errorf("LayoutType = %s, want horizontal for a single row", st.LayoutType)
	}
}

func TestRolesAndConstraints(t *testing.T) {
	st := synth(t, frame("card", 0, 0, 300, 400,
		el("Background", geom.TypeShape, 0, 0, 300, 400),
		el("Image", geom.TypeShape, 0, 0, 300, 200),
		el("Title", geom.TypeText, 16, 216, 200, 24),
		el("Icon", geom.TypeVector, 16, 256, 24, 24),
		el("Submit Button", geom.TypeShape, 16, 300, 120, 40),
	))
	roles := make(map[string]Role)
	for _, n := range st.Children {
		roles[n.ElementID] = n.Role
	}
	want := map[string]Role{
		"Background":    RoleDecorative,
		"Image":         RolePrimary,
		"Title":         RolePrimary,
		"Icon":          RoleSecondary,
		"Submit Button": RoleSecondary,
	}
	if !reflect.DeepEqual(roles, want) {
		t.Errorf("roles = %v, want %v", roles, want)
	}
	for _, n := range st.Children {
		if n.ElementID == "Submit Button" {
			if n.Constraints == nil || n.Constraints.MinWidth != 120 || n.Constraints.MinHeight != 40 {
				t.Errorf("button constraints = %+v", n.Constraints)
			}
		} else if n.Constraints != nil {
			t.Errorf("%s should be unconstrained", n.ElementID)
		}
	}
}

func TestNestedContainers(t *testing.T) {
	root := frame("page", 0, 0, 400, 300,
		frame("header", 0, 0, 400, 60,
			el("logo", geom.TypeVector, 16, 18, 24, 24),
			el("title", geom.TypeText, 56, 20, 120, 20),
		),
		frame("body", 0, 76, 400, 224),
	)
	st := synth(t, root)
	if st.LayoutType != LayoutVertical || st.Spacing.Vertical != 16 {
		t.Fatalf("root = %s spacing %+v", st.LayoutType, st.Spacing)
	}
	header := st.Children[0]
	if header.NodeType != NodeContainer || header.Structure == nil {
		t.Fatalf("header node = %+v", header)
	}
	if header.Structure.LayoutType != LayoutHorizontal || header.Structure.Spacing.Horizontal != 16 {
		t.Errorf("header = %s spacing %+v", header.Structure.LayoutType, header.Structure.Spacing)
	}
	body := st.Children[1]
	if body.Structure == nil || body.Structure.LayoutType != LayoutAbsolute {
		t.Errorf("empty body should be absolute: %+v", body.Structure)
	}
	if st.Count() != 4 {
		t.Errorf("Count() = %d, want 4", st.Count())
	}
}

func TestSequentialMatchesParallel(t *testing.T) {
	root := frame("page", 0, 0, 400, 300,
		frame("a", 0, 0, 400, 60, el("a1", geom.TypeText, 0, 0, 10, 10), el("a2", geom.TypeText, 20, 0, 10, 10)),
		frame("b", 0, 76, 400, 60, el("b1", geom.TypeText, 0, 76, 10, 10), el("b2", geom.TypeText, 0, 96, 10, 10)),
	)
	cfg := config.Default()
	par, _, err := New(cfg.Structure, cfg.Relate, cfg.Vocabulary).Synthesize(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Structure.Parallel = false
	seq, _, err := New(cfg.Structure, cfg.Relate, cfg.Vocabulary).Synthesize(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(par, seq) {
		t.Error("parallel and sequential synthesis differ")
	}
}

func TestInvalidChildSkipped(t *testing.T) {
	st, diags, err := newSynth().Synthesize(context.Background(), frame("row", 0, 0, 300, 100,
		el("a", geom.TypeShape, 0, 0, 100, 100),
		el("bad", geom.TypeShape, 100, 0, -10, 100),
		el("b", geom.TypeShape, 120, 0, 100, 100),
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := childIDs(st); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("children = %v", got)
	}
	if len(diags) != 1 || diags[0].EntityID != "bad" || diags[0].Code != errors.ErrCodeInvalidGeometry {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestInvalidRoot(t *testing.T) {
	_, _, err := newSynth().Synthesize(context.Background(), el("root", geom.TypeContainer, 0, 0, -1, 10))
	if !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Errorf("Synthesize() = %v, want INVALID_GEOMETRY", err)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, _, err := newSynth().Synthesize(ctx, frame("row", 0, 0, 100, 100, el("a", geom.TypeShape, 0, 0, 10, 10)))
	if err != context.Canceled {
		t.Errorf("Synthesize() error = %v, want context.Canceled", err)
	}
	if st != nil {
		t.Error("partial structure returned on cancellation")
	}
}

func TestGrouping(t *testing.T) {
	cfg := config.Default()
	s := New(cfg.Structure, cfg.Relate, cfg.Vocabulary).
		WithGrouping(cluster.New(cfg.Cluster), cfg.Plan.GroupScoreThreshold)

	root := frame("cards", 0, 0, 310, 88,
		geom.Element{ID: "c2-title", Name: "Card Title", Type: geom.TypeText, X: 210, Y: 68, Width: 100, Height: 20},
		geom.Element{ID: "c1-image", Name: "Card Image", Type: geom.TypeShape, X: 0, Y: 0, Width: 100, Height: 60},
		geom.Element{ID: "c2-image", Name: "Card Image", Type: geom.TypeShape, X: 210, Y: 0, Width: 100, Height: 60},
		geom.Element{ID: "c1-title", Name: "Card Title", Type: geom.TypeText, X: 0, Y: 68, Width: 100, Height: 20},
	)
	st, _, err := s.Synthesize(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Children) != 2 {
		t.Fatalf("got %d children, want 2 groups", len(st.Children))
	}
	if st.LayoutType != LayoutHorizontal || st.Spacing.Horizontal != 110 {
		t.Errorf("root = %s spacing %+v", st.LayoutType, st.Spacing)
	}

	g := st.Children[0]
	if !g.Synthetic || g.ElementID != cluster.ID([]string{"c1-image", "c1-title"}) {
		t.Errorf("first group = %+v", g)
	}
	if !reflect.DeepEqual(g.Members, []string{"c1-image", "c1-title"}) {
		t.Errorf("Members = %v", g.Members)
	}
	if g.Structure == nil || g.Structure.LayoutType != LayoutVertical || g.Structure.Spacing.Vertical != 8 {
		t.Errorf("group structure = %+v", g.Structure)
	}

	// Containers with auto layout are never regrouped.
	root.Layout = &geom.AutoLayout{Mode: geom.ModeHorizontal}
	st, _, err = s.Synthesize(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Children) != 4 {
		t.Errorf("auto-layout container was regrouped: %v", childIDs(st))
	}
}

func TestWalk(t *testing.T) {
	st := synth(t, frame("page", 0, 0, 400, 300,
		frame("header", 0, 0, 400, 60, frame("inner", 0, 0, 100, 60)),
	))
	var visited []string
	var parents []string
	err := st.Walk(func(s *Structure, parent *Node) error {
		visited = append(visited, s.RootID)
		if parent != nil {
			parents = append(parents, parent.ElementID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(visited, []string{"page", "header", "inner"}) {
		t.Errorf("visited = %v", visited)
	}
	if !reflect.DeepEqual(parents, []string{"header", "inner"}) {
		t.Errorf("parents = %v", parents)
	}
}
