package sizing

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/structure"
)

func synthesize(t *testing.T, cfg config.Config, container geom.Element) *structure.Structure {
	t.Helper()
	st, _, err := structure.New(cfg.Structure, cfg.Relate, cfg.Vocabulary).Synthesize(context.Background(), container)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	return st
}

func byID(as []Analysis) map[string]Analysis {
	m := make(map[string]Analysis, len(as))
	for _, a := range as {
		m[a.ElementID] = a
	}
	return m
}

// listItem is a row with a small icon at a fixed offset and a label spanning
// the rest of the width.
func listItem() geom.Element {
	return geom.Element{
		ID: "item", Name: "List Item", Type: geom.TypeContainer,
		Width: 320, Height: 80,
		Children: []geom.Element{
			{ID: "icon", Name: "Icon", Type: geom.TypeVector, X: 16, Y: 28, Width: 24, Height: 24},
			{ID: "label", Name: "Label", Type: geom.TypeText, X: 48, Y: 20, Width: 272, Height: 40},
		},
	}
}

func TestScenarioTextAndIcon(t *testing.T) {
	cfg := config.Default()
	st := synthesize(t, cfg, listItem())
	as, diags := New(cfg.Sizing, cfg.Vocabulary).Classify(st)
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	got := byID(as)

	tests := []struct {
		id   string
		want geom.SizingPair
	}{
		{"label", geom.SizingPair{Horizontal: geom.SizingFill, Vertical: geom.SizingHug}},
		{"icon", geom.SizingPair{Horizontal: geom.SizingFixed, Vertical: geom.SizingFixed}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a := got[tt.id]
			if a.Recommended != tt.want {
				t.Errorf("Recommended = %+v, want %+v", a.Recommended, tt.want)
			}
			if a.Reasoning == "" {
				t.Error("Reasoning must not be empty")
			}
		})
	}

	label, icon := got["label"], got["icon"]
	if !label.IsText || !label.IsMainContent || label.IsIcon {
		t.Errorf("label flags = %+v", label)
	}
	if !icon.IsIcon || icon.IsMainContent || icon.IsDecorative {
		t.Errorf("icon flags = %+v", icon)
	}
	if label.Current != (Size{Width: 272, Height: 40}) {
		t.Errorf("label.Current = %+v", label.Current)
	}
	if !strings.Contains(label.Reasoning, "width FILL (spatial position") {
		t.Errorf("label reasoning should lead with spatial position: %q", label.Reasoning)
	}
}

func TestStretchableInputFills(t *testing.T) {
	cfg := config.Default()
	st := synthesize(t, cfg, geom.Element{
		ID: "form", Type: geom.TypeContainer, Width: 320, Height: 120,
		Children: []geom.Element{
			{ID: "label", Name: "Label", Type: geom.TypeText, X: 10, Y: 10, Width: 100, Height: 20},
			{ID: "search", Name: "Search Input", Type: geom.TypeShape, X: 10, Y: 40, Width: 300, Height: 40},
		},
	})
	as, _ := New(cfg.Sizing, cfg.Vocabulary).Classify(st)
	search := byID(as)["search"]
	if search.Recommended.Horizontal != geom.SizingFill {
		t.Errorf("search width = %s, want FILL", search.Recommended.Horizontal)
	}
	var behavior Contribution
	for _, c := range search.Horizontal.Contributions {
		if c.Factor == FactorUserBehavior {
			behavior = c
		}
	}
	if behavior.Scores != cfg.Sizing.Behavior.Stretch {
		t.Errorf("user behavior should use the stretch table, got %+v", behavior)
	}
}

func TestWeightsAreConfiguration(t *testing.T) {
	cfg := config.Default()
	cfg.Sizing.Weights = config.Weights{ContentType: 1}
	st := synthesize(t, cfg, listItem())
	as, _ := New(cfg.Sizing, cfg.Vocabulary).Classify(st)
	label := byID(as)["label"]
	if label.Recommended != (geom.SizingPair{Horizontal: geom.SizingHug, Vertical: geom.SizingHug}) {
		t.Errorf("content-only weights: label = %+v, want HUG/HUG", label.Recommended)
	}
	if strings.Contains(label.Reasoning, string(FactorSpatialPosition)) {
		t.Errorf("zero-weight factors must not be named: %q", label.Reasoning)
	}
}

func TestPickPrecedence(t *testing.T) {
	tests := []struct {
		totals config.Scores
		want   geom.SizingMode
	}{
		{config.Scores{Hug: 1, Fixed: 1, Fill: 1}, geom.SizingHug},
		{config.Scores{Hug: 0, Fixed: 0.5, Fill: 0.5}, geom.SizingFixed},
		{config.Scores{}, geom.SizingHug},
		{config.Scores{Hug: 0.2, Fixed: 0.3, Fill: 0.31}, geom.SizingFill},
	}
	for _, tt := range tests {
		if got := pick(tt.totals); got != tt.want {
			t.Errorf("pick(%v) = %s, want %s", tt.totals, got, tt.want)
		}
	}
}

func TestMargin(t *testing.T) {
	r := AxisResult{Mode: geom.SizingFill, Totals: config.Scores{Hug: 0.5, Fixed: 0.2, Fill: 0.7}}
	if m := r.Margin(); m < 0.2-1e-9 || m > 0.2+1e-9 {
		t.Errorf("Margin() = %v, want 0.2", m)
	}
}

func TestNonFlowSkipped(t *testing.T) {
	cfg := config.Default()
	st := synthesize(t, cfg, geom.Element{
		ID: "scatter", Type: geom.TypeContainer, Width: 200, Height: 200,
		Children: []geom.Element{
			{ID: "a", Type: geom.TypeShape, Width: 50, Height: 50},
			{ID: "b", Type: geom.TypeShape, X: 100, Y: 20, Width: 50, Height: 50},
			{ID: "c", Type: geom.TypeShape, X: 30, Y: 100, Width: 50, Height: 50},
		},
	})
	as, diags := New(cfg.Sizing, cfg.Vocabulary).Classify(st)
	if len(as) != 0 {
		t.Errorf("mixed layout produced %d analyses", len(as))
	}
	if diags.Empty() {
		t.Error("expected a diagnostic for the skipped container")
	}
}

func TestAnnotate(t *testing.T) {
	cfg := config.Default()
	page := geom.Element{
		ID: "page", Type: geom.TypeContainer, Width: 320, Height: 200,
		Children: []geom.Element{listItem()},
	}
	st := synthesize(t, cfg, page)
	as, _ := New(cfg.Sizing, cfg.Vocabulary).Annotate(st)
	if len(as) != 3 {
		t.Fatalf("got %d analyses, want 3", len(as))
	}
	item := st.Children[0]
	if item.Sizing.Horizontal == "" || item.Sizing.Vertical == "" {
		t.Errorf("item sizing not annotated: %+v", item.Sizing)
	}
	for _, n := range item.Structure.Children {
		if n.ElementID == "icon" && n.Sizing != (geom.SizingPair{Horizontal: geom.SizingFixed, Vertical: geom.SizingFixed}) {
			t.Errorf("icon sizing = %+v", n.Sizing)
		}
	}
}
