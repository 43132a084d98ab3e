package geom

import "testing"

func tree() Element {
	return Element{
		ID: "root", Type: TypeContainer, Width: 200, Height: 100,
		Layout: &AutoLayout{Mode: ModeHorizontal},
		Children: []Element{
			{ID: "a", Type: TypeText, Width: 50, Height: 20},
			{ID: "b", Type: TypeContainer, Children: []Element{
				{ID: "b1", Type: TypeVector, Width: 24, Height: 24},
			}},
		},
	}
}

func TestParseElementType(t *testing.T) {
	tests := []struct {
		in     string
		want   ElementType
		wantOK bool
	}{
		{"text", TypeText, true},
		{" Vector ", TypeVector, true},
		{"INTERACTIVE", TypeInteractive, true},
		{"frame", ElementType("frame"), false},
	}
	for _, tt := range tests {
		got, ok := ParseElementType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseElementType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWalkOrder(t *testing.T) {
	var ids []string
	var parents []string
	tree().Walk(func(el Element, parent *Element) bool {
		ids = append(ids, el.ID)
		if parent != nil {
			parents = append(parents, parent.ID)
		} else {
			parents = append(parents, "")
		}
		return true
	})

	want := []string{"root", "a", "b", "b1"}
	wantParents := []string{"", "root", "root", "b"}
	for i := range want {
		if ids[i] != want[i] || parents[i] != wantParents[i] {
			t.Fatalf("Walk() visited %v with parents %v", ids, parents)
		}
	}
}

func TestWalkPrune(t *testing.T) {
	count := 0
	tree().Walk(func(el Element, _ *Element) bool {
		count++
		return el.ID != "b"
	})
	if count != 3 {
		t.Errorf("pruned walk visited %d elements, want 3", count)
	}
}

func TestFind(t *testing.T) {
	el, ok := tree().Find("b1")
	if !ok || el.Type != TypeVector {
		t.Errorf("Find(b1) = %+v, %v", el, ok)
	}
	if _, ok := tree().Find("missing"); ok {
		t.Error("Find(missing) should fail")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := tree()
	c := orig.Clone()
	c.Layout.Mode = ModeVertical
	c.Children[1].Children[0].Width = 999

	if orig.Layout.Mode != ModeHorizontal {
		t.Error("Clone shares Layout with original")
	}
	if orig.Children[1].Children[0].Width != 24 {
		t.Error("Clone shares children with original")
	}
}

func TestElementPredicates(t *testing.T) {
	root := tree()
	if !root.HasAutoLayout() || !root.IsContainer() {
		t.Error("root should be an auto-layout container")
	}
	if root.Children[0].IsContainer() {
		t.Error("text leaf should not be a container")
	}
	empty := Element{Type: TypeContainer, Layout: &AutoLayout{Mode: ModeNone}}
	if empty.HasAutoLayout() {
		t.Error("ModeNone should not count as auto layout")
	}
	if !empty.IsContainer() {
		t.Error("container type without children is still a container")
	}
}
