package pipeline

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autoflex/pkg/cache"
	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/observability"
	"github.com/matzehuels/autoflex/pkg/rules"
	"github.com/matzehuels/autoflex/pkg/structure"
)

func row() geom.Element {
	return geom.Element{
		ID: "row", Name: "Toolbar", Type: geom.TypeContainer, Width: 332, Height: 100,
		Children: []geom.Element{
			{ID: "a", Type: geom.TypeShape, X: 0, Y: 0, Width: 100, Height: 100},
			{ID: "b", Type: geom.TypeShape, X: 116, Y: 0, Width: 100, Height: 100},
			{ID: "c", Type: geom.TypeShape, X: 232, Y: 0, Width: 100, Height: 100},
		},
	}
}

func TestExecute(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), row(), Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Structure.LayoutType != structure.LayoutHorizontal {
		t.Errorf("layout = %s, want horizontal", res.Structure.LayoutType)
	}
	if len(res.Relationships) != 3 || len(res.Sizing) != 3 || len(res.Plan) == 0 {
		t.Errorf("relationships=%d sizing=%d plan=%d", len(res.Relationships), len(res.Sizing), len(res.Plan))
	}
	if res.Stats.Elements != 4 || res.Stats.Containers != 1 || res.Stats.Steps != len(res.Plan) {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.SnapshotHash == "" || res.CacheHit {
		t.Errorf("hash=%q hit=%v", res.SnapshotHash, res.CacheHit)
	}
	if res.Violations != nil {
		t.Error("rules should only run when requested")
	}
	for _, stage := range []string{StageRelate, StageCluster, StageStructure, StageSizing, StagePlan} {
		if _, ok := res.Timings[stage]; !ok {
			t.Errorf("no timing for stage %s", stage)
		}
	}
}

func TestExecuteSingleElement(t *testing.T) {
	leaf := geom.Element{ID: "solo", Type: geom.TypeShape, Width: 10, Height: 10}
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), leaf, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Relationships) != 1 {
		t.Fatalf("got %d relationships, want 1", len(res.Relationships))
	}
	r := res.Relationships[0]
	if len(r.Horizontal)+len(r.Vertical) != 0 || !r.Adjacency.Empty() {
		t.Errorf("single element should have no relations: %+v", r)
	}
	if len(res.Plan) != 0 {
		t.Errorf("leaf produced %d steps", len(res.Plan))
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := runner.Execute(ctx, row(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := runner.Execute(ctx, row(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("hits: first=%v second=%v", first.CacheHit, second.CacheHit)
	}
	if !reflect.DeepEqual(first.Plan, second.Plan) {
		t.Error("cached plan differs")
	}

	refreshed, _ := runner.Execute(ctx, row(), Options{Refresh: true})
	if refreshed.CacheHit {
		t.Error("Refresh should bypass the cache")
	}
	grouped, _ := runner.Execute(ctx, row(), Options{Grouping: true})
	if grouped.CacheHit {
		t.Error("different options must not share a cache entry")
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewRunner(nil, nil, nil).Execute(ctx, row(), Options{})
	if err != context.Canceled || res != nil {
		t.Errorf("Execute() = %v, %v; want nil, context.Canceled", res, err)
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Relate.Tolerance = 0
	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), row(), Options{Config: &cfg}); err == nil {
		t.Error("invalid configuration should fail")
	}
}

func TestExecuteInvalidRoot(t *testing.T) {
	root := row()
	root.Width = -1
	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), root, Options{}); err == nil {
		t.Error("a root with invalid geometry should fail")
	}
}

func TestExecuteSkipsInvalidChild(t *testing.T) {
	root := row()
	root.Children = append(root.Children, geom.Element{ID: "bad", Type: geom.TypeShape, Width: -5, Height: 10})
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	stages := map[diag.Stage]bool{}
	for _, d := range res.Diagnostics {
		if d.EntityID == "bad" || d.Stage == diag.StageRelate {
			stages[d.Stage] = true
		}
	}
	for _, s := range []diag.Stage{diag.StageRelate, diag.StageCluster, diag.StageStructure} {
		if !stages[s] {
			t.Errorf("no %s diagnostic for the invalid child", s)
		}
	}
	if res.Stats.Skipped != len(res.Diagnostics) || len(res.Plan) == 0 {
		t.Errorf("partial result: skipped=%d plan=%d", res.Stats.Skipped, len(res.Plan))
	}
}

func TestExecuteVerify(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), row(), Options{Verify: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 1 || res.Violations[0].RuleID != rules.RuleMissingAutoLayout {
		t.Fatalf("violations = %+v", res.Violations)
	}
	want := []rules.FixResult{{
		NodeID: "row", NodeName: "Toolbar", RuleID: rules.RuleMissingAutoLayout,
		Status: rules.StatusFixed, Message: res.Violations[0].Message,
	}}
	if !reflect.DeepEqual(res.Fixes, want) {
		t.Errorf("fixes = %+v", res.Fixes)
	}
}

func TestExecuteStageLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), row(), Options{Rules: true, Logger: logger}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"related siblings", "clustered siblings", "synthesized structure", "classified sizing", "built plan", "checked rules"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("stage log missing %q:\n%s", want, buf.String())
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Config == nil || o.Logger == nil {
		t.Error("defaults not applied")
	}
	v := Options{Verify: true}
	v.SetDefaults()
	if !v.Rules {
		t.Error("Verify should imply Rules")
	}

	k1, err := o.KeyOpts()
	if err != nil {
		t.Fatal(err)
	}
	other := config.Default()
	other.Plan.Tolerance = 3
	o2 := Options{Config: &other}
	k2, _ := o2.KeyOpts()
	if k1.ConfigHash == k2.ConfigHash {
		t.Error("config changes must change the key")
	}
}

type recorder struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	stages []string
	hits   int
	misses int
}

func (r *recorder) OnStageComplete(_ context.Context, stage string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *recorder) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *recorder) OnCacheMiss(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func TestHooks(t *testing.T) {
	rec := &recorder{}
	observability.SetPipelineHooks(rec)
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	c, _ := cache.NewFileCache(t.TempDir())
	runner := NewRunner(c, nil, nil)
	for i := 0; i < 2; i++ {
		if _, err := runner.Execute(context.Background(), row(), Options{Rules: true}); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{StageRelate, StageCluster, StageStructure, StageSizing, StagePlan, StageRules}
	if !reflect.DeepEqual(rec.stages, want) {
		t.Errorf("stages = %v, want %v", rec.stages, want)
	}
	if rec.misses != 1 || rec.hits != 1 {
		t.Errorf("misses=%d hits=%d", rec.misses, rec.hits)
	}
}
