package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autoflex/pkg/cache"
	"github.com/matzehuels/autoflex/pkg/cluster"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/observability"
	"github.com/matzehuels/autoflex/pkg/plan"
	"github.com/matzehuels/autoflex/pkg/relate"
	"github.com/matzehuels/autoflex/pkg/rules"
	"github.com/matzehuels/autoflex/pkg/sizing"
	"github.com/matzehuels/autoflex/pkg/structure"
)

// cacheKeyType labels analysis entries in cache hooks.
const cacheKeyType = "analysis"

// Runner executes analyses with caching.
//
// A Runner holds no per-analysis state, so one Runner can serve concurrent
// Execute calls with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil cache disables caching, a nil keyer
// uses the default key scheme and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute analyzes the tree rooted at root.
//
// The error is non-nil only for invalid options, an unusable root element or
// a cancelled context; skipped entities are reported in Result.Diagnostics.
func (r *Runner) Execute(ctx context.Context, root geom.Element, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	snapHash, err := cache.HashJSON(root)
	if err != nil {
		return nil, fmt.Errorf("hash snapshot: %w", err)
	}
	keyOpts, err := opts.KeyOpts()
	if err != nil {
		return nil, fmt.Errorf("hash options: %w", err)
	}
	key := r.Keyer.AnalysisKey(snapHash, keyOpts)

	if !opts.Refresh {
		if res, ok := r.cached(ctx, key); ok {
			r.Logger.Info("using cached analysis", "root", root.ID, "steps", len(res.Plan))
			return res, nil
		}
	}

	res, err := r.analyze(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	res.SnapshotHash = snapHash

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "error", err)
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	res.CacheHit = true
	return &res, true
}

func (r *Runner) analyze(ctx context.Context, root geom.Element, opts Options) (*Result, error) {
	cfg, logger := opts.Config, opts.Logger
	res := &Result{RootID: root.ID, Timings: make(map[string]time.Duration)}
	res.Stats.Elements = count(root)

	siblings := root.Children
	if len(siblings) == 0 {
		siblings = []geom.Element{root}
	}

	if err := r.stage(ctx, res, StageRelate, len(siblings), func() error {
		rels, err := relate.New(cfg.Relate).Analyze(siblings)
		if err != nil {
			res.Diagnostics.Skip(diag.StageRelate, root.ID, err)
			return nil
		}
		res.Relationships = rels
		logger.Debug("related siblings", "root", root.ID, "elements", len(rels))
		return nil
	}); err != nil {
		return nil, err
	}

	engine := cluster.New(cfg.Cluster)
	if err := r.stage(ctx, res, StageCluster, len(siblings), func() error {
		clusters, diags := engine.Cluster(siblings)
		res.Clusters = clusters
		res.Diagnostics.Merge(diags)
		res.Stats.Clusters = len(clusters)
		logger.Debug("clustered siblings", "root", root.ID, "clusters", len(clusters))
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, res, StageStructure, res.Stats.Elements, func() error {
		synth := structure.New(cfg.Structure, cfg.Relate, cfg.Vocabulary)
		if opts.Grouping {
			synth = synth.WithGrouping(engine, cfg.Plan.GroupScoreThreshold)
		}
		st, diags, err := synth.Synthesize(ctx, root)
		if err != nil {
			return err
		}
		res.Structure = st
		res.Diagnostics.Merge(diags)
		res.Stats.Containers = st.Count()
		logger.Debug("synthesized structure", "root", root.ID, "layout", st.LayoutType, "containers", res.Stats.Containers)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, res, StageSizing, res.Stats.Containers, func() error {
		analyses, diags := sizing.New(cfg.Sizing, cfg.Vocabulary).Annotate(res.Structure)
		res.Sizing = analyses
		res.Diagnostics.Merge(diags)
		logger.Debug("classified sizing", "root", root.ID, "elements", len(analyses))
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, res, StagePlan, res.Stats.Containers, func() error {
		steps, diags := plan.New(cfg.Plan).Build(res.Structure)
		res.Plan = steps
		res.Diagnostics.Merge(diags)
		res.Stats.Steps = len(steps)
		logger.Debug("built plan", "root", root.ID, "steps", len(steps))
		return nil
	}); err != nil {
		return nil, err
	}

	if opts.Rules {
		if err := r.stage(ctx, res, StageRules, res.Stats.Elements, func() error {
			return r.check(res, root, opts)
		}); err != nil {
			return nil, err
		}
	}

	res.Stats.Skipped = len(res.Diagnostics)
	for _, d := range res.Diagnostics {
		r.Logger.Debug("diagnostic", "stage", d.Stage, "entity", d.EntityID, "message", d.Message)
	}
	return res, nil
}

func (r *Runner) check(res *Result, root geom.Element, opts Options) error {
	checker := rules.New(opts.Config.Rules)
	res.Violations = checker.Check(root)
	res.Stats.Violations = len(res.Violations)
	opts.Logger.Debug("checked rules", "root", root.ID, "violations", res.Stats.Violations)
	if !opts.Verify {
		return nil
	}
	after, err := plan.Simulate(root, res.Plan)
	if err != nil {
		res.Diagnostics.Skip(diag.StageRules, root.ID, err)
		return nil
	}
	res.Fixes = rules.Compare(res.Violations, checker.Check(after))
	return nil
}

// stage runs fn between observability hooks and logs its duration. It
// returns ctx.Err() when the context ends before or during the stage.
func (r *Runner) stage(ctx context.Context, res *Result, name string, elements int, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name, elements)
	before := len(res.Diagnostics)
	start := time.Now()

	err := fn()
	if err == nil {
		err = ctx.Err()
	}
	d := time.Since(start)
	res.Timings[name] = d
	hooks.OnStageComplete(ctx, name, d, err)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if n := len(res.Diagnostics) - before; n > 0 {
		hooks.OnDiagnostics(ctx, name, n)
	}
	r.Logger.Info("completed "+name, "elements", elements, "duration", d)
	return nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func count(root geom.Element) int {
	n := 0
	root.Walk(func(geom.Element, *geom.Element) bool {
		n++
		return true
	})
	return n
}
