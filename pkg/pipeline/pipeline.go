// Package pipeline runs the complete layout inference over a snapshot.
//
// This package wires the engine components into one analysis that the CLI
// and library callers share, so every entry point caches, logs and reports
// the same way.
//
// # Stages
//
//  1. Relate: pairwise relationships between the root's direct children
//  2. Cluster: spatial clusters among the same children
//  3. Structure: the recursive layout structure of the whole tree
//  4. Sizing: FIXED/HUG/FILL recommendations, written onto the structure
//  5. Plan: the ordered conversion steps
//  6. Rules: design rule violations, and with Verify the effect of the plan
//
// Relationship and clustering failures do not abort the analysis; they are
// recorded as diagnostics. A cancelled context aborts it and partial results
// are discarded.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, root, pipeline.Options{Grouping: true})
//	if err != nil {
//	    return err
//	}
//	for _, step := range result.Plan {
//	    fmt.Println(step.Order, step.Description)
//	}
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autoflex/pkg/buildinfo"
	"github.com/matzehuels/autoflex/pkg/cache"
	"github.com/matzehuels/autoflex/pkg/cluster"
	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/plan"
	"github.com/matzehuels/autoflex/pkg/relate"
	"github.com/matzehuels/autoflex/pkg/rules"
	"github.com/matzehuels/autoflex/pkg/sizing"
	"github.com/matzehuels/autoflex/pkg/structure"
)

// Stage names, as passed to observability hooks and used in log output.
const (
	StageRelate    = "relate"
	StageCluster   = "cluster"
	StageStructure = "structure"
	StageSizing    = "sizing"
	StagePlan      = "plan"
	StageRules     = "rules"
)

// =============================================================================
// Options
// =============================================================================

// Options configure one analysis.
type Options struct {
	// Config holds the engine parameters. Nil means config.Default().
	Config *config.Config `json:"config,omitempty"`

	// Grouping wraps strong clusters into new group containers before
	// synthesis, so the plan may contain create_group steps.
	Grouping bool `json:"grouping,omitempty"`
	// Rules runs the design rule checker on the snapshot.
	Rules bool `json:"rules,omitempty"`
	// Verify simulates the plan and re-runs the rules on the result.
	// It implies Rules.
	Verify bool `json:"verify,omitempty"`
	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives per-stage debug output. Nil discards it.
	Logger *log.Logger `json:"-"`

	validated bool
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	if o.Verify {
		o.Rules = true
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options. SetDefaults must have been called.
func (o *Options) Validate() error {
	if o.Config == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "no configuration")
	}
	return o.Config.Validate()
}

// ValidateAndSetDefaults applies defaults and validates. Calling it again is
// a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// KeyOpts returns the cache key options for these options.
func (o *Options) KeyOpts() (cache.AnalysisKeyOpts, error) {
	h, err := cache.HashJSON(o.Config)
	if err != nil {
		return cache.AnalysisKeyOpts{}, err
	}
	return cache.AnalysisKeyOpts{
		ConfigHash: h,
		Grouping:   o.Grouping,
		Rules:      o.Rules,
		Verify:     o.Verify,
		Version:    buildinfo.Version,
	}, nil
}

// =============================================================================
// Result
// =============================================================================

// Result holds every output of an analysis. It is plain data and can be
// serialized as JSON.
type Result struct {
	RootID       string `json:"root_id"`
	SnapshotHash string `json:"snapshot_hash"`

	// Relationships and Clusters cover the root's direct children, or the
	// root itself when it has none.
	Relationships relate.Set           `json:"relationships"`
	Clusters      []cluster.Cluster    `json:"clusters"`
	Structure     *structure.Structure `json:"structure"`
	Sizing        []sizing.Analysis    `json:"sizing"`
	Plan          []plan.Step          `json:"plan"`
	Violations    []rules.Violation    `json:"violations,omitempty"`
	Fixes         []rules.FixResult    `json:"fixes,omitempty"`
	Diagnostics   diag.List            `json:"diagnostics,omitempty"`
	Stats         Stats                `json:"stats"`

	// Timings holds the duration of each stage that ran.
	Timings map[string]time.Duration `json:"-"`
	// CacheHit reports whether the result was read from the cache.
	CacheHit bool `json:"-"`
}

// Stats summarizes an analysis.
type Stats struct {
	Elements   int `json:"elements"`
	Containers int `json:"containers"`
	Clusters   int `json:"clusters"`
	Steps      int `json:"steps"`
	Violations int `json:"violations"`
	Skipped    int `json:"skipped"`
}
