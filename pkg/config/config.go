// Package config holds the tunable parameters of the inference engine.
//
// Every heuristic constant lives here rather than in algorithm code: alignment
// tolerances, clustering weights, the five-factor sizing weights and their
// score tables, and the keyword vocabularies used to recognise decorative,
// interactive and stretchable elements. Each engine component receives its
// own section by value, so tests can build fixtures with custom vocabularies.
//
// Configuration can be loaded from TOML; unspecified keys keep their defaults:
//
//	cfg, err := config.Load("autoflex.toml")
//	if err != nil {
//	    return err
//	}
//	analyzer := relate.New(cfg.Relate)
package config

import (
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/autoflex/pkg/errors"
)

// weightEpsilon is the allowed drift when weights must sum to one.
const weightEpsilon = 1e-6

// Config is the complete engine configuration.
type Config struct {
	Relate     Relate     `toml:"relate" json:"relate"`
	Cluster    Cluster    `toml:"cluster" json:"cluster"`
	Structure  Structure  `toml:"structure" json:"structure"`
	Sizing     Sizing     `toml:"sizing" json:"sizing"`
	Plan       Plan       `toml:"plan" json:"plan"`
	Rules      Rules      `toml:"rules" json:"rules"`
	Vocabulary Vocabulary `toml:"vocabulary" json:"vocabulary"`
}

// Relate configures pairwise relationship detection.
type Relate struct {
	// Tolerance is the alignment tolerance in pixels.
	Tolerance float64 `toml:"tolerance" json:"tolerance"`
	// ConfidenceDecay scales Tolerance into the window over which alignment
	// confidence decays from 1 to 0.
	ConfidenceDecay float64 `toml:"confidence_decay" json:"confidence_decay"`
	// ContainmentInset lets a child poke out of its container by this many pixels.
	ContainmentInset float64 `toml:"containment_inset" json:"containment_inset"`
}

// Window returns the deviation at which alignment confidence reaches zero.
func (r Relate) Window() float64 { return r.Tolerance * r.ConfidenceDecay }

// Cluster configures spatial clustering.
type Cluster struct {
	MergeDistanceScale float64 `toml:"merge_distance_scale" json:"merge_distance_scale"`
	MinClusterSize     int     `toml:"min_cluster_size" json:"min_cluster_size"`
	DensityWeight      float64 `toml:"density_weight" json:"density_weight"`
	SemanticWeight     float64 `toml:"semantic_weight" json:"semantic_weight"`
	NameWeight         float64 `toml:"name_weight" json:"name_weight"`
	TypeWeight         float64 `toml:"type_weight" json:"type_weight"`
}

// Structure configures layout synthesis.
type Structure struct {
	// AxisClosenessRatio is the min/max variance ratio at or above which the
	// flow axis is considered ambiguous (grid or mixed).
	AxisClosenessRatio float64 `toml:"axis_closeness_ratio" json:"axis_closeness_ratio"`
	// SpacingBucket is the rounding width for the spacing mode, in pixels.
	SpacingBucket float64 `toml:"spacing_bucket" json:"spacing_bucket"`
	// RowTolerance groups children into grid rows and columns.
	RowTolerance float64 `toml:"row_tolerance" json:"row_tolerance"`
	// Parallel enables concurrent synthesis of sibling subtrees.
	Parallel bool `toml:"parallel" json:"parallel"`
}

// Plan configures conversion planning.
type Plan struct {
	// Tolerance below which current and target values are considered equal.
	Tolerance float64 `toml:"tolerance" json:"tolerance"`
	// GroupScoreThreshold is the minimum cluster score for wrapping a cluster
	// into a new group.
	GroupScoreThreshold float64 `toml:"group_score_threshold" json:"group_score_threshold"`
}

// Rules configures the design rule checker.
type Rules struct {
	SpacingTolerance  float64 `toml:"spacing_tolerance" json:"spacing_tolerance"`
	OverflowTolerance float64 `toml:"overflow_tolerance" json:"overflow_tolerance"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Relate: Relate{
			Tolerance:        2,
			ConfidenceDecay:  2,
			ContainmentInset: 0,
		},
		Cluster: Cluster{
			MergeDistanceScale: 0.5,
			MinClusterSize:     2,
			DensityWeight:      0.5,
			SemanticWeight:     0.5,
			NameWeight:         0.5,
			TypeWeight:         0.5,
		},
		Structure: Structure{
			AxisClosenessRatio: 0.5,
			SpacingBucket:      1,
			RowTolerance:       2,
			Parallel:           true,
		},
		Sizing: DefaultSizing(),
		Plan: Plan{
			Tolerance:           1,
			GroupScoreThreshold: 0.5,
		},
		Rules: Rules{
			SpacingTolerance:  2,
			OverflowTolerance: 0.5,
		},
		Vocabulary: DefaultVocabulary(),
	}
}

// Load reads a TOML file layered over the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML from r layered over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks that every section is usable.
func (c Config) Validate() error {
	if c.Relate.Tolerance <= 0 {
		return invalid("relate.tolerance must be positive")
	}
	if c.Relate.ConfidenceDecay <= 0 {
		return invalid("relate.confidence_decay must be positive")
	}
	if c.Relate.ContainmentInset < 0 {
		return invalid("relate.containment_inset must not be negative")
	}

	if c.Cluster.MergeDistanceScale <= 0 {
		return invalid("cluster.merge_distance_scale must be positive")
	}
	if c.Cluster.MinClusterSize < 1 {
		return invalid("cluster.min_cluster_size must be at least 1")
	}
	if err := sumsToOne("cluster density/semantic weights", c.Cluster.DensityWeight, c.Cluster.SemanticWeight); err != nil {
		return err
	}
	if err := sumsToOne("cluster name/type weights", c.Cluster.NameWeight, c.Cluster.TypeWeight); err != nil {
		return err
	}

	if c.Structure.AxisClosenessRatio <= 0 || c.Structure.AxisClosenessRatio > 1 {
		return invalid("structure.axis_closeness_ratio must be in (0, 1]")
	}
	if c.Structure.SpacingBucket <= 0 {
		return invalid("structure.spacing_bucket must be positive")
	}
	if c.Structure.RowTolerance < 0 {
		return invalid("structure.row_tolerance must not be negative")
	}

	if err := c.Sizing.Validate(); err != nil {
		return err
	}

	if c.Plan.Tolerance < 0 {
		return invalid("plan.tolerance must not be negative")
	}
	if c.Plan.GroupScoreThreshold < 0 || c.Plan.GroupScoreThreshold > 1 {
		return invalid("plan.group_score_threshold must be in [0, 1]")
	}
	if c.Rules.SpacingTolerance < 0 || c.Rules.OverflowTolerance < 0 {
		return invalid("rules tolerances must not be negative")
	}
	return c.Vocabulary.Validate()
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeInvalidConfig, "%s", msg)
}

func sumsToOne(what string, weights ...float64) error {
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative", what)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightEpsilon {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must sum to 1 (got %g)", what, sum)
	}
	return nil
}
