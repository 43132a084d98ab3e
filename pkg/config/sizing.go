package config

import (
	"fmt"

	"github.com/matzehuels/autoflex/pkg/errors"
)

// Scores is one factor's vote for each sizing policy, each in [0, 1].
type Scores struct {
	Hug   float64 `toml:"hug" json:"hug"`
	Fixed float64 `toml:"fixed" json:"fixed"`
	Fill  float64 `toml:"fill" json:"fill"`
}

func (s Scores) validate(name string) error {
	for _, v := range []float64{s.Hug, s.Fixed, s.Fill} {
		if v < 0 || v > 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "sizing table %s has score %g outside [0, 1]", name, v)
		}
	}
	return nil
}

// Weights are the relative importance of the five sizing factors.
// They must sum to one.
type Weights struct {
	ContentType     float64 `toml:"content_type" json:"content_type"`
	SpatialPosition float64 `toml:"spatial_position" json:"spatial_position"`
	SemanticRole    float64 `toml:"semantic_role" json:"semantic_role"`
	UserBehavior    float64 `toml:"user_behavior" json:"user_behavior"`
	LayoutDirection float64 `toml:"layout_direction" json:"layout_direction"`
}

// ContentTable scores elements by what they contain.
type ContentTable struct {
	Text             Scores `toml:"text" json:"text"`
	Icon             Scores `toml:"icon" json:"icon"`
	Shape            Scores `toml:"shape" json:"shape"`
	ShapePrimary     Scores `toml:"shape_primary" json:"shape_primary"`
	Container        Scores `toml:"container" json:"container"`
	ContainerPrimary Scores `toml:"container_primary" json:"container_primary"`
	Decorative       Scores `toml:"decorative" json:"decorative"`
	Interactive      Scores `toml:"interactive" json:"interactive"`
}

// SpatialTable scores elements by how much of the container they span.
type SpatialTable struct {
	Spanning Scores `toml:"spanning" json:"spanning"`
	Small    Scores `toml:"small" json:"small"`
	Medium   Scores `toml:"medium" json:"medium"`
}

// RoleTable scores elements by their layout role.
type RoleTable struct {
	Primary    Scores `toml:"primary" json:"primary"`
	Secondary  Scores `toml:"secondary" json:"secondary"`
	Decorative Scores `toml:"decorative" json:"decorative"`
}

// BehaviorTable scores elements by interaction affordance.
type BehaviorTable struct {
	Interactive Scores `toml:"interactive" json:"interactive"`
	Stretch     Scores `toml:"stretch" json:"stretch"`
	Neutral     Scores `toml:"neutral" json:"neutral"`
}

// DirectionTable scores an axis by its relation to the container's flow.
type DirectionTable struct {
	FlowPrimary   Scores `toml:"flow_primary" json:"flow_primary"`
	FlowOther     Scores `toml:"flow_other" json:"flow_other"`
	CrossSpanning Scores `toml:"cross_spanning" json:"cross_spanning"`
	CrossOther    Scores `toml:"cross_other" json:"cross_other"`
}

// Sizing configures the responsive sizing classifier.
type Sizing struct {
	Weights Weights `toml:"weights" json:"weights"`
	// FillCoverage is the fraction of the container extent above which a
	// child is considered to span the container.
	FillCoverage float64 `toml:"fill_coverage" json:"fill_coverage"`
	// SmallElementSize is the extent in pixels at or below which a child is
	// considered small on that axis.
	SmallElementSize float64 `toml:"small_element_size" json:"small_element_size"`

	Content   ContentTable   `toml:"content" json:"content"`
	Spatial   SpatialTable   `toml:"spatial" json:"spatial"`
	Role      RoleTable      `toml:"role" json:"role"`
	Behavior  BehaviorTable  `toml:"behavior" json:"behavior"`
	Direction DirectionTable `toml:"direction" json:"direction"`
}

// DefaultSizing returns the built-in sizing weights and tables.
func DefaultSizing() Sizing {
	return Sizing{
		Weights: Weights{
			ContentType:     0.25,
			SpatialPosition: 0.25,
			SemanticRole:    0.2,
			UserBehavior:    0.15,
			LayoutDirection: 0.15,
		},
		FillCoverage:     0.75,
		SmallElementSize: 48,
		Content: ContentTable{
			Text:             Scores{Hug: 1, Fixed: 0.2, Fill: 0.3},
			Icon:             Scores{Hug: 0.2, Fixed: 1, Fill: 0},
			Shape:            Scores{Hug: 0, Fixed: 0.7, Fill: 0.3},
			ShapePrimary:     Scores{Hug: 0, Fixed: 0.3, Fill: 0.7},
			Container:        Scores{Hug: 0.7, Fixed: 0.2, Fill: 0.3},
			ContainerPrimary: Scores{Hug: 0.4, Fixed: 0.1, Fill: 0.7},
			Decorative:       Scores{Hug: 0, Fixed: 1, Fill: 0},
			Interactive:      Scores{Hug: 0.6, Fixed: 0.5, Fill: 0.2},
		},
		Spatial: SpatialTable{
			Spanning: Scores{Hug: 0.2, Fixed: 0.1, Fill: 1},
			Small:    Scores{Hug: 0.3, Fixed: 0.9, Fill: 0},
			Medium:   Scores{Hug: 0.6, Fixed: 0.4, Fill: 0.25},
		},
		Role: RoleTable{
			Primary:    Scores{Hug: 0.4, Fixed: 0.1, Fill: 0.8},
			Secondary:  Scores{Hug: 0.8, Fixed: 0.4, Fill: 0.1},
			Decorative: Scores{Hug: 0, Fixed: 1, Fill: 0},
		},
		Behavior: BehaviorTable{
			Interactive: Scores{Hug: 0.4, Fixed: 1, Fill: 0},
			Stretch:     Scores{Hug: 0.2, Fixed: 0.2, Fill: 1},
			Neutral:     Scores{Hug: 0.5, Fixed: 0.5, Fill: 0.5},
		},
		Direction: DirectionTable{
			FlowPrimary:   Scores{Hug: 0.5, Fixed: 0.2, Fill: 0.8},
			FlowOther:     Scores{Hug: 0.6, Fixed: 0.4, Fill: 0.3},
			CrossSpanning: Scores{Hug: 0.5, Fixed: 0.2, Fill: 0.6},
			CrossOther:    Scores{Hug: 0.7, Fixed: 0.5, Fill: 0.2},
		},
	}
}

// Validate checks weights and tables.
func (s Sizing) Validate() error {
	w := s.Weights
	if err := sumsToOne("sizing weights", w.ContentType, w.SpatialPosition, w.SemanticRole, w.UserBehavior, w.LayoutDirection); err != nil {
		return err
	}
	if s.FillCoverage <= 0 || s.FillCoverage > 1 {
		return invalid("sizing.fill_coverage must be in (0, 1]")
	}
	if s.SmallElementSize <= 0 {
		return invalid("sizing.small_element_size must be positive")
	}

	tables := map[string]Scores{
		"content.text":              s.Content.Text,
		"content.icon":              s.Content.Icon,
		"content.shape":             s.Content.Shape,
		"content.shape_primary":     s.Content.ShapePrimary,
		"content.container":         s.Content.Container,
		"content.container_primary": s.Content.ContainerPrimary,
		"content.decorative":        s.Content.Decorative,
		"content.interactive":       s.Content.Interactive,
		"spatial.spanning":          s.Spatial.Spanning,
		"spatial.small":             s.Spatial.Small,
		"spatial.medium":            s.Spatial.Medium,
		"role.primary":              s.Role.Primary,
		"role.secondary":            s.Role.Secondary,
		"role.decorative":           s.Role.Decorative,
		"behavior.interactive":      s.Behavior.Interactive,
		"behavior.stretch":          s.Behavior.Stretch,
		"behavior.neutral":          s.Behavior.Neutral,
		"direction.flow_primary":    s.Direction.FlowPrimary,
		"direction.flow_other":      s.Direction.FlowOther,
		"direction.cross_spanning":  s.Direction.CrossSpanning,
		"direction.cross_other":     s.Direction.CrossOther,
	}
	for name, sc := range tables {
		if err := sc.validate(name); err != nil {
			return err
		}
	}
	return nil
}

// String formats the scores compactly for reasoning output.
func (s Scores) String() string {
	return fmt.Sprintf("hug=%.2f fixed=%.2f fill=%.2f", s.Hug, s.Fixed, s.Fill)
}
