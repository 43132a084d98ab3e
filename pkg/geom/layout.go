package geom

// Axis identifies one of the two layout axes.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// Cross returns the perpendicular axis.
func (a Axis) Cross() Axis {
	if a == AxisHorizontal {
		return AxisVertical
	}
	return AxisHorizontal
}

// LayoutMode is the flow mode of an auto-layout container.
type LayoutMode string

const (
	ModeNone       LayoutMode = "none"
	ModeHorizontal LayoutMode = "horizontal"
	ModeVertical   LayoutMode = "vertical"
)

// Align is a position along an axis.
type Align string

const (
	AlignMin    Align = "MIN"
	AlignCenter Align = "CENTER"
	AlignMax    Align = "MAX"
)

// SizingMode is the per-axis sizing policy of a child in a flow layout.
type SizingMode string

const (
	SizingFixed SizingMode = "FIXED"
	SizingHug   SizingMode = "HUG"
	SizingFill  SizingMode = "FILL"
)

// SizingPair holds one sizing policy per axis.
type SizingPair struct {
	Horizontal SizingMode `json:"horizontal"`
	Vertical   SizingMode `json:"vertical"`
}

// On returns the policy for axis a.
func (p SizingPair) On(a Axis) SizingMode {
	if a == AxisHorizontal {
		return p.Horizontal
	}
	return p.Vertical
}

// Spacing is the gap between consecutive children, per axis.
type Spacing struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

// Padding is the inset between a container's bounds and its content.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Alignment is the child alignment of a container on each axis.
type Alignment struct {
	Horizontal Align `json:"horizontal"`
	Vertical   Align `json:"vertical"`
}

// AutoLayout is the flow layout currently configured on a container.
// Wrap marks a horizontal layout whose children wrap into rows.
type AutoLayout struct {
	Mode      LayoutMode `json:"mode"`
	Wrap      bool       `json:"wrap,omitempty"`
	Spacing   Spacing    `json:"spacing"`
	Padding   Padding    `json:"padding"`
	Alignment Alignment  `json:"alignment"`
}
