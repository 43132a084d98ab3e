package geom

import (
	"math"

	"github.com/matzehuels/autoflex/pkg/errors"
)

// BoundingBox is the axis-aligned extent of an element.
// All values are derived from the element and recomputed on every call.
type BoundingBox struct {
	MinX    float64 `json:"minX"`
	MinY    float64 `json:"minY"`
	MaxX    float64 `json:"maxX"`
	MaxY    float64 `json:"maxY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
}

// Box builds a bounding box from its minimum corner and size.
func Box(x, y, w, h float64) BoundingBox {
	return BoundingBox{
		MinX:    x,
		MinY:    y,
		MaxX:    x + w,
		MaxY:    y + h,
		Width:   w,
		Height:  h,
		CenterX: x + w/2,
		CenterY: y + h/2,
	}
}

// BoundsOf returns the bounding box of e.
// Negative or non-finite sizes are rejected with INVALID_GEOMETRY.
func BoundsOf(e Element) (BoundingBox, error) {
	if err := errors.ValidateDimensions(e.ID, e.Width, e.Height); err != nil {
		return BoundingBox{}, err
	}
	if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsInf(e.X, 0) || math.IsInf(e.Y, 0) {
		return BoundingBox{}, errors.New(errors.ErrCodeInvalidGeometry, "element %s has non-finite position", e.ID)
	}
	return Box(e.X, e.Y, e.Width, e.Height), nil
}

// UnionOf returns the smallest box enclosing all boxes.
// It returns EMPTY_INPUT when boxes is empty.
func UnionOf(boxes []BoundingBox) (BoundingBox, error) {
	if len(boxes) == 0 {
		return BoundingBox{}, errors.New(errors.ErrCodeEmptyInput, "union of zero bounding boxes")
	}
	minX, minY := boxes[0].MinX, boxes[0].MinY
	maxX, maxY := boxes[0].MaxX, boxes[0].MaxY
	for _, b := range boxes[1:] {
		minX = math.Min(minX, b.MinX)
		minY = math.Min(minY, b.MinY)
		maxX = math.Max(maxX, b.MaxX)
		maxY = math.Max(maxY, b.MaxY)
	}
	return Box(minX, minY, maxX-minX, maxY-minY), nil
}

// Area returns the box area.
func (b BoundingBox) Area() float64 { return b.Width * b.Height }

// Min returns the start coordinate on axis a.
func (b BoundingBox) Min(a Axis) float64 {
	if a == AxisHorizontal {
		return b.MinX
	}
	return b.MinY
}

// Max returns the end coordinate on axis a.
func (b BoundingBox) Max(a Axis) float64 {
	if a == AxisHorizontal {
		return b.MaxX
	}
	return b.MaxY
}

// Center returns the midpoint on axis a.
func (b BoundingBox) Center(a Axis) float64 {
	if a == AxisHorizontal {
		return b.CenterX
	}
	return b.CenterY
}

// Extent returns the size on axis a.
func (b BoundingBox) Extent(a Axis) float64 {
	if a == AxisHorizontal {
		return b.Width
	}
	return b.Height
}

// Contains reports whether other lies within b grown by inset on every side.
func (b BoundingBox) Contains(other BoundingBox, inset float64) bool {
	return other.MinX >= b.MinX-inset &&
		other.MinY >= b.MinY-inset &&
		other.MaxX <= b.MaxX+inset &&
		other.MaxY <= b.MaxY+inset
}

// Overlap returns the length of the shared projection of b and other on axis a.
// The result is negative when the projections are disjoint.
func (b BoundingBox) Overlap(other BoundingBox, a Axis) float64 {
	return math.Min(b.Max(a), other.Max(a)) - math.Max(b.Min(a), other.Min(a))
}

// Intersects reports whether the two boxes share a region of positive area.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.Overlap(other, AxisHorizontal) > 0 && b.Overlap(other, AxisVertical) > 0
}

// Gap returns the Euclidean edge-to-edge distance between two boxes,
// or zero when they touch or overlap.
func (b BoundingBox) Gap(other BoundingBox) float64 {
	dx := math.Max(0, -b.Overlap(other, AxisHorizontal))
	dy := math.Max(0, -b.Overlap(other, AxisVertical))
	return math.Hypot(dx, dy)
}

// CenterDistance returns the Euclidean distance between the two centers.
func (b BoundingBox) CenterDistance(other BoundingBox) float64 {
	return math.Hypot(b.CenterX-other.CenterX, b.CenterY-other.CenterY)
}
