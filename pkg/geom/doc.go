// Package geom provides the element snapshot model and bounding-box geometry
// used by every other autoflex package.
//
// # Elements
//
// An [Element] is an immutable record of one visual element: identity, a
// semantic [ElementType], absolute geometry, and optionally the auto-layout
// state it already carries. Elements form a tree through Children; each
// parent exclusively owns its children.
//
// # Bounds
//
// [BoundsOf] derives a [BoundingBox] from an element and rejects invalid
// geometry. [UnionOf] computes the minimal enclosing box of a set of boxes:
//
//	a, _ := geom.BoundsOf(card)
//	b, _ := geom.BoundsOf(title)
//	u, err := geom.UnionOf([]geom.BoundingBox{a, b})
//
// Boxes are plain values; nothing in this package caches them.
package geom
