// Package nodelink renders inferred layout structures as node-link diagrams.
//
// # Overview
//
// Every container of a [structure.Structure] becomes a box labelled with its
// inferred layout (direction, spacing, padding, alignment); every leaf
// becomes a box labelled with its recommended sizing. Edges run from each
// container to its children in flow order, top to bottom.
//
// Groups synthesized from clusters are drawn dashed, and containers without
// a flow layout (absolute or mixed) are shaded so they stand out.
//
// # Usage
//
//	dot := nodelink.ToDOT(st, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
