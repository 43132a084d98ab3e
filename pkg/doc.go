// Package pkg provides the core libraries for autoflex layout inference.
//
// # Overview
//
// Autoflex takes a tree of absolutely positioned design elements and infers
// how it would be built with auto layout. The pkg directory is organized in
// three areas:
//
//  1. Engine: [geom], [relate], [cluster], [structure], [sizing], [plan], [rules]
//  2. Infrastructure: [config], [errors], [diag], [cache], [observability], [buildinfo]
//  3. Orchestration and I/O: [pipeline], [snapshot], [render/nodelink]
//
// # Architecture
//
// The typical data flow through autoflex:
//
//	snapshot JSON
//	     ↓
//	[snapshot] package (element tree)
//	     ↓
//	[relate] + [cluster] packages (sibling relationships, spatial groups)
//	     ↓
//	[structure] package (recursive layout structure)
//	     ↓
//	[sizing] package (FIXED/HUG/FILL per child)
//	     ↓
//	[plan] package (ordered conversion steps)
//	     ↓
//	[rules] package (design rule checks, plan verification)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/autoflex/pkg/config"
//	    "github.com/matzehuels/autoflex/pkg/pipeline"
//	    "github.com/matzehuels/autoflex/pkg/snapshot"
//	)
//
//	root, _ := snapshot.Load("card.json", config.DefaultVocabulary())
//	res, _ := pipeline.NewRunner(nil, nil, nil).Execute(context.Background(), root, pipeline.Options{})
//	for _, step := range res.Plan {
//	    fmt.Println(step.Order, step.Description)
//	}
//
// Each engine package can also be used on its own; see the package
// documentation for details.
package pkg
