// Package diag records entities that an analysis stage skipped.
//
// Higher layers of the engine (clustering, synthesis, sizing, planning) do not
// abort when one element cannot be processed. They exclude it and append a
// [Diagnostic] so that a partial result is never indistinguishable from a
// complete one.
package diag

import (
	"fmt"

	"github.com/matzehuels/autoflex/pkg/errors"
)

// Stage names the engine component that produced a diagnostic.
type Stage string

const (
	StageRelate    Stage = "relate"
	StageCluster   Stage = "cluster"
	StageStructure Stage = "structure"
	StageSizing    Stage = "sizing"
	StagePlan      Stage = "plan"
	StageRules     Stage = "rules"
)

// Diagnostic describes one skipped or degraded entity.
type Diagnostic struct {
	Stage    Stage       `json:"stage"`
	EntityID string      `json:"entity_id"`
	Code     errors.Code `json:"code,omitempty"`
	Message  string      `json:"message"`
}

// String formats the diagnostic for log output.
func (d Diagnostic) String() string {
	if d.Code != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", d.Stage, d.EntityID, d.Message, d.Code)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Stage, d.EntityID, d.Message)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Skip records that entity id was excluded because of err.
func (l *List) Skip(stage Stage, id string, err error) {
	*l = append(*l, Diagnostic{
		Stage:    stage,
		EntityID: id,
		Code:     errors.GetCode(err),
		Message:  errors.UserMessage(err),
	})
}

// Note records a non-error observation about entity id.
func (l *List) Note(stage Stage, id, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Stage:    stage,
		EntityID: id,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Merge appends all diagnostics from other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// Empty reports whether nothing was recorded.
func (l List) Empty() bool { return len(l) == 0 }
