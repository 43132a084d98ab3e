package plan

import (
	"context"
	"sort"

	"github.com/matzehuels/autoflex/pkg/errors"
)

// Executor applies single steps to a live document.
type Executor interface {
	Execute(ctx context.Context, step Step) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, step Step) error

// Execute calls f(ctx, step).
func (f ExecutorFunc) Execute(ctx context.Context, step Step) error { return f(ctx, step) }

// Report summarizes an Apply run.
type Report struct {
	Applied  []Step               `json:"applied"`
	Skipped  []Step               `json:"skipped,omitempty"`
	Failures []*errors.StepError `json:"-"`
}

// OK reports whether every step was applied.
func (r Report) OK() bool { return len(r.Failures) == 0 && len(r.Skipped) == 0 }

// Apply runs steps through exec in ascending order. When a step fails, the
// remaining steps of the same branch (the failed step's container and
// everything nested in it) are skipped; other branches continue. Failed
// steps are never retried.
//
// The returned error is the first step failure, or ctx.Err() when the context
// ends between steps.
func Apply(ctx context.Context, steps []Step, exec Executor) (Report, error) {
	ordered := append([]Step(nil), steps...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Order == ordered[i-1].Order {
			return Report{}, errors.New(errors.ErrCodeInvalidInput, "duplicate step order %d", ordered[i].Order)
		}
	}

	var (
		report  Report
		aborted [][]string
	)
	for _, step := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if inAborted(step.Path, aborted) {
			report.Skipped = append(report.Skipped, step)
			continue
		}
		if err := exec.Execute(ctx, step); err != nil {
			report.Failures = append(report.Failures, &errors.StepError{
				TargetID: step.TargetID,
				StepType: string(step.Type),
				Order:    step.Order,
				Err:      err,
			})
			aborted = append(aborted, step.Path)
			continue
		}
		report.Applied = append(report.Applied, step)
	}
	if len(report.Failures) > 0 {
		return report, report.Failures[0]
	}
	return report, nil
}

func inAborted(path []string, aborted [][]string) bool {
	for _, prefix := range aborted {
		if hasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(path, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}
