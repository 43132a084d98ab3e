package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/rules"
)

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		a      analysis
		verify bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check [snapshot.json]",
		Short: "Check a snapshot against design rules",
		Long: `Check a snapshot against design rules.

The rules flag invalid geometry, empty containers, containers that should use
auto layout, uneven spacing, absolutely positioned content nested in auto
layout, children overflowing their parent and overlapping siblings.

With --verify the conversion plan is applied in memory and the rules run
again, reporting which violations the plan fixes, which remain and which it
introduces. With --strict the command fails when errors remain.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.run(cmd, args, a, true, verify)
			if err != nil {
				return err
			}
			var out any = res.Violations
			if verify {
				out = res.Fixes
			}
			if err := emit(a, out, func() {
				printViolations(res.Violations)
				if verify {
					printNewline()
					printFixes(res.Fixes)
				}
			}); err != nil {
				return err
			}
			if strict && failing(res.Violations, res.Fixes, verify) > 0 {
				return errors.New(errors.ErrCodeInvalidInput, "design rule errors remain")
			}
			return nil
		},
	}

	a.register(cmd)
	cmd.Flags().BoolVar(&verify, "verify", false, "simulate the plan and re-check")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when error-level violations remain")

	return cmd
}

// failing counts error-level violations left after the plan, or present in
// the snapshot when the plan was not verified.
func failing(vs []rules.Violation, fixes []rules.FixResult, verified bool) int {
	severity := make(map[rules.ID]rules.Severity, len(rules.Rules()))
	for _, r := range rules.Rules() {
		severity[r.ID] = r.Severity
	}
	n := 0
	if !verified {
		for _, v := range vs {
			if v.Severity == rules.SeverityError {
				n++
			}
		}
		return n
	}
	for _, f := range fixes {
		if f.Status != rules.StatusFixed && severity[f.RuleID] == rules.SeverityError {
			n++
		}
	}
	return n
}

func printViolations(vs []rules.Violation) {
	if len(vs) == 0 {
		printSuccess("No rule violations")
		return
	}
	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		rows = append(rows, []string{string(v.Severity), string(v.RuleID), name(v.NodeName, v.NodeID), v.Message})
	}
	printTable([]string{"Severity", "Rule", "Element", "Message"}, rows, func(row, col int) lipgloss.Style {
		if col != 0 {
			return lipgloss.NewStyle()
		}
		switch vs[row].Severity {
		case rules.SeverityError:
			return StyleError
		case rules.SeverityWarning:
			return StyleWarning
		}
		return StyleDim
	})
	counts := rules.Counts(vs)
	printStats([]string{
		plural(counts[rules.SeverityError], "error"),
		plural(counts[rules.SeverityWarning], "warning"),
		plural(counts[rules.SeverityInfo], "note"),
	}, false)
}

func printFixes(fixes []rules.FixResult) {
	if len(fixes) == 0 {
		printInfo("Plan changes no rule results")
		return
	}
	rows := make([][]string, 0, len(fixes))
	for _, f := range fixes {
		rows = append(rows, []string{string(f.Status), string(f.RuleID), name(f.NodeName, f.NodeID), f.Message})
	}
	printTable([]string{"Status", "Rule", "Element", "Message"}, rows, func(row, col int) lipgloss.Style {
		if col != 0 {
			return lipgloss.NewStyle()
		}
		switch fixes[row].Status {
		case rules.StatusFixed:
			return StyleSuccess
		case rules.StatusIntroduced:
			return StyleError
		}
		return StyleWarning
	})
	tally := rules.Tally(fixes)
	printStats([]string{
		fmt.Sprintf("%d fixed", tally[rules.StatusFixed]),
		fmt.Sprintf("%d remaining", tally[rules.StatusRemaining]),
		fmt.Sprintf("%d introduced", tally[rules.StatusIntroduced]),
	}, false)
}
