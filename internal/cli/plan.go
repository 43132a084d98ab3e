package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
	"github.com/matzehuels/autoflex/pkg/plan"
	"github.com/matzehuels/autoflex/pkg/snapshot"
)

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	var (
		a        analysis
		steps    string
		simulate string
	)

	cmd := &cobra.Command{
		Use:   "plan [snapshot.json]",
		Short: "Show the ordered steps that convert a snapshot to auto layout",
		Long: `Show the ordered steps that convert a snapshot to auto layout.

Steps run parents before children: groups are created first, then each
container is switched to auto layout and given its spacing, padding and
alignment, then its children are sized. Properties that already match are
skipped, so planning an already converted snapshot yields no steps.

With --simulate the plan is applied to the snapshot in memory and the result
is written as a new snapshot. --steps replays a plan saved earlier with -o
instead of computing a new one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps != "" {
				return c.replay(cmd, args, steps, simulate)
			}
			root, res, err := c.run(cmd, args, a, false, false)
			if err != nil {
				return err
			}
			if simulate != "" {
				return writeSimulation(root, res.Plan, simulate)
			}
			return emit(a, res.Plan, func() {
				printSteps(res.Plan)
				printStats([]string{plural(len(res.Plan), "step")}, res.CacheHit)
				if len(res.Plan) > 0 {
					printNewline()
					printNextStep("Preview the result", appName+" plan "+inputArg(args)+" --simulate converted.json")
				}
			})
		},
	}

	a.register(cmd)
	cmd.Flags().StringVar(&steps, "steps", "", "replay steps from a saved plan instead of computing them")
	cmd.Flags().StringVar(&simulate, "simulate", "", "apply the plan in memory and write the result to this file")

	return cmd
}

// replay simulates a saved plan against the snapshot.
func (c *CLI) replay(cmd *cobra.Command, args []string, stepsPath, out string) error {
	if out == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--steps needs --simulate")
	}
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	root, _, err := readSnapshot(cmd, args, cfg.Vocabulary)
	if err != nil {
		return err
	}
	steps, err := loadSteps(stepsPath)
	if err != nil {
		return err
	}
	return writeSimulation(root, steps, out)
}

func loadSteps(path string) ([]plan.Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "plan %s", path)
		}
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	var steps []plan.Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode plan %s", path)
	}
	return steps, nil
}

func writeSimulation(root geom.Element, steps []plan.Step, out string) error {
	converted, err := plan.Simulate(root, steps)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	if err := snapshot.Save(out, converted); err != nil {
		return err
	}
	printSuccess("Applied %s", plural(len(steps), "step"))
	printFile(out)
	return nil
}

// printSteps prints the plan as a table.
func printSteps(steps []plan.Step) {
	if len(steps) == 0 {
		printInfo("Nothing to convert")
		return
	}
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, []string{fmt.Sprint(s.Order), string(s.Type), s.TargetID, s.Description})
	}
	printTable([]string{"#", "Step", "Target", "Description"}, rows, func(row, col int) lipgloss.Style {
		switch {
		case col == 0:
			return lipgloss.NewStyle().Foreground(colorDim)
		case col == 1 && steps[row].Type == plan.StepCreateGroup:
			return lipgloss.NewStyle().Foreground(colorGreen)
		case col == 1:
			return lipgloss.NewStyle().Foreground(colorCyan)
		}
		return lipgloss.NewStyle()
	})
}
