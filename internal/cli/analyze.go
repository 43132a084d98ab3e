package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/pipeline"
	"github.com/matzehuels/autoflex/pkg/structure"
)

// analyzeCommand creates the analyze command, which runs every stage.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		a         analysis
		rules     bool
		reasoning bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [snapshot.json]",
		Short: "Infer the auto-layout structure of a snapshot",
		Long: `Infer the auto-layout structure of a snapshot.

The analyze command reads a snapshot (a JSON element tree, or an array of
selected elements) and runs the full inference: sibling relationships,
clusters, the recursive layout structure, sizing recommendations and the
conversion plan. Without a file argument the snapshot is read from stdin.

The summary shows the inferred structure as an outline. Use --json or -o to
get the complete result.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.run(cmd, args, a, rules, false)
			if err != nil {
				return err
			}
			return emit(a, res, func() {
				printAnalysis(res)
				if reasoning {
					printNewline()
					printSizing(res)
				}
				printNewline()
				printNextStep("Conversion steps", appName+" plan "+inputArg(args))
			})
		},
	}

	a.register(cmd)
	cmd.Flags().BoolVar(&rules, "rules", false, "also check design rules")
	cmd.Flags().BoolVar(&reasoning, "reasoning", false, "show the sizing reasoning per element")

	return cmd
}

// printAnalysis prints the structure outline and summary counts.
func printAnalysis(res *pipeline.Result) {
	printSuccess("Analysis complete")
	printKeyValue("Snapshot", shortID(res.SnapshotHash))
	printKeyValue("Structure", plural(res.Stats.Containers, "node"))
	printOutline(res.Structure, 0, "")
	printStats([]string{
		plural(res.Stats.Elements, "element"),
		plural(res.Stats.Clusters, "cluster"),
		plural(res.Stats.Steps, "step"),
	}, res.CacheHit)
	if res.Violations != nil {
		printViolations(res.Violations)
	}
}

func printOutline(st *structure.Structure, depth int, sizing string) {
	if st == nil {
		return
	}
	indent := strings.Repeat("  ", depth+1)
	line := indent + StyleTitle.Render(name(st.Name, st.RootID)) + " " + StyleDim.Render(describeLayout(st))
	if sizing != "" {
		line += " " + StyleNumber.Render(sizing)
	}
	fmt.Fprintln(stdout, line)
	for _, n := range st.Children {
		if n.Structure != nil {
			printOutline(n.Structure, depth+1, describeSizing(n))
			continue
		}
		fmt.Fprintln(stdout, indent+"  "+StyleValue.Render(name(n.Name, n.ElementID))+" "+
			StyleDim.Render(string(n.Role))+" "+StyleNumber.Render(describeSizing(n)))
	}
}

func describeLayout(st *structure.Structure) string {
	switch st.LayoutType {
	case structure.LayoutHorizontal:
		return fmt.Sprintf("horizontal gap %g", st.Spacing.Horizontal)
	case structure.LayoutVertical:
		return fmt.Sprintf("vertical gap %g", st.Spacing.Vertical)
	case structure.LayoutGrid:
		return fmt.Sprintf("grid %dx%d", st.Rows, st.Columns)
	default:
		return string(st.LayoutType)
	}
}

func describeSizing(n structure.Node) string {
	if n.Sizing.Horizontal == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", n.Sizing.Horizontal, n.Sizing.Vertical)
}

// printSizing prints each recommendation with its reasoning.
func printSizing(res *pipeline.Result) {
	rows := make([][]string, 0, len(res.Sizing))
	for _, s := range res.Sizing {
		rows = append(rows, []string{
			name(s.Name, s.ElementID),
			string(s.Recommended.Horizontal),
			string(s.Recommended.Vertical),
			s.Reasoning,
		})
	}
	printTable([]string{"Element", "Width", "Height", "Reasoning"}, rows, func(_, col int) lipgloss.Style {
		if col == 1 || col == 2 {
			return lipgloss.NewStyle().Foreground(colorCyan)
		}
		return lipgloss.NewStyle()
	})
}

func name(n, id string) string {
	if n == "" {
		return id
	}
	return n
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
