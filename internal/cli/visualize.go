package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/render/nodelink"
)

// Output formats supported by visualize.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// visualizeCommand creates the visualize command for drawing the inferred
// structure.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		a        analysis
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "visualize [snapshot.json]",
		Short: "Draw the inferred layout structure as a diagram",
		Long: `Draw the inferred layout structure as a diagram.

Every container is drawn with its inferred layout and every element with its
recommended sizing. Groups that --group would create are dashed, containers
without a flow layout are shaded.

SVG is rendered in-process; DOT output can be fed to any Graphviz tool.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateFormat(format, formatDOT, formatSVG); err != nil {
				return err
			}
			_, res, err := c.run(cmd, args, a, false, false)
			if err != nil {
				return err
			}

			data := []byte(nodelink.ToDOT(res.Structure, nodelink.Options{Detailed: detailed}))
			if format == formatSVG {
				if data, err = nodelink.RenderSVG(string(data)); err != nil {
					return fmt.Errorf("render svg: %w", err)
				}
			}

			if a.output == "" {
				_, err := stdout.Write(data)
				return err
			}
			if err := os.WriteFile(a.output, data, 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", a.output, err)
			}
			printSuccess("Rendered %s", format)
			printFile(a.output)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&a.grouping, "group", "g", false, "show groups created from clusters")
	cmd.Flags().BoolVar(&a.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().StringVarP(&a.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include padding, alignment and roles")

	return cmd
}
