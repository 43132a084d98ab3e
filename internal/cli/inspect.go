package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autoflex/pkg/pipeline"
	"github.com/matzehuels/autoflex/pkg/relate"
)

// maxListed caps the entries shown per table cell.
const maxListed = 3

// relateCommand creates the relate command.
func (c *CLI) relateCommand() *cobra.Command {
	var a analysis

	cmd := &cobra.Command{
		Use:   "relate [snapshot.json]",
		Short: "Show alignment, adjacency and containment between siblings",
		Long: `Show alignment, adjacency and containment between siblings.

For every direct child of the snapshot root, relate lists the siblings it is
aligned with (strongest first), its nearest neighbours per direction and the
siblings it encloses.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.run(cmd, args, a, false, false)
			if err != nil {
				return err
			}
			return emit(a, res.Relationships, func() { printRelationships(res) })
		},
	}

	a.register(cmd)
	return cmd
}

func printRelationships(res *pipeline.Result) {
	rows := make([][]string, 0, len(res.Relationships))
	for _, r := range res.Relationships {
		rows = append(rows, []string{
			r.ElementID,
			alignments(r.Horizontal),
			alignments(r.Vertical),
			neighbors(r.Adjacency),
			strings.Join(r.Containment.Contains, ", "),
		})
	}
	printTable([]string{"Element", "Horizontal", "Vertical", "Neighbors", "Contains"}, rows, nil)
	printStats([]string{plural(len(res.Relationships), "element")}, res.CacheHit)
}

func alignments(als []relate.Alignment) string {
	parts := make([]string, 0, maxListed)
	for i, al := range als {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("+%d", len(als)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s %.2f", al.Kind, al.TargetID, al.Confidence))
	}
	return strings.Join(parts, "\n")
}

func neighbors(adj relate.Adjacency) string {
	var parts []string
	for _, d := range []struct {
		arrow string
		ns    []relate.Neighbor
	}{{"←", adj.Left}, {"→", adj.Right}, {"↑", adj.Top}, {"↓", adj.Bottom}} {
		if len(d.ns) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s %g", d.arrow, d.ns[0].ID, d.ns[0].Gap))
		}
	}
	return strings.Join(parts, "\n")
}

// clusterCommand creates the cluster command.
func (c *CLI) clusterCommand() *cobra.Command {
	var a analysis

	cmd := &cobra.Command{
		Use:   "cluster [snapshot.json]",
		Short: "Show spatial clusters among the root's children",
		Long: `Show spatial clusters among the root's children.

Clusters are groups of elements that sit close together. Each is scored on
density and semantic similarity; high scoring clusters become new groups
when analyze or plan run with --group.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.run(cmd, args, a, false, false)
			if err != nil {
				return err
			}
			return emit(a, res.Clusters, func() { printClusters(res) })
		},
	}

	a.register(cmd)
	return cmd
}

func printClusters(res *pipeline.Result) {
	if len(res.Clusters) == 0 {
		printInfo("No clusters found")
		return
	}
	rows := make([][]string, 0, len(res.Clusters))
	for _, cl := range res.Clusters {
		ids := cl.MemberIDs()
		members := strings.Join(ids, ", ")
		if len(ids) > maxListed*2 {
			members = strings.Join(ids[:maxListed*2], ", ") + fmt.Sprintf(" +%d", len(ids)-maxListed*2)
		}
		rows = append(rows, []string{
			shortID(cl.ID),
			members,
			fmt.Sprintf("%.2f", cl.Coverage),
			fmt.Sprintf("%.2f", cl.SemanticScore),
			fmt.Sprintf("%.2f", cl.TotalScore),
		})
	}
	printTable([]string{"Cluster", "Members", "Coverage", "Semantic", "Score"}, rows, nil)
	printStats([]string{plural(len(res.Clusters), "cluster")}, res.CacheHit)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
