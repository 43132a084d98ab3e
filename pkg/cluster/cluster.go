// Package cluster groups elements that likely form a repeated visual unit.
//
// The [Engine] partitions a flat set of elements into spatial clusters even
// when they are not structurally grouped in the host document, for example
// the image, title and caption of each card in a card grid. Each cluster is
// scored for cohesion by combining how densely its members fill their union
// bounds with how similar their names and types are.
//
// # Algorithm
//
// Elements are first sorted by id, which makes the result independent of the
// input order. Seeds are mutual-nearest-neighbour pairs (by centroid
// distance) whose edge gap is within a merge distance scaled to the median
// element size. Remaining elements are then absorbed greedily into the
// nearest cluster whose bounds lie within the merge distance. Seeding and
// absorption repeat until nothing changes.
//
// Every tie is broken by element id, so the same set of elements always
// yields the same clusters with the same ids.
package cluster

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/autoflex/pkg/config"
	"github.com/matzehuels/autoflex/pkg/diag"
	"github.com/matzehuels/autoflex/pkg/errors"
	"github.com/matzehuels/autoflex/pkg/geom"
)

// Namespace seeds the name-based UUIDs assigned to clusters.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/autoflex/cluster"))

// Member is a clustered element with its bounds attached.
type Member struct {
	Element geom.Element     `json:"element"`
	Bounds  geom.BoundingBox `json:"bounds"`
}

// Cluster is a scored group of spatially close elements.
type Cluster struct {
	ID      string           `json:"id"`
	Members []Member         `json:"members"`
	Bounds  geom.BoundingBox `json:"bounds"`
	// Density is members per unit of union area.
	Density float64 `json:"density"`
	// Coverage is the normalized density in [0, 1] used for scoring.
	Coverage      float64 `json:"coverage"`
	SemanticScore float64 `json:"semantic_score"`
	TotalScore    float64 `json:"total_score"`
}

// MemberIDs returns the member ids in ascending order.
func (c Cluster) MemberIDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.Element.ID
	}
	return ids
}

// ID returns the deterministic cluster id for a set of member ids.
func ID(memberIDs []string) string {
	ids := append([]string(nil), memberIDs...)
	sort.Strings(ids)
	return uuid.NewSHA1(Namespace, []byte(strings.Join(ids, "\x00"))).String()
}

// Engine clusters element sets.
type Engine struct {
	cfg config.Cluster
}

// New returns an engine using cfg.
func New(cfg config.Cluster) *Engine {
	return &Engine{cfg: cfg}
}

// Cluster partitions elements into clusters sorted by descending TotalScore.
//
// An empty input yields no clusters. Elements with invalid ids or geometry
// are left out and reported in the returned diagnostics.
func (e *Engine) Cluster(elements []geom.Element) ([]Cluster, diag.List) {
	members, diags := prepare(elements)
	if len(members) == 0 {
		return []Cluster{}, diags
	}

	maxGap := e.cfg.MergeDistanceScale * medianSize(members)
	groups := group(members, maxGap)

	out := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		if len(g) < e.cfg.MinClusterSize {
			continue
		}
		out = append(out, e.scoreMembers(members, g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].Members[0].Element.ID < out[j].Members[0].Element.ID
	})
	return out, diags
}

func prepare(elements []geom.Element) ([]Member, diag.List) {
	var diags diag.List
	members := make([]Member, 0, len(elements))
	seen := make(map[string]bool, len(elements))
	for _, el := range elements {
		if err := errors.ValidateElementID(el.ID); err != nil {
			diags.Skip(diag.StageCluster, el.ID, err)
			continue
		}
		if seen[el.ID] {
			diags.Skip(diag.StageCluster, el.ID, errors.New(errors.ErrCodeInvalidInput, "duplicate element id %q", el.ID))
			continue
		}
		box, err := geom.BoundsOf(el)
		if err != nil {
			diags.Skip(diag.StageCluster, el.ID, err)
			continue
		}
		seen[el.ID] = true
		members = append(members, Member{Element: el, Bounds: box})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Element.ID < members[j].Element.ID })
	return members, diags
}

// group assigns every member to exactly one group. Groups keep members in id
// order and are returned in order of their earliest member.
func group(members []Member, maxGap float64) [][]int {
	assigned := make([]int, len(members))
	for i := range assigned {
		assigned[i] = -1
	}
	var groups [][]int
	var bounds []geom.BoundingBox

	for {
		seeded := false
		nn := nearest(members, assigned)
		for i, j := range nn {
			if j < 0 || i > j || nn[j] != i {
				continue
			}
			if members[i].Bounds.Gap(members[j].Bounds) > maxGap {
				continue
			}
			g := len(groups)
			groups = append(groups, []int{i, j})
			u, _ := geom.UnionOf([]geom.BoundingBox{members[i].Bounds, members[j].Bounds})
			bounds = append(bounds, u)
			assigned[i], assigned[j] = g, g
			seeded = true
		}

		absorbed := false
		for {
			el, g := bestAbsorption(members, assigned, groups, bounds, maxGap)
			if el < 0 {
				break
			}
			groups[g] = append(groups[g], el)
			bounds[g], _ = geom.UnionOf([]geom.BoundingBox{bounds[g], members[el].Bounds})
			assigned[el] = g
			absorbed = true
		}

		if !seeded && !absorbed {
			break
		}
	}

	for i, g := range assigned {
		if g < 0 {
			groups = append(groups, []int{i})
		}
	}
	for _, g := range groups {
		sort.Ints(g)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })
	return groups
}

// nearest returns, for each unassigned member, the index of the closest other
// unassigned member by centroid distance, or -1.
func nearest(members []Member, assigned []int) []int {
	nn := make([]int, len(members))
	for i := range members {
		nn[i] = -1
		if assigned[i] >= 0 {
			continue
		}
		best := math.Inf(1)
		for j := range members {
			if i == j || assigned[j] >= 0 {
				continue
			}
			// Members are in id order, so the first strict minimum wins ties.
			if d := members[i].Bounds.CenterDistance(members[j].Bounds); d < best {
				best, nn[i] = d, j
			}
		}
	}
	return nn
}

// bestAbsorption picks the unassigned member and group with the smallest gap
// within maxGap. Ties go to the lower member, then to the group with the
// earliest member.
func bestAbsorption(members []Member, assigned []int, groups [][]int, bounds []geom.BoundingBox, maxGap float64) (int, int) {
	bestEl, bestGroup := -1, -1
	bestGap := math.Inf(1)
	for i := range members {
		if assigned[i] >= 0 {
			continue
		}
		for g := range groups {
			gap := members[i].Bounds.Gap(bounds[g])
			if gap > maxGap {
				continue
			}
			switch {
			case gap < bestGap:
			case gap == bestGap && i == bestEl && earliest(groups[g]) < earliest(groups[bestGroup]):
			default:
				continue
			}
			bestEl, bestGroup, bestGap = i, g, gap
		}
	}
	return bestEl, bestGroup
}

func earliest(g []int) int {
	m := g[0]
	for _, i := range g[1:] {
		if i < m {
			m = i
		}
	}
	return m
}

func (e *Engine) scoreMembers(all []Member, idx []int) Cluster {
	c := Cluster{Members: make([]Member, len(idx))}
	boxes := make([]geom.BoundingBox, len(idx))
	areas := make([]float64, len(idx))
	for k, i := range idx {
		c.Members[k] = all[i]
		boxes[k] = all[i].Bounds
		areas[k] = all[i].Bounds.Area()
	}
	c.Bounds, _ = geom.UnionOf(boxes)
	c.ID = ID(c.MemberIDs())

	n := float64(len(idx))
	if area := c.Bounds.Area(); area > 0 {
		c.Density = n / area
		c.Coverage = clamp(n * median(areas) / area)
	}
	c.SemanticScore = e.cfg.NameWeight*nameSimilarity(c.Members) + e.cfg.TypeWeight*typeHomogeneity(c.Members)
	c.TotalScore = e.cfg.DensityWeight*c.Coverage + e.cfg.SemanticWeight*c.SemanticScore
	return c
}

// nameSimilarity is the largest fraction of members sharing one name token,
// or 0 when no token is shared by at least two members.
func nameSimilarity(members []Member) float64 {
	counts := make(map[string]int)
	for _, m := range members {
		uniq := make(map[string]bool)
		for _, tok := range config.Tokens(m.Element.Name) {
			if !uniq[tok] {
				uniq[tok] = true
				counts[tok]++
			}
		}
	}
	best := 0
	for _, c := range counts {
		best = max(best, c)
	}
	if best < 2 {
		return 0
	}
	return float64(best) / float64(len(members))
}

// typeHomogeneity is the fraction of members sharing the most common type,
// or 0 when no two members share a type.
func typeHomogeneity(members []Member) float64 {
	counts := make(map[geom.ElementType]int)
	best := 0
	for _, m := range members {
		counts[m.Element.Type]++
		best = max(best, counts[m.Element.Type])
	}
	if best < 2 {
		return 0
	}
	return float64(best) / float64(len(members))
}

func medianSize(members []Member) float64 {
	sizes := make([]float64, len(members))
	for i, m := range members {
		sizes[i] = (m.Bounds.Width + m.Bounds.Height) / 2
	}
	return median(sizes)
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
