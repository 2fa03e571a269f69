package analysis

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gorgaloro/job-automation-sub001/internal/model"
)

// unionFind is a plain weighted union-find over source indices. Clustering
// within one company is sequential and cheap: the gating window bounds the
// candidate pair count.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]] // path halving
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// scoredPair is one gated candidate pair with its similarity. Indices refer
// to the engine's sorted source slice.
type scoredPair struct {
	a, b  int
	score float64
}

// gated reports whether two sources are candidates for comparison: same
// non-empty company, posted dates within the gating window, and both sides
// comparable. Everything else never gets scored.
func (e *Engine) gated(x, y model.JobSource, fx, fy Features) bool {
	if x.CompanyID == "" || x.CompanyID != y.CompanyID {
		return false
	}
	if !fx.Norm.Comparable() || !fy.Norm.Comparable() {
		return false
	}
	gap := x.PostedDate.Sub(y.PostedDate)
	if gap < 0 {
		gap = -gap
	}
	return gap <= e.cfg.GatingWindow
}

// buildClusters scores every gated pair, links pairs at or above the
// duplicate threshold, and groups sources by transitive closure (or
// all-pairs linkage when RequireCompleteLinks is set). Every source lands
// in exactly one cluster; sources that never link form singletons.
//
// sources must already be sorted by SourceID so results are independent of
// caller ordering.
func (e *Engine) buildClusters(sources []model.JobSource, feats []Features, now time.Time) ([]model.DuplicateCluster, int) {
	uf := newUnionFind(len(sources))

	var pairs []scoredPair
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			if !e.gated(sources[i], sources[j], feats[i], feats[j]) {
				continue
			}
			score := Similarity(feats[i], feats[j], e.cfg.Similarity)
			if score >= e.cfg.DuplicateThreshold {
				pairs = append(pairs, scoredPair{a: i, b: j, score: score})
			}
		}
	}

	if e.cfg.RequireCompleteLinks {
		e.mergeCompleteLinks(uf, sources, feats, pairs)
	} else {
		for _, p := range pairs {
			uf.union(p.a, p.b)
		}
	}

	// Group members by root.
	groups := make(map[int][]int)
	for i := range sources {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}
	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	clusters := make([]model.DuplicateCluster, 0, len(roots))
	for _, r := range roots {
		clusters = append(clusters, e.formCluster(sources, feats, groups[r], now))
	}
	return clusters, len(pairs)
}

// mergeCompleteLinks merges pairs in descending similarity order, accepting
// a merge only when every cross-pair of the two groups also scores at or
// above the duplicate threshold. This is the configurable alternative to
// chained merging for operators who prefer precision over recall.
func (e *Engine) mergeCompleteLinks(uf *unionFind, sources []model.JobSource, feats []Features, pairs []scoredPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	for _, p := range pairs {
		ra, rb := uf.find(p.a), uf.find(p.b)
		if ra == rb {
			continue
		}
		var groupA, groupB []int
		for i := range sources {
			switch uf.find(i) {
			case ra:
				groupA = append(groupA, i)
			case rb:
				groupB = append(groupB, i)
			}
		}
		if e.allPairsLinked(sources, feats, groupA, groupB) {
			uf.union(p.a, p.b)
		}
	}
}

func (e *Engine) allPairsLinked(sources []model.JobSource, feats []Features, groupA, groupB []int) bool {
	for _, i := range groupA {
		for _, j := range groupB {
			if !e.gated(sources[i], sources[j], feats[i], feats[j]) {
				return false
			}
			if Similarity(feats[i], feats[j], e.cfg.Similarity) < e.cfg.DuplicateThreshold {
				return false
			}
		}
	}
	return true
}

// formCluster resolves the primary source for one member group and records
// resolution anomalies as flags instead of guessing silently.
//
// Resolution rule: exactly one primary-type member wins outright; multiple
// primaries is a data anomaly — earliest DiscoveredAt wins and the cluster
// is marked ambiguous; zero primaries leaves the cluster unresolved and
// marked missing (secondaries are never promoted).
//
// A member that was excluded from comparison for an input defect (empty
// normalized content, missing company id) marks the cluster NonComparable,
// so it never passes for a genuinely unique healthy posting downstream.
func (e *Engine) formCluster(sources []model.JobSource, feats []Features, members []int, now time.Time) model.DuplicateCluster {
	ids := make([]string, 0, len(members))
	var primaries []int
	defective := false
	for _, i := range members {
		ids = append(ids, sources[i].SourceID)
		if sources[i].SourceType == model.SourceTypePrimary {
			primaries = append(primaries, i)
		}
		if !feats[i].Norm.Comparable() || sources[i].CompanyID == "" {
			defective = true
		}
	}
	sort.Strings(ids)

	c := model.DuplicateCluster{
		ClusterID:       uuid.NewString(),
		CompanyID:       sources[members[0]].CompanyID,
		MemberSourceIDs: ids,
		NonComparable:   defective,
		FormedAt:        now,
	}

	switch len(primaries) {
	case 0:
		c.MissingPrimary = true
	case 1:
		c.PrimarySourceID = sources[primaries[0]].SourceID
	default:
		c.AmbiguousPrimary = true
		best := primaries[0]
		for _, i := range primaries[1:] {
			if sources[i].DiscoveredAt.Before(sources[best].DiscoveredAt) {
				best = i
			}
		}
		c.PrimarySourceID = sources[best].SourceID
	}
	return c
}
