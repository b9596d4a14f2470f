package graph

import (
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// reverseView walks a directed graph against its edge direction
type reverseView struct {
	g gonum.Directed
}

func (r reverseView) From(id int64) gonum.Nodes { return r.g.To(id) }

func (r reverseView) Edge(uid, vid int64) gonum.Edge { return r.g.Edge(vid, uid) }

// DistancesTo returns the hop count from every node that can reach target.
// Results are memoized per target in a bounded cache.
func (g *Graph) DistancesTo(target *Node) map[int64]int {
	if dist, ok := g.paths.Get(target.id); ok {
		return dist
	}

	dist := make(map[int64]int)
	var bf traverse.BreadthFirst
	bf.Walk(reverseView{g: g.g}, target, func(n gonum.Node, depth int) bool {
		dist[n.ID()] = depth
		return false
	})

	g.paths.Add(target.id, dist)
	return dist
}

// ShortestPathLength returns the number of edges on a shortest path from
// from to to, and false when to is not reachable.
func (g *Graph) ShortestPathLength(from, to *Node) (int, bool) {
	length, ok := g.DistancesTo(to)[from.id]
	return length, ok
}
