// Package simplify implements the Simplifier of spec §4.6: tip trimming,
// bubble detection/popping, and the optional best-buddy reduction, built
// on the graph primitives stringgraph exposes. Grounded on
// StringGraph::trim/popBubbles/simplify/popBubblesStartingAt/popBubble in
// _examples/original_source/ra/src/StringGraph.cpp.
package simplify

import (
	"sort"

	"github.com/mariokostelac/ra/config"
	"github.com/mariokostelac/ra/editdistance"
	"github.com/mariokostelac/ra/stringgraph"
)

func sortedVertexIDs(g *stringgraph.Graph) []uint32 {
	ids := make([]uint32, 0, len(g.Vertices()))
	for id := range g.Vertices() {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Trim runs one trimming pass: every disconnected vertex is removed, and
// every tip-candidate vertex found to be a dead leaf or a short/low-fork
// long tip is removed along with its incident edges. Vertices longer than
// ReadLenThreshold are never touched. Returns the number of tips and
// disconnected vertices removed. Grounded on StringGraph::trim.
func Trim(g *stringgraph.Graph, cfg config.Tunables) (tips, disconnected int) {
	for _, id := range sortedVertexIDs(g) {
		v := g.Vertex(id)
		if v == nil {
			continue
		}
		if uint32(v.Length()) > cfg.ReadLenThreshold {
			continue
		}

		if len(v.Edges(stringgraph.Begin)) == 0 && len(v.Edges(stringgraph.End)) == 0 {
			v.Mark()
			disconnected++
			continue
		}

		if !v.IsTipCandidate() {
			continue
		}

		isTip := isDeadLeaf(v)
		if !isTip {
			dir := stringgraph.Begin
			if len(v.Edges(stringgraph.End)) > 0 {
				dir = stringgraph.End
			}
			chain := findSingularChain(v, dir)
			forks := countForks(v, dir, int(cfg.MaxDepthWithoutExtraFork))
			if len(chain) <= int(cfg.MaxReadsInTip) && forks <= 1 {
				isTip = true
			}
		}

		if isTip {
			v.Mark()
			v.MarkEdges()
			v.RemoveMarkedEdges(true)
			tips++
		}
	}

	if tips > 0 || disconnected > 0 {
		g.DeleteMarked()
	}
	return tips, disconnected
}

// isDeadLeaf reports whether any neighbor reachable from v's non-empty
// side itself leads on to a vertex that is not a tip candidate -- the
// "classic dead leaf" criterion (spec §4.6).
func isDeadLeaf(v *stringgraph.Vertex) bool {
	edges := v.Edges(stringgraph.End)
	if len(v.Edges(stringgraph.Begin)) == 0 && len(edges) == 0 {
		return false
	}
	if len(v.Edges(stringgraph.Begin)) != 0 {
		edges = v.Edges(stringgraph.Begin)
	}

	for _, e := range edges {
		opposite := e.OppositeVertex(v.ID)

		side := stringgraph.Begin
		if e.Overlap.IsUsingSuffix(opposite.ID) {
			side = stringgraph.End
		}

		for _, oe := range opposite.Edges(side) {
			if !oe.Marked() && !oe.OppositeVertex(opposite.ID).IsTipCandidate() {
				return true
			}
		}
	}
	return false
}

// findSingularChain follows the unique path of degree-2 vertices starting
// at start in direction dir, stopping at a fork, a dead end, or a vertex
// with more than two edges total. Grounded on findSingularChain.
func findSingularChain(start *stringgraph.Vertex, dir stringgraph.Direction) []*stringgraph.Edge {
	var chain []*stringgraph.Edge

	curr := start
	currDir := dir
	for {
		edges := curr.Edges(currDir)
		if len(edges) == 0 {
			break
		}
		if len(curr.Edges(stringgraph.Begin))+len(curr.Edges(stringgraph.End)) > 2 {
			break
		}

		e := edges[0]
		chain = append(chain, e)
		curr = e.Dst()
		if e.Overlap.IsInnie {
			currDir = currDir.Flip()
		}
	}
	return chain
}

// countForks counts branching vertices (>2 total edges) within depth hops
// of start along direction dir. Grounded on countForks.
func countForks(start *stringgraph.Vertex, dir stringgraph.Direction, depth int) int {
	if depth <= 0 {
		return 0
	}

	forks := 0
	if len(start.Edges(stringgraph.Begin))+len(start.Edges(stringgraph.End)) > 2 {
		forks++
	}

	for _, e := range start.Edges(dir) {
		nextDir := dir
		if e.Overlap.IsInnie {
			nextDir = dir.Flip()
		}
		forks += countForks(e.Dst(), nextDir, depth-1)
	}
	return forks
}

// PopBubbles runs one bubble-popping pass: every unmarked vertex with more
// than one unmarked edge on a side is tried as a bubble root. Returns the
// number of bubbles popped. Grounded on StringGraph::popBubbles.
func PopBubbles(g *stringgraph.Graph, cfg config.Tunables) int {
	popped := 0

	for _, id := range sortedVertexIDs(g) {
		v := g.Vertex(id)
		if v == nil || v.Marked() {
			continue
		}

		for _, dir := range [2]stringgraph.Direction{stringgraph.Begin, stringgraph.End} {
			if !v.IsBubbleRootCandidate(dir) {
				continue
			}
			popped += popBubblesStartingAt(g, v, dir, cfg)
		}
	}

	if popped > 0 {
		g.DeleteMarked()
	}
	return popped
}

// walkHead is one in-progress bubble-search path: the edges taken from the
// root so far, and the direction the walk currently extends in (flips
// whenever an innie edge is crossed).
type walkHead struct {
	path []*stringgraph.Edge
	dir  stringgraph.Direction
}

func (h walkHead) vertex(root *stringgraph.Vertex) *stringgraph.Vertex {
	if len(h.path) == 0 {
		return root
	}
	return h.path[len(h.path)-1].Dst()
}

// popBubblesStartingAt runs the round-robin BFS of spec §4.6: every head
// extends by at most one hop per round (forking into extra heads when its
// vertex has more than one edge on its current side), until some vertex id
// has been reached by every current head (the juncture) or the explored
// node count exceeds MaxNodes. Grounded on
// StringGraph::popBubblesStartingAt.
func popBubblesStartingAt(g *stringgraph.Graph, root *stringgraph.Vertex, direction stringgraph.Direction, cfg config.Tunables) int {
	heads := []walkHead{{dir: direction}}
	totalNodes := 1
	visited := map[uint32]int{}

	for {
		changed := false
		junctureID := uint32(0)
		foundJuncture := false

		roundSize := len(heads)
		for i := 0; i < roundSize && !foundJuncture; i++ {
			h := heads[i]
			v := h.vertex(root)

			var extended []walkHead
			for _, e := range v.Edges(h.dir) {
				if e.Marked() {
					continue
				}
				childDir := h.dir
				if e.Overlap.IsInnie {
					childDir = h.dir.Flip()
				}
				path := make([]*stringgraph.Edge, len(h.path)+1)
				copy(path, h.path)
				path[len(h.path)] = e
				extended = append(extended, walkHead{path: path, dir: childDir})
			}

			if len(extended) > 0 {
				heads[i] = extended[0]
				heads = append(heads, extended[1:]...)
				changed = true
			}

			for _, nh := range extended {
				totalNodes++
				endID := nh.path[len(nh.path)-1].Dst().ID
				visited[endID]++
				if visited[endID] == len(heads) {
					junctureID = endID
					foundJuncture = true
					break
				}
			}
		}

		if totalNodes > cfg.MaxNodes {
			return 0
		}

		if foundJuncture {
			walks := make([]*stringgraph.Walk, 0, len(heads))
			for _, h := range heads {
				walks = append(walks, &stringgraph.Walk{Start: root, Edges: rewindTo(root, h.path, junctureID)})
			}
			return popBubble(walks, junctureID, cfg)
		}

		if !changed {
			return 0
		}
	}
}

// rewindTo truncates path to end at the first edge (scanning from the
// root outward) whose destination is vertexID, or returns an empty path
// if vertexID is the root itself.
func rewindTo(root *stringgraph.Vertex, path []*stringgraph.Edge, vertexID uint32) []*stringgraph.Edge {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Dst().ID == vertexID {
			return path[:i+1]
		}
	}
	if root.ID == vertexID {
		return nil
	}
	return path
}

func edgeKey(e *stringgraph.Edge) *stringgraph.Edge {
	if e.Pair().Src().ID < e.Src().ID {
		return e.Pair()
	}
	return e
}

// popBubble scores every walk ending at the juncture by
// (1 - mean_err_rate) * coverage_sum (spec §4.6), picks the highest as the
// survivor, and for every other walk within MaxDifference of the survivor
// in both length and edit distance, marks its edges for removal -- except
// any edge also used by another walk (a merge point inside the bubble).
// Grounded on StringGraph::popBubble, with the C++ "external inbound
// edges" usage augmentation left out: see DESIGN.md.
func popBubble(walks []*stringgraph.Walk, junctureID uint32, cfg config.Tunables) int {
	var bubbleWalks []*stringgraph.Walk
	for _, w := range walks {
		if len(w.Edges) == 0 {
			continue
		}
		if w.Edges[len(w.Edges)-1].Dst().ID == junctureID {
			bubbleWalks = append(bubbleWalks, w)
		}
	}
	if len(bubbleWalks) < 2 {
		return 0
	}

	usage := map[*stringgraph.Edge]int{}
	for _, w := range bubbleWalks {
		for _, e := range w.Edges {
			usage[edgeKey(e)]++
		}
	}

	sequences := make([]string, len(bubbleWalks))
	selected := 0
	maxScore := 0.0
	for i, w := range bubbleWalks {
		var errRate, coverage float64
		for _, e := range w.Edges {
			errRate += e.Overlap.ErrRate
			coverage += e.Dst().Read.Coverage
			coverage -= e.Overlap.CoveredPercentage(e.Overlap.A.Id)
			coverage -= e.Overlap.CoveredPercentage(e.Overlap.B.Id)
		}
		errRate /= float64(len(w.Edges))

		score := (1 - errRate) * coverage
		if score > maxScore {
			selected = i
			maxScore = score
		}
		sequences[i] = w.ExtractSequence()
	}

	popped := 0
	for i, w := range bubbleWalks {
		if i == selected {
			continue
		}

		smaller, bigger := len(sequences[i]), len(sequences[selected])
		if bigger < smaller {
			smaller, bigger = bigger, smaller
		}
		if bigger == 0 || float64(bigger-smaller)/float64(bigger) >= cfg.MaxDifference {
			continue
		}

		dist := editdistance.Levenshtein(sequences[i], sequences[selected])
		if float64(dist)/float64(len(sequences[selected])) >= cfg.MaxDifference {
			continue
		}

		for _, e := range w.Edges {
			if usage[edgeKey(e)] > 1 {
				continue
			}
			e.Mark()
			e.Pair().Mark()
		}
		popped++
	}

	return popped
}

// Simplify alternates Trim and PopBubbles to a fixed point: a round that
// changes neither the vertex count nor the edge count ends the loop.
// Grounded on StringGraph::simplify.
func Simplify(g *stringgraph.Graph, cfg config.Tunables) {
	numVertices, numEdges := -1, -1

	for numVertices != g.NumVertices() || numEdges != g.NumEdges() {
		numVertices, numEdges = g.NumVertices(), g.NumEdges()

		verticesBefore := -1
		for verticesBefore != g.NumVertices() {
			verticesBefore = g.NumVertices()
			Trim(g, cfg)
		}

		edgesBefore := g.NumEdges()
		PopBubbles(g, cfg)

		if verticesBefore == g.NumVertices() && edgesBefore == g.NumEdges() {
			break
		}
	}
}

// ReduceBestBuddies implements the optional best-buddy reduction (spec
// §4.6): for each vertex/side pair (u, s) whose best edge e is also the
// best edge of the neighbor on e's other end, every other edge on both
// sides is marked for removal, keeping only the single best-buddy
// connection. Grounded on StringGraph::reduceToBOG, minus the read-overlap
// based bookkeeping that method uses purely for logging.
func ReduceBestBuddies(g *stringgraph.Graph) int {
	removed := 0
	seen := map[*stringgraph.Edge]bool{}

	for _, id := range sortedVertexIDs(g) {
		v := g.Vertex(id)
		if v == nil {
			continue
		}

		for _, useEnd := range [2]bool{false, true} {
			best := v.BestEdge(useEnd)
			if best == nil || seen[edgeKey(best)] {
				continue
			}

			opposite := best.Dst()
			oppositeSide := best.Overlap.IsUsingSuffix(opposite.ID)
			if opposite.BestEdge(oppositeSide) != best.Pair() {
				continue
			}
			seen[edgeKey(best)] = true

			dir := stringgraph.Begin
			if useEnd {
				dir = stringgraph.End
			}
			for _, e := range v.Edges(dir) {
				if e == best {
					continue
				}
				e.Mark()
				e.Pair().Mark()
				removed += 2
			}

			oppDir := stringgraph.Begin
			if oppositeSide {
				oppDir = stringgraph.End
			}
			for _, e := range opposite.Edges(oppDir) {
				if e == best.Pair() {
					continue
				}
				e.Mark()
				e.Pair().Mark()
				removed += 2
			}
		}
	}

	g.DeleteMarked()
	Trim(g, config.Default())
	return removed
}
