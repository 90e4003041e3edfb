// Package extract implements the Extractor of spec §4.7: unitig extraction
// via mutual best-edge agreement, and longest-walk contig extraction per
// connected component with a scoring-guided, branch-budget-pruned DFS.
// Grounded on _examples/original_source/ra/src/StringGraph.cpp's
// reduceToBOG/expandVertex/longest_sequence_length/extractLongestWalk and
// _examples/original_source/ra/src/ContigExtractor.cpp/IO.cpp's AFG contig
// part layout.
package extract

import (
	"sort"

	"github.com/mariokostelac/ra/config"
	"github.com/mariokostelac/ra/overlap"
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

// overlapScore is Overlap::covered_percentage(a)+covered_percentage(b),
// scaled down by the overlap's error rate. Grounded on overlap_score in
// StringGraph.cpp.
func overlapScore(o *overlap.Overlap) float64 {
	quality := 1 - o.ErrRate
	return (o.CoveredPercentage(o.A.Id) + o.CoveredPercentage(o.B.Id)) * quality
}

// mutualBestEdge returns v's best edge on side d if, and only if, the
// neighbor it reaches agrees: the edge back to v must itself be that
// neighbor's best edge on the side the pair lands on. Grounded on
// StringGraph::reduceToBOG's "best buddy" condition, rederived here (as in
// simplify.ReduceBestBuddies) from the same Overlap.IsUsingSuffix rule
// Vertex.addEdge uses to file edges, rather than an independently
// unverifiable use_end^is_innie expression.
func mutualBestEdge(v *stringgraph.Vertex, d stringgraph.Direction) *stringgraph.Edge {
	best := v.BestEdge(d == stringgraph.End)
	if best == nil {
		return nil
	}
	opposite := best.Dst()
	oppositeSide := stringgraph.Begin
	if best.Overlap.IsUsingSuffix(opposite.ID) {
		oppositeSide = stringgraph.End
	}
	if opposite.BestEdge(oppositeSide == stringgraph.End) == best.Pair() {
		return best
	}
	return nil
}

// ExtractUnitigs greedily walks best-buddy edges: from each
// not-yet-assigned vertex, it first walks backward to the true start of its
// mutual-best chain, then walks forward collecting edges until the chain
// ends, forks, or (for a circular component) returns to an already-seen
// vertex. Every vertex ends up in exactly one walk. Grounded on spec §4.7's
// "Unitig extraction" paragraph.
func ExtractUnitigs(g *stringgraph.Graph) []*stringgraph.Walk {
	assigned := make(map[uint32]bool, g.NumVertices())
	var walks []*stringgraph.Walk

	for _, id := range sortedVertexIDs(g) {
		if assigned[id] {
			continue
		}

		start, startDir := walkToStart(g.Vertex(id))

		edges := make([]*stringgraph.Edge, 0)
		assigned[start.ID] = true
		cur, dir := start, startDir
		for {
			best := mutualBestEdge(cur, dir)
			if best == nil {
				break
			}
			next := best.Dst()
			if assigned[next.ID] {
				break // closes a circular component
			}
			edges = append(edges, best)
			assigned[next.ID] = true
			cur = next
			if best.Overlap.IsInnie {
				dir = dir.Flip()
			}
		}

		walks = append(walks, &stringgraph.Walk{Start: start, Edges: edges})
	}

	return walks
}

// walkToStart follows mutual-best edges backward (on the Begin side, as
// seen from each vertex in turn) from v until none exists, returning the
// vertex it lands on and the forward direction a walk should leave it by.
// A seen-set guards against a circular chain looping forever; in that case
// the scan simply stops where it started, an arbitrary but deterministic
// point to cut the circle.
func walkToStart(v *stringgraph.Vertex) (*stringgraph.Vertex, stringgraph.Direction) {
	seen := map[uint32]bool{v.ID: true}
	cur, dir := v, stringgraph.Begin

	for {
		best := mutualBestEdge(cur, dir)
		if best == nil {
			break
		}
		next := best.Dst()
		if seen[next.ID] {
			break
		}
		seen[next.ID] = true
		cur = next
		if best.Overlap.IsInnie {
			dir = dir.Flip()
		}
	}

	return cur, dir.Flip()
}

// longestSequenceLength is a DFS scoring oracle: from a vertex, follow the
// single outgoing edge if there's exactly one; with several, keep only
// edges scoring within QualityThreshold of the best-scoring edge at this
// vertex, spend one fork-budget unit, and recurse to find the longest.
// Grounded on longest_sequence_length in StringGraph.cpp.
func longestSequenceLength(from *stringgraph.Vertex, dir stringgraph.Direction, visited map[uint32]bool, forksLeft int, cfg config.Tunables) int {
	if forksLeft < 0 || visited[from.ID] {
		return 0
	}

	visited[from.ID] = true
	defer func() { visited[from.ID] = false }()

	edges := from.Edges(dir)
	resLength := 0

	switch {
	case len(edges) == 1:
		e := edges[0]
		nextDir := dir
		if e.Overlap.IsInnie {
			nextDir = dir.Flip()
		}
		resLength += e.LabelLength() + longestSequenceLength(e.Dst(), nextDir, visited, forksLeft, cfg)

	case len(edges) > 1:
		bestQual := 0.0
		for _, e := range edges {
			if q := overlapScore(e.Overlap); q > bestQual {
				bestQual = q
			}
		}
		qualLo := bestQual * (1 - cfg.QualityThreshold)

		var bestEdge *stringgraph.Edge
		bestLen := 0
		for _, e := range edges {
			if overlapScore(e.Overlap) < qualLo {
				continue
			}
			nextDir := dir
			if e.Overlap.IsInnie {
				nextDir = dir.Flip()
			}
			currLen := longestSequenceLength(e.Dst(), nextDir, visited, forksLeft-1, cfg)
			if currLen > bestLen {
				bestEdge, bestLen = e, currLen
			}
		}
		if bestEdge != nil {
			resLength += bestEdge.LabelLength() + bestLen
		}
	}

	return resLength
}

// expandVertex greedily walks from start, at each fork taking the edge
// whose longestSequenceLength-estimated continuation is longest among those
// scoring within QualityThreshold of the best, and never revisiting a
// vertex. Grounded on expandVertex in StringGraph.cpp.
func expandVertex(start *stringgraph.Vertex, dir stringgraph.Direction, cfg config.Tunables) []*stringgraph.Edge {
	var edges []*stringgraph.Edge

	visited := map[uint32]bool{start.ID: true}
	cur, curDir := start, dir

	for {
		candidates := cur.Edges(curDir)

		var best *stringgraph.Edge
		switch {
		case len(candidates) == 1:
			if !visited[candidates[0].Dst().ID] {
				best = candidates[0]
			}

		case len(candidates) > 1:
			bestQual := 0.0
			for _, e := range candidates {
				if q := overlapScore(e.Overlap); q > bestQual {
					bestQual = q
				}
			}
			qualLo := bestQual * (1 - cfg.QualityThreshold)

			bestLength := 0
			for _, e := range candidates {
				next := e.Dst()
				if visited[next.ID] {
					continue
				}
				if overlapScore(e.Overlap) < qualLo {
					continue
				}
				nextDir := curDir
				if e.Overlap.IsInnie {
					nextDir = curDir.Flip()
				}
				currLength := longestSequenceLength(next, nextDir, visited, cfg.MaxBranches, cfg) + e.LabelLength()
				if currLength > bestLength {
					best, bestLength = e, currLength
				}
			}
		}

		if best == nil {
			break
		}

		edges = append(edges, best)
		cur = best.Dst()
		visited[cur.ID] = true
		if best.Overlap.IsInnie {
			curDir = curDir.Flip()
		}
	}

	return edges
}

// startCandidate is a (vertex, direction) pair ranked by its estimated
// chain length, the seed material for ExtractLongestWalk.
type startCandidate struct {
	vertex *stringgraph.Vertex
	dir    stringgraph.Direction
	score  int
}

// ExtractLongestWalk picks the best candidate start vertices within a
// component (tips and forks, falling back to an arbitrary vertex for a
// circular component), expands the top cfg.MaxStartNodes of them with
// expandVertex, and returns the single longest resulting walk. Grounded on
// StringGraphComponent::extractLongestWalk in StringGraph.cpp; the
// original's OpenMP-parallel expansion loop becomes a plain sequential loop
// since Go's concurrency would add complexity this port doesn't need to
// prove out.
func ExtractLongestWalk(g *stringgraph.Graph, vertexIDs []uint32, cfg config.Tunables) *stringgraph.Walk {
	ids := append([]uint32(nil), vertexIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	vertices := make([]*stringgraph.Vertex, 0, len(ids))
	for _, id := range ids {
		vertices = append(vertices, g.Vertex(id))
	}

	var candidates []startCandidate

	for _, dir := range []stringgraph.Direction{stringgraph.Begin, stringgraph.End} {
		other := dir.Flip()
		for _, v := range vertices {
			if len(v.Edges(dir)) == 1 && len(v.Edges(other)) == 0 {
				visited := make(map[uint32]bool, len(vertices))
				score := longestSequenceLength(v, dir, visited, 0, cfg)
				candidates = append(candidates, startCandidate{v, dir, score})
			}
		}
	}

	for _, dir := range []stringgraph.Direction{stringgraph.Begin, stringgraph.End} {
		for _, v := range vertices {
			if len(v.Edges(dir)) > 1 {
				visited := make(map[uint32]bool, len(vertices))
				score := longestSequenceLength(v, dir, visited, 1, cfg)
				candidates = append(candidates, startCandidate{v, dir, score})
			}
		}
	}

	if len(candidates) == 0 && len(vertices) > 0 {
		visited := make(map[uint32]bool, len(vertices))
		score := longestSequenceLength(vertices[0], stringgraph.Begin, visited, 1, cfg)
		candidates = append(candidates, startCandidate{vertices[0], stringgraph.Begin, score})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	n := cfg.MaxStartNodes
	if n > len(candidates) {
		n = len(candidates)
	}

	var selected *stringgraph.Walk
	selectedLength := 0

	for i := 0; i < n; i++ {
		c := candidates[i]
		edges := expandVertex(c.vertex, c.dir, cfg)

		length := c.vertex.Length()
		for _, e := range edges {
			length += e.LabelLength()
		}

		if length > selectedLength {
			selectedLength = length
			selected = &stringgraph.Walk{Start: c.vertex, Edges: edges}
		}
	}

	return selected
}

// ExtractContigs partitions g into connected components and materializes
// each component's longest walk as a Contig.
func ExtractContigs(g *stringgraph.Graph, cfg config.Tunables) []*Contig {
	var contigs []*Contig
	for _, comp := range g.ExtractComponents() {
		walk := ExtractLongestWalk(g, comp.VertexIDs, cfg)
		if walk == nil {
			continue
		}
		contigs = append(contigs, MaterializeContig(walk))
	}
	return contigs
}

// Orientation is the strand a ContigPart's read contributes in.
type Orientation int

const (
	Forward Orientation = iota
	Reverse
)

func (o Orientation) flip() Orientation {
	if o == Forward {
		return Reverse
	}
	return Forward
}

// ContigPart is one read's placement within a materialized Contig: which
// strand it contributes (Orientation), where its unique contribution
// starts in the contig's own coordinate system (Offset), and the clear
// range of the read used (ClrLo, ClrHi — reversed, ClrLo > ClrHi, when
// Orientation is Reverse, matching the AFG convention read by
// ioformat/afg). Grounded on spec §3's Contig/Walk data model and the
// ContigPart(id, lo, hi, off) constructor read in IO.cpp's AFG contig
// parser.
type ContigPart struct {
	ReadID       uint32
	Orientation  Orientation
	Offset       int
	ClrLo, ClrHi uint32
}

// Contig is the externalized form of a Walk: an ordered list of
// ContigParts.
type Contig struct {
	Parts []ContigPart
}

func edgeOrientation(e *stringgraph.Edge, id uint32) Orientation {
	if e.Overlap.A.Id == id {
		return Forward
	}
	if !e.Overlap.IsInnie {
		return Forward
	}
	return Reverse
}

func partFor(v *stringgraph.Vertex, o Orientation, offset int) ContigPart {
	length := uint32(v.Length())
	if o == Reverse {
		return ContigPart{ReadID: v.ID, Orientation: o, Offset: offset, ClrLo: length, ClrHi: 0}
	}
	return ContigPart{ReadID: v.ID, Orientation: o, Offset: offset, ClrLo: 0, ClrHi: length}
}

// MaterializeContig walks w exactly as Walk.ExtractSequence does (tracking
// the same accumulated reverse-complement flips across innie edges) but
// records a ContigPart per vertex instead of concatenating sequence.
// Offset is the cumulative label length contributed before each vertex: the
// position, in the assembled contig's own coordinates, where that read's
// unique contribution begins.
func MaterializeContig(w *stringgraph.Walk) *Contig {
	if len(w.Edges) == 0 {
		return &Contig{Parts: []ContigPart{partFor(w.Start, Forward, 0)}}
	}

	startOrient := edgeOrientation(w.Edges[0], w.Start.ID)
	parts := []ContigPart{partFor(w.Start, startOrient, 0)}

	offset := 0
	prevOrient := startOrient
	for _, e := range w.Edges {
		srcOrient := edgeOrientation(e, e.Src().ID)
		invert := srcOrient != prevOrient

		offset += e.LabelLength()

		dstOrient := edgeOrientation(e, e.Dst().ID)
		if invert {
			dstOrient = dstOrient.flip()
		}

		parts = append(parts, partFor(e.Dst(), dstOrient, offset))
		prevOrient = dstOrient
	}

	return &Contig{Parts: parts}
}
