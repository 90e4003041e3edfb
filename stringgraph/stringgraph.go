// Package stringgraph implements the StringGraph data structure of spec
// §4.5: a bidirected graph with one vertex per read and two paired,
// directed edges per overlap, filed on each endpoint's begin/end side
// depending on which end of that read the overlap uses. Grounded on
// _examples/original_source/ra/src/StringGraph.hpp/.cpp.
package stringgraph

import (
	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/readstore"
)

// Edge is one directed half of an overlap: from Src to Dst. Pair is the
// other half, from Dst back to Src, built from the same Overlap.
type Edge struct {
	id      uint32
	src     *Vertex
	dst     *Vertex
	Overlap *overlap.Overlap
	pair    *Edge
	marked  bool

	labelLength    int
	labelLengthSet bool
}

// Src returns the vertex this edge leaves from.
func (e *Edge) Src() *Vertex { return e.src }

// Dst returns the vertex this edge arrives at.
func (e *Edge) Dst() *Vertex { return e.dst }

// Pair returns the opposite-direction edge built from the same overlap.
func (e *Edge) Pair() *Edge { return e.pair }

// Marked reports whether this edge has been marked for deletion.
func (e *Edge) Marked() bool { return e.marked }

// Mark flags this edge for a future DeleteMarked sweep.
func (e *Edge) Mark() { e.marked = true }

// OppositeVertex returns the vertex on the other end of this edge from id,
// whichever end id names.
func (e *Edge) OppositeVertex(id uint32) *Vertex {
	if id == e.src.ID {
		return e.dst
	}
	return e.src
}

// Label returns the unused portion of Dst's sequence this edge contributes
// when walking from Src to Dst: the part of Dst not already accounted for
// by the overlap, read in whichever orientation the overlap's innie flag
// implies. Grounded on Edge::label in StringGraph.cpp.
func (e *Edge) Label() string {
	o := e.Overlap
	dstID := e.dst.ID

	var start, length int
	var seq string

	if e.src.ID == o.A.Id {
		switch {
		case o.IsInnie && o.IsUsingSuffix(dstID):
			start = int(o.LengthOf(dstID))
			length = int(o.BHang)
		case o.IsInnie:
			start = 0
			length = -int(o.AHang)
		case o.IsUsingSuffix(dstID):
			start = 0
			length = -int(o.AHang)
		default:
			start = int(o.LengthOf(dstID))
			length = int(o.BHang)
		}
		seq = e.dst.Read.Active(o.IsInnie)
	} else {
		if o.IsUsingSuffix(dstID) {
			start = 0
			length = int(o.AHang)
		} else {
			start = int(o.LengthOf(dstID))
			length = -int(o.BHang)
		}
		seq = e.dst.Read.Sequence
	}

	return substr(seq, start, length)
}

// substr mirrors std::string::substr(start, len)'s clamping: a negative or
// out-of-range start/len never panics, it just yields less (or none).
func substr(s string, start, length int) string {
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	if length < 0 {
		length = 0
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// LabelLength returns len(Label()), memoized. It always equals
// |a_hang| or |b_hang| of the underlying overlap.
func (e *Edge) LabelLength() int {
	if !e.labelLengthSet {
		e.labelLength = len(e.Label())
		e.labelLengthSet = true
	}
	return e.labelLength
}

// RKLabel returns the reverse complement of Label().
func (e *Edge) RKLabel() string {
	label := e.Label()
	out := make([]byte, len(label))
	for i := 0; i < len(label); i++ {
		out[len(label)-1-i] = complementBase(label[i])
	}
	return string(out)
}

func complementBase(c byte) byte {
	switch c {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	default:
		return c
	}
}

// Vertex is one read's place in the graph: its two edge lists, begin
// (edges using this read's prefix) and end (edges using this read's
// suffix).
type Vertex struct {
	ID   uint32
	Read *readstore.Read

	edgesBegin []*Edge
	edgesEnd   []*Edge
	marked     bool
}

// EdgesBegin returns the edges filed on this vertex's prefix side.
func (v *Vertex) EdgesBegin() []*Edge { return v.edgesBegin }

// EdgesEnd returns the edges filed on this vertex's suffix side.
func (v *Vertex) EdgesEnd() []*Edge { return v.edgesEnd }

// Marked reports whether this vertex has been marked for deletion.
func (v *Vertex) Marked() bool { return v.marked }

// Mark flags this vertex for a future DeleteMarked sweep.
func (v *Vertex) Mark() { v.marked = true }

// Length returns the read's sequence length.
func (v *Vertex) Length() int { return v.Read.Len() }

// addEdge files e on whichever of this vertex's two sides its overlap
// uses.
func (v *Vertex) addEdge(e *Edge) {
	if e.Overlap.IsUsingSuffix(v.ID) {
		v.edgesEnd = append(v.edgesEnd, e)
	} else {
		v.edgesBegin = append(v.edgesBegin, e)
	}
}

// IsTipCandidate reports whether one of this vertex's two sides is empty,
// the structural precondition for being a dead-end or long-tip leaf (spec
// §4.6).
func (v *Vertex) IsTipCandidate() bool {
	return len(v.edgesBegin) == 0 || len(v.edgesEnd) == 0
}

// direction selects one of a vertex's two edge lists.
type Direction int

const (
	Begin Direction = 0
	End   Direction = 1
)

func (v *Vertex) edges(d Direction) []*Edge {
	if d == End {
		return v.edgesEnd
	}
	return v.edgesBegin
}

// Edges returns the edge list on side d (Begin or End).
func (v *Vertex) Edges(d Direction) []*Edge { return v.edges(d) }

// Flip returns the opposite side.
func (d Direction) Flip() Direction {
	if d == End {
		return Begin
	}
	return End
}

// IsBubbleRootCandidate reports whether this vertex has more than one
// unmarked edge on side d, the precondition for starting a bubble search
// there (spec §4.6).
func (v *Vertex) IsBubbleRootCandidate(d Direction) bool {
	unmarked := 0
	for _, e := range v.edges(d) {
		if !e.marked {
			unmarked++
		}
	}
	return unmarked > 1
}

// MarkEdges marks every edge incident to this vertex, and each one's pair.
func (v *Vertex) MarkEdges() {
	for _, e := range v.edgesEnd {
		e.Mark()
		e.pair.Mark()
	}
	for _, e := range v.edgesBegin {
		e.Mark()
		e.pair.Mark()
	}
}

// RemoveMarkedEdges drops every marked edge from this vertex's lists. When
// propagate is true, it recurses (non-propagating) into every opposite
// vertex touched by a removed edge, so both endpoints of a removed edge
// drop their copy of it.
func (v *Vertex) RemoveMarkedEdges(propagate bool) {
	var others []*Vertex

	keep := v.edgesEnd[:0]
	for _, e := range v.edgesEnd {
		if e.marked {
			if propagate {
				others = append(others, e.OppositeVertex(v.ID))
			}
			continue
		}
		keep = append(keep, e)
	}
	v.edgesEnd = keep

	keep = v.edgesBegin[:0]
	for _, e := range v.edgesBegin {
		if e.marked {
			if propagate {
				others = append(others, e.OppositeVertex(v.ID))
			}
			continue
		}
		keep = append(keep, e)
	}
	v.edgesBegin = keep

	for _, o := range others {
		o.RemoveMarkedEdges(false)
	}
}

// BestEdge returns the edge on side d (End if useEnd, else Begin) whose
// overlap covers the most of this vertex's read, or nil if that side is
// empty.
func (v *Vertex) BestEdge(useEnd bool) *Edge {
	d := Begin
	if useEnd {
		d = End
	}
	edges := v.edges(d)
	if len(edges) == 0 {
		return nil
	}

	best := edges[0]
	bestLen := best.Overlap.LengthOf(v.ID)
	for _, e := range edges[1:] {
		if l := e.Overlap.LengthOf(v.ID); l > bestLen {
			best, bestLen = e, l
		}
	}
	return best
}

// Graph is the StringGraph itself: one Vertex per read, two Edges per
// overlap.
type Graph struct {
	vertices map[uint32]*Vertex
	edges    []*Edge
	overlaps []*overlap.Overlap
}

// New builds a Graph from a read set and an overlap set: one vertex per
// read, and for every overlap (a, b) two cross-paired edges, a->b filed on
// a and b->a filed on b. Grounded on the StringGraph constructor in
// StringGraph.cpp.
func New(reads []*readstore.Read, overlaps []*overlap.Overlap) *Graph {
	g := &Graph{
		vertices: make(map[uint32]*Vertex, len(reads)),
		edges:    make([]*Edge, 0, len(overlaps)*2),
		overlaps: overlaps,
	}

	for _, r := range reads {
		g.vertices[r.Id] = &Vertex{ID: r.Id, Read: r}
	}

	for _, o := range overlaps {
		va := g.vertices[o.A.Id]
		vb := g.vertices[o.B.Id]

		edgeA := &Edge{id: uint32(len(g.edges)), src: va, dst: vb, Overlap: o}
		g.edges = append(g.edges, edgeA)
		va.addEdge(edgeA)

		edgeB := &Edge{id: uint32(len(g.edges)), src: vb, dst: va, Overlap: o}
		g.edges = append(g.edges, edgeB)
		vb.addEdge(edgeB)

		edgeA.pair = edgeB
		edgeB.pair = edgeA
	}

	return g
}

// Vertex returns the vertex for a read id, or nil if it isn't (or is no
// longer) in the graph.
func (g *Graph) Vertex(id uint32) *Vertex { return g.vertices[id] }

// Vertices returns every vertex currently in the graph.
func (g *Graph) Vertices() map[uint32]*Vertex { return g.vertices }

// Edges returns every edge currently in the graph (both directions of
// every surviving overlap).
func (g *Graph) Edges() []*Edge { return g.edges }

// NumVertices and NumEdges give the counts the simplification loop (spec
// §4.6) compares between rounds to detect a fixed point.
func (g *Graph) NumVertices() int { return len(g.vertices) }
func (g *Graph) NumEdges() int    { return len(g.edges) }

// DeleteMarked sweeps out every marked vertex (and the edges it touches)
// and every marked edge, in that order: marking a vertex also marks its
// incident edges, so a single pass over edges afterwards suffices.
// Grounded on StringGraph::delete_marked/_edges/_vertices.
func (g *Graph) DeleteMarked() {
	g.deleteMarkedVertices()
	g.deleteMarkedEdges()
}

func (g *Graph) deleteMarkedVertices() {
	var remove []uint32
	for id, v := range g.vertices {
		if !v.marked {
			continue
		}
		for _, e := range v.edgesBegin {
			e.Mark()
			e.pair.Mark()
		}
		for _, e := range v.edgesEnd {
			e.Mark()
			e.pair.Mark()
		}
		remove = append(remove, id)
	}
	for _, id := range remove {
		delete(g.vertices, id)
	}
}

func (g *Graph) deleteMarkedEdges() {
	dirty := make(map[uint32]bool)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.marked {
			dirty[e.src.ID] = true
			dirty[e.dst.ID] = true
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept

	for id := range dirty {
		if v := g.vertices[id]; v != nil {
			v.RemoveMarkedEdges(false)
		}
	}
}

// ExtractOverlaps returns the surviving overlap set: one overlap per
// surviving edge pair, taking every even-id edge's overlap (each overlap
// produced exactly two consecutively-ided edges at construction, and
// deletion never renumbers ids).
func (g *Graph) ExtractOverlaps() []*overlap.Overlap {
	out := make([]*overlap.Overlap, 0, len(g.edges)/2)
	for _, e := range g.edges {
		if e.id%2 == 1 {
			continue
		}
		out = append(out, e.Overlap)
	}
	return out
}

// Component is a connected subset of the graph's vertices.
type Component struct {
	VertexIDs []uint32
}

// ExtractComponents partitions the graph's current vertices into connected
// components via breadth-first expansion along both edge lists.
// Grounded on StringGraph::extractComponents.
func (g *Graph) ExtractComponents() []*Component {
	used := make(map[uint32]bool, len(g.vertices))
	var components []*Component

	for id := range g.vertices {
		if used[id] {
			continue
		}

		seen := map[uint32]bool{id: true}
		frontier := []uint32{id}

		for len(frontier) > 0 {
			var next []uint32
			for _, vid := range frontier {
				v := g.vertices[vid]
				for _, e := range v.edgesBegin {
					if o := e.dst.ID; !seen[o] {
						seen[o] = true
						next = append(next, o)
					}
				}
				for _, e := range v.edgesEnd {
					if o := e.dst.ID; !seen[o] {
						seen[o] = true
						next = append(next, o)
					}
				}
			}
			frontier = next
		}

		ids := make([]uint32, 0, len(seen))
		for vid := range seen {
			ids = append(ids, vid)
			used[vid] = true
		}
		components = append(components, &Component{VertexIDs: ids})
	}

	return components
}

// Walk is an ordered path through the graph: a start vertex plus the edges
// leading away from it, each edge's Src being the previous edge's Dst (or
// Start, for the first edge).
type Walk struct {
	Start *Vertex
	Edges []*Edge
}

// walkOrientation reports 0 (forward) unless id is the read reached
// through the "B" role of an innie overlap, which needs its
// reverse-complement orientation instead. Grounded on the getType lambda
// in StringGraphWalk::extractSequence.
func walkOrientation(e *Edge, id uint32) int {
	if e.Overlap.A.Id == id {
		return 0
	}
	if !e.Overlap.IsInnie {
		return 0
	}
	return 1
}

func reverseBytes(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ExtractSequence reconstructs the DNA sequence spelled out by walking from
// Start through each edge's label in turn, applying whichever
// reverse-complement flips the walk's accumulated orientation requires.
// Grounded on StringGraphWalk::extractSequence.
func (w *Walk) ExtractSequence() string {
	if len(w.Edges) == 0 {
		return w.Start.Read.Sequence
	}

	startType := walkOrientation(w.Edges[0], w.Start.ID)
	appendToPrefix := w.Edges[0].Overlap.IsUsingPrefix(w.Start.ID) != (startType == 1)

	startSeq := w.Start.Read.Active(startType == 1)

	var out string
	if appendToPrefix {
		out = reverseBytes(startSeq)
	} else {
		out = startSeq
	}

	prevType := startType
	for _, e := range w.Edges {
		typ := walkOrientation(e, e.src.ID)
		invert := typ != prevType

		var label string
		if invert {
			label = e.RKLabel()
		} else {
			label = e.Label()
		}

		if appendToPrefix {
			out += reverseBytes(label)
		} else {
			out += label
		}

		dstType := walkOrientation(e, e.dst.ID)
		if invert {
			dstType ^= 1
		}
		prevType = dstType
	}

	if appendToPrefix {
		out = reverseBytes(out)
	}
	return out
}
