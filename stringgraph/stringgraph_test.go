package stringgraph_test

import (
	"testing"

	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/readstore"
	"github.com/mariokostelac/ra/stringgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(id uint32, name, seq string) *readstore.Read {
	return readstore.New(id, name, seq, "")
}

func TestNewGraphWiresPairedEdgesOnBothSides(t *testing.T) {
	a := mustRead(1, "a", "AAAACCGT") // len 8
	b := mustRead(2, "b", "CCGTTTTT") // len 8

	o := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	require.Len(t, g.Edges(), 2)

	va, vb := g.Vertex(1), g.Vertex(2)
	require.NotNil(t, va)
	require.NotNil(t, vb)

	// a uses its suffix, b uses its prefix.
	assert.Len(t, va.EdgesEnd(), 1)
	assert.Len(t, va.EdgesBegin(), 0)
	assert.Len(t, vb.EdgesBegin(), 1)
	assert.Len(t, vb.EdgesEnd(), 0)

	edgeA := va.EdgesEnd()[0]
	edgeB := vb.EdgesBegin()[0]
	assert.Same(t, edgeB, edgeA.Pair())
	assert.Same(t, edgeA, edgeB.Pair())
	assert.Same(t, va, edgeA.Src())
	assert.Same(t, vb, edgeA.Dst())
	assert.Same(t, va, edgeB.OppositeVertex(vb.ID))
}

func TestLabelNonInnie(t *testing.T) {
	a := mustRead(1, "a", "AAAACCGT")
	b := mustRead(2, "b", "CCGTTTTT")

	o := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	edgeAB := g.Vertex(1).EdgesEnd()[0]
	edgeBA := g.Vertex(2).EdgesBegin()[0]

	assert.Equal(t, "TTTT", edgeAB.Label())
	assert.Equal(t, "AAAA", edgeBA.Label())
	assert.Equal(t, 4, edgeAB.LabelLength())
	assert.Equal(t, 4, edgeBA.LabelLength())
	assert.Equal(t, "AAAA", edgeAB.RKLabel())
}

func TestLabelInnie(t *testing.T) {
	a := mustRead(1, "a", "AAACCGTT")
	b := mustRead(2, "b", "TTTTAAAC")

	o := overlap.NewDovetail(a, 3, b, 3, true, -1, -1)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	edgeAB := g.Vertex(1).EdgesEnd()[0]
	edgeBA := g.Vertex(2).EdgesEnd()[0]

	assert.Equal(t, "AAA", edgeAB.Label())
	assert.Equal(t, "AAA", edgeBA.Label())
	assert.Equal(t, "TTT", edgeAB.RKLabel())
}

func TestIsTipCandidateAndBestEdge(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGG") // len 10
	b := mustRead(2, "b", "CCCCGGTTTT") // len 10
	c := mustRead(3, "c", "CCCCGG")     // len 6, shorter overlap with a
	e := mustRead(4, "e", "TTTTAAAACC") // len 10, gives b a begin-side edge too

	ab := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	ac := overlap.NewDovetail(a, 6, c, 2, false, -1, -1)
	be := overlap.NewDovetail(b, 4, e, 4, false, -1, -1)

	g := stringgraph.New([]*readstore.Read{a, b, c, e}, []*overlap.Overlap{ab, ac, be})

	va := g.Vertex(1)
	assert.True(t, va.IsTipCandidate()) // edgesBegin empty
	assert.False(t, g.Vertex(2).IsTipCandidate())

	assert.True(t, va.IsBubbleRootCandidate(stringgraph.End))
	assert.False(t, va.IsBubbleRootCandidate(stringgraph.Begin))

	best := va.BestEdge(true)
	require.NotNil(t, best)
	assert.Same(t, ab, best.Overlap) // ab covers more of a than ac
}

func TestMarkAndDeleteMarkedRemovesBothDirections(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGG")
	b := mustRead(2, "b", "CCCCGGTTTT")

	o := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	edgeAB := g.Vertex(1).EdgesEnd()[0]
	edgeAB.Mark()
	edgeAB.Pair().Mark()
	g.DeleteMarked()

	assert.Empty(t, g.Vertex(1).EdgesEnd())
	assert.Empty(t, g.Vertex(2).EdgesBegin())
	assert.Empty(t, g.Edges())
}

func TestDeleteMarkedVertexCascadesToNeighbor(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGG")
	b := mustRead(2, "b", "CCCCGGTTTT")

	o := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	g.Vertex(1).Mark()
	g.DeleteMarked()

	assert.Nil(t, g.Vertex(1))
	require.NotNil(t, g.Vertex(2))
	assert.Empty(t, g.Vertex(2).EdgesBegin())
	assert.Empty(t, g.Edges())
}

func TestExtractOverlapsReturnsOnePerEdgePair(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGG")
	b := mustRead(2, "b", "CCCCGGTTTT")

	o := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	assert.Equal(t, []*overlap.Overlap{o}, g.ExtractOverlaps())
}

func TestExtractComponentsSplitsDisjointGraphs(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGG")
	b := mustRead(2, "b", "CCCCGGTTTT")
	c := mustRead(3, "c", "GGGGTTTTAA")
	d := mustRead(4, "d", "TTTTAAAACC")

	ab := overlap.NewDovetail(a, 4, b, 4, false, -1, -1)
	cd := overlap.NewDovetail(c, 4, d, 4, false, -1, -1)

	g := stringgraph.New([]*readstore.Read{a, b, c, d}, []*overlap.Overlap{ab, cd})

	components := g.ExtractComponents()
	require.Len(t, components, 2)

	sizes := map[int]int{}
	for _, comp := range components {
		sizes[len(comp.VertexIDs)]++
	}
	assert.Equal(t, map[int]int{2: 2}, sizes)
}
