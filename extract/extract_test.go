package extract_test

import (
	"testing"

	"github.com/mariokostelac/ra/config"
	"github.com/mariokostelac/ra/extract"
	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/readstore"
	"github.com/mariokostelac/ra/stringgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(id uint32, name, seq string) *readstore.Read {
	return readstore.New(id, name, seq, "")
}

func TestExtractUnitigsCoversLinearChainInOneWalk(t *testing.T) {
	r1 := mustRead(1, "r1", "AAAACCCCGG")
	r2 := mustRead(2, "r2", "CCCCGGTTTT")
	r3 := mustRead(3, "r3", "GGGGTTTTAA")
	r4 := mustRead(4, "r4", "TTTTAAAACC")

	e12 := overlap.NewDovetail(r1, 4, r2, 4, false, 0, 0)
	e23 := overlap.NewDovetail(r2, 4, r3, 4, false, 0, 0)
	e34 := overlap.NewDovetail(r3, 4, r4, 4, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{r1, r2, r3, r4}, []*overlap.Overlap{e12, e23, e34})

	walks := extract.ExtractUnitigs(g)
	require.Len(t, walks, 1)
	w := walks[0]
	assert.Equal(t, uint32(1), w.Start.ID)
	require.Len(t, w.Edges, 3)
	assert.Equal(t, uint32(2), w.Edges[0].Dst().ID)
	assert.Equal(t, uint32(3), w.Edges[1].Dst().ID)
	assert.Equal(t, uint32(4), w.Edges[2].Dst().ID)
}

func TestExtractUnitigsSplitsOnNonMutualBestEdge(t *testing.T) {
	a := mustRead(1, "a", "AAAACCGT")        // len 8
	b := mustRead(2, "b", "CCCCGGTTTTAAAAA") // len 15
	d := mustRead(3, "d", "TTTTAAAACC")       // len 10

	// a's only edge is to b, but b's best edge is to d (LengthOf(b)=15 vs
	// 11), so a-b isn't mutual: a cannot pull b into its unitig.
	ab := overlap.NewDovetail(a, 4, b, 4, false, 0, 0)
	db := overlap.NewDovetail(d, 4, b, -2, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{a, b, d}, []*overlap.Overlap{ab, db})

	require.Same(t, db, g.Vertex(2).BestEdge(false).Overlap) // b's Begin best is db, not ab

	walks := extract.ExtractUnitigs(g)
	require.Len(t, walks, 2)

	byStart := map[uint32]*stringgraph.Walk{}
	for _, w := range walks {
		byStart[w.Start.ID] = w
	}

	require.Contains(t, byStart, uint32(1))
	assert.Empty(t, byStart[1].Edges) // a stands alone

	require.Contains(t, byStart, uint32(3))
	require.Len(t, byStart[3].Edges, 1)
	assert.Equal(t, uint32(2), byStart[3].Edges[0].Dst().ID) // d -> b
}

func TestExtractLongestWalkPicksLongerBranch(t *testing.T) {
	r := mustRead(1, "r", "AAAACCCCGG")
	m1 := mustRead(2, "m1", "CCCCGGTTTT")
	m1b := mustRead(3, "m1b", "GGGGTTTTAA")
	m2 := mustRead(4, "m2", "TTTTAAAACC")

	rm1 := overlap.NewDovetail(r, 4, m1, 4, false, 0, 0)
	m1m1b := overlap.NewDovetail(m1, 4, m1b, 4, false, 0, 0)
	rm2 := overlap.NewDovetail(r, 4, m2, 4, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{r, m1, m1b, m2}, []*overlap.Overlap{rm1, m1m1b, rm2})

	comp := g.ExtractComponents()
	require.Len(t, comp, 1)

	walk := extract.ExtractLongestWalk(g, comp[0].VertexIDs, config.Default())
	require.NotNil(t, walk)

	total := walk.Start.Length()
	for _, e := range walk.Edges {
		total += e.LabelLength()
	}
	assert.Equal(t, 18, total) // r-m1-m1b (10+4+4), not the 14-long r-m2 branch

	touched := map[uint32]bool{walk.Start.ID: true}
	for _, e := range walk.Edges {
		touched[e.Dst().ID] = true
	}
	assert.True(t, touched[1] && touched[2] && touched[3])
	assert.False(t, touched[4])
}

func TestMaterializeContigTracksCumulativeOffsets(t *testing.T) {
	r1 := mustRead(1, "r1", "AAAACCGT")
	r2 := mustRead(2, "r2", "CCGTTTTT")
	r3 := mustRead(3, "r3", "TTTTCCGG")

	e12 := overlap.NewDovetail(r1, 4, r2, 4, false, 0, 0)
	e23 := overlap.NewDovetail(r2, 4, r3, 4, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{r1, r2, r3}, []*overlap.Overlap{e12, e23})

	w := &stringgraph.Walk{
		Start: g.Vertex(1),
		Edges: []*stringgraph.Edge{g.Vertex(1).EdgesEnd()[0], g.Vertex(2).EdgesEnd()[0]},
	}

	c := extract.MaterializeContig(w)
	require.Len(t, c.Parts, 3)

	assert.Equal(t, extract.ContigPart{ReadID: 1, Orientation: extract.Forward, Offset: 0, ClrLo: 0, ClrHi: 8}, c.Parts[0])
	assert.Equal(t, uint32(2), c.Parts[1].ReadID)
	assert.Equal(t, extract.Forward, c.Parts[1].Orientation)
	assert.Equal(t, 4, c.Parts[1].Offset)
	assert.Equal(t, uint32(3), c.Parts[2].ReadID)
	assert.Equal(t, 8, c.Parts[2].Offset)
}

func TestMaterializeContigFlipsOrientationOnInnie(t *testing.T) {
	a := mustRead(1, "a", "AAACCGTT")
	b := mustRead(2, "b", "TTTTAAAC")

	o := overlap.NewDovetail(a, 3, b, 3, true, 0, 0)
	g := stringgraph.New([]*readstore.Read{a, b}, []*overlap.Overlap{o})

	w := &stringgraph.Walk{Start: g.Vertex(1), Edges: []*stringgraph.Edge{g.Vertex(1).EdgesEnd()[0]}}
	c := extract.MaterializeContig(w)

	require.Len(t, c.Parts, 2)
	assert.Equal(t, extract.ContigPart{ReadID: 1, Orientation: extract.Forward, Offset: 0, ClrLo: 0, ClrHi: 8}, c.Parts[0])
	assert.Equal(t, extract.ContigPart{ReadID: 2, Orientation: extract.Reverse, Offset: 3, ClrLo: 8, ClrHi: 0}, c.Parts[1])
}
