package simplify_test

import (
	"testing"

	"github.com/mariokostelac/ra/config"
	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/readstore"
	"github.com/mariokostelac/ra/simplify"
	"github.com/mariokostelac/ra/stringgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(id uint32, name, seq string) *readstore.Read {
	return readstore.New(id, name, seq, "")
}

func TestTrimRemovesDisconnectedVertex(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGG")
	b := mustRead(2, "b", "CCCCGGTTTT")
	c := mustRead(3, "c", "GGGGTTTTAA") // no overlap at all: disconnected

	ab := overlap.NewDovetail(a, 4, b, 4, false, 0, 0)
	g := stringgraph.New([]*readstore.Read{a, b, c}, []*overlap.Overlap{ab})

	tips, disconnected := simplify.Trim(g, config.Default())
	assert.Equal(t, 0, tips)
	assert.Equal(t, 1, disconnected)
	assert.Nil(t, g.Vertex(3))
	assert.NotNil(t, g.Vertex(1))
	assert.NotNil(t, g.Vertex(2))
}

func TestTrimRemovesDeadLeafTip(t *testing.T) {
	// w -- t2 -- z -- x -- y is a genuine chain (long enough that it isn't
	// itself mistaken for a short tip); t1 is a single dead-end hanging off
	// x alongside z.
	w := mustRead(1, "w", "AAAACCCCGG")
	t2 := mustRead(2, "t2", "CCCCGGTTTT")
	z := mustRead(3, "z", "GGGGTTTTAA")
	x := mustRead(4, "x", "TTTTAAAACC")
	y := mustRead(5, "y", "AAAACCCCGG")
	t1 := mustRead(6, "t1", "CCCCGGAATT")

	wt2 := overlap.NewDovetail(w, 4, t2, 4, false, 0, 0)
	t2z := overlap.NewDovetail(t2, 4, z, 4, false, 0, 0)
	zx := overlap.NewDovetail(z, 4, x, 4, false, 0, 0)
	t1x := overlap.NewDovetail(t1, 4, x, 4, false, 0, 0)
	xy := overlap.NewDovetail(x, 4, y, 4, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{w, t2, z, x, y, t1},
		[]*overlap.Overlap{wt2, t2z, zx, t1x, xy})

	require.True(t, g.Vertex(6).IsTipCandidate())
	require.False(t, g.Vertex(3).IsTipCandidate())

	tips, disconnected := simplify.Trim(g, config.Default())
	assert.Equal(t, 1, tips)
	assert.Equal(t, 0, disconnected)

	assert.Nil(t, g.Vertex(6)) // t1 removed
	require.NotNil(t, g.Vertex(1))
	require.NotNil(t, g.Vertex(4))
	assert.Len(t, g.Vertex(4).Edges(stringgraph.Begin), 1) // only z's edge remains
}

func TestPopBubblesKeepsHigherCoverageWalk(t *testing.T) {
	r := mustRead(1, "r", "AAAACCCCGG")
	m1 := mustRead(2, "m1", "CCCCGGTTTT")
	m2 := mustRead(3, "m2", "CCCCGGAATT")
	j := mustRead(4, "j", "TTTTAAAACC")
	m1.AddCoverage(4) // m1's walk scores higher than m2's

	rm1 := overlap.NewDovetail(r, 4, m1, 4, false, 0, 0)
	m1j := overlap.NewDovetail(m1, 4, j, 4, false, 0, 0)
	rm2 := overlap.NewDovetail(r, 4, m2, 4, false, 0, 0)
	m2j := overlap.NewDovetail(m2, 4, j, 4, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{r, m1, m2, j}, []*overlap.Overlap{rm1, m1j, rm2, m2j})

	require.True(t, g.Vertex(1).IsBubbleRootCandidate(stringgraph.End))

	popped := simplify.PopBubbles(g, config.Default())
	assert.Equal(t, 1, popped)

	require.Len(t, g.Vertex(1).Edges(stringgraph.End), 1)
	assert.Same(t, rm1, g.Vertex(1).Edges(stringgraph.End)[0].Overlap)
	require.Len(t, g.Vertex(4).Edges(stringgraph.Begin), 1)
	assert.Same(t, m1j, g.Vertex(4).Edges(stringgraph.Begin)[0].Overlap)
}

func TestReduceBestBuddiesRemovesNonMutualEdge(t *testing.T) {
	a := mustRead(1, "a", "AAAACCCCGGTTTTT") // len 15
	b := mustRead(2, "b", "CCCCGGTTTT")       // len 10
	c := mustRead(3, "c", "CCCCGG")           // len 6, weaker overlap with a

	ab := overlap.NewDovetail(a, 4, b, 4, false, 0, 0)
	ac := overlap.NewDovetail(a, 4, c, -2, false, 0, 0)

	g := stringgraph.New([]*readstore.Read{a, b, c}, []*overlap.Overlap{ab, ac})

	require.Same(t, ab, g.Vertex(1).BestEdge(true).Overlap)

	simplify.ReduceBestBuddies(g)

	require.Len(t, g.Vertex(1).Edges(stringgraph.End), 1)
	assert.Same(t, ab, g.Vertex(1).Edges(stringgraph.End)[0].Overlap)
	assert.Nil(t, g.Vertex(3)) // c loses its only edge, then gets trimmed as disconnected
}
