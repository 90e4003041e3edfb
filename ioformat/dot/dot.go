// Package dot writes the DOT graph representation of an overlap set (spec
// §6), one undirected edge per overlap with arrow styles encoding which
// end of each read the overlap uses. Grounded on
// _examples/original_source/overlap2dot/src/overlap2dot.h's dot_graph/
// get_edge_style (arrowtail/arrowhead derived from is_using_prefix/
// is_using_suffix per endpoint, "graph overlaps { a -- b [dir=both
// arrowtail=... arrowhead=..., label=\"err_rate\"]; }").
package dot

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/raerr"
)

// edgeStyle maps (usesPrefix, usesSuffix) to the arrow style spec §6
// names: both -> box, prefix only -> dot, suffix only -> odot, neither ->
// none.
func edgeStyle(usesPrefix, usesSuffix bool) string {
	switch {
	case usesPrefix && usesSuffix:
		return "box"
	case usesPrefix:
		return "dot"
	case usesSuffix:
		return "odot"
	default:
		return "none"
	}
}

// Write emits a `graph overlaps { ... }` block with one edge per overlap.
func Write(w io.Writer, overlaps []*overlap.Overlap) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "graph overlaps {\n")
	for _, o := range overlaps {
		aID, bID := o.A.Id, o.B.Id
		tailStyle := edgeStyle(o.IsUsingPrefix(aID), o.IsUsingSuffix(aID))
		headStyle := edgeStyle(o.IsUsingPrefix(bID), o.IsUsingSuffix(bID))
		fmt.Fprintf(bw, "%d -- %d [dir=both arrowtail=%s arrowhead=%s, label=\"%g\"];\n",
			aID, bID, tailStyle, headStyle, o.ErrRate)
	}
	fmt.Fprintf(bw, "}\n")
	return raerr.IO("ioformat/dot.Write", bw.Flush())
}
