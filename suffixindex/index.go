// Package suffixindex implements the enhanced suffix array described in
// spec §4.1: a suffix array plus LCP array plus child table over a single
// text, supporting O(|P|) pattern search and O(1) per-character interval
// descent without ever materializing a suffix tree.
package suffixindex

import (
	"encoding/binary"
	"io"

	"github.com/mariokostelac/ra/raerr"
)

// MaxTextLen is the largest text an Index can be built over (spec §3:
// "T.len ≤ 2^31 − 3"); callers (ReadIndex) shard their input so no single
// fragment exceeds this.
const MaxTextLen = (1 << 31) - 3

// Index is an enhanced suffix array over Text.
type Index struct {
	Text   []byte
	suftab []int32
	lcptab []int32 // length len(Text); lcptab[0] == 0 by convention.
	ct     childTable
}

// Interval is a closed lcp-interval [Lo, Hi] (both ends inclusive)
// into suftab: the suffixes suftab[Lo..Hi] all share the interval's prefix.
type Interval struct {
	Lo, Hi int32
}

// Width is the number of suffixes (and hence text occurrences) the interval
// covers.
func (iv Interval) Width() int64 {
	if iv.Lo < 0 {
		return 0
	}
	return int64(iv.Hi-iv.Lo) + 1
}

// Empty is the canonical "no match" result.
var Empty = Interval{Lo: -1, Hi: -1}

// Build constructs an Index over text. It fails with an InvalidInput-class
// error if text exceeds MaxTextLen.
func Build(text []byte) (*Index, error) {
	if len(text) > MaxTextLen {
		return nil, raerr.Invalid("suffixindex.Build", "text length %d exceeds maximum %d", len(text), MaxTextLen)
	}
	sa := buildSuffixArray(text)
	lcp := buildLCPArray(text, sa)
	lcpExt := make([]int32, len(lcp)+1)
	copy(lcpExt, lcp)
	lcpExt[len(lcp)] = -1
	ct := buildChildTable(lcpExt)
	return &Index{Text: text, suftab: sa, lcptab: lcp, ct: ct}, nil
}

// SuffixAt returns the text offset of the i'th suffix in suffix-array order.
func (idx *Index) SuffixAt(i int32) int32 { return idx.suftab[i] }

// Len returns the number of suffixes (== len(Text)).
func (idx *Index) Len() int { return len(idx.suftab) }

// Root returns the interval spanning the whole suffix array, or Empty if
// the index is over an empty text. Callers that need to interleave their
// own descent with other logic (ReadIndex's prefix-suffix scan) start here
// instead of going through FindInterval.
func (idx *Index) Root() Interval {
	return idx.root()
}

// root returns the interval spanning the whole suffix array, or Empty if
// the index is over an empty text.
func (idx *Index) root() Interval {
	n := int32(len(idx.suftab))
	if n == 0 {
		return Empty
	}
	return Interval{Lo: 0, Hi: n - 1}
}

// children walks the child-interval siblings of iv via the child table's
// nextIndex chain, invoking visit(childLo, childHi) for each. It stops early
// if visit returns false.
func (idx *Index) children(iv Interval, visit func(lo, hi int32) bool) {
	if iv.Lo == iv.Hi {
		return // singleton intervals (leaves) have no children.
	}
	split := idx.ct.childBoundary(iv.Lo, iv.Hi)
	lo := iv.Lo
	for {
		var hi int32
		next := idx.ct.next[lo]
		// The first child's right edge is `split`-1 on the very first
		// iteration; subsequent children's right edges are the next sibling
		// boundary minus one, and the last child's right edge is iv.Hi.
		if lo == iv.Lo {
			hi = split - 1
		} else if next != noChild && next <= iv.Hi {
			hi = next - 1
		} else {
			hi = iv.Hi
		}
		if !visit(lo, hi) {
			return
		}
		if hi >= iv.Hi {
			return
		}
		lo = hi + 1
	}
}

// IntervalLCPLen returns the lcp-interval's defining lcp length in O(1): the
// number of leading characters every suffix in [iv.Lo, iv.Hi] shares.
func (idx *Index) IntervalLCPLen(iv Interval) int {
	if iv.Lo == iv.Hi {
		// A singleton interval's "lcp" is unbounded for our purposes; callers
		// compare against the suffix's own remaining length instead.
		return len(idx.Text) - int(idx.suftab[iv.Lo])
	}
	k := idx.ct.childBoundary(iv.Lo, iv.Hi)
	return int(idx.lcptab[k])
}

// IntervalSubInterval returns the sub-interval of iv whose suffixes share
// character c at depth IntervalLCPLen(iv), or Empty if there's no such
// child. Spec §4.1.
func (idx *Index) IntervalSubInterval(iv Interval, depth int, c byte) Interval {
	if iv.Lo == iv.Hi {
		pos := int(idx.suftab[iv.Lo]) + depth
		if pos < len(idx.Text) && idx.Text[pos] == c {
			return iv
		}
		return Empty
	}
	result := Empty
	idx.children(iv, func(lo, hi int32) bool {
		pos := int(idx.suftab[lo]) + depth
		if pos < len(idx.Text) && idx.Text[pos] == c {
			result = Interval{Lo: lo, Hi: hi}
			return false
		}
		return true
	})
	return result
}

// FindInterval performs a standard ESA top-down search for pattern, in
// O(len(pattern)) character comparisons plus O(len(pattern)) child
// descents. It returns Empty for an empty or nil pattern, or when pattern
// doesn't occur.
func (idx *Index) FindInterval(pattern []byte) Interval {
	if len(pattern) == 0 {
		return Empty
	}
	iv := idx.root()
	if iv == Empty {
		return Empty
	}
	depth := 0
	for depth < len(pattern) {
		if iv.Lo == iv.Hi {
			pos := int(idx.suftab[iv.Lo])
			remaining := pattern[depth:]
			if pos+depth+len(remaining) > len(idx.Text) {
				return Empty
			}
			if string(idx.Text[pos+depth:pos+depth+len(remaining)]) != string(remaining) {
				return Empty
			}
			return iv
		}

		// When every suffix in iv shares more than depth characters (the
		// root of a text whose suffixes all start alike), match that shared
		// stretch before descending into a child.
		if l := idx.IntervalLCPLen(iv); l > depth {
			to := l
			if to > len(pattern) {
				to = len(pattern)
			}
			rep := int(idx.suftab[iv.Lo])
			if string(idx.Text[rep+depth:rep+to]) != string(pattern[depth:to]) {
				return Empty
			}
			depth = to
			continue
		}

		sub := idx.IntervalSubInterval(iv, depth, pattern[depth])
		if sub == Empty {
			return Empty
		}
		lcpLen := idx.IntervalLCPLen(sub)
		matchTo := lcpLen
		if matchTo > len(pattern) {
			matchTo = len(pattern)
		}
		// Suffixes in `sub` agree on [depth, lcpLen); verify the pattern
		// against a single representative (they're guaranteed to agree, so one
		// comparison suffices) rather than re-walking the child table one
		// character at a time.
		repPos := int(idx.suftab[sub.Lo])
		if repPos+matchTo > len(idx.Text) {
			return Empty
		}
		if string(idx.Text[repPos+depth:repPos+matchTo]) != string(pattern[depth:matchTo]) {
			return Empty
		}
		depth = matchTo
		iv = sub
	}
	return iv
}

// NumberOfOccurrences returns the number of positions in Text at which
// pattern occurs.
func (idx *Index) NumberOfOccurrences(pattern []byte) int64 {
	iv := idx.FindInterval(pattern)
	return iv.Width()
}

// Serialize writes (n, Text, suftab, lcptab, childtab) to w, per spec §4.1.
func (idx *Index) Serialize(w io.Writer) error {
	n := int32(len(idx.Text))
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return raerr.IO("suffixindex.Serialize", err)
	}
	if _, err := w.Write(idx.Text); err != nil {
		return raerr.IO("suffixindex.Serialize", err)
	}
	for _, arr := range [][]int32{idx.suftab, idx.lcptab, idx.ct.upDown, idx.ct.next} {
		if err := binary.Write(w, binary.LittleEndian, arr); err != nil {
			return raerr.IO("suffixindex.Serialize", err)
		}
	}
	return nil
}

// Deserialize reads an Index previously written by Serialize, validating
// that the declared length matches the text actually read and that every
// suftab entry is within bounds; the lcp and child tables are read as is.
func Deserialize(r io.Reader) (*Index, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, raerr.IO("suffixindex.Deserialize", err)
	}
	if n < 0 || n > MaxTextLen {
		return nil, raerr.Invalid("suffixindex.Deserialize", "invalid text length %d", n)
	}
	text := make([]byte, n)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, raerr.IO("suffixindex.Deserialize", err)
	}
	suftab := make([]int32, n)
	lcptab := make([]int32, n)
	upDown := make([]int32, n+1)
	next := make([]int32, n+1)
	for _, arr := range [][]int32{suftab, lcptab, upDown, next} {
		if err := binary.Read(r, binary.LittleEndian, arr); err != nil {
			return nil, raerr.IO("suffixindex.Deserialize", err)
		}
	}
	for _, v := range suftab {
		if v < 0 || v >= n {
			return nil, raerr.Invalid("suffixindex.Deserialize", "suftab entry %d out of bounds for n=%d", v, n)
		}
	}
	return &Index{
		Text:   text,
		suftab: suftab,
		lcptab: lcptab,
		ct:     childTable{upDown: upDown, next: next},
	}, nil
}
