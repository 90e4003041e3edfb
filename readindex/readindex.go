// Package readindex implements ReadIndex (spec §4.2): a generalized suffix
// index over an entire read set, sharded into fragments no larger than
// suffixindex.MaxTextLen, supporting exact-duplicate lookup and the
// prefix-suffix scan OverlapEngine drives candidate discovery from.
//
// Each read contributes "%" + sequence + "#" + a 4-byte id placeholder to
// its fragment's text (grounded on ReadIndex.cpp's S_DELIMITER/E_DELIMITER/
// SUBSTITUTE layout); the placeholder is overwritten with the read's
// little-endian id once the fragment's suffixindex.Index has been built, so
// the id never influences suffix order.
package readindex

import (
	"encoding/binary"
	"io"

	farm "github.com/dgryski/go-farm"
	"github.com/mariokostelac/ra/raerr"
	"github.com/mariokostelac/ra/readstore"
	"github.com/mariokostelac/ra/suffixindex"
)

const (
	startDelim = '%'
	endDelim   = '#'
	idFieldLen = 4
)

// ReadIndex is a generalized suffix index over a set of reads, built in a
// single orientation (forward sequence or reverse complement — spec §4.3
// builds one of each).
type ReadIndex struct {
	fragments []*suffixindex.Index
	byHash    map[uint64][]uint32 // farm.Hash64(sequence) -> read ids sharing it
}

// Match is a single prefix-suffix hit: the other read's id and the overlap
// length achieved.
type Match struct {
	ReadID uint32
	Len    int
}

// Build shards reads into one or more suffixindex.Index fragments, each
// under suffixindex.MaxTextLen, and indexes either every read's forward
// sequence or its reverse complement depending on useRC.
func Build(reads []*readstore.Read, useRC bool) (*ReadIndex, error) {
	ri := &ReadIndex{byHash: make(map[uint64][]uint32, len(reads))}
	var buf []byte
	var placeholderOffsets []int
	var placeholderIDs []uint32

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		idx, err := suffixindex.Build(buf)
		if err != nil {
			return err
		}
		for k, off := range placeholderOffsets {
			binary.LittleEndian.PutUint32(idx.Text[off:off+idFieldLen], placeholderIDs[k])
		}
		ri.fragments = append(ri.fragments, idx)
		buf = nil
		placeholderOffsets = nil
		placeholderIDs = nil
		return nil
	}

	for _, r := range reads {
		seq := r.Active(useRC)
		ri.byHash[r.SeqHash] = append(ri.byHash[r.SeqHash], r.Id)
		need := 1 + len(seq) + 1 + idFieldLen
		if len(buf) > 0 && len(buf)+need > suffixindex.MaxTextLen {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if need > suffixindex.MaxTextLen {
			return nil, raerr.TooLarge("readindex.Build", "read %d alone (%d bytes) exceeds fragment capacity", r.Id, need)
		}
		buf = append(buf, startDelim)
		buf = append(buf, seq...)
		buf = append(buf, endDelim)
		placeholderOffsets = append(placeholderOffsets, len(buf))
		buf = append(buf, make([]byte, idFieldLen)...)
		placeholderIDs = append(placeholderIDs, r.Id)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return ri, nil
}

// NumberOfOccurrences returns the total number of positions, across every
// fragment, at which pattern occurs.
func (ri *ReadIndex) NumberOfOccurrences(pattern []byte) int64 {
	var n int64
	for _, idx := range ri.fragments {
		n += idx.NumberOfOccurrences(pattern)
	}
	return n
}

// ReadDuplicates returns the ids of every indexed read whose sequence is
// exactly r.Sequence. It returns nil when no indexed read other than r
// itself has that sequence; otherwise the result includes r's own id if r
// was itself indexed.
//
// farm.Hash64 is consulted first: no two reads sharing r's exact sequence
// can disagree on its hash, so a bucket holding only (or none of) r's own id
// proves there is no duplicate without ever touching the suffix index.
// Grounded on fusion/kmer_index.go's farm-hash sharding idiom, repurposed
// here as a pre-filter rather than a shard selector.
func (ri *ReadIndex) ReadDuplicates(r *readstore.Read) []uint32 {
	if bucket := ri.byHash[r.SeqHash]; len(bucket) == 0 || (len(bucket) == 1 && bucket[0] == r.Id) {
		return nil
	}

	pattern := make([]byte, 0, len(r.Sequence)+2)
	pattern = append(pattern, startDelim)
	pattern = append(pattern, r.Sequence...)
	pattern = append(pattern, endDelim)

	var out []uint32
	for _, idx := range ri.fragments {
		iv := idx.FindInterval(pattern)
		if iv == suffixindex.Empty {
			continue
		}
		for o := iv.Lo; o <= iv.Hi; o++ {
			pos := int(idx.SuffixAt(o)) + len(pattern)
			if pos+idFieldLen > len(idx.Text) {
				continue
			}
			out = append(out, binary.LittleEndian.Uint32(idx.Text[pos:pos+idFieldLen]))
		}
	}
	return out
}

// PrefixSuffixMatches finds every indexed read X whose suffix equals a
// prefix of r's active sequence (forward, or reverse complement if useRC),
// of length at least minOverlapLen: a candidate X→r dovetail overlap. Spec
// §4.2: "descends the ESA interval character by character; whenever the
// current interval terminates in #, all suffixes of reads that end at that
// position contribute matches of the current length."
func (ri *ReadIndex) PrefixSuffixMatches(r *readstore.Read, useRC bool, minOverlapLen int) []Match {
	pattern := []byte(r.Active(useRC))
	if len(pattern) == 0 {
		return nil
	}
	var out []Match
	for _, idx := range ri.fragments {
		out = append(out, prefixSuffixMatchesInFragment(idx, pattern, minOverlapLen)...)
	}
	return out
}

func prefixSuffixMatchesInFragment(idx *suffixindex.Index, pattern []byte, minOverlapLen int) []Match {
	m := len(pattern)
	root := idx.Root()
	if root == suffixindex.Empty {
		return nil
	}
	iv := idx.IntervalSubInterval(root, 0, pattern[0])

	var out []Match
	depth := 0
	for iv != suffixindex.Empty && depth < m {
		if iv.Lo != iv.Hi {
			lcpLen := idx.IntervalLCPLen(iv)
			matchLen := lcpLen
			if matchLen > m {
				matchLen = m
			}
			if !suffixEqualsPattern(idx, iv.Lo, depth, matchLen, pattern) {
				break
			}
			depth = matchLen

			if depth == m {
				emitEndDelimited(idx, iv, depth, &out)
				break
			}

			if sub := idx.IntervalSubInterval(iv, depth, endDelim); sub != suffixindex.Empty && depth >= minOverlapLen {
				emitEndDelimited(idx, sub, depth, &out)
			}

			iv = idx.IntervalSubInterval(iv, depth, pattern[depth])
		} else {
			// A single suffix is left: extend the match along it and emit it
			// if it reaches the end of a read.
			pos := int(idx.SuffixAt(iv.Lo))
			k := depth
			for k < m && pos+k < len(idx.Text) && idx.Text[pos+k] == pattern[k] {
				k++
			}
			if pos+k < len(idx.Text) && idx.Text[pos+k] == endDelim && (k == m || k >= minOverlapLen) {
				if id, ok := readIDAfter(idx, pos+k); ok {
					out = append(out, Match{ReadID: id, Len: k})
				}
			}
			depth = m
		}
	}
	return out
}

// suffixEqualsPattern reports whether the suffix at suftab[i], restricted to
// [depth, to), equals pattern[depth:to]. Every suffix sharing iv's lcp-interval
// agrees on that range by construction, so checking one representative
// suffices (spec §4.1's interval-descent invariant).
func suffixEqualsPattern(idx *suffixindex.Index, i int32, depth, to int, pattern []byte) bool {
	pos := int(idx.SuffixAt(i))
	if pos+to > len(idx.Text) {
		return false
	}
	return string(idx.Text[pos+depth:pos+to]) == string(pattern[depth:to])
}

// emitEndDelimited appends a Match for every suffix in iv that is
// immediately followed by the end delimiter, i.e. is the literal tail of
// some indexed read's sequence.
func emitEndDelimited(idx *suffixindex.Index, iv suffixindex.Interval, matchLen int, out *[]Match) {
	for o := iv.Lo; o <= iv.Hi; o++ {
		pos := int(idx.SuffixAt(o))
		if pos+matchLen >= len(idx.Text) || idx.Text[pos+matchLen] != endDelim {
			continue
		}
		if id, ok := readIDAfter(idx, pos+matchLen); ok {
			*out = append(*out, Match{ReadID: id, Len: matchLen})
		}
	}
}

// readIDAfter decodes the 4-byte little-endian read id immediately following
// the end delimiter at text position delimPos.
func readIDAfter(idx *suffixindex.Index, delimPos int) (uint32, bool) {
	start := delimPos + 1
	if start+idFieldLen > len(idx.Text) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(idx.Text[start : start+idFieldLen]), true
}

// Serialize writes every fragment in order, prefixed by the fragment count.
func (ri *ReadIndex) Serialize(w io.Writer) error {
	n := int32(len(ri.fragments))
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return raerr.IO("readindex.Serialize", err)
	}
	for _, idx := range ri.fragments {
		if err := idx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads a ReadIndex previously written by Serialize.
func Deserialize(r io.Reader) (*ReadIndex, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, raerr.IO("readindex.Deserialize", err)
	}
	if n < 0 {
		return nil, raerr.Invalid("readindex.Deserialize", "negative fragment count %d", n)
	}
	fragments := make([]*suffixindex.Index, 0, n)
	for i := int32(0); i < n; i++ {
		idx, err := suffixindex.Deserialize(r)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, idx)
	}
	return &ReadIndex{fragments: fragments, byHash: rebuildHashBuckets(fragments)}, nil
}

// rebuildHashBuckets recovers the byHash pre-filter from fragment text
// directly, since Serialize/Deserialize round-trips only the suffix index
// itself, not the Read values Build was given. Every %seq#id span in a
// fragment's text is re-hashed with the same farm.Hash64 Build used.
func rebuildHashBuckets(fragments []*suffixindex.Index) map[uint64][]uint32 {
	byHash := make(map[uint64][]uint32)
	for _, idx := range fragments {
		text := idx.Text
		for i := 0; i < len(text); i++ {
			if text[i] != startDelim {
				continue
			}
			end := -1
			for j := i + 1; j < len(text); j++ {
				if text[j] == endDelim {
					end = j
					break
				}
			}
			if end < 0 || end+1+idFieldLen > len(text) {
				break
			}
			seq := text[i+1 : end]
			id := binary.LittleEndian.Uint32(text[end+1 : end+1+idFieldLen])
			h := farm.Hash64(seq)
			byHash[h] = append(byHash[h], id)
			i = end + idFieldLen
		}
	}
	return byHash
}
