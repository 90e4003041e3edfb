// Package overlapengine implements OverlapEngine (spec §4.3): the parallel
// driver that, for every read, uses two ReadIndex instances (one forward,
// one reverse-complement) to emit every prefix-suffix overlap at least
// minOverlapLen long, in all three useful orientations, then deduplicates.
//
// Grounded on OverlapFunctions.cpp's overlapReads/overlapReadsPart/
// threadOverlapReads/pickMatches. The two-pass-over-all-reads structure
// there (one pass per ReadIndex orientation, each spawning its own thread
// pool) is collapsed into a single per-read loop here, since both indexes
// are already built up front and a single traverse.Each shard can query
// both without needing two separate thread pools; the match-selection and
// hang-computation logic is otherwise a direct port.
package overlapengine

import (
	"sort"

	"github.com/grailbio/base/traverse"
	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/readindex"
	"github.com/mariokostelac/ra/readstore"
)

// matchType mirrors spec §4.3's three orientation types.
type matchType int

const (
	typeNormal    matchType = 0 // forward x forward: emit when j != i.
	typeRCGreater matchType = 1 // forward x rc: emit when j > i.
	typeRCLess    matchType = 2 // rc x forward: emit when j < i.
)

// Run computes every pairwise overlap at least minOverlapLen bases long
// among reads, using parallelism workers. reads[k].Id must equal k (the
// convention readstore.Store guarantees).
func Run(reads []*readstore.Read, minOverlapLen int, parallelism int) ([]*overlap.Overlap, error) {
	if len(reads) == 0 {
		return nil, nil
	}
	if parallelism < 1 {
		parallelism = 1
	}

	normalIdx, err := readindex.Build(reads, false)
	if err != nil {
		return nil, err
	}
	rcIdx, err := readindex.Build(reads, true)
	if err != nil {
		return nil, err
	}

	n := len(reads)
	shards := make([][]*overlap.Overlap, parallelism)

	err = traverse.Each(parallelism, func(shard int) error {
		start := shard * n / parallelism
		end := (shard + 1) * n / parallelism

		var local []*overlap.Overlap
		for i := start; i < end; i++ {
			r := reads[i]

			normalMatches := normalIdx.PrefixSuffixMatches(r, false, minOverlapLen)
			local = pickMatches(local, i, normalMatches, typeNormal, reads)

			rcAgainstNormal := normalIdx.PrefixSuffixMatches(r, true, minOverlapLen)
			local = pickMatches(local, i, rcAgainstNormal, typeRCLess, reads)

			normalAgainstRC := rcIdx.PrefixSuffixMatches(r, false, minOverlapLen)
			local = pickMatches(local, i, normalAgainstRC, typeRCGreater, reads)
		}
		shards[shard] = local
		return nil
	})
	if err != nil {
		return nil, err
	}

	var all []*overlap.Overlap
	for _, s := range shards {
		all = append(all, s...)
	}
	return dedup(all), nil
}

// pickMatches keeps, for each distinct other read id, only the longest
// match, filters by orientation type, and emits the resulting overlap in
// dovetail form with src < dst (spec §4.3's hang computation).
func pickMatches(dst []*overlap.Overlap, i int, matches []readindex.Match, mt matchType, reads []*readstore.Read) []*overlap.Overlap {
	if len(matches) == 0 {
		return dst
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].ReadID != matches[b].ReadID {
			return matches[a].ReadID < matches[b].ReadID
		}
		return matches[a].Len > matches[b].Len
	})

	for j := 0; j < len(matches); j++ {
		if j > 0 && matches[j].ReadID == matches[j-1].ReadID {
			continue
		}
		other := int(matches[j].ReadID)
		switch mt {
		case typeNormal:
			if other == i {
				continue
			}
		case typeRCGreater:
			if other <= i {
				continue
			}
		case typeRCLess:
			if other >= i {
				continue
			}
		}

		length := matches[j].Len
		aHang := reads[other].Len() - length
		bHang := reads[i].Len() - length
		innie := mt != typeNormal

		if i < other {
			dst = append(dst, overlap.NewDovetail(reads[i], int32(-aHang), reads[other], int32(-bHang), innie, -1, -1))
		} else {
			dst = append(dst, overlap.NewDovetail(reads[other], int32(aHang), reads[i], int32(bHang), innie, -1, -1))
		}
	}
	return dst
}

// dedup sorts by (a, b, -length) and keeps only the first (longest)
// overlap for each distinct (a, b) pair.
func dedup(overlaps []*overlap.Overlap) []*overlap.Overlap {
	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].A.Id != overlaps[j].A.Id {
			return overlaps[i].A.Id < overlaps[j].A.Id
		}
		if overlaps[i].B.Id != overlaps[j].B.Id {
			return overlaps[i].B.Id < overlaps[j].B.Id
		}
		return overlaps[i].Length() > overlaps[j].Length()
	})

	out := overlaps[:0]
	for idx, o := range overlaps {
		if idx > 0 && o.A.Id == overlaps[idx-1].A.Id && o.B.Id == overlaps[idx-1].B.Id {
			continue
		}
		out = append(out, o)
	}
	return out
}
