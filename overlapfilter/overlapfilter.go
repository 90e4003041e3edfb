// Package overlapfilter implements OverlapFilter (spec §4.4's companion
// component): contained-read removal and transitive-edge reduction over a
// set of overlaps. Grounded on filterContainedOverlaps/
// filterTransitiveOverlaps in
// _examples/original_source/ra/src/OverlapFunctions.cpp.
package overlapfilter

import (
	"encoding/binary"
	"sort"

	"github.com/mariokostelac/ra/config"
	"github.com/mariokostelac/ra/overlap"
	"github.com/minio/highwayhash"
)

// FilterErroneous drops every overlap whose err_rate is at least
// cfg.OverlapMaxAbsErrate (overlap.max_abs_errate, spec §6/§9). Grounded on
// filter_erroneous_overlaps/src/main.cpp's filter_overlaps_by_absolute_errate,
// which keeps an overlap only while err_rate() is strictly below the limit.
func FilterErroneous(overlaps []*overlap.Overlap, cfg config.Tunables) []*overlap.Overlap {
	out := make([]*overlap.Overlap, 0, len(overlaps))
	for _, o := range overlaps {
		if o.ErrRate >= cfg.OverlapMaxAbsErrate {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Filter runs the full OverlapFilter stage (spec §4.4, dataflow
// `(Reads, Overlaps) -> OverlapFilter -> StringGraph`): drop erroneous
// overlaps first (supplemented from filter_erroneous_overlaps, since a
// wildly mismatched pair should never influence containment or transitive
// decisions downstream), then contained reads, then transitive edges.
func Filter(overlaps []*overlap.Overlap, cfg config.Tunables) []*overlap.Overlap {
	overlaps = FilterErroneous(overlaps, cfg)
	overlaps = FilterContained(overlaps)
	return FilterTransitive(overlaps, cfg.TransitiveEpsilon, cfg.TransitiveAlpha)
}

// FilterContained returns every overlap whose neither read is contained in
// the other. A read is contained when the forced dovetail hangs of one of
// its overlaps show it fully spanned by its partner (spec §4.4): for
// overlap (a, b), a_hang <= 0 && b_hang >= 0 means a is contained in b, and
// symmetrically for b.
func FilterContained(overlaps []*overlap.Overlap) []*overlap.Overlap {
	var maxID uint32
	for _, o := range overlaps {
		if o.A.Id > maxID {
			maxID = o.A.Id
		}
		if o.B.Id > maxID {
			maxID = o.B.Id
		}
	}
	contained := make([]bool, maxID+1)

	for _, o := range overlaps {
		aHang, bHang := overlap.ForcedHangs(o.ALo, o.AHi, uint32(o.A.Len()), o.BLo, o.BHi, uint32(o.B.Len()))
		if aHang <= 0 && bHang >= 0 {
			contained[o.A.Id] = true
			continue
		}
		if aHang >= 0 && bHang <= 0 {
			contained[o.B.Id] = true
		}
	}

	out := make([]*overlap.Overlap, 0, len(overlaps))
	for _, o := range overlaps {
		if contained[o.A.Id] || contained[o.B.Id] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// edge is one side of an overlap seen from a single read's adjacency list:
// the id of the read on the other side, and the overlap itself.
type edge struct {
	other uint32
	o     *overlap.Overlap
}

// hashKey is a fixed, not-secret key: the dedup set below only needs a fast
// well-distributed hash, not cryptographic unpredictability.
var hashKey = make([]byte, 32)

// pairKey hashes an (a, b) read-id pair for the adjacency dedup set,
// avoiding an allocating fmt.Sprintf("%d:%d", a, b) key.
func pairKey(a, b uint32) uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		panic(err) // hashKey is always exactly 32 bytes.
	}
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], a)
	binary.LittleEndian.PutUint32(buf[4:8], b)
	h.Write(buf[:])
	return h.Sum64()
}

// dedupeByPair drops every overlap sharing an (a, b) pair already seen,
// keeping the first. Overlaps produced by overlapengine are already unique
// per pair, but this filter may also run over externally supplied or
// MHAP-imported overlap sets (spec §2's dataflow note), which aren't
// guaranteed to be.
func dedupeByPair(overlaps []*overlap.Overlap) []*overlap.Overlap {
	seen := make(map[uint64]bool, len(overlaps))
	out := make([]*overlap.Overlap, 0, len(overlaps))
	for _, o := range overlaps {
		k := pairKey(o.A.Id, o.B.Id)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out
}

func buildAdjacency(overlaps []*overlap.Overlap) map[uint32][]edge {
	adj := make(map[uint32][]edge, len(overlaps)*2)
	for _, o := range overlaps {
		adj[o.A.Id] = append(adj[o.A.Id], edge{o.B.Id, o})
		adj[o.B.Id] = append(adj[o.B.Id], edge{o.A.Id, o})
	}
	for id := range adj {
		list := adj[id]
		sort.Slice(list, func(i, j int) bool { return list[i].other < list[j].other })
	}
	return adj
}

// FilterTransitive removes every overlap that is the "long" edge of some
// transitive triangle, i.e. fully explained by two shorter overlaps through
// a shared third read (spec §4.4). epsilon and alpha are the hang
// tolerance parameters (config.Tunables.TransitiveEpsilon/Alpha).
//
// For each overlap (a, b), walks a's and b's adjacency lists (each sorted
// by the neighbor id) with a merge-join two-pointer scan, testing every
// third read c adjacent to both a and b via overlap.IsTransitive.
// Confirmations land on the two shorter edges as a side effect of that
// call, never on the overlap being tested.
func FilterTransitive(overlaps []*overlap.Overlap, epsilon, alpha float64) []*overlap.Overlap {
	overlaps = dedupeByPair(overlaps)
	adj := buildAdjacency(overlaps)

	transitive := make([]bool, len(overlaps))
	for idx, o := range overlaps {
		v1 := adj[o.A.Id]
		v2 := adj[o.B.Id]

		i, j := 0, 0
		isTran := false
		for !isTran && i < len(v1) && j < len(v2) {
			if v1[i].other == o.A.Id || v1[i].other == o.B.Id {
				i++
				continue
			}
			if v2[j].other == o.A.Id || v2[j].other == o.B.Id {
				j++
				continue
			}

			switch {
			case v1[i].other == v2[j].other:
				iStart, iEnd := i, i
				for iEnd < len(v1) && v1[iEnd].other == v1[iStart].other {
					iEnd++
				}
				jStart, jEnd := j, j
				for jEnd < len(v2) && v2[jEnd].other == v2[jStart].other {
					jEnd++
				}

			pairs:
				for a := iStart; a < iEnd; a++ {
					for b := jStart; b < jEnd; b++ {
						if o.IsTransitive(v1[a].o, v2[b].o, epsilon, alpha) {
							isTran = true
							break pairs
						}
					}
				}
				i, j = iEnd, jEnd
			case v1[i].other < v2[j].other:
				i++
			default:
				j++
			}
		}
		transitive[idx] = isTran
	}

	out := make([]*overlap.Overlap, 0, len(overlaps))
	for idx, o := range overlaps {
		if !transitive[idx] {
			out = append(out, o)
		}
	}
	return out
}
