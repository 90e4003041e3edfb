package overlap

import "github.com/mariokostelac/ra/editdistance"

// Stretch converts an interval-form (or otherwise unstretched) overlap into
// dovetail form, extending each read's overlap boundary out to its nearer
// sequence end via semi-global edit distance (spec §4.8). Grounded on
// stretchSuffixPrefixOverlap/stretchPrefixSuffixOverlap/
// stretchPrefixPrefixOverlap/stretchSuffixSuffixOverlap and
// forcedDovetailOverlap in OverlapFunctions.cpp.
//
// Those four cases collapse into two here: once B's sequence is read in its
// active orientation (o.B.Active(o.BRC), which is already RC-aware for
// innie overlaps), the suffix-prefix and prefix-prefix cases extend
// identically, and likewise for prefix-suffix and suffix-suffix. Which of
// the two applies is decided by whether A's side of the forced-dovetail
// hang uses A's suffix or its prefix.
func Stretch(o *Overlap) *Overlap {
	aLen, bLen := uint32(o.A.Len()), uint32(o.B.Len())
	aSeq := o.A.Active(o.ARC)
	bSeq := o.B.Active(o.BRC)

	origA := aSeq[o.ALo:o.AHi]
	origB := bSeq[o.BLo:o.BHi]
	origDist := editdistance.Levenshtein(origA, origB)

	forcedAHang, forcedBHang := ForcedHangs(o.ALo, o.AHi, aLen, o.BLo, o.BHi, bLen)
	tmp := NewDovetail(o.A, forcedAHang, o.B, forcedBHang, o.IsInnie, -1, -1)

	var newALo, newAHi, newBLo, newBHi uint32
	var added int

	if tmp.IsUsingSuffix(o.A.Id) {
		// A extends to its own end; B's facing tail supplies whatever
		// additional bases explain it for free.
		newAHi = aLen
		used1, d1 := editdistance.SemiGlobalExtend(aSeq[o.AHi:], bSeq[o.BHi:])
		newBHi = o.BHi + uint32(used1)

		newBLo = 0
		used2, d2 := editdistance.SemiGlobalExtend(reverseString(bSeq[:o.BLo]), reverseString(aSeq[:o.ALo]))
		newALo = o.ALo - uint32(used2)

		added = d1 + d2
	} else {
		// A uses its prefix: symmetric case, B extends to its own end first.
		newBHi = bLen
		used1, d1 := editdistance.SemiGlobalExtend(bSeq[o.BHi:], aSeq[o.AHi:])
		newAHi = o.AHi + uint32(used1)

		newALo = 0
		used2, d2 := editdistance.SemiGlobalExtend(reverseString(aSeq[:o.ALo]), reverseString(bSeq[:o.BLo]))
		newBLo = o.BLo - uint32(used2)

		added = d1 + d2
	}

	errRate := float64(origDist+added) / (0.5 * float64((newAHi-newALo)+(newBHi-newBLo)))
	origErrRate := float64(origDist) / float64(o.Length())

	finalAHang, finalBHang := ForcedHangs(newALo, newAHi, aLen, newBLo, newBHi, bLen)
	return NewDovetail(o.A, finalAHang, o.B, finalBHang, o.IsInnie, errRate, origErrRate)
}

func reverseString(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[len(s)-1-i] = s[i]
	}
	return string(b)
}
