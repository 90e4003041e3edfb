// Package overlap implements the Overlap data model from spec §4.4: a
// confirmed or candidate alignment between two reads, in either dovetail
// form (hang-based, the form OverlapEngine and stretching produce) or
// interval form (coordinate-based, the form MHAP input and unstretched
// candidates arrive in). Grounded on
// _examples/original_source/ra/src/Overlap.hpp/.cpp.
package overlap

import "github.com/mariokostelac/ra/readstore"

// Overlap records an alignment between read A and read B, A.Id < B.Id by
// the caller's convention (OverlapEngine and the filters that consume
// Overlap always construct it that way; nothing here enforces the
// ordering itself, matching the teacher's source).
type Overlap struct {
	A, B *readstore.Read

	// Dovetail is true when AHang/BHang are meaningful (the overlap was
	// built via NewDovetail, or has since been stretched into dovetail
	// form). Interval-form overlaps leave AHang/BHang zero.
	Dovetail     bool
	AHang, BHang int32

	ALo, AHi, BLo, BHi uint32
	ARC, BRC           bool
	IsInnie            bool

	ErrRate, OrigErrRate float64
	Confirmations        uint32
}

// NewDovetail constructs an overlap from its hang representation: aHang is
// how far A's start leads B's start (positive: A's prefix overhangs B's);
// bHang is how far B's end leads A's end (positive: B's suffix overhangs
// A's). innie marks that B participates via its reverse complement.
func NewDovetail(a *readstore.Read, aHang int32, b *readstore.Read, bHang int32, innie bool, errRate, origErrRate float64) *Overlap {
	aLen, bLen := uint32(a.Len()), uint32(b.Len())

	var aLo, bHangNeg, aHangNeg, bHangPos uint32
	if aHang > 0 {
		aLo = uint32(aHang)
	}
	if bHang < 0 {
		bHangNeg = uint32(-bHang)
	}
	if aHang < 0 {
		aHangNeg = uint32(-aHang)
	}
	if bHang > 0 {
		bHangPos = uint32(bHang)
	}

	return &Overlap{
		A: a, B: b,
		Dovetail: true,
		AHang:    aHang, BHang: bHang,
		ALo: aLo, AHi: aLen - bHangNeg,
		BLo: aHangNeg, BHi: bLen - bHangPos,
		ARC: false, BRC: innie,
		IsInnie:       innie,
		ErrRate:       errRate,
		OrigErrRate:   origErrRate,
		Confirmations: 1,
	}
}

// NewInterval constructs an overlap from matched coordinate ranges on each
// read, each possibly read in its reverse complement orientation. The
// overlap is an innie iff the two reads' orientations disagree.
func NewInterval(a *readstore.Read, aLo, aHi uint32, aRC bool, b *readstore.Read, bLo, bHi uint32, bRC bool, errRate, origErrRate float64) *Overlap {
	return &Overlap{
		A: a, B: b,
		Dovetail: false,
		ALo:      aLo, AHi: aHi, BLo: bLo, BHi: bHi,
		ARC: aRC, BRC: bRC,
		IsInnie:       aRC != bRC,
		ErrRate:       errRate,
		OrigErrRate:   origErrRate,
		Confirmations: 1,
	}
}

// ForcedHangs computes the dovetail hangs a coordinate-form overlap would
// have if forced into dovetail shape without adjusting its boundaries: the
// same calculation both detects containment (aHang<=0 && bHang>=0 means A
// is contained in B, and symmetrically for B) and converts an interval-form
// overlap into forced-dovetail form ahead of stretching.
func ForcedHangs(aLo, aHi, aLen, bLo, bHi, bLen uint32) (aHang, bHang int32) {
	aHang = int32(aLo) - int32(bLo)
	bHang = (int32(bLen) - int32(bHi)) - (int32(aLen) - int32(aHi))
	return aHang, bHang
}

// IsUsingPrefix reports whether readID's side of the overlap is anchored at
// that read's sequence start (position 0).
func (o *Overlap) IsUsingPrefix(readID uint32) bool {
	switch readID {
	case o.A.Id:
		return o.AHang <= 0
	case o.B.Id:
		if o.IsInnie {
			return o.BHang <= 0
		}
		return o.AHang >= 0
	}
	return false
}

// IsUsingSuffix reports whether readID's side of the overlap is anchored at
// that read's sequence end.
func (o *Overlap) IsUsingSuffix(readID uint32) bool {
	switch readID {
	case o.A.Id:
		return o.AHang >= 0
	case o.B.Id:
		if o.IsInnie {
			return o.BHang >= 0
		}
		return o.AHang <= 0
	}
	return false
}

// HangingLength returns the total amount of readID's sequence that hangs
// outside the overlap, on readID's own side.
func (o *Overlap) HangingLength(readID uint32) uint32 {
	var h int32
	switch readID {
	case o.A.Id:
		if o.AHang > 0 {
			h += o.AHang
		}
		if o.BHang < 0 {
			h += -o.BHang
		}
	case o.B.Id:
		if o.AHang < 0 {
			h += -o.AHang
		}
		if o.BHang > 0 {
			h += o.BHang
		}
	}
	return uint32(h)
}

// LengthOf returns the length of the overlapping region as seen from
// readID's coordinate system.
func (o *Overlap) LengthOf(readID uint32) uint32 {
	if readID == o.A.Id {
		return o.AHi - o.ALo
	}
	return o.BHi - o.BLo
}

// Length returns the average of the two reads' overlapping-region lengths.
func (o *Overlap) Length() uint32 {
	return (o.LengthOf(o.A.Id) + o.LengthOf(o.B.Id)) / 2
}

// CoveredPercentage returns the fraction of readID's full length that the
// overlap covers.
func (o *Overlap) CoveredPercentage(readID uint32) float64 {
	if readID == o.A.Id {
		return float64(o.LengthOf(readID)) / float64(o.A.Len())
	}
	return float64(o.LengthOf(readID)) / float64(o.B.Len())
}

// ExtractOverlappedPart returns the substring of readID's active-orientation
// sequence that falls within the overlap.
func (o *Overlap) ExtractOverlappedPart(readID uint32) string {
	if readID == o.A.Id {
		return o.A.Active(o.ARC)[o.ALo:o.AHi]
	}
	return o.B.Active(o.BRC)[o.BLo:o.BHi]
}

// AddConfirmation increments the number of independent transitive triangles
// that have confirmed this overlap (starts at 1, for the overlap's own
// discovery).
func (o *Overlap) AddConfirmation() {
	o.Confirmations++
}

// IsTransitive reports whether o is the "long" edge of a transitive
// triangle a-b-c where o2 = a-c and o3 = c-b share read c with each other
// and read a/b with o respectively (spec §4.4): c must play opposite roles
// in o2 and o3 (once as the prefix side, once as the suffix side), a and b
// must play the same role in o as in o2/o3 respectively, and the hanging
// lengths on each side must agree within tolerance epsilon*o.Length()+alpha.
// On success, o2 and o3 (not o) are credited with a confirmation.
func (o *Overlap) IsTransitive(o2, o3 *Overlap, epsilon, alpha float64) bool {
	a, b := o.A.Id, o.B.Id

	var c uint32
	switch {
	case o2.A.Id != a && o2.A.Id != b:
		c = o2.A.Id
	case o2.B.Id != a && o2.B.Id != b:
		c = o2.B.Id
	default:
		return false
	}

	if o2.IsUsingSuffix(c) == o3.IsUsingSuffix(c) {
		return false
	}
	if o.IsUsingSuffix(a) != o2.IsUsingSuffix(a) {
		return false
	}
	if o.IsUsingSuffix(b) != o3.IsUsingSuffix(b) {
		return false
	}

	tol := epsilon*float64(o.Length()) + alpha
	if !doubleEq(float64(o2.HangingLength(a))+float64(o3.HangingLength(c)), float64(o.HangingLength(a)), tol) {
		return false
	}
	if !doubleEq(float64(o2.HangingLength(c))+float64(o3.HangingLength(b)), float64(o.HangingLength(b)), tol) {
		return false
	}

	o2.AddConfirmation()
	o3.AddConfirmation()
	return true
}

func doubleEq(x, y, tol float64) bool {
	d := x - y
	if d < 0 {
		d = -d
	}
	return d <= tol
}
