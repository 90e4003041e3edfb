// Package readstore holds the reads an assembly is built from: a dense,
// immutable-id collection of DNA sequences, each with a lazily computed
// reverse complement and an additively-updated coverage scalar.
package readstore

import (
	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/bio/biosimd"
)

// Read is a single sequencing read. Once assigned, Id is immutable; Sequence
// is normalized at construction time (non-alphabetic bytes dropped,
// lowercase folded to upper, non-ACGT letters mapped to 'N').
type Read struct {
	Id       uint32
	Name     string
	Sequence string
	Quality  string // optional; empty if not supplied.
	Coverage float64
	SeqHash  uint64 // farm.Hash64(Sequence); cheap pre-filter before an exact-duplicate lookup.

	revComp string
	hasRC   bool
}

// NormalizeSequence drops non-alphabetic bytes, then uppercases and maps
// non-ACGT letters to 'N'. Grounded on biosimd.CleanASCIISeqInplace, which
// handles the uppercase+map-to-N half; the drop-non-alphabetic half has no
// corpus equivalent (every example library only replaces in place, never
// shrinks), so it's a small stdlib loop.
func NormalizeSequence(raw string) string {
	buf := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			buf = append(buf, c)
		}
	}
	biosimd.CleanASCIISeqInplace(buf)
	return string(buf)
}

// New constructs a Read with id, name and a normalized sequence. Sequence
// must be non-empty after normalization; id is caller-assigned and
// thereafter immutable.
func New(id uint32, name, rawSequence string, quality string) *Read {
	seq := NormalizeSequence(rawSequence)
	return &Read{
		Id:       id,
		Name:     name,
		Sequence: seq,
		Quality:  quality,
		Coverage: 1.0,
		SeqHash:  farm.Hash64([]byte(seq)),
	}
}

// Len returns the length of the forward sequence.
func (r *Read) Len() int { return len(r.Sequence) }

// ReverseComplement returns the reverse complement of Sequence, computing
// and caching it on first use.
func (r *Read) ReverseComplement() string {
	if !r.hasRC {
		dst := make([]byte, len(r.Sequence))
		biosimd.ReverseComp8NoValidate(dst, []byte(r.Sequence))
		r.revComp = string(dst)
		r.hasRC = true
	}
	return r.revComp
}

// Active returns the forward sequence, or its reverse complement if rc is
// true. Many overlap/graph operations are symmetric in orientation and take
// this flag instead of branching on it themselves.
func (r *Read) Active(rc bool) string {
	if rc {
		return r.ReverseComplement()
	}
	return r.Sequence
}

// AddCoverage additively updates Coverage, e.g. when this read absorbs a
// contained duplicate or is confirmed by a transitive triangle (spec §4.4,
// glossary "Coverage").
func (r *Read) AddCoverage(delta float64) {
	r.Coverage += delta
}
