package readstore

import (
	"github.com/grailbio/base/log"
	"github.com/mariokostelac/ra/config"
)

// Store owns every Read for the lifetime of the assembly process. Ids are
// dense and assigned in insertion order; once a Read is added, its Id and
// Sequence never change.
type Store struct {
	reads []*Read
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Add normalizes rawSequence, assigns the next dense id, and appends the
// resulting Read. It returns the new Read's id.
func (s *Store) Add(name, rawSequence, quality string) uint32 {
	id := uint32(len(s.reads))
	s.reads = append(s.reads, New(id, name, rawSequence, quality))
	return id
}

// AddRead appends a fully constructed Read, e.g. one deserialized from a
// depot blob. The caller is responsible for Id matching len(s.reads) before
// the call (dense, insertion-ordered ids).
func (s *Store) AddRead(r *Read) {
	s.reads = append(s.reads, r)
}

// Get returns the read with the given id. It panics if id is out of range:
// a caller presenting an id this store never issued is an invariant
// violation, not a recoverable input error.
func (s *Store) Get(id uint32) *Read {
	return s.reads[id]
}

// Len returns the number of reads held.
func (s *Store) Len() int { return len(s.reads) }

// All returns every read, in id order. The returned slice must not be
// mutated by the caller.
func (s *Store) All() []*Read {
	return s.reads
}

// Filter removes reads shorter than cfg.ReadsMinLen, supplementing spec
// §4 with the original assembler's Preprocess stage (original_source
// src/Preprocess.cpp), which screens reads before they ever reach the
// overlap engine. Remaining reads are renumbered densely in their original
// relative order, since the rest of the pipeline assumes dense ids.
func (s *Store) Filter(cfg config.Tunables) (dropped int) {
	kept := s.reads[:0]
	for _, r := range s.reads {
		if uint32(r.Len()) < cfg.ReadsMinLen {
			dropped++
			continue
		}
		r.Id = uint32(len(kept))
		kept = append(kept, r)
	}
	s.reads = kept
	if dropped > 0 {
		log.Printf("readstore: filtered %d reads shorter than %d bases", dropped, cfg.ReadsMinLen)
	}
	return dropped
}
