// Package fastq reads FASTQ-formatted reads into a readstore.Store, per
// spec §6 ("FASTQ: four-line records; name taken from the first line
// after `@`"). Grounded on
// _examples/grailbio-bio/encoding/fastq/scanner.go's four-line state
// machine (ID line starting with '@', sequence, '+'-prefixed separator,
// quality), adapted to feed readstore.Store.Add instead of populating a
// fastq.Read value, since this module has no independent Read type of its
// own.
package fastq

import (
	"bufio"
	"io"
	"strings"

	"github.com/mariokostelac/ra/raerr"
	"github.com/mariokostelac/ra/readstore"
)

// Scanner reads consecutive four-line FASTQ records. It is not
// thread-safe, matching the teacher's Scanner.
type Scanner struct {
	b   *bufio.Scanner
	err error
}

const mib = 1024 * 1024

// NewScanner constructs a Scanner over r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(nil, 64*mib)
	return &Scanner{b: b}
}

// Record is one parsed FASTQ read.
type Record struct {
	Name, Seq, Qual string
}

// Scan reads the next record. It returns false at EOF or on error; check
// Err to distinguish the two.
func (s *Scanner) Scan(rec *Record) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		s.err = s.b.Err()
		return false
	}
	id := s.b.Bytes()
	if len(id) == 0 || id[0] != '@' {
		s.err = raerr.Invalid("ioformat/fastq.Scan", "expected '@'-prefixed id line, got %q", id)
		return false
	}
	rec.Name = strings.Split(string(id[1:]), " ")[0]

	if !s.scanLine() {
		return false
	}
	rec.Seq = s.b.Text()

	if !s.scanLine() {
		return false
	}
	sep := s.b.Bytes()
	if len(sep) == 0 || sep[0] != '+' {
		s.err = raerr.Invalid("ioformat/fastq.Scan", "expected '+'-prefixed separator line, got %q", sep)
		return false
	}

	if !s.scanLine() {
		return false
	}
	rec.Qual = s.b.Text()
	return true
}

func (s *Scanner) scanLine() bool {
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = raerr.Invalid("ioformat/fastq.Scan", "truncated record")
		}
		return false
	}
	return true
}

// Err returns the error that stopped scanning, if any.
func (s *Scanner) Err() error { return s.err }

// Read loads every record from r into store, in file order, and returns
// how many were added.
func Read(r io.Reader, store *readstore.Store) (int, error) {
	scanner := NewScanner(r)
	n := 0
	var rec Record
	for scanner.Scan(&rec) {
		store.Add(rec.Name, rec.Seq, rec.Qual)
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}
	return n, nil
}
