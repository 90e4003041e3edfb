// Package fasta reads and writes the assembler's FASTA surfaces: input
// reads (spec §6 "ids assigned in file order from 0") and output contigs
// (`>seq<i>|len:<n>`). Grounded on
// _examples/grailbio-bio/encoding/fasta/fasta.go's scanning loop
// (sequence-name-on-`>`-line, concatenate subsequent lines until the next
// `>` or EOF) and pileup/common.go's transparent-gzip-on-read idiom via
// github.com/grailbio/base/fileio.DetermineType.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/mariokostelac/ra/raerr"
	"github.com/mariokostelac/ra/readstore"
)

const mib = 1024 * 1024

// Read loads every record from r into store, in file order, and returns
// how many were added. A record's name is the text after '>' up to the
// first space (matching fasta.go's seqName := strings.Split(line[1:], "
// ")[0]); its sequence is every following non-header line concatenated.
func Read(r io.Reader, store *readstore.Store) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 64*mib)

	var name string
	var seq strings.Builder
	haveRecord := false
	n := 0

	flush := func() error {
		if !haveRecord {
			return nil
		}
		if name == "" {
			return raerr.Invalid("ioformat/fasta.Read", "record has empty name")
		}
		store.Add(name, seq.String(), "")
		n++
		seq.Reset()
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return n, err
			}
			name = strings.Split(line[1:], " ")[0]
			haveRecord = true
		} else {
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return n, raerr.IO("ioformat/fasta.Read", err)
	}
	if err := flush(); err != nil {
		return n, err
	}
	return n, nil
}

// ReadPath opens path (transparently gzip-decompressing if its extension
// says so, per fileio.DetermineType) and loads it into store.
func ReadPath(path string, f io.Reader, store *readstore.Store) (int, error) {
	reader := f
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, raerr.IO("ioformat/fasta.ReadPath", err)
		}
		defer gz.Close()
		reader = gz
	}
	return Read(reader, store)
}

// WriteContigs writes each sequence as a FASTA contig record named
// `seq<i>|len:<n>`, per spec §6's output format, 1-indexed to match the
// original `to_afg`/`ra_layout` tools' contig numbering.
func WriteContigs(w io.Writer, sequences []string) error {
	bw := bufio.NewWriter(w)
	for i, seq := range sequences {
		if _, err := fmt.Fprintf(bw, ">seq%d|len:%d\n%s\n", i+1, len(seq), seq); err != nil {
			return raerr.IO("ioformat/fasta.WriteContigs", err)
		}
	}
	return raerr.IO("ioformat/fasta.WriteContigs", bw.Flush())
}
