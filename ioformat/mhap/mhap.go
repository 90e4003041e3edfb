// Package mhap parses MHAP tab-separated overlap records (spec §6),
// constructing interval-form overlaps ready for overlap.Stretch. Grounded
// on _examples/original_source/ra/src/MhapParser.cpp's whitespace-delimited
// column scan and MhapOverlap.hpp's inclusive-to-half-open conversion
// (`a_hi()` returns `a_hi_+1`) and b-strand reflection
// (`b_rc ? b_len-(b_hi_+1) : b_lo_`, `b_rc ? b_len-b_lo_ : b_hi_+1`).
package mhap

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/raerr"
	"github.com/mariokostelac/ra/readstore"
)

// ReadOverlaps parses one MHAP record per line from r: `a_id b_id jaccard
// shared_minmers a_fwd a_lo a_hi a_len b_fwd b_lo b_hi b_len`. a_id/b_id
// index into reads. a_fwd must be 0; records violating that are rejected
// (spec §6), not silently reinterpreted.
func ReadOverlaps(r io.Reader, reads *readstore.Store) ([]*overlap.Overlap, error) {
	scanner := bufio.NewScanner(r)
	var overlaps []*overlap.Overlap
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 12 {
			return nil, raerr.Invalid("ioformat/mhap.ReadOverlaps", "line %d: expected 12 columns, got %d", lineNo, len(fields))
		}

		aID, err := parseUint(fields[0])
		if err != nil {
			return nil, col(lineNo, "a_id", err)
		}
		bID, err := parseUint(fields[1])
		if err != nil {
			return nil, col(lineNo, "b_id", err)
		}
		jaccard, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, col(lineNo, "jaccard", err)
		}
		_ = jaccard // carried for format fidelity; err_rate comes from overlap.Stretch, not MHAP's score
		aFwd, err := parseUint(fields[4])
		if err != nil {
			return nil, col(lineNo, "a_fwd", err)
		}
		if aFwd != 0 {
			return nil, raerr.Invalid("ioformat/mhap.ReadOverlaps", "line %d: a_fwd must be 0, got %d", lineNo, aFwd)
		}
		aLo, err := parseUint(fields[5])
		if err != nil {
			return nil, col(lineNo, "a_lo", err)
		}
		aHiIncl, err := parseUint(fields[6])
		if err != nil {
			return nil, col(lineNo, "a_hi", err)
		}
		bFwd, err := parseUint(fields[8])
		if err != nil {
			return nil, col(lineNo, "b_fwd", err)
		}
		bLo, err := parseUint(fields[9])
		if err != nil {
			return nil, col(lineNo, "b_lo", err)
		}
		bHiIncl, err := parseUint(fields[10])
		if err != nil {
			return nil, col(lineNo, "b_hi", err)
		}
		bLen, err := parseUint(fields[11])
		if err != nil {
			return nil, col(lineNo, "b_len", err)
		}

		if aID >= uint64(reads.Len()) || bID >= uint64(reads.Len()) {
			return nil, raerr.Invalid("ioformat/mhap.ReadOverlaps", "line %d: read id out of range: a=%d b=%d, have %d reads", lineNo, aID, bID, reads.Len())
		}

		aHi := aHiIncl + 1 // inclusive -> half-open
		bRC := bFwd != 0

		var canonBLo, canonBHi uint64
		if bRC {
			canonBLo = bLen - (bHiIncl + 1)
			canonBHi = bLen - bLo
		} else {
			canonBLo = bLo
			canonBHi = bHiIncl + 1
		}

		o := overlap.NewInterval(
			reads.Get(uint32(aID)), uint32(aLo), uint32(aHi), false,
			reads.Get(uint32(bID)), uint32(canonBLo), uint32(canonBHi), bRC,
			0, 0)
		overlaps = append(overlaps, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, raerr.IO("ioformat/mhap.ReadOverlaps", err)
	}
	return overlaps, nil
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 32)
}

func col(lineNo int, name string, err error) error {
	return raerr.Invalid("ioformat/mhap.ReadOverlaps", "line %d: malformed %s: %v", lineNo, name, err)
}
