// Package afg reads and writes the AMOS AFG block format this assembler
// exchanges reads, overlaps and contig layouts in (spec §6). Grounded on
// _examples/original_source/ra/vendor/afgreader/reader.cpp's block/attribute
// scanner (`{RED`/`{OVL`/`{LAY`/`{TLE` openers, `key:value` attribute
// lines, `.`-terminated multi-line string attributes, `}` block closers)
// and IO.cpp's writeAfgReads/LAY-TLE writer for the output shape.
package afg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/mariokostelac/ra/extract"
	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/raerr"
	"github.com/mariokostelac/ra/readstore"
)

// block is one parsed `{TAG ... }` record: every `key:value` attribute
// line, keyed by the part before the first ':'. Multi-line string
// attributes (seq/qlt, terminated by a lone '.') are joined without
// separators, matching the reader's seq_start/IN_STR handling.
type block struct {
	tag   string
	attrs map[string]string
}

// scanBlocks reads every top-level `{TAG ... }` block from r.
func scanBlocks(r io.Reader) ([]block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 64*1024*1024)

	var blocks []block
	var cur *block
	var strKey string
	var strBuf strings.Builder
	inStr := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		switch {
		case inStr:
			if line == "." {
				cur.attrs[strKey] = strBuf.String()
				inStr = false
				strBuf.Reset()
				continue
			}
			strBuf.WriteString(line)
		case strings.HasPrefix(line, "{"):
			cur = &block{tag: line[1:], attrs: map[string]string{}}
		case line == "}":
			if cur == nil {
				return nil, raerr.Invalid("ioformat/afg.scanBlocks", "'}' with no open block")
			}
			blocks = append(blocks, *cur)
			cur = nil
		default:
			if cur == nil {
				return nil, raerr.Invalid("ioformat/afg.scanBlocks", "attribute line %q outside any block", line)
			}
			idx := strings.Index(line, ":")
			if idx < 0 {
				return nil, raerr.Invalid("ioformat/afg.scanBlocks", "malformed attribute line %q", line)
			}
			key, val := line[:idx], line[idx+1:]
			if key == "seq" || key == "qlt" || key == "com" {
				strKey = key
				inStr = true
				strBuf.WriteString(val)
				continue
			}
			cur.attrs[key] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, raerr.IO("ioformat/afg.scanBlocks", err)
	}
	return blocks, nil
}

func openMaybeGzip(path string, r io.Reader) (io.Reader, func() error, error) {
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, raerr.IO("ioformat/afg.openMaybeGzip", err)
		}
		return gz, gz.Close, nil
	}
	return r, func() error { return nil }, nil
}

func splitPair(s string) (string, string, bool) {
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}

// ReadReadsPath opens path (transparently gzip-decompressing per
// fileio.DetermineType) and loads its {RED} blocks into store.
func ReadReadsPath(path string, f io.Reader, store *readstore.Store) (int, error) {
	r, closeFn, err := openMaybeGzip(path, f)
	if err != nil {
		return 0, err
	}
	defer closeFn()
	return ReadReads(r, store)
}

// ReadReads loads every {RED} block from r into store, clipped to its
// clr:lo,hi range (AfgRead's seq.substr(clr_lo, clr_hi-clr_lo)). Each read
// takes its id from the block's iid field and is appended in file order by
// readstore.Store.AddRead, so the blocks must appear with iid 0, 1, 2, ...
// in that order.
func ReadReads(r io.Reader, store *readstore.Store) (int, error) {
	blocks, err := scanBlocks(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range blocks {
		if b.tag != "RED" {
			continue
		}
		iid, err := strconv.ParseUint(b.attrs["iid"], 10, 32)
		if err != nil {
			return n, raerr.Invalid("ioformat/afg.ReadReads", "RED block missing/invalid iid: %v", err)
		}
		lo, hi := 0, len(b.attrs["seq"])
		if clr, ok := b.attrs["clr"]; ok {
			loStr, hiStr, ok := splitPair(clr)
			if !ok {
				return n, raerr.Invalid("ioformat/afg.ReadReads", "malformed clr:%s", clr)
			}
			lo, err = strconv.Atoi(loStr)
			if err != nil {
				return n, raerr.Invalid("ioformat/afg.ReadReads", "malformed clr lo %q", loStr)
			}
			hi, err = strconv.Atoi(hiStr)
			if err != nil {
				return n, raerr.Invalid("ioformat/afg.ReadReads", "malformed clr hi %q", hiStr)
			}
		}
		seq := b.attrs["seq"]
		if lo < 0 || hi > len(seq) || lo > hi {
			return n, raerr.Invalid("ioformat/afg.ReadReads", "clr range [%d,%d) out of bounds for seq of length %d", lo, hi, len(seq))
		}

		read := readstore.New(uint32(iid), b.attrs["eid"], seq[lo:hi], b.attrs["qlt"])
		if cvgStr, ok := b.attrs["cvg"]; ok {
			cvg, err := strconv.ParseFloat(cvgStr, 64)
			if err != nil {
				return n, raerr.Invalid("ioformat/afg.ReadReads", "malformed cvg %q", cvgStr)
			}
			read.Coverage = cvg
		}
		store.AddRead(read)
		n++
	}
	return n, nil
}

// ReadOverlaps loads every {OVL} block from r, resolving rds:a,b against
// reads. scr is parsed (for format fidelity) but not wired into the
// resulting Overlap: the original AfgOverlap::getScore always returns 0,
// so score never carried real error-rate information upstream either.
func ReadOverlaps(r io.Reader, reads *readstore.Store) ([]*overlap.Overlap, error) {
	blocks, err := scanBlocks(r)
	if err != nil {
		return nil, err
	}
	var overlaps []*overlap.Overlap
	for _, b := range blocks {
		if b.tag != "OVL" {
			continue
		}
		aStr, bStr, ok := splitPair(b.attrs["rds"])
		if !ok {
			return nil, raerr.Invalid("ioformat/afg.ReadOverlaps", "malformed rds:%s", b.attrs["rds"])
		}
		aID, err := strconv.ParseUint(aStr, 10, 32)
		if err != nil {
			return nil, raerr.Invalid("ioformat/afg.ReadOverlaps", "malformed rds a %q", aStr)
		}
		bID, err := strconv.ParseUint(bStr, 10, 32)
		if err != nil {
			return nil, raerr.Invalid("ioformat/afg.ReadOverlaps", "malformed rds b %q", bStr)
		}
		if aID >= uint64(reads.Len()) || bID >= uint64(reads.Len()) {
			return nil, raerr.Invalid("ioformat/afg.ReadOverlaps", "rds references read id out of range: a=%d b=%d, have %d reads", aID, bID, reads.Len())
		}
		innie := b.attrs["adj"] == "I"
		aHang, err := strconv.Atoi(b.attrs["ahg"])
		if err != nil {
			return nil, raerr.Invalid("ioformat/afg.ReadOverlaps", "malformed ahg %q", b.attrs["ahg"])
		}
		bHang, err := strconv.Atoi(b.attrs["bhg"])
		if err != nil {
			return nil, raerr.Invalid("ioformat/afg.ReadOverlaps", "malformed bhg %q", b.attrs["bhg"])
		}
		o := overlap.NewDovetail(reads.Get(uint32(aID)), int32(aHang), reads.Get(uint32(bID)), int32(bHang), innie, 0, 0)
		overlaps = append(overlaps, o)
	}
	return overlaps, nil
}

// WriteReads writes every read in store as a {RED} block, per
// IO.cpp's writeAfgReads (unclipped: clr:0,length spans the whole stored
// sequence since the store never keeps clipped-out bases around).
func WriteReads(w io.Writer, store *readstore.Store) error {
	bw := bufio.NewWriter(w)
	for _, r := range store.All() {
		fmt.Fprintf(bw, "{RED\n")
		fmt.Fprintf(bw, "clr:0,%d\n", r.Len())
		fmt.Fprintf(bw, "eid:%s\n", r.Name)
		fmt.Fprintf(bw, "iid:%d\n", r.Id)
		fmt.Fprintf(bw, "qlt:%s\n", r.Quality)
		fmt.Fprintf(bw, ".\n")
		fmt.Fprintf(bw, "seq:%s\n", r.Sequence)
		fmt.Fprintf(bw, ".\n")
		fmt.Fprintf(bw, "cvg:%g\n", r.Coverage)
		fmt.Fprintf(bw, "}\n")
	}
	return raerr.IO("ioformat/afg.WriteReads", bw.Flush())
}

// WriteLayout writes one {LAY} block per contig, each containing one
// {TLE} sub-block per ContigPart, per spec §6's "{LAY … } block
// containing {TLE … } sub-blocks with clr:lo,hi, off:offset, src:read_id,
// rvc:{0|1}".
func WriteLayout(w io.Writer, contigs []*extract.Contig) error {
	bw := bufio.NewWriter(w)
	for _, c := range contigs {
		fmt.Fprintf(bw, "{LAY\n")
		for _, p := range c.Parts {
			fmt.Fprintf(bw, "{TLE\n")
			fmt.Fprintf(bw, "clr:%d,%d\n", p.ClrLo, p.ClrHi)
			fmt.Fprintf(bw, "off:%d\n", p.Offset)
			fmt.Fprintf(bw, "src:%d\n", p.ReadID)
			rvc := 0
			if p.Orientation == extract.Reverse {
				rvc = 1
			}
			fmt.Fprintf(bw, "rvc:%d\n", rvc)
			fmt.Fprintf(bw, "}\n")
		}
		fmt.Fprintf(bw, "}\n")
	}
	return raerr.IO("ioformat/afg.WriteLayout", bw.Flush())
}
