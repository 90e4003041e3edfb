// Package depot implements the blob-indexed persistent store of spec
// §6's "Persisted state layout": two file pairs (data + index) per object
// kind, reads and overlaps serialized as length-prefixed binary tuples,
// snappy-compressed and seahash-checksummed, with the backing files
// exclusively locked for the depot's lifetime (spec §5's "Depot locks its
// backing files for the duration of the process lifetime; the core
// itself acquires no OS resources"). Grounded on
// encoding/bampair/disk_mate_shard.go's snappy-over-os.File framing and
// cmd/bio-pamtool/checksum.go's seahash use, both in the teacher repo;
// file access goes through github.com/grailbio/base/file the way
// pileup/common.go and pileup/snp/output.go do, so depot paths are
// transparently local or S3 (s3:// prefix).
package depot

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/golang/snappy"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/mariokostelac/ra/overlap"
	"github.com/mariokostelac/ra/raerr"
	"github.com/mariokostelac/ra/readstore"
	"golang.org/x/sys/unix"
)

const (
	readTypeTag    byte = 1
	overlapTypeTag byte = 2
)

// indexEntry is one (offset, length) pair into a data file, spec §6's
// Depot index record.
type indexEntry struct {
	offset uint64
	length uint32
}

// Depot owns the four backing files (reads.data/.index,
// overlaps.data/.index) under dir for one assembly process's lifetime.
type Depot struct {
	dir   string
	locks []*os.File // raw fds held exclusively-locked; released by Close
}

// Open prepares a Depot rooted at dir, acquiring an exclusive lock on each
// local backing file, creating it empty if it does not exist yet (locking a
// remote, e.g. s3://, path isn't meaningful and is skipped with an
// info-level log).
func Open(ctx context.Context, dir string) (*Depot, error) {
	d := &Depot{dir: dir}
	for _, name := range []string{"reads.data", "reads.index", "overlaps.data", "overlaps.index"} {
		d.tryLock(join(dir, name))
	}
	return d, nil
}

// Close releases every lock this Depot is holding.
func (d *Depot) Close(ctx context.Context) error {
	for _, f := range d.locks {
		if err := f.Close(); err != nil {
			return raerr.IO("depot.Close", err)
		}
	}
	d.locks = nil
	return nil
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

// tryLock acquires an exclusive advisory lock on path's underlying file
// descriptor, if path names a local file; a missing file is created empty
// so that it can be locked. Failure to lock
// a local file is logged, not fatal: the depot's correctness doesn't
// depend on the lock, only concurrent-writer safety does, and spec §7
// reserves IoFailure for opens/reads/writes that the depot's own
// operations actually need to succeed.
func (d *Depot) tryLock(path string) {
	if strings.Contains(path, "://") {
		log.Printf("depot: not locking remote path %s", path)
		return
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		log.Printf("depot: could not open %s for locking: %v", path, err)
		return
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		log.Printf("depot: could not lock %s: %v", path, err)
		f.Close()
		return
	}
	d.locks = append(d.locks, f)
}

// writeBlobs snappy-compresses and checksums every payload, then writes
// them concatenated to a single data-file pass (one file.Create call) and
// records each one's (offset, length) to the matching index file.
// Grounded on disk_mate_shard.go's single-writer-per-file shape.
func writeBlobs(ctx context.Context, dataPath, indexPath string, payloads [][]byte) error {
	dataFile, err := file.Create(ctx, dataPath)
	if err != nil {
		return raerr.IO("depot.writeBlobs", err)
	}
	defer file.CloseAndReport(ctx, dataFile, &err)
	dataW := bufio.NewWriter(dataFile.Writer(ctx))

	indexFile, err := file.Create(ctx, indexPath)
	if err != nil {
		return raerr.IO("depot.writeBlobs", err)
	}
	defer file.CloseAndReport(ctx, indexFile, &err)
	indexW := bufio.NewWriter(indexFile.Writer(ctx))

	var offset uint64
	for _, payload := range payloads {
		compressed := snappy.Encode(nil, payload)
		checksum := seahash.Sum64(compressed)

		var hdr [8]byte
		binary.LittleEndian.PutUint64(hdr[:], checksum)
		if _, err := dataW.Write(hdr[:]); err != nil {
			return raerr.IO("depot.writeBlobs", err)
		}
		if _, err := dataW.Write(compressed); err != nil {
			return raerr.IO("depot.writeBlobs", err)
		}

		length := uint32(8 + len(compressed))
		var entry [12]byte
		binary.LittleEndian.PutUint64(entry[0:8], offset)
		binary.LittleEndian.PutUint32(entry[8:12], length)
		if _, err := indexW.Write(entry[:]); err != nil {
			return raerr.IO("depot.writeBlobs", err)
		}

		offset += uint64(length)
	}

	if err := dataW.Flush(); err != nil {
		return raerr.IO("depot.writeBlobs", err)
	}
	if err := indexW.Flush(); err != nil {
		return raerr.IO("depot.writeBlobs", err)
	}
	return nil
}

// readBlobs reads every index entry from indexPath, then reads and
// verifies (checksum) and decompresses each corresponding data-file
// region.
func readBlobs(ctx context.Context, dataPath, indexPath string) ([][]byte, error) {
	indexFile, err := file.Open(ctx, indexPath)
	if err != nil {
		return nil, raerr.IO("depot.readBlobs", err)
	}
	indexBytes, err := io.ReadAll(indexFile.Reader(ctx))
	file.CloseAndReport(ctx, indexFile, &err)
	if err != nil {
		return nil, raerr.IO("depot.readBlobs", err)
	}
	if len(indexBytes)%12 != 0 {
		return nil, raerr.Invalid("depot.readBlobs", "index file %s has %d bytes, not a multiple of 12", indexPath, len(indexBytes))
	}

	var entries []indexEntry
	for i := 0; i+12 <= len(indexBytes); i += 12 {
		entries = append(entries, indexEntry{
			offset: binary.LittleEndian.Uint64(indexBytes[i : i+8]),
			length: binary.LittleEndian.Uint32(indexBytes[i+8 : i+12]),
		})
	}

	dataFile, err := file.Open(ctx, dataPath)
	if err != nil {
		return nil, raerr.IO("depot.readBlobs", err)
	}
	dataBytes, err := io.ReadAll(dataFile.Reader(ctx))
	file.CloseAndReport(ctx, dataFile, &err)
	if err != nil {
		return nil, raerr.IO("depot.readBlobs", err)
	}

	payloads := make([][]byte, 0, len(entries))
	for _, e := range entries {
		end := e.offset + uint64(e.length)
		if end > uint64(len(dataBytes)) {
			return nil, raerr.Invalid("depot.readBlobs", "entry [%d,%d) exceeds data file %s of length %d", e.offset, end, dataPath, len(dataBytes))
		}
		region := dataBytes[e.offset:end]
		if len(region) < 8 {
			return nil, raerr.Invalid("depot.readBlobs", "truncated blob record at offset %d in %s", e.offset, dataPath)
		}
		wantChecksum := binary.LittleEndian.Uint64(region[:8])
		compressed := region[8:]
		if got := seahash.Sum64(compressed); got != wantChecksum {
			return nil, raerr.Invalid("depot.readBlobs", "checksum mismatch at offset %d in %s: blob is truncated or corrupted", e.offset, dataPath)
		}
		payload, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, raerr.Invalid("depot.readBlobs", "snappy decode failed at offset %d in %s: %v", e.offset, dataPath, err)
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

func putString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func getString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, raerr.Invalid("depot", "truncated string length prefix")
	}
	n := binary.LittleEndian.Uint32(b)
	b = b[4:]
	if uint32(len(b)) < n {
		return "", nil, raerr.Invalid("depot", "truncated string body: want %d bytes, have %d", n, len(b))
	}
	return string(b[:n]), b[n:], nil
}

// encodeRead serializes r as (type_tag, id, name, sequence, quality,
// coverage), per spec §6.
func encodeRead(r *readstore.Read) []byte {
	buf := make([]byte, 0, 16+len(r.Name)+len(r.Sequence)+len(r.Quality))
	buf = append(buf, readTypeTag)
	var idBuf [4]byte
	binary.LittleEndian.PutUint32(idBuf[:], r.Id)
	buf = append(buf, idBuf[:]...)
	buf = putString(buf, r.Name)
	buf = putString(buf, r.Sequence)
	buf = putString(buf, r.Quality)
	var covBuf [8]byte
	binary.LittleEndian.PutUint64(covBuf[:], math.Float64bits(r.Coverage))
	buf = append(buf, covBuf[:]...)
	return buf
}

func decodeRead(b []byte) (*readstore.Read, error) {
	if len(b) < 1 || b[0] != readTypeTag {
		return nil, raerr.Invalid("depot", "expected read type tag %d, got %v", readTypeTag, b)
	}
	b = b[1:]
	if len(b) < 4 {
		return nil, raerr.Invalid("depot", "truncated read id")
	}
	id := binary.LittleEndian.Uint32(b)
	b = b[4:]

	name, b, err := getString(b)
	if err != nil {
		return nil, err
	}
	sequence, b, err := getString(b)
	if err != nil {
		return nil, err
	}
	quality, b, err := getString(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 8 {
		return nil, raerr.Invalid("depot", "truncated read coverage")
	}
	coverage := math.Float64frombits(binary.LittleEndian.Uint64(b))

	r := readstore.New(id, name, sequence, quality)
	r.Id = id
	r.Coverage = coverage
	return r, nil
}

// StoreReads persists every read in s to dir's reads.data/reads.index.
func (d *Depot) StoreReads(ctx context.Context, s *readstore.Store) error {
	payloads := make([][]byte, 0, s.Len())
	for _, r := range s.All() {
		payloads = append(payloads, encodeRead(r))
	}
	return writeBlobs(ctx, join(d.dir, "reads.data"), join(d.dir, "reads.index"), payloads)
}

// LoadReads reconstructs every read from dir's reads.data/reads.index into
// a fresh Store, in on-disk order.
func (d *Depot) LoadReads(ctx context.Context) (*readstore.Store, error) {
	payloads, err := readBlobs(ctx, join(d.dir, "reads.data"), join(d.dir, "reads.index"))
	if err != nil {
		return nil, err
	}
	s := readstore.New()
	for _, p := range payloads {
		r, err := decodeRead(p)
		if err != nil {
			return nil, err
		}
		s.AddRead(r)
	}
	return s, nil
}

// bitmask flags packed into encodeOverlap's single flags byte.
const (
	flagDovetail byte = 1 << iota
	flagARC
	flagBRC
	flagInnie
)

// encodeOverlap serializes o as (type_tag, a_id, b_id, flags, a_hang,
// b_hang, a_lo, a_hi, b_lo, b_hi, err_rate, orig_err_rate, confirmations).
// Not pinned by spec §6 (which specifies only the read tuple); grounded on
// the same length-prefixed/fixed-width framing the read tuple uses, and
// covers every field Overlap.IsUsingPrefix/Stretch/IsTransitive need to
// work identically after a round trip.
func encodeOverlap(o *overlap.Overlap) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, overlapTypeTag)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], o.A.Id)
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], o.B.Id)
	buf = append(buf, u32[:]...)

	var flags byte
	if o.Dovetail {
		flags |= flagDovetail
	}
	if o.ARC {
		flags |= flagARC
	}
	if o.BRC {
		flags |= flagBRC
	}
	if o.IsInnie {
		flags |= flagInnie
	}
	buf = append(buf, flags)

	binary.LittleEndian.PutUint32(u32[:], uint32(o.AHang))
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], uint32(o.BHang))
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], o.ALo)
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], o.AHi)
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], o.BLo)
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], o.BHi)
	buf = append(buf, u32[:]...)

	var f64 [8]byte
	binary.LittleEndian.PutUint64(f64[:], math.Float64bits(o.ErrRate))
	buf = append(buf, f64[:]...)
	binary.LittleEndian.PutUint64(f64[:], math.Float64bits(o.OrigErrRate))
	buf = append(buf, f64[:]...)

	binary.LittleEndian.PutUint32(u32[:], o.Confirmations)
	buf = append(buf, u32[:]...)

	return buf
}

func decodeOverlap(b []byte, reads *readstore.Store) (*overlap.Overlap, error) {
	if len(b) < 1 || b[0] != overlapTypeTag {
		return nil, raerr.Invalid("depot", "expected overlap type tag %d, got %v", overlapTypeTag, b)
	}
	b = b[1:]
	if len(b) < 53 {
		return nil, raerr.Invalid("depot", "truncated overlap record")
	}

	aID := binary.LittleEndian.Uint32(b[0:4])
	bID := binary.LittleEndian.Uint32(b[4:8])
	flags := b[8]
	aHang := int32(binary.LittleEndian.Uint32(b[9:13]))
	bHang := int32(binary.LittleEndian.Uint32(b[13:17]))
	aLo := binary.LittleEndian.Uint32(b[17:21])
	aHi := binary.LittleEndian.Uint32(b[21:25])
	bLo := binary.LittleEndian.Uint32(b[25:29])
	bHi := binary.LittleEndian.Uint32(b[29:33])
	errRate := math.Float64frombits(binary.LittleEndian.Uint64(b[33:41]))
	origErrRate := math.Float64frombits(binary.LittleEndian.Uint64(b[41:49]))
	confirmations := binary.LittleEndian.Uint32(b[49:53])

	if aID >= uint32(reads.Len()) || bID >= uint32(reads.Len()) {
		return nil, raerr.Invalid("depot", "overlap references read id out of range: a=%d b=%d, have %d reads", aID, bID, reads.Len())
	}

	o := &overlap.Overlap{
		A: reads.Get(aID), B: reads.Get(bID),
		Dovetail: flags&flagDovetail != 0,
		AHang:    aHang, BHang: bHang,
		ALo: aLo, AHi: aHi, BLo: bLo, BHi: bHi,
		ARC: flags&flagARC != 0, BRC: flags&flagBRC != 0,
		IsInnie:       flags&flagInnie != 0,
		ErrRate:       errRate,
		OrigErrRate:   origErrRate,
		Confirmations: confirmations,
	}
	return o, nil
}

// StoreOverlaps persists overlaps to dir's overlaps.data/overlaps.index.
func (d *Depot) StoreOverlaps(ctx context.Context, overlaps []*overlap.Overlap) error {
	payloads := make([][]byte, 0, len(overlaps))
	for _, o := range overlaps {
		payloads = append(payloads, encodeOverlap(o))
	}
	return writeBlobs(ctx, join(d.dir, "overlaps.data"), join(d.dir, "overlaps.index"), payloads)
}

// LoadOverlaps reconstructs overlaps from dir's
// overlaps.data/overlaps.index, resolving each one's A/B reads against
// reads (which must already hold every id the overlaps reference, e.g.
// from a prior LoadReads).
func (d *Depot) LoadOverlaps(ctx context.Context, reads *readstore.Store) ([]*overlap.Overlap, error) {
	payloads, err := readBlobs(ctx, join(d.dir, "overlaps.data"), join(d.dir, "overlaps.index"))
	if err != nil {
		return nil, err
	}
	overlaps := make([]*overlap.Overlap, 0, len(payloads))
	for _, p := range payloads {
		o, err := decodeOverlap(p, reads)
		if err != nil {
			return nil, err
		}
		overlaps = append(overlaps, o)
	}
	return overlaps, nil
}
