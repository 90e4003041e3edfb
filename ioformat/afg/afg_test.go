package afg_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mariokostelac/ra/extract"
	"github.com/mariokostelac/ra/ioformat/afg"
	"github.com/mariokostelac/ra/readstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReadsClipsToClearRange(t *testing.T) {
	input := "{RED\n" +
		"clr:2,6\n" +
		"eid:r1\n" +
		"iid:0\n" +
		"qlt:\n" +
		".\n" +
		"seq:AAACGTACGT\n" +
		".\n" +
		"cvg:2.5\n" +
		"}\n"

	s := readstore.New()
	n, err := afg.ReadReads(strings.NewReader(input), s)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Equal(t, 1, s.Len())

	r := s.Get(0)
	assert.Equal(t, "r1", r.Name)
	assert.Equal(t, "ACGT", r.Sequence) // seq[2:6]
	assert.Equal(t, 2.5, r.Coverage)
}

func TestReadOverlapsBuildsDovetail(t *testing.T) {
	s := readstore.New()
	s.Add("a", "AAAACCGT", "")
	s.Add("b", "CCCCGGTTTTAAAAA", "")

	input := "{OVL\n" +
		"adj:I\n" +
		"rds:0,1\n" +
		"ahg:4\n" +
		"bhg:-2\n" +
		"scr:0\n" +
		"}\n"

	overlaps, err := afg.ReadOverlaps(strings.NewReader(input), s)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)

	o := overlaps[0]
	assert.Equal(t, uint32(0), o.A.Id)
	assert.Equal(t, uint32(1), o.B.Id)
	assert.True(t, o.IsInnie)
	assert.Equal(t, int32(4), o.AHang)
	assert.Equal(t, int32(-2), o.BHang)
}

func TestReadOverlapsRejectsOutOfRangeReadID(t *testing.T) {
	s := readstore.New()
	s.Add("a", "AAAACCGT", "")

	input := "{OVL\nadj:N\nrds:0,5\nahg:0\nbhg:0\nscr:0\n}\n"
	_, err := afg.ReadOverlaps(strings.NewReader(input), s)
	require.Error(t, err)
}

func TestWriteReadsRoundTripsThroughReadReads(t *testing.T) {
	s := readstore.New()
	s.Add("r1", "AAAACCCCGGTT", "IIIIIIIIIIII")
	s.Get(0).AddCoverage(1.0)

	var buf bytes.Buffer
	require.NoError(t, afg.WriteReads(&buf, s))

	loaded := readstore.New()
	n, err := afg.ReadReads(&buf, loaded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, s.Get(0).Sequence, loaded.Get(0).Sequence)
	assert.Equal(t, s.Get(0).Name, loaded.Get(0).Name)
	assert.Equal(t, s.Get(0).Coverage, loaded.Get(0).Coverage)
}

func TestWriteLayoutEmitsTLEPerPart(t *testing.T) {
	contigs := []*extract.Contig{
		{Parts: []extract.ContigPart{
			{ReadID: 1, Orientation: extract.Forward, Offset: 0, ClrLo: 0, ClrHi: 8},
			{ReadID: 2, Orientation: extract.Reverse, Offset: 3, ClrLo: 8, ClrHi: 0},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, afg.WriteLayout(&buf, contigs))

	out := buf.String()
	assert.Contains(t, out, "{LAY\n")
	assert.Contains(t, out, "src:1\n")
	assert.Contains(t, out, "clr:0,8\n")
	assert.Contains(t, out, "off:0\n")
	assert.Contains(t, out, "rvc:0\n")
	assert.Contains(t, out, "src:2\n")
	assert.Contains(t, out, "clr:8,0\n")
	assert.Contains(t, out, "rvc:1\n")
}
