package readindex_test

import (
	"bytes"
	"testing"

	"github.com/mariokostelac/ra/readindex"
	"github.com/mariokostelac/ra/readstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(id uint32, name, seq string) *readstore.Read {
	return readstore.New(id, name, seq, "")
}

func TestPrefixSuffixMatches(t *testing.T) {
	a := mustRead(1, "a", "GGGGACGT")      // tail "ACGT" terminates exactly: a candidate overlap of length 4.
	b := mustRead(2, "b", "TTTTTTTT")      // distractor: shares no characters with the query's prefix.
	c := mustRead(3, "c", "GGGGACGTAAAA")  // "ACGT" appears but does not terminate the read: must not match.
	d := mustRead(4, "d", "TTTTACGTTGCA") // tail is the entire query sequence: a full-length match.
	query := mustRead(5, "q", "ACGTTGCA")

	idx, err := readindex.Build([]*readstore.Read{a, b, c, d}, false)
	require.NoError(t, err)

	matches := idx.PrefixSuffixMatches(query, false, 4)
	assert.ElementsMatch(t, []readindex.Match{
		{ReadID: a.Id, Len: 4},
		{ReadID: d.Id, Len: 8},
	}, matches)
}

func TestPrefixSuffixMatchesRespectsMinOverlapLen(t *testing.T) {
	a := mustRead(1, "a", "GGGGACGT")
	query := mustRead(2, "q", "ACGTTGCA")

	idx, err := readindex.Build([]*readstore.Read{a}, false)
	require.NoError(t, err)

	assert.Empty(t, idx.PrefixSuffixMatches(query, false, 5))
	assert.Len(t, idx.PrefixSuffixMatches(query, false, 4), 1)
}

func TestPrefixSuffixMatchesReverseComplement(t *testing.T) {
	// query's reverse complement's prefix should be found against a target
	// indexed in the rc orientation, not the forward one. a's raw sequence is
	// chosen so its reverse complement is "GGGGACGT" (tail "ACGT" terminates
	// exactly), mirroring TestPrefixSuffixMatches under rc orientation.
	a := mustRead(1, "a", "ACGTCCCC")
	query := mustRead(2, "q", "TGCAACGT") // reverse complement is "ACGTTGCA"

	fwdIdx, err := readindex.Build([]*readstore.Read{a}, false)
	require.NoError(t, err)
	assert.Empty(t, fwdIdx.PrefixSuffixMatches(query, true, 4))

	rcIdx, err := readindex.Build([]*readstore.Read{a}, true)
	require.NoError(t, err)
	matches := rcIdx.PrefixSuffixMatches(query, true, 4)
	assert.ElementsMatch(t, []readindex.Match{{ReadID: a.Id, Len: 4}}, matches)
}

func TestReadDuplicates(t *testing.T) {
	x := mustRead(1, "x", "ACGTACGT")
	y := mustRead(2, "y", "TTTTTTTT")
	z := mustRead(3, "z", "ACGTACGT") // exact duplicate of x.

	idx, err := readindex.Build([]*readstore.Read{x, y, z}, false)
	require.NoError(t, err)

	dups := idx.ReadDuplicates(x)
	assert.ElementsMatch(t, []uint32{x.Id, z.Id}, dups)
	assert.NotContains(t, dups, y.Id)
}

func TestReadDuplicatesReturnsNilWhenHashBucketIsUnique(t *testing.T) {
	x := mustRead(1, "x", "ACGTACGT")
	y := mustRead(2, "y", "TTTTTTTT")

	idx, err := readindex.Build([]*readstore.Read{x, y}, false)
	require.NoError(t, err)

	assert.Empty(t, idx.ReadDuplicates(x))
	assert.Empty(t, idx.ReadDuplicates(y))
}

func TestNumberOfOccurrences(t *testing.T) {
	x := mustRead(1, "x", "ACGTACGT")
	y := mustRead(2, "y", "TTTTACGT")

	idx, err := readindex.Build([]*readstore.Read{x, y}, false)
	require.NoError(t, err)

	// "ACGT" occurs at position 0 and 4 of x, and position 4 of y: three times,
	// plus it never spuriously matches across a read boundary.
	assert.Equal(t, int64(3), idx.NumberOfOccurrences([]byte("ACGT")))
}

func TestSerializeRoundTrip(t *testing.T) {
	x := mustRead(1, "x", "ACGTACGT")
	y := mustRead(2, "y", "TTTTACGT")
	idx, err := readindex.Build([]*readstore.Read{x, y}, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, idx.Serialize(&buf))

	got, err := readindex.Deserialize(&buf)
	require.NoError(t, err)

	assert.Equal(t, idx.NumberOfOccurrences([]byte("ACGT")), got.NumberOfOccurrences([]byte("ACGT")))
	assert.ElementsMatch(t, idx.ReadDuplicates(x), got.ReadDuplicates(x))
}
