package fastq_test

import (
	"strings"
	"testing"

	"github.com/mariokostelac/ra/ioformat/fastq"
	"github.com/mariokostelac/ra/readstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParsesFourLineRecords(t *testing.T) {
	input := "@r1 description\nACGTAC\n+\nIIIIII\n@r2\nTTTT\n+ignored\nJJJJ\n"
	s := readstore.New()

	n, err := fastq.Read(strings.NewReader(input), s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Equal(t, 2, s.Len())

	assert.Equal(t, "r1", s.Get(0).Name)
	assert.Equal(t, "ACGTAC", s.Get(0).Sequence)
	assert.Equal(t, "IIIIII", s.Get(0).Quality)

	assert.Equal(t, "r2", s.Get(1).Name)
	assert.Equal(t, "TTTT", s.Get(1).Sequence)
	assert.Equal(t, "JJJJ", s.Get(1).Quality)
}

func TestReadRejectsMissingAtPrefix(t *testing.T) {
	input := "r1\nACGT\n+\nIIII\n"
	s := readstore.New()

	_, err := fastq.Read(strings.NewReader(input), s)
	require.Error(t, err)
}

func TestReadRejectsMissingPlusSeparator(t *testing.T) {
	input := "@r1\nACGT\nXXXX\nIIII\n"
	s := readstore.New()

	_, err := fastq.Read(strings.NewReader(input), s)
	require.Error(t, err)
}

func TestReadRejectsTruncatedRecord(t *testing.T) {
	input := "@r1\nACGT\n+\n"
	s := readstore.New()

	_, err := fastq.Read(strings.NewReader(input), s)
	require.Error(t, err)
}
