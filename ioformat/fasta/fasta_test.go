package fasta_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mariokostelac/ra/ioformat/fasta"
	"github.com/mariokostelac/ra/readstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAssignsIdsInFileOrder(t *testing.T) {
	input := ">chr7 some description\nACGTAC\nGAGGAC\nGCG\n>chr8\nACGT\n"
	s := readstore.New()

	n, err := fasta.Read(strings.NewReader(input), s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Equal(t, 2, s.Len())

	assert.Equal(t, uint32(0), s.Get(0).Id)
	assert.Equal(t, "chr7", s.Get(0).Name)
	assert.Equal(t, "ACGTACGAGGACGCG", s.Get(0).Sequence)

	assert.Equal(t, uint32(1), s.Get(1).Id)
	assert.Equal(t, "chr8", s.Get(1).Name)
	assert.Equal(t, "ACGT", s.Get(1).Sequence)
}

func TestReadDropsNonAlphabeticCharacters(t *testing.T) {
	input := ">r1\nACGT-N*actg\n"
	s := readstore.New()

	_, err := fasta.Read(strings.NewReader(input), s)
	require.NoError(t, err)
	assert.Equal(t, "ACGTNACTG", s.Get(0).Sequence)
}

func TestReadRejectsRecordWithEmptyName(t *testing.T) {
	input := ">\nACGT\n"
	s := readstore.New()

	_, err := fasta.Read(strings.NewReader(input), s)
	require.Error(t, err)
}

func TestWriteContigsFormatsNameAndLength(t *testing.T) {
	var buf bytes.Buffer
	err := fasta.WriteContigs(&buf, []string{"ACGT", "AC"})
	require.NoError(t, err)
	assert.Equal(t, ">seq1|len:4\nACGT\n>seq2|len:2\nAC\n", buf.String())
}
