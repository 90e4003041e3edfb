package mhap_test

import (
	"strings"
	"testing"

	"github.com/mariokostelac/ra/ioformat/mhap"
	"github.com/mariokostelac/ra/readstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *readstore.Store {
	s := readstore.New()
	s.Add("a", strings.Repeat("A", 20), "")
	s.Add("b", strings.Repeat("C", 30), "")
	return s
}

func TestReadOverlapsConvertsInclusiveHiToHalfOpen(t *testing.T) {
	s := newStore()
	line := "0 1 0.9 50 0 2 9 20 0 3 14 30\n"

	overlaps, err := mhap.ReadOverlaps(strings.NewReader(line), s)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)

	o := overlaps[0]
	assert.Equal(t, uint32(2), o.ALo)
	assert.Equal(t, uint32(10), o.AHi) // 9+1
	assert.Equal(t, uint32(3), o.BLo)
	assert.Equal(t, uint32(15), o.BHi) // 14+1
	assert.False(t, o.ARC)
	assert.False(t, o.BRC)
	assert.False(t, o.IsInnie)
}

func TestReadOverlapsReflectsBWhenBFwdIsOne(t *testing.T) {
	s := newStore()
	// b_len=30, b_lo=3, b_hi=14 (inclusive), b_fwd=1: reflected
	// canonBLo = 30-(14+1) = 15, canonBHi = 30-3 = 27.
	line := "0 1 0.9 50 0 2 9 20 1 3 14 30\n"

	overlaps, err := mhap.ReadOverlaps(strings.NewReader(line), s)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)

	o := overlaps[0]
	assert.Equal(t, uint32(15), o.BLo)
	assert.Equal(t, uint32(27), o.BHi)
	assert.True(t, o.BRC)
	assert.True(t, o.IsInnie)
}

func TestReadOverlapsRejectsNonZeroAFwd(t *testing.T) {
	s := newStore()
	line := "0 1 0.9 50 1 2 9 20 0 3 14 30\n"

	_, err := mhap.ReadOverlaps(strings.NewReader(line), s)
	require.Error(t, err)
}

func TestReadOverlapsRejectsWrongColumnCount(t *testing.T) {
	s := newStore()
	line := "0 1 0.9 50 0 2 9 20\n"

	_, err := mhap.ReadOverlaps(strings.NewReader(line), s)
	require.Error(t, err)
}

func TestReadOverlapsRejectsOutOfRangeReadID(t *testing.T) {
	s := newStore()
	line := "0 7 0.9 50 0 2 9 20 0 3 14 30\n"

	_, err := mhap.ReadOverlaps(strings.NewReader(line), s)
	require.Error(t, err)
}
