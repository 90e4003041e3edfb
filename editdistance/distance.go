// Package editdistance computes Levenshtein edit distance, used as a
// treated-as-oracle primitive by overlap stretching (spec §4.8) and bubble
// popping's walk-similarity test (spec §4.6). The DP matrix and the
// diagonal/right/down traversal vocabulary are grounded on util.Levenshtein,
// generalized here from that function's fixed-length-barcode use case to
// arbitrary free-length sequences, and extended with a semi-global variant
// that leaves gaps at the query's trailing end unpenalized.
package editdistance

// Levenshtein returns the ordinary edit distance between a and b: the
// minimum number of single-character insertions, deletions and
// substitutions needed to turn a into b.
func Levenshtein(a, b string) int {
	n, m := len(a), len(b)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

// SemiGlobal returns the edit distance between a and b where any suffix of b
// left unmatched past the best alignment point costs nothing ("gaps at
// query end are free", spec §4.8) -- i.e. it is the minimum, over every
// prefix of b, of the Levenshtein distance between a and that prefix. This
// models extending an alignment towards a read's end without being
// penalized for the portion of the other read that extends further.
func SemiGlobal(a, b string) int {
	n, m := len(a), len(b)
	if n == 0 {
		return 0
	}
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	best := prev[0]
	for j := 0; j <= m; j++ {
		if prev[j] < best {
			best = prev[j]
		}
	}
	return best
}

// SemiGlobalExtend aligns the whole of target against a prefix of query,
// with any unmatched suffix of query free, and reports both the edit
// distance achieved and the length of the query prefix that achieves it
// (the longest such prefix, on ties). This is the primitive overlap
// stretching (spec §4.8) builds on: target is the read being extended up to
// its full length, query is the facing read whose still-unaligned portion
// may supply more matching bases "for free" past the overlap's current
// edge.
func SemiGlobalExtend(target, query string) (usedLen, dist int) {
	n, m := len(target), len(query)
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if target[i-1] == query[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	best := prev[0]
	usedLen = 0
	for j := 0; j <= m; j++ {
		if prev[j] <= best {
			best = prev[j]
			usedLen = j
		}
	}
	return usedLen, best
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
