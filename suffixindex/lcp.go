package suffixindex

// buildLCPArray computes the LCP array via Kasai's linear-time algorithm:
// lcp[i] is the length of the common prefix between suffix sa[i-1] and
// suffix sa[i] (lcp[0] is conventionally 0, there being no suffix to its
// left).
func buildLCPArray(text []byte, sa []int32) []int32 {
	n := len(sa)
	lcp := make([]int32, n)
	if n == 0 {
		return lcp
	}
	invSA := make([]int32, n)
	for i, s := range sa {
		invSA[s] = int32(i)
	}
	h := int32(0)
	for i := 0; i < n; i++ {
		if invSA[i] > 0 {
			j := sa[invSA[i]-1]
			for int(i)+int(h) < n && int(j)+int(h) < n && text[int(i)+int(h)] == text[int(j)+int(h)] {
				h++
			}
			lcp[invSA[i]] = h
			if h > 0 {
				h--
			}
		} else {
			h = 0
		}
	}
	return lcp
}
