package suffixindex

// childTable is the Abouelhoda-Kurtz-Ohlebusch "child table" over an lcp
// array: at most one of .up/.down/.nextIndex is meaningful for a given
// index, which is what lets the original encode all three into a single
// int32 per position (spec §3, "childtab[0..n] with the .up, .down,
// .nextlIndex multiplexed"). We keep up/down combined in one array (they
// never collide: .up[i] is stored at i-1, .down[i] at i) and nextIndex in a
// second array, rather than bit-packing all three into one slot: same O(1)
// per-field access, lower risk of an off-by-one in the packing/unpacking
// step.
type childTable struct {
	upDown []int32 // -1 if unset
	next   []int32 // -1 if unset
}

const noChild int32 = -1

// buildChildTable builds the child table from lcpExt, the lcp array extended
// with one trailing sentinel of value -1 (len(lcpExt) == len(suftab)+1), so
// that childBoundary never needs a special case for the whole-array
// interval's right edge. It implements the two-stack algorithm from
// "Replacing Suffix Trees with Enhanced Suffix Arrays" (Abouelhoda, Kurtz,
// Ohlebusch, 2004).
func buildChildTable(lcpExt []int32) childTable {
	n := len(lcpExt)
	ct := childTable{
		upDown: make([]int32, n),
		next:   make([]int32, n),
	}
	for i := range ct.upDown {
		ct.upDown[i] = noChild
		ct.next[i] = noChild
	}
	if n == 0 {
		return ct
	}
	// Index 0 is treated as lcp -1, a bottom sentinel no other entry pops,
	// so the trailing -1 closes the whole-array interval with a non-empty
	// stack.
	lcp := append([]int32(nil), lcpExt...)
	lcp[0] = -1

	// Pass 1: up/down. stack holds indices in increasing-lcp order; an index
	// popped while scanning right marks the left boundary of a closing
	// lcp-interval.
	stack := []int32{0}
	lastIndex := noChild
	for i := 1; i < n; i++ {
		for len(stack) > 0 && lcp[i] < lcp[stack[len(stack)-1]] {
			lastIndex = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top := stack[len(stack)-1]
			if lcp[i] <= lcp[top] && lcp[top] != lcp[lastIndex] {
				ct.upDown[top] = lastIndex // "down" value of top
			}
		}
		if lastIndex != noChild {
			ct.upDown[i-1] = lastIndex // "up" value of i, stored at i-1
			lastIndex = noChild
		}
		stack = append(stack, int32(i))
	}

	// Pass 2: nextIndex, linking consecutive child-interval boundaries that
	// share the same lcp value (siblings within the same parent interval).
	stack = stack[:0]
	stack = append(stack, 0)
	for i := 1; i < n; i++ {
		for len(stack) > 0 && lcp[i] < lcp[stack[len(stack)-1]] {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && lcp[i] == lcp[stack[len(stack)-1]] {
			ct.next[stack[len(stack)-1]] = int32(i)
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, int32(i))
	}

	return ct
}

// childBoundary returns the index k in (i, j] at which the lcp-interval
// [i,j]'s defining lcp value (min of lcp[i+1..j]) is first achieved: the
// split point between [i,j]'s first child and the rest. It implements spec
// §4.1's "uses .down when childtab[i] ∈ (i, j], else .up".
func (ct childTable) childBoundary(i, j int32) int32 {
	if d := ct.upDown[i]; d != noChild && d > i && d <= j {
		return d
	}
	return ct.upDown[j] // .up[j+1], stored at j
}
