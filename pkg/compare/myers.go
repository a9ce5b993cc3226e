package compare

// lineDiff aligns two sequences of interned lines with Myers' O(ND)
// algorithm in linear space. It recursively splits the edit graph at the
// middle snake, so the result is an optimal LCS.
type lineDiff struct {
	a, b         []int
	keepA, keepB []bool
}

// diffLines returns, for each element of a and b, whether it belongs to the common subsequence
func diffLines(a, b []int) (keepA, keepB []bool) {
	d := &lineDiff{
		a:     a,
		b:     b,
		keepA: make([]bool, len(a)),
		keepB: make([]bool, len(b)),
	}
	d.compare(0, len(a), 0, len(b))
	return d.keepA, d.keepB
}

func (d *lineDiff) compare(aLo, aHi, bLo, bHi int) {
	// Common prefix
	for aLo < aHi && bLo < bHi && d.a[aLo] == d.b[bLo] {
		d.keepA[aLo] = true
		d.keepB[bLo] = true
		aLo++
		bLo++
	}
	// Common suffix
	for aLo < aHi && bLo < bHi && d.a[aHi-1] == d.b[bHi-1] {
		aHi--
		bHi--
		d.keepA[aHi] = true
		d.keepB[bHi] = true
	}

	if aLo == aHi || bLo == bHi {
		return
	}

	x, y, ok := d.bisect(aLo, aHi, bLo, bHi)
	if !ok || (x == aLo && y == bLo) || (x == aHi && y == bHi) {
		// No element in common
		return
	}
	d.compare(aLo, x, bLo, y)
	d.compare(x, aHi, y, bHi)
}

// bisect finds the middle snake of a[aLo:aHi] and b[bLo:bHi] and returns the
// split point in absolute coordinates. ok is false when the ranges share no element.
// Callers must have trimmed common prefixes and suffixes.
func (d *lineDiff) bisect(aLo, aHi, bLo, bHi int) (int, int, bool) {
	n := aHi - aLo
	m := bHi - bLo
	maxD := (n + m + 1) / 2
	offset := maxD + 1
	size := 2*maxD + 3

	v1 := make([]int, size)
	v2 := make([]int, size)
	for i := range v1 {
		v1[i] = -1
		v2[i] = -1
	}
	v1[offset+1] = 0
	v2[offset+1] = 0

	delta := n - m
	// With an odd delta the forward path detects the overlap, otherwise the reverse one
	front := delta%2 != 0

	k1start, k1end, k2start, k2end := 0, 0, 0, 0
	for step := 0; step < maxD; step++ {
		// Forward path
		for k1 := -step + k1start; k1 <= step-k1end; k1 += 2 {
			k1off := offset + k1
			var x1 int
			if k1 == -step || (k1 != step && v1[k1off-1] < v1[k1off+1]) {
				x1 = v1[k1off+1]
			} else {
				x1 = v1[k1off-1] + 1
			}
			y1 := x1 - k1
			for x1 < n && y1 < m && d.a[aLo+x1] == d.b[bLo+y1] {
				x1++
				y1++
			}
			v1[k1off] = x1

			switch {
			case x1 > n:
				k1end += 2
			case y1 > m:
				k1start += 2
			case front:
				k2off := offset + delta - k1
				if k2off >= 0 && k2off < size && onGrid(v2[k2off], k2off-offset, n, m) {
					if x1 >= n-v2[k2off] {
						return aLo + x1, bLo + y1, true
					}
				}
			}
		}

		// Reverse path
		for k2 := -step + k2start; k2 <= step-k2end; k2 += 2 {
			k2off := offset + k2
			var x2 int
			if k2 == -step || (k2 != step && v2[k2off-1] < v2[k2off+1]) {
				x2 = v2[k2off+1]
			} else {
				x2 = v2[k2off-1] + 1
			}
			y2 := x2 - k2
			for x2 < n && y2 < m && d.a[aHi-1-x2] == d.b[bHi-1-y2] {
				x2++
				y2++
			}
			v2[k2off] = x2

			switch {
			case x2 > n:
				k2end += 2
			case y2 > m:
				k2start += 2
			case !front:
				k1off := offset + delta - k2
				if k1off >= 0 && k1off < size && onGrid(v1[k1off], k1off-offset, n, m) {
					x1 := v1[k1off]
					y1 := x1 - (k1off - offset)
					if x1 >= n-x2 {
						return aLo + x1, bLo + y1, true
					}
				}
			}
		}
	}

	return 0, 0, false
}

// onGrid reports whether a furthest-reaching x on diagonal k lies inside the n by m edit graph
func onGrid(x, k, n, m int) bool {
	y := x - k
	return x >= 0 && x <= n && y >= 0 && y <= m
}
