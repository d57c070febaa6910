package identity

// Sequence similarity in the matching-blocks form: 2*M/T where M is the total
// length of all matching blocks and T the combined length of both strings.
// Unlike a plain normalized edit distance, this rewards shared substrings
// wherever they occur, which is what the tuned similarity weights assume.

// Ratio returns the matching-blocks similarity of two strings in [0,1].
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

// PartialRatio returns the best Ratio of the shorter string against any
// equally long window of the longer one. An abbreviation scores 1.0 against
// a string it prefixes.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 1
		}
		return 0
	}
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		if r := ratioRunes(ra, rb[start:start+len(ra)]); r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	m := matchingTotal(a, b, 0, len(a), 0, len(b))
	return 2 * float64(m) / float64(total)
}

// matchingTotal sums the lengths of all matching blocks by recursing around
// the longest common block, mirroring the classic diff algorithm.
func matchingTotal(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a, b, alo, i, blo, j) +
		matchingTotal(a, b, i+size, ahi, j+size, bhi)
}

func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	b2j := map[rune][]int{}
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
