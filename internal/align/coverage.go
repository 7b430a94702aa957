package align

// Coverage is the word-level view of an alignment: which word indexes of
// each string are covered by a surviving match and which are not.
type Coverage struct {
	Matches  []Match
	CommonA  []int
	CommonB  []int
	MissingA []int
	MissingB []int
}

// Pair maps a word of the old string to a word of the new string.
type Pair struct {
	Old int
	New int
}

// Cover aligns a and b and splits the word indexes of each side into
// covered (common) and uncovered (missing, i.e. changed) sets, ascending.
func Cover(a, b string) Coverage {
	matches := Align(a, b)

	maskA := make([]bool, len(Words(a)))
	maskB := make([]bool, len(Words(b)))
	for _, m := range matches {
		for i := m.StartA; i < m.EndA; i++ {
			maskA[i] = true
		}
		for j := m.StartB; j < m.EndB; j++ {
			maskB[j] = true
		}
	}

	cov := Coverage{Matches: matches}
	cov.CommonA, cov.MissingA = split(maskA)
	cov.CommonB, cov.MissingB = split(maskB)
	return cov
}

// Pairs zips the covered indexes of both sides in ascending order. When the
// sides cover a different number of words the extra indexes are ignored.
func (c Coverage) Pairs() []Pair {
	n := min(len(c.CommonA), len(c.CommonB))
	pairs := make([]Pair, n)
	for k := 0; k < n; k++ {
		pairs[k] = Pair{Old: c.CommonA[k], New: c.CommonB[k]}
	}
	return pairs
}

func split(mask []bool) (set, unset []int) {
	for i, v := range mask {
		if v {
			set = append(set, i)
		} else {
			unset = append(unset, i)
		}
	}
	return set, unset
}
