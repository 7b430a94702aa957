// Package align matches the words of an old and a new string so that
// formatting attached to unchanged words can follow them into the new text.
//
// Matching is longest-common-substring over word tokens: only contiguous
// runs of equal words count, there is no gap skipping.
package align

import "strings"

// Match is a common run of words with its half-open word span in both strings.
type Match struct {
	Text   string
	StartA int
	EndA   int
	StartB int
	EndB   int
}

// Len returns the number of words in the run.
func (m Match) Len() int {
	return m.EndA - m.StartA
}

// Words splits s on single spaces. Consecutive spaces yield empty words,
// so word indexes line up with character offsets of the original string.
func Words(s string) []string {
	return strings.Split(s, " ")
}

// Align returns the maximal common word runs of a and b.
//
// Every DP cell with a positive run length is a candidate, collected in
// row-major order. A candidate is dropped when its text is contained as a
// substring in the text of a different candidate; this compares rendered
// text, not spans, so a distinct run elsewhere in the string can be
// discarded. Survivors are deduplicated by text, first occurrence wins.
func Align(a, b string) []Match {
	wordsA := Words(a)
	wordsB := Words(b)
	n, m := len(wordsA), len(wordsB)

	// prev/cur are rows i-1 and i of the run-length table.
	prev := make([]int, m+1)
	cur := make([]int, m+1)

	var candidates []Match
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if wordsA[i-1] == wordsB[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = 0
			}
			if length := cur[j]; length > 0 {
				candidates = append(candidates, Match{
					Text:   strings.Join(wordsA[i-length:i], " "),
					StartA: i - length,
					EndA:   i,
					StartB: j - length,
					EndB:   j,
				})
			}
		}
		prev, cur = cur, prev
	}

	// Distinct texts are enough for the containment check.
	texts := make([]string, 0, len(candidates))
	seenText := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if !seenText[c.Text] {
			seenText[c.Text] = true
			texts = append(texts, c.Text)
		}
	}

	contained := make(map[string]bool, len(texts))
	for _, s := range texts {
		for _, t := range texts {
			if s != t && strings.Contains(t, s) {
				contained[s] = true
				break
			}
		}
	}

	var result []Match
	emitted := make(map[string]bool)
	for _, c := range candidates {
		if contained[c.Text] || emitted[c.Text] {
			continue
		}
		emitted[c.Text] = true
		result = append(result, c)
	}
	return result
}
