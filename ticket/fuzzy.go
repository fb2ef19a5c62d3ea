package ticket

import "strings"

// Similarity returns a 0-100 similarity score between two ticket prefixes
// using Jaro-Winkler, which keeps adjacent transpositions (the dominant
// typo class in hand-typed ticket keys) above the normalization threshold.
// Comparison is case-insensitive.
func Similarity(a, b string) int {
	a = strings.ToUpper(a)
	b = strings.ToUpper(b)
	if a == b {
		return 100
	}
	return int(jaroWinkler(a, b) * 100)
}

func jaroWinkler(a, b string) float64 {
	j := jaro(a, b)
	if j == 0 {
		return 0
	}

	// Winkler prefix bonus, capped at 4 common leading characters.
	prefix := 0
	for i := 0; i < len(a) && i < len(b) && i < 4; i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}
	return j + float64(prefix)*0.1*(1-j)
}

func jaro(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := max(len(a), len(b))/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(a))
	matchedB := make([]bool, len(b))
	matches := 0

	for i := 0; i < len(a); i++ {
		lo := max(0, i-window)
		hi := min(len(b)-1, i+window)
		for j := lo; j <= hi; j++ {
			if matchedB[j] || a[i] != b[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	// Count transpositions among matched characters.
	transpositions := 0
	j := 0
	for i := 0; i < len(a); i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions))/m) / 3
}
