package screening

import (
	"math"

	"github.com/Sanction-Guard/sanctionguard/pkg/normalizers"
)

// PairwiseSimilarity returns the Dice coefficient over character bigrams of
// two tokens, in [0, 1]. Tokens too short to produce bigrams fall back to
// exact equality.
func PairwiseSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	runesA := []rune(a)
	runesB := []rune(b)
	if len(runesA) < 2 || len(runesB) < 2 {
		return 0
	}

	bigramsA := bigrams(runesA)
	bigramsB := bigrams(runesB)

	var shared int
	for bg, countA := range bigramsA {
		countB := bigramsB[bg]
		if countA < countB {
			shared += countA
		} else {
			shared += countB
		}
	}

	totalA := len(runesA) - 1
	totalB := len(runesB) - 1
	return 2 * float64(shared) / float64(totalA+totalB)
}

func bigrams(runes []rune) map[string]int {
	out := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}

// Similarity scores two names on a 0.00 to 100.00 scale. Both names are
// normalized and tokenized; each token on one side is matched against its
// best counterpart on the other, the per-token maxima are averaged, and the
// larger of the two directional averages wins. Token order never matters, so
// "John Doe" and "Doe, John" score as the same name.
func Similarity(query, candidate string) float64 {
	queryTokens := normalizers.Tokenize(query)
	candidateTokens := normalizers.Tokenize(candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	forward := directionalAverage(queryTokens, candidateTokens)
	backward := directionalAverage(candidateTokens, queryTokens)

	score := math.Max(forward, backward) * 100
	return math.Round(score*100) / 100
}

// directionalAverage averages, over the tokens on the from side, each token's
// best pairwise similarity against the to side.
func directionalAverage(from, to []string) float64 {
	var total float64
	for _, f := range from {
		var best float64
		for _, t := range to {
			if sim := PairwiseSimilarity(f, t); sim > best {
				best = sim
			}
			if best == 1 {
				break
			}
		}
		total += best
	}
	return total / float64(len(from))
}
