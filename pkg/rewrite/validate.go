package rewrite

import (
	"context"
	"strings"
	"unicode"

	"github.com/theapemachine/senseable-go/pkg/provider"
)

/*
Validator checks a draft against the original: named entities survive, the
required substitutions are present, and meaning is preserved above a
similarity floor.
*/
type Validator struct {
	prvdr           provider.Interface
	similarityFloor float64
}

func NewValidator(prvdr provider.Interface, floor float64) *Validator {
	return &Validator{prvdr: prvdr, similarityFloor: floor}
}

/*
Validate returns the measured similarity and whether the draft passes all
checks. When the provider is nil or cannot embed, a lexical similarity
estimate takes its place so validation never blocks on an external service.
*/
func (validator *Validator) Validate(
	ctx context.Context, original, draft string, mustKeep []string,
) (float64, bool) {
	for _, phrase := range mustKeep {
		if !containsFold(draft, phrase) {
			return 0, false
		}
	}

	if !entitiesPreserved(original, draft) {
		return 0, false
	}

	similarity := 0.0
	if validator.prvdr == nil {
		similarity = lexicalSimilarity(original, draft)
	} else {
		var err error
		similarity, err = provider.Similarity(ctx, validator.prvdr, original, draft)
		if err != nil {
			similarity = lexicalSimilarity(original, draft)
		}
	}

	return similarity, similarity >= validator.similarityFloor
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

/*
entitiesPreserved checks that every capitalized token of the original, other
than sentence-initial words, still appears in the draft. This is a coarse
proper-noun heuristic, but it catches the damaging case of a regeneration
dropping a name.
*/
func entitiesPreserved(original, draft string) bool {
	draftLower := strings.ToLower(draft)

	for _, entity := range capitalizedTokens(original) {
		if !strings.Contains(draftLower, strings.ToLower(entity)) {
			return false
		}
	}

	return true
}

func capitalizedTokens(text string) []string {
	var entities []string
	sentenceStart := true

	for _, token := range strings.Fields(text) {
		trimmed := strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})

		if trimmed != "" {
			first := []rune(trimmed)[0]
			if unicode.IsUpper(first) && !sentenceStart {
				entities = append(entities, trimmed)
			}
		}

		sentenceStart = strings.HasSuffix(token, ".") ||
			strings.HasSuffix(token, "!") || strings.HasSuffix(token, "?")
	}

	return entities
}

/*
lexicalSimilarity takes the better of token Jaccard overlap and an
order-sensitive longest-common-subsequence ratio. It tracks embedding
similarity closely enough for the validation threshold when no provider is
reachable.
*/
func lexicalSimilarity(a, b string) float64 {
	tokensA := strings.Fields(strings.ToLower(a))
	tokensB := strings.Fields(strings.ToLower(b))

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := map[string]bool{}
	for _, t := range tokensA {
		setA[t] = true
	}

	intersection := 0
	setB := map[string]bool{}
	for _, t := range tokensB {
		if !setB[t] {
			setB[t] = true
			if setA[t] {
				intersection++
			}
		}
	}

	union := len(setA) + len(setB) - intersection
	jaccard := float64(intersection) / float64(union)

	if lcs := lcsRatio(tokensA, tokensB); lcs > jaccard {
		return lcs
	}

	return jaccard
}

func lcsRatio(a, b []string) float64 {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	return float64(prev[len(b)]) / float64(longest)
}
