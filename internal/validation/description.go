package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DescriptionMinLength and DescriptionMaxLength are the hard bounds of a
	// job description.
	DescriptionMinLength = 50
	DescriptionMaxLength = 10000

	shortContentThreshold = 100
	minKeywordMatches     = 3
	repetitionRatio       = 0.05
	repetitionMinTokenLen = 3 // tokens longer than this count towards repetition
)

// descriptionKeywords is the fixed set a useful job description is expected
// to touch. Fewer than minKeywordMatches present downgrades the description
// with a warning, never an error.
var descriptionKeywords = []string{
	"experience",
	"skills",
	"requirements",
	"responsibilities",
	"qualifications",
	"role",
	"team",
}

// DescriptionQuality bounds the description length and downgrades thin
// content. Quality findings are warnings only; submission stays possible.
func DescriptionQuality() Rule {
	length := Length(DescriptionMinLength, DescriptionMaxLength)
	return func(value any) Result {
		result := length(value)
		if !result.Valid() {
			return result
		}
		s, ok := value.(string)
		if !ok {
			return result
		}

		if utf8.RuneCountInString(s) < shortContentThreshold {
			result.addWarning(CodeShortContent,
				"description is quite short, more detail may improve analysis quality")
		}

		tokens := tokenize(s)

		if matches := keywordMatches(tokens); matches < minKeywordMatches {
			result.addWarning(CodeIncompleteContent,
				fmt.Sprintf("description mentions only %d of the expected topics (%s)",
					matches, strings.Join(descriptionKeywords, ", ")))
		}

		if token := dominantToken(tokens); token != "" {
			result.addWarning(CodeRepetitiveContent,
				fmt.Sprintf("the word %q repeats unusually often", token))
		}

		return result
	}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func keywordMatches(tokens []string) int {
	present := map[string]struct{}{}
	for _, t := range tokens {
		present[t] = struct{}{}
	}
	matches := 0
	for _, kw := range descriptionKeywords {
		if _, ok := present[kw]; ok {
			matches++
		}
	}
	return matches
}

// dominantToken returns the first token longer than repetitionMinTokenLen
// that makes up more than repetitionRatio of all tokens, or "".
func dominantToken(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	counts := map[string]int{}
	for _, t := range tokens {
		if utf8.RuneCountInString(t) > repetitionMinTokenLen {
			counts[t]++
		}
	}
	threshold := float64(len(tokens)) * repetitionRatio
	for _, t := range tokens {
		if c, ok := counts[t]; ok && float64(c) > threshold {
			return t
		}
	}
	return ""
}
