// Package textwidth computes the platform's effective character count for
// reply text. The platform does not count characters one-to-one: URLs are
// compacted to a fixed length and East Asian scripts count double.
package textwidth

import "regexp"

// URLWeight is the fixed cost the platform assigns to any URL, regardless of
// its actual length.
const URLWeight = 23

// urlPattern matches scheme://non-whitespace greedily. The platform wraps
// every link through its shortener, so the real URL length never matters.
var urlPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.\-]*://\S+`)

// doubleWidthRanges lists the code point ranges the platform counts as two
// units: CJK ideographs (including extension planes and compatibility
// forms), Hangul syllables and Jamo, fullwidth forms and signs, CJK
// punctuation and brackets, and vertical forms.
var doubleWidthRanges = [][2]rune{
	{0x1100, 0x115F},   // Hangul Jamo
	{0x2E80, 0x303E},   // CJK radicals, Kangxi, CJK punctuation/brackets
	{0x3041, 0x33FF},   // Hiragana through CJK compatibility
	{0x3400, 0x4DBF},   // CJK unified ideographs extension A
	{0x4E00, 0x9FFF},   // CJK unified ideographs
	{0xA000, 0xA4CF},   // Yi syllables
	{0xAC00, 0xD7A3},   // Hangul syllables
	{0xF900, 0xFAFF},   // CJK compatibility ideographs
	{0xFE30, 0xFE4F},   // vertical forms, CJK compatibility forms
	{0xFF00, 0xFF60},   // fullwidth forms
	{0xFFE0, 0xFFE6},   // fullwidth signs
	{0x20000, 0x2FFFD}, // CJK ideographs, supplementary plane
	{0x30000, 0x3FFFD}, // CJK ideographs, tertiary plane
}

// WeightedLength returns the platform's display length for text. URLs count
// URLWeight each. Code points in the double-width ranges count 2. Every
// other code point counts 1 per UTF-16 code unit, so a supplementary-plane
// code point outside the CJK ranges (most emoji) counts 2. That matches the
// platform's documented emoji weight, so the per-unit counting must not be
// replaced with per-code-point counting.
func WeightedLength(text string) int {
	if text == "" {
		return 0
	}

	total := 0
	rest := text
	for {
		loc := urlPattern.FindStringIndex(rest)
		if loc == nil {
			total += spanWeight(rest)
			break
		}
		total += spanWeight(rest[:loc[0]])
		total += URLWeight
		rest = rest[loc[1]:]
	}
	return total
}

// IsOverLimit reports whether text exceeds the given weighted-length limit.
func IsOverLimit(text string, limit int) bool {
	return WeightedLength(text) > limit
}

func spanWeight(span string) int {
	w := 0
	for _, r := range span {
		switch {
		case isDoubleWidth(r):
			w += 2
		case r > 0xFFFF:
			// Surrogate pair in UTF-16: one unit per half.
			w += 2
		default:
			w++
		}
	}
	return w
}

func isDoubleWidth(r rune) bool {
	for _, rng := range doubleWidthRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}
