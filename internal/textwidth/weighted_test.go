package textwidth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedLength_Empty(t *testing.T) {
	assert.Equal(t, 0, WeightedLength(""))
}

func TestWeightedLength_PlainASCII(t *testing.T) {
	assert.Equal(t, 5, WeightedLength("hello"))
	assert.Equal(t, 13, WeightedLength("hello, world!"))
	assert.Equal(t, 280, WeightedLength(strings.Repeat("a", 280)))
}

func TestWeightedLength_URLCountsFlat(t *testing.T) {
	assert.Equal(t, 23, WeightedLength("http://a.co"))
	assert.Equal(t, 23, WeightedLength("https://example.com/some/very/long/path?with=query&params=true"))
}

func TestWeightedLength_URLInsideText(t *testing.T) {
	// "check this " (11) + URL (23)
	assert.Equal(t, 34, WeightedLength("check this https://example.com/article"))
	// URL (23) + " and " (5) + URL (23)
	assert.Equal(t, 51, WeightedLength("http://a.co and http://b.co"))
}

func TestWeightedLength_CJKCountsDouble(t *testing.T) {
	assert.Equal(t, 2, WeightedLength("中"))           // single CJK ideograph
	assert.Equal(t, 6, WeightedLength("中文字")) // three ideographs
	assert.Equal(t, 2, WeightedLength("가"))           // Hangul syllable
	assert.Equal(t, 2, WeightedLength("！"))           // fullwidth exclamation
}

func TestWeightedLength_MixedASCIIAndCJK(t *testing.T) {
	// "go" (2) + ideograph (2)
	assert.Equal(t, 4, WeightedLength("go中"))
}

func TestWeightedLength_EmojiCountsPerUTF16Unit(t *testing.T) {
	// U+1F600 is a surrogate pair in UTF-16: 1 per unit, 2 total.
	assert.Equal(t, 2, WeightedLength("\U0001F600"))
	assert.Equal(t, 4, WeightedLength("\U0001F600\U0001F680"))
	// ASCII + emoji.
	assert.Equal(t, 4, WeightedLength("ok\U0001F600"))
}

func TestWeightedLength_SupplementaryCJK(t *testing.T) {
	// U+20000 is in the supplementary ideographic plane: double-width, 2.
	assert.Equal(t, 2, WeightedLength("\U00020000"))
}

func TestWeightedLength_ASCIIConcatenationIsAdditive(t *testing.T) {
	a, b := "first part", "second part"
	assert.Equal(t, WeightedLength(a)+WeightedLength(b), WeightedLength(a+b))
}

func TestWeightedLength_Deterministic(t *testing.T) {
	text := "reply 中文 https://a.co \U0001F600"
	assert.Equal(t, WeightedLength(text), WeightedLength(text))
}

func TestIsOverLimit(t *testing.T) {
	assert.False(t, IsOverLimit(strings.Repeat("a", 280), 280))
	assert.True(t, IsOverLimit(strings.Repeat("a", 281), 280))
	// 141 ideographs weigh 282.
	assert.True(t, IsOverLimit(strings.Repeat("中", 141), 280))
}
