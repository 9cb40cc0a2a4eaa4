package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestStrategy_PicksHighestBlend(t *testing.T) {
	strategies := []Strategy{
		{Text: "middling take", Approach: "question", AlgorithmScore: 0.5, MonetizationScore: 0.5},
		{Text: "sharp take", Approach: "insight", AlgorithmScore: 0.9, MonetizationScore: 0.8},
		{Text: "weak take", Approach: "agreement", AlgorithmScore: 0.2, MonetizationScore: 0.3},
	}

	best, ok := BestStrategy(strategies, 280)
	assert.True(t, ok)
	assert.Equal(t, "sharp take", best.Text)
}

func TestBestStrategy_SkipsOverLimit(t *testing.T) {
	strategies := []Strategy{
		{Text: strings.Repeat("a", 300), AlgorithmScore: 1.0, MonetizationScore: 1.0},
		{Text: "fits fine", AlgorithmScore: 0.4, MonetizationScore: 0.4},
	}

	best, ok := BestStrategy(strategies, 280)
	assert.True(t, ok)
	assert.Equal(t, "fits fine", best.Text)
}

func TestBestStrategy_NoneFits(t *testing.T) {
	strategies := []Strategy{
		{Text: strings.Repeat("a", 300), AlgorithmScore: 1.0, MonetizationScore: 1.0},
		{Text: "", AlgorithmScore: 0.9, MonetizationScore: 0.9},
	}

	_, ok := BestStrategy(strategies, 280)
	assert.False(t, ok)
}

func TestBestStrategy_Empty(t *testing.T) {
	_, ok := BestStrategy(nil, 280)
	assert.False(t, ok)
}

func TestBestStrategy_TiesKeepProviderOrder(t *testing.T) {
	strategies := []Strategy{
		{Text: "first", AlgorithmScore: 0.6, MonetizationScore: 0.6},
		{Text: "second", AlgorithmScore: 0.6, MonetizationScore: 0.6},
	}

	best, ok := BestStrategy(strategies, 280)
	assert.True(t, ok)
	assert.Equal(t, "first", best.Text)
}
