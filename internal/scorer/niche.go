package scorer

import "strings"

// NicheOther is assigned when no category keywords match.
const NicheOther = "other"

// nicheCategory ties a niche to its classifier keywords, its eligibility
// density bonus, and its monetization tier. Declaration order breaks
// classification ties.
type nicheCategory struct {
	name     string
	keywords []string
	bonus    float64
	tier     float64
}

var nicheCategories = []nicheCategory{
	{
		name: "tech",
		keywords: []string{
			"ai", "saas", "startup", "software", "developer", "coding",
			"programming", "api", "cloud", "open source", "machine learning",
		},
		bonus: 0.15,
		tier:  25,
	},
	{
		name: "finance",
		keywords: []string{
			"investing", "stocks", "portfolio", "dividend", "trading",
			"wealth", "retirement", "etf", "market",
		},
		bonus: 0.12,
		tier:  22,
	},
	{
		name: "crypto",
		keywords: []string{
			"bitcoin", "ethereum", "crypto", "defi", "blockchain", "web3",
			"token", "nft",
		},
		bonus: 0.12,
		tier:  20,
	},
	{
		name: "marketing",
		keywords: []string{
			"marketing", "seo", "branding", "copywriting", "growth",
			"audience", "funnel", "conversion",
		},
		bonus: 0.10,
		tier:  15,
	},
	{
		name: "creator",
		keywords: []string{
			"creator", "newsletter", "youtube", "podcast", "content",
			"monetize", "subscriber",
		},
		bonus: 0.08,
		tier:  12,
	},
}

// otherTier is the monetization tier for unclassified items.
const otherTier = 5

// ClassifyNiche assigns text to the category with the most keyword hits.
// Ties go to the earlier declared category; zero hits everywhere yields
// NicheOther.
func ClassifyNiche(text string) string {
	lower := strings.ToLower(text)

	best := NicheOther
	bestHits := 0
	for _, cat := range nicheCategories {
		hits := 0
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = cat.name
			bestHits = hits
		}
	}
	return best
}

// nicheBonus returns the eligibility density bonus for a niche, capped.
func nicheBonus(niche string, cap float64) float64 {
	for _, cat := range nicheCategories {
		if cat.name == niche {
			if cat.bonus > cap {
				return cap
			}
			return cat.bonus
		}
	}
	return 0
}

// nicheTier returns the monetization tier for a niche.
func nicheTier(niche string) float64 {
	for _, cat := range nicheCategories {
		if cat.name == niche {
			return cat.tier
		}
	}
	return otherTier
}

// KnownNiches lists the classifier categories in declaration order,
// excluding NicheOther.
func KnownNiches() []string {
	out := make([]string, len(nicheCategories))
	for i, cat := range nicheCategories {
		out[i] = cat.name
	}
	return out
}
