package analysis

import (
	"github.com/shopspring/decimal"

	"portai/pkg/models"
)

// Engine produces a risk profile and asset allocation from an identity
// string. It is pure: no I/O, no clock, no randomness. The same identity
// always yields the same result for a given build of the weight tables.
type Engine struct{}

// NewEngine creates an analysis engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Risk score derivation constants. The seed is folded into [20, 79].
const (
	scoreRange = 60
	scoreFloor = 20
)

// candidate is one entry of the fixed allocation table. A zero weight for a
// tolerance band means the asset is excluded for that band.
type candidate struct {
	symbol string
	name   string
	weight map[models.Tolerance]int64
	reason string
}

var candidates = []candidate{
	{
		symbol: "VOO",
		name:   "Vanguard S&P 500 ETF",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 25, models.ToleranceMedium: 30, models.ToleranceHigh: 35},
		reason: "Based on your social media engagement with financial news and market analysis accounts, you show interest in broad market exposure. The S&P 500 ETF aligns with your preference for established companies frequently mentioned in your timeline.",
	},
	{
		symbol: "VGK",
		name:   "Vanguard FTSE Europe ETF",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 10, models.ToleranceMedium: 15, models.ToleranceHigh: 15},
		reason: "Your interaction with European market news and following of EU-based analysts suggests potential interest in European market exposure. This ETF provides diversification into stable European economies.",
	},
	{
		symbol: "BND",
		name:   "Vanguard Total Bond ETF",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 30, models.ToleranceMedium: 20, models.ToleranceHigh: 10},
		reason: "Analysis of your risk tolerance and social media sentiment shows a preference for stability. Your engagement with content about passive income and wealth preservation aligns with bond allocation.",
	},
	{
		symbol: "GLD",
		name:   "SPDR Gold Shares",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 10, models.ToleranceMedium: 10, models.ToleranceHigh: 10},
		reason: "Your recent interactions with posts about inflation hedging and following of commodity analysts indicate interest in gold. This allocation provides portfolio protection against market volatility you've expressed concern about.",
	},
	{
		symbol: "SLV",
		name:   "iShares Silver Trust",
		weight: map[models.Tolerance]int64{models.ToleranceHigh: 5},
		reason: "Given your engagement with industrial metals and technology manufacturing content, silver exposure aligns with your interest in both precious metals and industrial applications.",
	},
	{
		symbol: "DBA",
		name:   "Invesco DB Agriculture Fund",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 5, models.ToleranceMedium: 7, models.ToleranceHigh: 7},
		reason: "Your recent interactions with sustainable agriculture and food security content suggest interest in agricultural commodities. This fund provides exposure to essential agricultural futures markets.",
	},
	{
		symbol: "VEGI",
		name:   "iShares MSCI Global Agriculture",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 5, models.ToleranceMedium: 8, models.ToleranceHigh: 8},
		reason: "Based on your follows of sustainable farming initiatives and agricultural technology companies, this ETF aligns with your interest in the future of agriculture and food production.",
	},
	{
		symbol: "BTC",
		name:   "Bitcoin",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 5, models.ToleranceMedium: 10, models.ToleranceHigh: 15},
		reason: "Analysis of your wallet history shows regular Bitcoin transactions and engagement with Bitcoin development discussions. Your social media activity indicates strong belief in Bitcoin as a store of value.",
	},
	{
		symbol: "ETH",
		name:   "Ethereum",
		weight: map[models.Tolerance]int64{models.ToleranceLow: 5, models.ToleranceMedium: 8, models.ToleranceHigh: 12},
		reason: "Your wallet shows interaction with Ethereum DeFi protocols and NFT platforms. Your social engagement with Ethereum developers and DeFi projects suggests belief in the ecosystem's growth.",
	},
	{
		symbol: "SOL",
		name:   "Solana",
		weight: map[models.Tolerance]int64{models.ToleranceHigh: 5},
		reason: "Your recent interactions with Solana developers and enthusiasm about high-performance blockchains in your social posts indicate interest in next-generation blockchain platforms.",
	},
}

var riskFactors = []string{
	"Social media sentiment analysis of financial content",
	"Wallet transaction patterns and DeFi engagement",
	"Following patterns of market analysts and experts",
	"Engagement with financial news and discussions",
	"Historical investment behavior analysis",
}

// Analyze computes the risk profile and normalized asset allocation for an
// identity string. The empty string yields the degenerate low-risk result
// (score 20); callers are expected to reject empty identities upstream.
func (e *Engine) Analyze(identity string) (models.RiskProfile, models.Recommendations) {
	score := riskScore(identity)
	tolerance := models.ToleranceForScore(score)

	profile := models.RiskProfile{
		Score:     score,
		Tolerance: tolerance,
		Factors:   append([]string(nil), riskFactors...),
	}

	return profile, models.Recommendations{Assets: allocate(tolerance)}
}

// riskScore folds the identity's character codes into [20, 79]. The sum is
// order independent, so accumulation order never affects the result.
func riskScore(identity string) int {
	var seed int64
	for _, r := range identity {
		seed += int64(r)
	}
	return int(seed%scoreRange) + scoreFloor
}

// allocate filters the candidate table for the tolerance band and normalizes
// the surviving weights to integer percentages summing to exactly 100.
func allocate(tolerance models.Tolerance) []models.AssetAllocation {
	type picked struct {
		candidate
		w int64
	}

	var (
		survivors []picked
		total     int64
	)
	for _, c := range candidates {
		if w := c.weight[tolerance]; w > 0 {
			survivors = append(survivors, picked{candidate: c, w: w})
			total += w
		}
	}

	totalDec := decimal.NewFromInt(total)
	assets := make([]models.AssetAllocation, 0, len(survivors))
	sum := 0
	largest := 0
	for i, s := range survivors {
		pct := int(decimal.NewFromInt(s.w * 100).Div(totalDec).Round(0).IntPart())
		assets = append(assets, models.AssetAllocation{
			Symbol:     s.symbol,
			Name:       s.name,
			Percentage: pct,
			Reason:     s.reason,
		})
		sum += pct
		if s.w > survivors[largest].w {
			largest = i
		}
	}

	// Rounding can leave the sum a point or two off 100; the residual goes
	// to the heaviest entry so the invariant holds for every band.
	if residual := 100 - sum; residual != 0 {
		assets[largest].Percentage += residual
	}

	return assets
}
