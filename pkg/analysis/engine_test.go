package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portai/pkg/models"
)

func TestAnalyze_Deterministic(t *testing.T) {
	engine := NewEngine()

	first, firstRecs := engine.Analyze("0xDEADBEEF")
	second, secondRecs := engine.Analyze("0xDEADBEEF")

	assert.Equal(t, first, second)
	assert.Equal(t, firstRecs, secondRecs)
}

func TestAnalyze_KnownWallet(t *testing.T) {
	engine := NewEngine()

	// Character codes of this address sum to 2046; 2046 % 60 + 20 = 26.
	profile, recs := engine.Analyze("0x1111111111111111111111111111111111111A")

	assert.Equal(t, 26, profile.Score)
	assert.Equal(t, models.ToleranceLow, profile.Tolerance)
	assert.Len(t, profile.Factors, 5)
	assertAllocationInvariants(t, recs.Assets)
}

func TestAnalyze_ScoreRange(t *testing.T) {
	engine := NewEngine()

	inputs := []string{
		"a", "z", "0xABC", "0xDEADBEEF", "wallet-1",
		"0x0000000000000000000000000000000000000000",
		"some fairly long identity string with spaces",
	}
	for i := 0; i < 200; i++ {
		inputs = append(inputs, fmt.Sprintf("0x%040d", i))
	}

	for _, in := range inputs {
		profile, _ := engine.Analyze(in)
		assert.GreaterOrEqual(t, profile.Score, 20, "input %q", in)
		assert.LessOrEqual(t, profile.Score, 79, "input %q", in)
		assert.Equal(t, models.ToleranceForScore(profile.Score), profile.Tolerance, "input %q", in)
	}
}

func TestAnalyze_EmptyIdentityDegenerate(t *testing.T) {
	engine := NewEngine()

	profile, recs := engine.Analyze("")

	assert.Equal(t, 20, profile.Score)
	assert.Equal(t, models.ToleranceLow, profile.Tolerance)
	assertAllocationInvariants(t, recs.Assets)
}

func TestAllocate_SumsToExactlyHundred(t *testing.T) {
	for _, tolerance := range []models.Tolerance{models.ToleranceLow, models.ToleranceMedium, models.ToleranceHigh} {
		t.Run(string(tolerance), func(t *testing.T) {
			assets := allocate(tolerance)
			assertAllocationInvariants(t, assets)
		})
	}
}

func TestAllocate_FiltersZeroWeightCandidates(t *testing.T) {
	symbols := func(assets []models.AssetAllocation) map[string]bool {
		out := make(map[string]bool)
		for _, a := range assets {
			out[a.Symbol] = true
		}
		return out
	}

	low := symbols(allocate(models.ToleranceLow))
	assert.False(t, low["SLV"])
	assert.False(t, low["SOL"])
	assert.Len(t, low, 8)

	medium := symbols(allocate(models.ToleranceMedium))
	assert.False(t, medium["SLV"])
	assert.False(t, medium["SOL"])
	assert.Len(t, medium, 8)

	high := symbols(allocate(models.ToleranceHigh))
	assert.True(t, high["SLV"])
	assert.True(t, high["SOL"])
	assert.Len(t, high, 10)
}

func TestAllocate_MediumResidualGoesToHeaviest(t *testing.T) {
	// The medium table sums to 108; naive rounding leaves the percentages
	// at 99, and the point goes to VOO (weight 30).
	assets := allocate(models.ToleranceMedium)

	bySymbol := make(map[string]models.AssetAllocation)
	for _, a := range assets {
		bySymbol[a.Symbol] = a
	}

	assert.Equal(t, 29, bySymbol["VOO"].Percentage)
	assert.Equal(t, 14, bySymbol["VGK"].Percentage)
	assert.Equal(t, 19, bySymbol["BND"].Percentage)
	assert.Equal(t, 9, bySymbol["GLD"].Percentage)
	assert.Equal(t, 6, bySymbol["DBA"].Percentage)
	assert.Equal(t, 7, bySymbol["VEGI"].Percentage)
	assert.Equal(t, 9, bySymbol["BTC"].Percentage)
	assert.Equal(t, 7, bySymbol["ETH"].Percentage)
}

func TestAnalyze_ToleranceDrivesAllocation(t *testing.T) {
	engine := NewEngine()

	// Score 72 -> high tolerance -> speculative assets included.
	profile, recs := engine.Analyze("0xDEADBEEF")
	require.Equal(t, models.ToleranceHigh, profile.Tolerance)

	var hasSOL bool
	for _, a := range recs.Assets {
		if a.Symbol == "SOL" {
			hasSOL = true
		}
	}
	assert.True(t, hasSOL)
}

func assertAllocationInvariants(t *testing.T, assets []models.AssetAllocation) {
	t.Helper()

	require.NotEmpty(t, assets)
	sum := 0
	seen := make(map[string]bool)
	for _, a := range assets {
		assert.NotZero(t, a.Percentage, "asset %s has zero allocation", a.Symbol)
		assert.NotEmpty(t, a.Name)
		assert.NotEmpty(t, a.Reason)
		assert.False(t, seen[a.Symbol], "duplicate symbol %s", a.Symbol)
		seen[a.Symbol] = true
		sum += a.Percentage
	}
	assert.Equal(t, 100, sum)
}
