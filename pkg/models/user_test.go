package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToleranceForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Tolerance
	}{
		{0, ToleranceLow},
		{20, ToleranceLow},
		{39, ToleranceLow},
		{40, ToleranceMedium},
		{59, ToleranceMedium},
		{60, ToleranceHigh},
		{79, ToleranceHigh},
		{100, ToleranceHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToleranceForScore(tt.score), "score %d", tt.score)
	}
}

func TestTolerance_Valid(t *testing.T) {
	assert.True(t, ToleranceLow.Valid())
	assert.True(t, ToleranceMedium.Valid())
	assert.True(t, ToleranceHigh.Valid())
	assert.False(t, Tolerance("extreme").Valid())
	assert.False(t, Tolerance("").Valid())
}

func TestUserRecord_Analyzed(t *testing.T) {
	user := &UserRecord{WalletAddress: "0xABC"}
	assert.False(t, user.Analyzed())

	user.RiskProfile = &RiskProfile{Score: 50, Tolerance: ToleranceMedium}
	assert.False(t, user.Analyzed(), "both fields must be populated")

	user.Recommendations = &Recommendations{Assets: []AssetAllocation{{Symbol: "BTC", Percentage: 100}}}
	assert.True(t, user.Analyzed())
}

func TestUserRecord_CloneIsDeep(t *testing.T) {
	user := &UserRecord{
		ID:            7,
		WalletAddress: "0xABC",
		RiskProfile:   &RiskProfile{Score: 42, Tolerance: ToleranceMedium, Factors: []string{"a", "b"}},
		Recommendations: &Recommendations{
			Assets: []AssetAllocation{{Symbol: "ETH", Name: "Ethereum", Percentage: 100, Reason: "r"}},
		},
	}

	clone := user.Clone()
	assert.Equal(t, user, clone)

	clone.RiskProfile.Factors[0] = "mutated"
	clone.Recommendations.Assets[0].Percentage = 1

	assert.Equal(t, "a", user.RiskProfile.Factors[0])
	assert.Equal(t, 100, user.Recommendations.Assets[0].Percentage)
}
