package models

// Tolerance is the coarse risk-appetite classification derived from the
// numeric risk score.
type Tolerance string

const (
	ToleranceLow    Tolerance = "low"
	ToleranceMedium Tolerance = "medium"
	ToleranceHigh   Tolerance = "high"
)

// Tolerance thresholds on the 0-100 risk score.
const (
	mediumToleranceScore = 40
	highToleranceScore   = 60
)

// ToleranceForScore maps a risk score to its tolerance band.
func ToleranceForScore(score int) Tolerance {
	switch {
	case score < mediumToleranceScore:
		return ToleranceLow
	case score < highToleranceScore:
		return ToleranceMedium
	default:
		return ToleranceHigh
	}
}

// Valid reports whether t is one of the known tolerance bands.
func (t Tolerance) Valid() bool {
	switch t {
	case ToleranceLow, ToleranceMedium, ToleranceHigh:
		return true
	}
	return false
}

// RiskProfile is the scored half of an analysis result.
type RiskProfile struct {
	Score     int       `json:"score"`
	Tolerance Tolerance `json:"tolerance"`
	Factors   []string  `json:"factors"`
}

// AssetAllocation is one line item of a recommended portfolio.
type AssetAllocation struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	Reason     string `json:"reason"`
}

// Recommendations holds the allocated portfolio. Percentages across Assets
// always sum to exactly 100.
type Recommendations struct {
	Assets []AssetAllocation `json:"assets"`
}

// UserRecord represents one registered wallet and its analysis state.
// RiskProfile and Recommendations are nil until analysis has run; they are
// always populated together.
type UserRecord struct {
	ID              uint64           `json:"id"`
	WalletAddress   string           `json:"walletAddress"`
	TwitterHandle   string           `json:"twitterHandle,omitempty"`
	TelegramHandle  string           `json:"telegramHandle,omitempty"`
	DiscordHandle   string           `json:"discordHandle,omitempty"`
	RiskProfile     *RiskProfile     `json:"riskProfile"`
	Recommendations *Recommendations `json:"recommendations"`
}

// Analyzed reports whether the record has left the unanalyzed state.
func (u *UserRecord) Analyzed() bool {
	return u.RiskProfile != nil && u.Recommendations != nil
}

// Clone returns a deep copy so callers can hand records across API
// boundaries without exposing store-owned memory.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	out := *u
	if u.RiskProfile != nil {
		rp := *u.RiskProfile
		rp.Factors = append([]string(nil), u.RiskProfile.Factors...)
		out.RiskProfile = &rp
	}
	if u.Recommendations != nil {
		rec := Recommendations{Assets: append([]AssetAllocation(nil), u.Recommendations.Assets...)}
		out.Recommendations = &rec
	}
	return &out
}
