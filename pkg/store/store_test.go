package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portai/pkg/analysis"
	"portai/pkg/models"
)

// countingAnalyzer records how many times the engine was invoked.
type countingAnalyzer struct {
	calls int64
}

func (a *countingAnalyzer) Analyze(identity string) (models.RiskProfile, models.Recommendations) {
	atomic.AddInt64(&a.calls, 1)
	return models.RiskProfile{
			Score:     42,
			Tolerance: models.ToleranceMedium,
			Factors:   []string{"test factor"},
		}, models.Recommendations{
			Assets: []models.AssetAllocation{
				{Symbol: "BTC", Name: "Bitcoin", Percentage: 100, Reason: "test"},
			},
		}
}

func (a *countingAnalyzer) count() int64 {
	return atomic.LoadInt64(&a.calls)
}

func TestCreateUser(t *testing.T) {
	s := New(&countingAnalyzer{})

	user, err := s.CreateUser(CreateUserParams{
		WalletAddress: "0xABC",
		TwitterHandle: "@alice",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), user.ID)
	assert.Equal(t, "0xABC", user.WalletAddress)
	assert.Equal(t, "@alice", user.TwitterHandle)
	assert.Nil(t, user.RiskProfile)
	assert.Nil(t, user.Recommendations)
}

func TestCreateUser_RequiresWalletAddress(t *testing.T) {
	s := New(&countingAnalyzer{})

	_, err := s.CreateUser(CreateUserParams{TwitterHandle: "@alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, s.Len())
}

func TestCreateUser_UpsertKeepsCanonicalRecord(t *testing.T) {
	s := New(&countingAnalyzer{})

	first, err := s.CreateUser(CreateUserParams{WalletAddress: "0xABC", TwitterHandle: "@alice"})
	require.NoError(t, err)

	// Analysis runs so we can verify the merge leaves it untouched.
	_, err = s.GetOrCreateAndAnalyze("0xABC")
	require.NoError(t, err)

	second, err := s.CreateUser(CreateUserParams{WalletAddress: "0xABC", TelegramHandle: "alice_tg"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "@alice", second.TwitterHandle)
	assert.Equal(t, "alice_tg", second.TelegramHandle)
	assert.NotNil(t, second.RiskProfile)
	assert.Equal(t, 1, s.Len())

	got, ok := s.GetUser("0xABC")
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestGetUser_Missing(t *testing.T) {
	s := New(&countingAnalyzer{})

	user, ok := s.GetUser("0xNOPE")
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestUpdateUserAnalysis_NotFound(t *testing.T) {
	s := New(&countingAnalyzer{})

	_, err := s.UpdateUserAnalysis("0xNOPE", models.RiskProfile{}, models.Recommendations{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateUserAnalysis_ReplacesOnlyAnalysisFields(t *testing.T) {
	s := New(&countingAnalyzer{})

	_, err := s.CreateUser(CreateUserParams{WalletAddress: "0xABC", TwitterHandle: "@alice"})
	require.NoError(t, err)

	profile := models.RiskProfile{Score: 61, Tolerance: models.ToleranceHigh, Factors: []string{"f"}}
	recs := models.Recommendations{Assets: []models.AssetAllocation{{Symbol: "SOL", Name: "Solana", Percentage: 100, Reason: "r"}}}

	user, err := s.UpdateUserAnalysis("0xABC", profile, recs)
	require.NoError(t, err)

	assert.Equal(t, "@alice", user.TwitterHandle)
	assert.Equal(t, &profile, user.RiskProfile)
	assert.Equal(t, &recs, user.Recommendations)
}

func TestGetOrCreateAndAnalyze_CreatesAndAnalyzes(t *testing.T) {
	analyzer := &countingAnalyzer{}
	s := New(analyzer)

	user, err := s.GetOrCreateAndAnalyze("0xABC")
	require.NoError(t, err)

	assert.True(t, user.Analyzed())
	assert.Equal(t, int64(1), analyzer.count())
}

func TestGetOrCreateAndAnalyze_Idempotent(t *testing.T) {
	analyzer := &countingAnalyzer{}
	s := New(analyzer)

	first, err := s.GetOrCreateAndAnalyze("0xABC")
	require.NoError(t, err)

	second, err := s.GetOrCreateAndAnalyze("0xABC")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), analyzer.count())
}

func TestGetOrCreateAndAnalyze_RejectsEmptyWallet(t *testing.T) {
	s := New(&countingAnalyzer{})

	_, err := s.GetOrCreateAndAnalyze("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestGetOrCreateAndAnalyze_ConcurrentSingleAnalysis(t *testing.T) {
	analyzer := &countingAnalyzer{}
	s := New(analyzer)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetOrCreateAndAnalyze("0xABC")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), analyzer.count())
	assert.Equal(t, 1, s.Len())
}

func TestListUsers_IDOrder(t *testing.T) {
	s := New(&countingAnalyzer{})

	for _, wallet := range []string{"0xC", "0xA", "0xB"} {
		_, err := s.CreateUser(CreateUserParams{WalletAddress: wallet})
		require.NoError(t, err)
	}

	users := s.ListUsers()
	require.Len(t, users, 3)
	assert.Equal(t, uint64(1), users[0].ID)
	assert.Equal(t, uint64(2), users[1].ID)
	assert.Equal(t, uint64(3), users[2].ID)
	assert.Equal(t, "0xC", users[0].WalletAddress)
}

func TestGetOrCreateAndAnalyze_WithRealEngine(t *testing.T) {
	s := New(analysis.NewEngine())

	user, err := s.GetOrCreateAndAnalyze("0x1111111111111111111111111111111111111A")
	require.NoError(t, err)
	require.NotNil(t, user.RiskProfile)
	require.NotNil(t, user.Recommendations)

	assert.Equal(t, 26, user.RiskProfile.Score)
	assert.Equal(t, models.ToleranceLow, user.RiskProfile.Tolerance)

	sum := 0
	for _, a := range user.Recommendations.Assets {
		sum += a.Percentage
	}
	assert.Equal(t, 100, sum)
}
