package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portai/pkg/config"
)

// fakeProvider stands in for the OAuth provider's token and user info
// endpoints.
func fakeProvider(t *testing.T, username string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-123",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"username": username},
		})
	})

	return httptest.NewServer(mux)
}

func testOAuthConfig(providerURL string, ttl time.Duration) config.OAuthConfig {
	return config.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:8080/api/v1/auth/twitter/callback",
		AuthURL:      providerURL + "/oauth2/authorize",
		TokenURL:     providerURL + "/oauth2/token",
		UserInfoURL:  providerURL + "/2/users/me",
		FlowTTL:      ttl,
	}
}

func TestOAuthFlow_BeginToCompleted(t *testing.T) {
	provider := fakeProvider(t, "alice")
	defer provider.Close()

	m := NewOAuthManager(testOAuthConfig(provider.URL, time.Minute))

	flow, authURL := m.Begin()
	assert.Equal(t, FlowPending, flow.Status)
	assert.Contains(t, authURL, "state="+flow.ID)
	assert.Contains(t, authURL, "code_challenge_method=S256")

	status, err := m.Status(flow.ID)
	require.NoError(t, err)
	assert.Equal(t, FlowPending, status.Status)

	completed, err := m.Complete(context.Background(), flow.ID, "good-code")
	require.NoError(t, err)
	assert.Equal(t, FlowCompleted, completed.Status)
	assert.Equal(t, "alice", completed.Handle)

	status, err = m.Status(flow.ID)
	require.NoError(t, err)
	assert.Equal(t, FlowCompleted, status.Status)
	assert.Equal(t, "alice", status.Handle)
}

func TestOAuthFlow_ExchangeFailureMarksFailed(t *testing.T) {
	provider := fakeProvider(t, "alice")
	defer provider.Close()

	m := NewOAuthManager(testOAuthConfig(provider.URL, time.Minute))

	flow, _ := m.Begin()
	_, err := m.Complete(context.Background(), flow.ID, "bad-code")
	require.Error(t, err)

	status, err := m.Status(flow.ID)
	require.NoError(t, err)
	assert.Equal(t, FlowFailed, status.Status)
	assert.NotEmpty(t, status.Error)
}

func TestOAuthFlow_UnknownFlow(t *testing.T) {
	provider := fakeProvider(t, "alice")
	defer provider.Close()

	m := NewOAuthManager(testOAuthConfig(provider.URL, time.Minute))

	_, err := m.Complete(context.Background(), "no-such-flow", "good-code")
	assert.ErrorIs(t, err, ErrFlowNotFound)

	_, err = m.Status("no-such-flow")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestOAuthFlow_CompletedFlowCannotBeReplayed(t *testing.T) {
	provider := fakeProvider(t, "alice")
	defer provider.Close()

	m := NewOAuthManager(testOAuthConfig(provider.URL, time.Minute))

	flow, _ := m.Begin()
	_, err := m.Complete(context.Background(), flow.ID, "good-code")
	require.NoError(t, err)

	_, err = m.Complete(context.Background(), flow.ID, "good-code")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestOAuthFlow_Expiry(t *testing.T) {
	provider := fakeProvider(t, "alice")
	defer provider.Close()

	m := NewOAuthManager(testOAuthConfig(provider.URL, 10*time.Millisecond))

	flow, _ := m.Begin()
	time.Sleep(20 * time.Millisecond)

	_, err := m.Status(flow.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestOAuthFlow_ExplicitFail(t *testing.T) {
	provider := fakeProvider(t, "alice")
	defer provider.Close()

	m := NewOAuthManager(testOAuthConfig(provider.URL, time.Minute))

	flow, _ := m.Begin()
	m.Fail(flow.ID, "access_denied")

	status, err := m.Status(flow.ID)
	require.NoError(t, err)
	assert.Equal(t, FlowFailed, status.Status)
	assert.Equal(t, "access_denied", status.Error)
}
