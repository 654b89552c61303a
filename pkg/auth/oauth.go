package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"portai/pkg/config"
)

// FlowStatus is the state of one OAuth handshake. A flow starts pending
// (awaiting external confirmation in the provider popup) and ends either
// completed or failed; there are no other transitions.
type FlowStatus string

const (
	FlowPending   FlowStatus = "pending"
	FlowCompleted FlowStatus = "completed"
	FlowFailed    FlowStatus = "failed"
)

// ErrFlowNotFound is returned for unknown or expired flow ids.
var ErrFlowNotFound = errors.New("oauth flow not found")

// Flow tracks a single OAuth2 authorization attempt across the redirect
// round trip. The id doubles as the OAuth state parameter.
type Flow struct {
	ID        string     `json:"id"`
	Status    FlowStatus `json:"status"`
	Handle    string     `json:"handle,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	verifier string
}

// OAuthManager owns the in-flight OAuth flows and the provider settings.
// Flows are polled by the UI while the popup completes externally.
type OAuthManager struct {
	oauth       *oauth2.Config
	userInfoURL string
	ttl         time.Duration

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewOAuthManager creates a manager from the service configuration.
func NewOAuthManager(cfg config.OAuthConfig) *OAuthManager {
	return &OAuthManager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"users.read", "tweet.read", "follows.read", "offline.access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		ttl:         cfg.FlowTTL,
		flows:       make(map[string]*Flow),
	}
}

// Begin starts a new flow and returns it along with the provider
// authorization URL the UI should open in a popup.
func (m *OAuthManager) Begin() (*Flow, string) {
	verifier := oauth2.GenerateVerifier()
	flow := &Flow{
		ID:        xid.New().String(),
		Status:    FlowPending,
		CreatedAt: time.Now(),
		verifier:  verifier,
	}

	m.mu.Lock()
	m.pruneLocked()
	m.flows[flow.ID] = flow
	m.mu.Unlock()

	authURL := m.oauth.AuthCodeURL(flow.ID, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	return flow.snapshot(), authURL
}

// Complete exchanges the authorization code for a token, resolves the
// authenticated handle, and moves the flow to completed. Any failure moves
// the flow to failed and is returned to the caller.
func (m *OAuthManager) Complete(ctx context.Context, flowID, code string) (*Flow, error) {
	m.mu.Lock()
	flow, ok := m.flows[flowID]
	if !ok || flow.Status != FlowPending {
		m.mu.Unlock()
		return nil, ErrFlowNotFound
	}
	verifier := flow.verifier
	m.mu.Unlock()

	token, err := m.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		m.fail(flowID, fmt.Sprintf("code exchange failed: %v", err))
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	handle, err := m.fetchHandle(ctx, token)
	if err != nil {
		m.fail(flowID, fmt.Sprintf("handle lookup failed: %v", err))
		return nil, err
	}

	m.mu.Lock()
	flow.Status = FlowCompleted
	flow.Handle = handle
	snapshot := flow.snapshot()
	m.mu.Unlock()

	logrus.WithField("handle", handle).Info("OAuth flow completed")
	return snapshot, nil
}

// Fail marks a pending flow as failed with the given reason.
func (m *OAuthManager) Fail(flowID, reason string) {
	m.fail(flowID, reason)
}

// Status returns the current state of a flow for polling clients.
func (m *OAuthManager) Status(flowID string) (*Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flow, ok := m.flows[flowID]
	if !ok || time.Since(flow.CreatedAt) > m.ttl {
		return nil, ErrFlowNotFound
	}
	return flow.snapshot(), nil
}

func (m *OAuthManager) fail(flowID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if flow, ok := m.flows[flowID]; ok && flow.Status == FlowPending {
		flow.Status = FlowFailed
		flow.Error = reason
	}
}

// fetchHandle calls the provider's user info endpoint with the exchanged
// token and extracts the username.
func (m *OAuthManager) fetchHandle(ctx context.Context, token *oauth2.Token) (string, error) {
	client := m.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build user info request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info request returned %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode user info: %w", err)
	}
	if body.Data.Username == "" {
		return "", errors.New("user info response missing username")
	}

	return body.Data.Username, nil
}

// pruneLocked drops flows older than the TTL. Caller holds m.mu.
func (m *OAuthManager) pruneLocked() {
	for id, flow := range m.flows {
		if time.Since(flow.CreatedAt) > m.ttl {
			delete(m.flows, id)
		}
	}
}

func (f *Flow) snapshot() *Flow {
	out := *f
	out.verifier = ""
	return &out
}
