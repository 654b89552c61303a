package oort

import (
	"context"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"portai/pkg/config"
)

// Fallback replies returned when the upstream agent cannot be reached or
// answers with an unusable shape. The chat surface never errors; it
// degrades to these.
const (
	FallbackUnavailable = "I apologize, but I'm having trouble connecting to my AI services right now. Please try again in a moment."
	FallbackEmptyReply  = "I understand you're asking about investments. However, I'm currently having trouble accessing detailed information. Could you please try asking your question again?"
)

const systemPrompt = "You are portAI, an investment assistant. Answer questions about portfolios, risk, and crypto assets concisely."

// Client is a thin passthrough to an OpenAI-compatible agent endpoint.
type Client struct {
	client  *openai.Client
	agentID string
	timeout time.Duration
}

// NewClient builds a chat client against the configured agent endpoint.
func NewClient(cfg config.OortConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		agentID: cfg.AgentID,
		timeout: cfg.Timeout,
	}
}

// Chat forwards a user message to the agent and returns its reply. Transport
// failures and malformed replies are logged and mapped to fallback text; the
// returned bool reports whether the reply came from the agent.
func (c *Client) Chat(ctx context.Context, message string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.agentID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		logrus.Warnf("Chat agent request failed: %v", err)
		return FallbackUnavailable, false
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		logrus.Warn("Chat agent returned an empty reply")
		return FallbackEmptyReply, false
	}

	return resp.Choices[0].Message.Content, true
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
