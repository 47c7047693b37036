package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/utils/log"
)

const (
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatAPIURL   = "https://gigachat.devices.sberbank.ru/api/v1"

	defaultScope     = "GIGACHAT_API_PERS"
	defaultModel     = "GigaChat-2"
	defaultMaxTokens = 1000
	defaultTimeout   = 600 * time.Second
)

// GigaChatConfig is static per client handle; it is not part of the
// per-call interface.
type GigaChatConfig struct {
	Key       string // authorization key for the OAuth exchange
	Scope     string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	OAuthURL  string
	APIURL    string
}

// GigaChatClient talks to the Sber GigaChat REST API. Access tokens are
// fetched lazily and cached until shortly before expiry.
type GigaChatClient struct {
	config GigaChatConfig
	http   *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewGigaChatClient(config GigaChatConfig) (*GigaChatClient, error) {
	if config.Key == "" {
		return nil, &domain.ConfigurationError{Var: "GIGA_KEY"}
	}
	if config.Scope == "" {
		config.Scope = defaultScope
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.OAuthURL == "" {
		config.OAuthURL = gigaChatOAuthURL
	}
	if config.APIURL == "" {
		config.APIURL = gigaChatAPIURL
	}

	return &GigaChatClient{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				// The Sber CA is not in the default trust stores.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}, nil
}

type gigaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gigaChatRequest struct {
	Model     string            `json:"model"`
	Messages  []gigaChatMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

type gigaChatResponse struct {
	Choices []struct {
		Message gigaChatMessage `json:"message"`
	} `json:"choices"`
}

type gigaChatToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
}

// Complete implements domain.Llm.
func (c *GigaChatClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", &domain.ClientError{Provider: "gigachat", Err: err}
	}

	messages := []gigaChatMessage{}
	if prompt.System != "" {
		messages = append(messages, gigaChatMessage{Role: "system", Content: prompt.System})
	}
	messages = append(messages, gigaChatMessage{Role: "user", Content: prompt.User})

	body, err := json.Marshal(gigaChatRequest{
		Model:     c.config.Model,
		Messages:  messages,
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		return "", &domain.ClientError{Provider: "gigachat", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &domain.ClientError{Provider: "gigachat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &domain.ClientError{Provider: "gigachat", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &domain.ClientError{
			Provider: "gigachat",
			Err:      fmt.Errorf("chat/completions returned %d: %s", resp.StatusCode, payload),
		}
	}

	var parsed gigaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &domain.ClientError{Provider: "gigachat", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &domain.ClientError{Provider: "gigachat", Err: fmt.Errorf("response contained no choices")}
	}

	return parsed.Choices[0].Message.Content, nil
}

// token returns a cached access token, refreshing it via the OAuth
// endpoint when it is about to expire.
func (c *GigaChatClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.expiresAt) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{"scope": {c.config.Scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+c.config.Key)
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("oauth returned %d: %s", resp.StatusCode, payload)
	}

	var token gigaChatToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decoding oauth response: %w", err)
	}

	c.accessToken = token.AccessToken
	c.expiresAt = time.UnixMilli(token.ExpiresAt)

	log.WithCtx(ctx).Debug("gigachat token refreshed", zap.Time("expires_at", c.expiresAt))
	return c.accessToken, nil
}
