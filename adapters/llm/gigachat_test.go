package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyshev/ml-research-14team/domain"
)

func newGigaChatTestServer(t *testing.T, oauthCalls *int32, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(oauthCalls, 1)
		assert.Equal(t, "Basic test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("RqUID"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_at":   time.Now().Add(time.Hour).UnixMilli(),
		})
	})

	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req gigaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "GigaChat-2", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(gigaChatResponse{
			Choices: []struct {
				Message gigaChatMessage `json:"message"`
			}{
				{Message: gigaChatMessage{Role: "assistant", Content: reply}},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGigaChatCompleteReusesToken(t *testing.T) {
	var oauthCalls int32
	server := newGigaChatTestServer(t, &oauthCalls, "ответ модели")

	client, err := NewGigaChatClient(GigaChatConfig{
		Key:      "test-key",
		OAuthURL: server.URL + "/oauth",
		APIURL:   server.URL,
	})
	require.NoError(t, err)

	prompt := domain.Prompt{System: "Ты - мошенник.", User: "история"}

	for i := 0; i < 3; i++ {
		reply, err := client.Complete(context.Background(), prompt)
		require.NoError(t, err)
		assert.Equal(t, "ответ модели", reply)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&oauthCalls))
}

func TestGigaChatMissingKeyIsConfigurationError(t *testing.T) {
	_, err := NewGigaChatClient(GigaChatConfig{})
	var confErr *domain.ConfigurationError
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, "GIGA_KEY", confErr.Var)
}

func TestGigaChatUpstreamFailureIsClientError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewGigaChatClient(GigaChatConfig{
		Key:      "test-key",
		OAuthURL: server.URL + "/oauth",
		APIURL:   server.URL,
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), domain.Prompt{User: "история"})
	var clientErr *domain.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, "gigachat", clientErr.Provider)
}
