package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyshev/ml-research-14team/adapters/message_broker"
	"github.com/yanyshev/ml-research-14team/adapters/websocket"
	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/usecase"
)

type staticLlm struct {
	reply string
}

func (s staticLlm) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	return s.reply, nil
}

func newTestHandler(t *testing.T) (*SimulationHandler, *message_broker.ChannelMessageBroker) {
	t.Helper()
	registry, err := usecase.NewRegistry()
	require.NoError(t, err)

	broker := message_broker.NewChannelMessageBroker()
	t.Cleanup(func() { broker.Close() })

	simulator := usecase.NewSimulator(staticLlm{reply: "реплика"}, registry)
	// A bare hub: wiring the full websocket server here would add a second
	// subscriber competing for the firehose channel.
	return NewSimulationHandler(simulator, registry, broker, websocket.NewHub()), broker
}

func issueToken(t *testing.T, handler *SimulationHandler) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	req.Header.Set("X-API-Key", "John")
	req.Header.Set("X-API-Secret", "Doe")
	rec := httptest.NewRecorder()

	require.NoError(t, handler.GenerateJWT(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func TestGenerateJWTRejectsBadCredentials(t *testing.T) {
	handler, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	req.Header.Set("X-API-Key", "Mallory")
	req.Header.Set("X-API-Secret", "Doe")
	rec := httptest.NewRecorder()

	err := handler.GenerateJWT(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddlewareRoundTrip(t *testing.T) {
	handler, _ := newTestHandler(t)
	token := issueToken(t, handler)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		assert.Equal(t, 99, c.Get("user_id"))
		assert.NotEmpty(t, c.Get("client_id"))
		return nil
	}

	require.NoError(t, handler.JWTMiddleware(next)(c))
	assert.True(t, called)
}

func TestJWTMiddlewareRejectsGarbage(t *testing.T) {
	handler, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	err := handler.JWTMiddleware(func(c echo.Context) error { return nil })(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestListCases(t *testing.T) {
	handler, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler.ListCases(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body CasesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Cases, 2)
	assert.Len(t, body.Victims, 3)
}

func TestStartSimulationUnknownCaseIs404(t *testing.T) {
	handler, _ := newTestHandler(t)

	e := echo.New()
	payload := `{"case":"ponzi","victim":0,"max_count":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := handler.StartSimulation(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestStartSimulationPublishesUpdates(t *testing.T) {
	handler, broker := newTestHandler(t)

	// Subscribe to the firehose before the run starts
	messages, err := broker.Subscribe(context.Background(), websocket.SimulationTopic, "")
	require.NoError(t, err)

	e := echo.New()
	payload := `{"case":"investments","victim":0,"max_count":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, handler.StartSimulation(e.NewContext(req, rec)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started StartSimulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.RunID)

	// max_count=2 ends after one round: scammer, victim, run_finished
	var types []string
	timeout := time.After(5 * time.Second)
	for len(types) < 3 {
		select {
		case msg := <-messages:
			var update domain.UpdateMessage
			require.NoError(t, json.Unmarshal(msg.Payload, &update))
			assert.Equal(t, started.RunID, update.RunID)
			types = append(types, update.Type)
		case <-timeout:
			t.Fatalf("timed out waiting for updates, got %v", types)
		}
	}

	assert.Equal(t, []string{
		domain.UpdateScammerTurn,
		domain.UpdateVictimTurn,
		domain.UpdateRunFinished,
	}, types)
}
