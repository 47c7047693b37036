package http

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yanyshev/ml-research-14team/adapters/websocket"
	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/usecase"
	"github.com/yanyshev/ml-research-14team/utils/log"
)

const (
	// JWT settings
	JWTSecretKey = "your-super-secret-jwt-key-change-in-production"
	JWTExpiry    = 24 * time.Hour

	// Rate limiting
	MaxConcurrent = 10

	// Run timeout covers the whole dialogue, not a single model call
	RunTimeout = 30 * time.Minute
)

type SimulationHandler struct {
	simulator     *usecase.Simulator
	registry      *usecase.Registry
	messageBroker domain.MessageBroker
	wsHub         *websocket.Hub
	jwtSecret     []byte
}

type StartSimulationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

type CasesResponse struct {
	Cases   []usecase.CaseSummary   `json:"cases"`
	Victims []usecase.VictimSummary `json:"victims"`
}

type JWTClaims struct {
	UserID   int    `json:"user_id"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

func NewSimulationHandler(simulator *usecase.Simulator, registry *usecase.Registry, messageBroker domain.MessageBroker, wsHub *websocket.Hub) *SimulationHandler {
	return &SimulationHandler{
		simulator:     simulator,
		registry:      registry,
		messageBroker: messageBroker,
		wsHub:         wsHub,
		jwtSecret:     []byte(JWTSecretKey),
	}
}

// GenerateJWT creates a JWT token for authenticated clients
func (h *SimulationHandler) GenerateJWT(c echo.Context) error {
	// Basic auth for token generation
	username := c.Request().Header.Get("X-API-Key")
	password := c.Request().Header.Get("X-API-Secret")

	if username != "John" || password != "Doe" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	clientID, err := randomID()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate client id")
	}

	claims := &JWTClaims{
		UserID:   99,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "fraud-simulator",
			Subject:   "dashboard",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Error signing JWT", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token": tokenString,
		"type":  "Bearer",
	})
}

// JWT middleware for authentication
func (h *SimulationHandler) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return h.jwtSecret, nil
		})

		if err != nil {
			log.WithCtx(c.Request().Context()).Warn("JWT validation error", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
			c.Set("user_id", claims.UserID)
			c.Set("client_id", claims.ClientID)
			return next(c)
		}

		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
	}
}

// Rate limiting middleware
func (h *SimulationHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	semaphore := make(chan struct{}, MaxConcurrent)
	return func(c echo.Context) error {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// ListCases returns the fraud cases and victims the dashboard can select.
func (h *SimulationHandler) ListCases(c echo.Context) error {
	return c.JSON(http.StatusOK, CasesResponse{
		Cases:   h.registry.Cases(),
		Victims: h.registry.Victims(),
	})
}

// StartSimulation validates run parameters, launches the run in the
// background and returns its run ID. Updates flow to the dashboard over the
// websocket boundary.
func (h *SimulationHandler) StartSimulation(c echo.Context) error {
	var params usecase.RunParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	runID, err := randomID()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create run")
	}

	// The run outlives the HTTP request
	ctx := context.WithValue(context.Background(), "run_id", runID)
	ctx = context.WithValue(ctx, "fraud_case", params.CaseKey)
	ctx, cancel := context.WithTimeout(ctx, RunTimeout)

	updates, err := h.simulator.Start(ctx, params)
	if err != nil {
		cancel()
		var selection *domain.SelectionError
		if errors.As(err, &selection) {
			return echo.NewHTTPError(http.StatusNotFound, selection.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	log.WithCtx(ctx).Info("🚀 Simulation run started",
		zap.String("case", params.CaseKey),
		zap.Int("victim", params.VictimIndex),
		zap.Int("max_count", params.MaxCount),
		zap.Bool("with_analyst", params.WithAnalyst))

	go h.relayUpdates(ctx, cancel, runID, updates)

	return c.JSON(http.StatusAccepted, StartSimulationResponse{
		Success: true,
		Message: "Simulation started",
		RunID:   runID,
	})
}

// relayUpdates publishes every run update to the broker, then a terminal
// run_finished or run_failed event.
func (h *SimulationHandler) relayUpdates(ctx context.Context, cancel context.CancelFunc, runID string, updates <-chan domain.Update) {
	defer cancel()

	failed := false
	for update := range updates {
		if update.Err != nil {
			failed = true
			log.WithCtx(ctx).Error("❌ Simulation run failed", zap.Error(update.Err))
		}
		h.publish(ctx, runID, update.ToMessage(runID))
	}

	if !failed {
		h.publish(ctx, runID, domain.UpdateMessage{
			RunID:     runID,
			Type:      domain.UpdateRunFinished,
			Timestamp: time.Now(),
		})
		log.WithCtx(ctx).Info("✅ Simulation run finished")
	}
}

func (h *SimulationHandler) publish(ctx context.Context, runID string, msg domain.UpdateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.WithCtx(ctx).Error("Error marshaling update", zap.Error(err))
		return
	}

	// Empty routing key is the firehose the websocket server listens on
	if err := h.messageBroker.Publish(ctx, websocket.SimulationTopic, "", payload); err != nil {
		log.WithCtx(ctx).Error("Error publishing update", zap.Error(err))
	}
}

// Health check endpoint
func (h *SimulationHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "fraud-simulator",
	})
}

// randomID creates a unique run/client identifier
func randomID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
