package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/subosito/gotenv"

	adapterhttp "github.com/yanyshev/ml-research-14team/adapters/http"
	"github.com/yanyshev/ml-research-14team/adapters/llm"
	"github.com/yanyshev/ml-research-14team/adapters/message_broker"
	"github.com/yanyshev/ml-research-14team/adapters/websocket"
	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/usecase"
)

func main() {
	gotenv.Load()

	client, err := newLlmClient()
	if err != nil {
		log.Fatal(err)
	}

	registry, err := usecase.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}

	simulator := usecase.NewSimulator(client, registry)
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	server := websocket.NewServer(broker)
	go server.RunWebsocketHub()

	handler := adapterhttp.NewSimulationHandler(simulator, registry, broker, server.GetHub())

	e := echo.New()

	// Security middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))) // 20 requests per minute

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // In production, specify exact origins
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
			"Content-Length",
		},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	e.Use(middleware.BodyLimit("1MB"))

	// JWT auth for WebSocket (same as HTTP)
	wsGroup := e.Group("/ws")
	wsGroup.Use(handler.JWTMiddleware)
	wsGroup.GET("", server.Handler)

	// HTTP API routes
	api := e.Group("/api/v1")

	// Public endpoints (no auth required)
	api.GET("/health", handler.HealthCheck)
	api.POST("/auth/token", handler.GenerateJWT)

	// Simulation endpoints (JWT auth required)
	simulations := api.Group("/simulations")
	simulations.Use(handler.JWTMiddleware)
	simulations.Use(handler.RateLimitMiddleware)
	simulations.POST("", handler.StartSimulation)

	cases := api.Group("/cases")
	cases.Use(handler.JWTMiddleware)
	cases.GET("", handler.ListCases)

	log.Println("Starting server on :8080")
	log.Println("Available endpoints:")
	log.Println("  GET  /api/v1/health           - Health check")
	log.Println("  POST /api/v1/auth/token       - Get JWT token")
	log.Println("  GET  /api/v1/cases            - List fraud cases and victims (JWT required)")
	log.Println("  POST /api/v1/simulations      - Start a simulation run (JWT required)")
	log.Println("  GET  /ws                      - WebSocket update stream (JWT required)")
	log.Fatal(e.Start(":8080"))
}

// newLlmClient builds the configured provider. Missing credentials abort
// startup before any run can begin.
func newLlmClient() (domain.Llm, error) {
	switch os.Getenv("LLM_PROVIDER") {
	case "gemini":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return llm.NewGeminiClient(ctx, os.Getenv("GEMINI_MODEL"))
	default:
		return llm.NewGigaChatClient(llm.GigaChatConfig{
			Key:   os.Getenv("GIGA_KEY"),
			Scope: os.Getenv("GIGACHAT_SCOPE"),
			Model: os.Getenv("GIGACHAT_MODEL"),
		})
	}
}
