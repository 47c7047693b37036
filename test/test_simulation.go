package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	baseURL   = "http://localhost:8080"
	wsURL     = "ws://localhost:8080/ws"
	apiKey    = "John"
	apiSecret = "Doe"
)

type JWTResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

type StartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

type UpdateEvent struct {
	RunID        string `json:"run_id"`
	Type         string `json:"type"`
	Speaker      string `json:"speaker"`
	Text         string `json:"text"`
	MessageCount int    `json:"message_count"`
	IsScammed    bool   `json:"is_scammed"`
	Analysis     string `json:"analysis"`
	Error        string `json:"error"`
}

func main() {
	fmt.Println("🚀 Starting simulation streaming test...")

	// Step 1: Get JWT token
	token, err := getJWTToken()
	if err != nil {
		log.Fatalf("Failed to get JWT token: %v", err)
	}
	fmt.Printf("✅ JWT token obtained: %s...\n", token[:20])

	// Step 2: Connect to the update stream
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		log.Fatalf("Failed to connect to websocket: %v", err)
	}
	defer conn.Close()
	fmt.Println("✅ WebSocket connected")

	// Step 3: Start a simulation run
	runID, err := startSimulation(token)
	if err != nil {
		log.Fatalf("Failed to start simulation: %v", err)
	}
	fmt.Printf("✅ Simulation started: %s\n\n", runID)

	// Step 4: Consume updates until the run ends
	deadline := time.Now().Add(10 * time.Minute)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Error reading update: %v", err)
		}

		var event UpdateEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("Unparseable update: %s", message)
			continue
		}

		switch event.Type {
		case "scammer_turn", "victim_turn":
			fmt.Printf("  [%d] %s\n", event.MessageCount, event.Text)
		case "analyst_verdict":
			fmt.Printf("  🕵️ is_scammed=%v analysis=%q\n", event.IsScammed, event.Analysis)
		case "run_finished":
			fmt.Println("\n✅ Simulation streaming test completed successfully!")
			return
		case "run_failed":
			log.Fatalf("Run failed: %s", event.Error)
		}
	}

	log.Fatal("Timed out waiting for the run to finish")
}

func getJWTToken() (string, error) {
	url := fmt.Sprintf("%s/api/v1/auth/token", baseURL)

	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("X-API-Secret", apiSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed: %d %s", resp.StatusCode, body)
	}

	var jwtResp JWTResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwtResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	return jwtResp.Token, nil
}

func startSimulation(token string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/simulations", baseURL)

	params := map[string]interface{}{
		"case":         "investments",
		"victim":       1,
		"max_count":    6,
		"with_analyst": true,
	}
	body, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("start request failed: %d %s", resp.StatusCode, payload)
	}

	var started StartResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	return started.RunID, nil
}
