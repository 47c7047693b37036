package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/yanyshev/ml-research-14team/domain"
)

const (
	baseURL   = "http://localhost:8080"
	wsURL     = "ws://localhost:8080/ws"
	apiKey    = "John"
	apiSecret = "Doe"
)

type tokenResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

type startResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

func main() {
	token, err := getToken()
	if err != nil {
		log.Fatalf("Failed to get token: %v", err)
	}

	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer conn.Close()

	// Handle incoming updates in a separate goroutine
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Println("Error reading message:", err)
				return
			}

			var update domain.UpdateMessage
			if err := json.Unmarshal(message, &update); err != nil {
				fmt.Printf("Received: %s\n", message)
				continue
			}
			printUpdate(update)
		}
	}()

	// Set up a signal handler to gracefully shut down on interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		conn.Close()
		os.Exit(0)
	}()

	runID, err := startSimulation(token)
	if err != nil {
		log.Fatalf("Failed to start simulation: %v", err)
	}
	fmt.Printf("Simulation %s started, streaming updates...\n\n", runID)

	<-done
}

func printUpdate(update domain.UpdateMessage) {
	switch update.Type {
	case domain.UpdateScammerTurn:
		fmt.Printf("🦹 %s  (#%d)\n", update.Text, update.MessageCount)
	case domain.UpdateVictimTurn:
		fmt.Printf("🧑 %s  (#%d)\n", update.Text, update.MessageCount)
	case domain.UpdateAnalystVerdict:
		if update.IsScammed {
			fmt.Println("🕵️ Вердикт: жертва разведена! 🚨")
		} else {
			fmt.Printf("🕵️ Анализ: %s\n", update.Analysis)
		}
	case domain.UpdateRunFinished:
		fmt.Println("\n✅ Run finished")
		os.Exit(0)
	case domain.UpdateRunFailed:
		fmt.Printf("\n❌ Run failed: %s\n", update.Error)
		os.Exit(1)
	}
}

func getToken() (string, error) {
	req, err := http.NewRequest("POST", baseURL+"/api/v1/auth/token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("X-API-Secret", apiSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed: %d %s", resp.StatusCode, body)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	return token.Token, nil
}

func startSimulation(token string) (string, error) {
	params := map[string]interface{}{
		"case":         "secure_account",
		"victim":       0,
		"max_count":    10,
		"with_analyst": true,
	}
	body, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", baseURL+"/api/v1/simulations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("start request failed: %d %s", resp.StatusCode, payload)
	}

	var started startResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		return "", err
	}
	return started.RunID, nil
}
