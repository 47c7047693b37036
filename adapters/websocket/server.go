package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/utils/log"
)

const (
	// Broker topic carrying simulation updates; routing key is the run ID.
	SimulationTopic = "simulation.updates"
)

type Server struct {
	upgrader      websocket.Upgrader
	messageBroker domain.MessageBroker
	hub           *Hub
}

func NewServer(messageBroker domain.MessageBroker) *Server {
	hub := NewHub()

	server := &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		messageBroker: messageBroker,
		hub:           hub,
	}

	// Start relaying simulation updates to connected dashboards
	go server.startUpdateListener()

	return server
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// startUpdateListener relays simulation updates from the broker to every
// connected WebSocket client, in emission order.
func (s *Server) startUpdateListener() {
	ctx := context.Background()

	// Empty routing key subscribes to the firehose of all runs
	messageChan, err := s.messageBroker.Subscribe(ctx, SimulationTopic, "")
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to subscribe to simulation topic", zap.Error(err))
		return
	}

	log.WithCtx(ctx).Info("🎧 WebSocket server listening to simulation updates")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("🔒 Simulation topic closed, listener stopped")
				return
			}

			var update domain.UpdateMessage
			err := json.Unmarshal(msg.Payload, &update)
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to unmarshal simulation update", zap.Error(err))
				continue
			}

			// Broker payloads are already the wire format; pass them through
			s.hub.Broadcast(msg.Payload)
			log.WithCtx(ctx).Info("📤 Broadcasted simulation update",
				zap.String("run_id", update.RunID),
				zap.String("type", update.Type),
				zap.Int("message_count", update.MessageCount))

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Simulation update listener stopped")
			return
		}
	}
}
