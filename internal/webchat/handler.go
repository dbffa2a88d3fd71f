// Package webchat bridges the embeddable web widget to the workflow engine,
// over WebSocket for live widgets and over plain HTTP as a fallback.
package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/turnoflow/booking-platform/internal/tenancy"
	"github.com/turnoflow/booking-platform/internal/workflow"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// ChatEngine is the slice of the workflow engine the widget needs.
type ChatEngine interface {
	HandleMessage(ctx context.Context, tenantID string, msg workflow.Message) (*workflow.Result, error)
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type           string `json:"type"` // "message" or "ping"
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Value          string `json:"value,omitempty"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type           string             `json:"type"` // "response", "pong" or "error"
	ConversationID string             `json:"conversation_id,omitempty"`
	Response       *workflow.Response `json:"response,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// Handler manages widget connections and relays each turn to the engine.
type Handler struct {
	engine   ChatEngine
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session // tenantID#conversationID
}

type session struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *session) send(msg OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// NewHandler creates a web chat handler.
func NewHandler(engine ChatEngine, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("webchat: chat engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
		upgrader: websocket.Upgrader{
			// The widget is embedded on tenant sites, so any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

func sessionKey(tenantID, conversationID string) string {
	return tenantID + "#" + conversationID
}

// HandleWebSocket upgrades to WebSocket and serves the widget connection.
// The tenant comes from the "tenant" query parameter so the widget can run
// without custom headers.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		tenantID, _ = tenancy.TenantIDFromContext(r.Context())
	}
	if tenantID == "" {
		http.Error(w, "tenant parameter required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("webchat upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.serve(r.Context(), tenantID, conn)
}

func (h *Handler) serve(ctx context.Context, tenantID string, conn *websocket.Conn) {
	sess := &session{conn: conn}
	var key string
	defer func() {
		if key == "" {
			return
		}
		h.mu.Lock()
		if h.sessions[key] == sess {
			delete(h.sessions, key)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat connection opened", "tenant_id", tenantID)

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("webchat connection closed", "tenant_id", tenantID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = sess.send(OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || (strings.TrimSpace(msg.Text) == "" && msg.Value == "") {
			continue
		}

		result, err := h.engine.HandleMessage(ctx, tenantID, workflow.Message{
			ConversationID: msg.ConversationID,
			Text:           msg.Text,
			Value:          msg.Value,
		})
		if err != nil {
			h.logger.Error("webchat turn failed", "tenant_id", tenantID, "error", err)
			_ = sess.send(OutboundMessage{
				Type:  "error",
				Error: "Lo siento, algo salió mal. Inténtalo de nuevo.",
			})
			continue
		}

		// Track the session under its conversation so out-of-band pushes can
		// find it.
		newKey := sessionKey(tenantID, result.Conversation.ID)
		if newKey != key {
			h.mu.Lock()
			if key != "" && h.sessions[key] == sess {
				delete(h.sessions, key)
			}
			h.sessions[newKey] = sess
			h.mu.Unlock()
			key = newKey
		}

		_ = sess.send(OutboundMessage{
			Type:           "response",
			ConversationID: result.Conversation.ID,
			Response:       result.Response,
		})
	}
}

// Push sends a message to a live widget session, if one is connected.
func (h *Handler) Push(tenantID, conversationID string, resp *workflow.Response) bool {
	h.mu.RLock()
	sess, ok := h.sessions[sessionKey(tenantID, conversationID)]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return sess.send(OutboundMessage{
		Type:           "response",
		ConversationID: conversationID,
		Response:       resp,
	}) == nil
}

// HandleMessage is the HTTP fallback for widgets that cannot hold a socket.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantID       string `json:"tenant_id"`
		ConversationID string `json:"conversation_id"`
		Text           string `json:"text"`
		Value          string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	tenantID := req.TenantID
	if tenantID == "" {
		tenantID, _ = tenancy.TenantIDFromContext(r.Context())
	}
	if tenantID == "" {
		http.Error(w, "tenant_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.HandleMessage(r.Context(), tenantID, workflow.Message{
		ConversationID: req.ConversationID,
		Text:           req.Text,
		Value:          req.Value,
	})
	if err != nil {
		h.logger.Error("webchat http turn failed", "tenant_id", tenantID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(OutboundMessage{
		Type:           "response",
		ConversationID: result.Conversation.ID,
		Response:       result.Response,
	})
}
