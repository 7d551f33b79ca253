package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/pkg/engine"
)

// Message is the WebSocket envelope. Clients send {"type":"search"} for
// keyword search or {"type":"semantic"} with the query in content; the server
// answers with "results" carrying data, or "error".
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Limit   int         `json:"limit,omitempty"`
	Scope   string      `json:"scope,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &wsConn{conn: conn}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("Error reading message: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			s.send(c, Message{Type: "error", Content: "invalid message"})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleMessage(ctx, c, msg)
		}()
	}
}

func (s *Server) handleMessage(ctx context.Context, c *wsConn, msg Message) {
	var (
		results []models.SearchResult
		err     error
	)
	switch msg.Type {
	case "search":
		results, err = s.engine.LexicalSearch(ctx, msg.Content, msg.Limit)
	case "semantic":
		results, err = s.engine.SemanticSearch(ctx, engine.SearchRequest{
			Query: msg.Content,
			Limit: msg.Limit,
			Scope: models.ParseScope(msg.Scope),
		})
	default:
		s.send(c, Message{Type: "error", Content: "unknown message type: " + msg.Type})
		return
	}

	if err != nil {
		s.send(c, Message{Type: "error", Content: err.Error()})
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.send(c, Message{Type: "results", Content: msg.Content, Data: results})
}

func (s *Server) send(c *wsConn, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		s.logger.Printf("Error sending message: %v", err)
	}
}
