package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/filinglens/internal/analyze"
	"github.com/seenimoa/filinglens/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum request frame size allowed from peer.
	maxRequestSize = 1024
)

// WSMessage is a frame sent over the analysis socket.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSAnalyzeRequest asks for a batch analysis over the socket. The fields
// mirror the query parameters of GET /api/v1/analyze/{ticker}.
type WSAnalyzeRequest struct {
	Type     string   `json:"type"` // "analyze" or "ping"
	Ticker   string   `json:"ticker"`
	Peers    []string `json:"peers,omitempty"`
	Form     string   `json:"form,omitempty"`
	Periods  int      `json:"periods,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
}

// WSTickerResult is the per-ticker frame streamed while a batch runs.
type WSTickerResult struct {
	Ticker string               `json:"ticker"`
	Report *models.TickerReport `json:"report,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// WSBatchSummary is the final frame of a batch: request order and failures.
// The reports themselves were already streamed ticker by ticker.
type WSBatchSummary struct {
	Main   string            `json:"main"`
	Order  []string          `json:"order"`
	Errors map[string]string `json:"errors,omitempty"`
}

// wsConn owns one upgraded connection: a write pump serialising frames and
// pings, and a flag keeping one batch in flight at a time.
type wsConn struct {
	conn *websocket.Conn
	send chan WSMessage

	mu      sync.Mutex
	running bool
}

// handleAnalyzeWS upgrades the connection and serves analysis requests over
// it: one request frame in, a result frame out per ticker as it finishes,
// then a summary frame. The connection stays open for further requests.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// The upgrade hijacks the connection, so the request context (and the
	// router's timeout middleware) no longer bounds its lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer conn.Close()

	c := &wsConn{conn: conn, send: make(chan WSMessage, 256)}
	go c.writePump(ctx, cancel)

	conn.SetReadLimit(maxRequestSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var req WSAnalyzeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.Send(ctx, errorFrame("invalid request frame"))
			continue
		}

		switch req.Type {
		case "ping":
			c.Send(ctx, WSMessage{Type: "pong"})
		case "analyze":
			if !c.tryStart() {
				c.Send(ctx, errorFrame("analysis already in progress"))
				continue
			}
			go func() {
				defer c.finish()
				s.runAnalyzeWS(ctx, c, req)
			}()
		default:
			c.Send(ctx, errorFrame(fmt.Sprintf("unknown frame type %q", req.Type)))
		}
	}
}

// runAnalyzeWS executes one batch over the socket.
func (s *Server) runAnalyzeWS(ctx context.Context, c *wsConn, req WSAnalyzeRequest) {
	form, err := parseForm(req.Form)
	if err != nil {
		c.Send(ctx, errorFrame(err.Error()))
		return
	}
	if req.Periods < 0 {
		c.Send(ctx, errorFrame("periods must be a positive integer"))
		return
	}
	years, quarters := historyDepths(form, req.Periods)

	analyzer, err := s.analyzer.Tune(years, quarters, req.Strategy)
	if err != nil {
		c.Send(ctx, errorFrame(err.Error()))
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	batch, err := analyzer.RunStream(runCtx, req.Ticker, req.Peers, func(res analyze.TickerResult) {
		frame := WSTickerResult{Ticker: res.Ticker, Report: res.Report}
		if res.Err != nil {
			frame.Error = res.Err.Error()
		}
		c.Send(ctx, WSMessage{Type: "ticker_result", Data: frame})
	})
	if err != nil {
		c.Send(ctx, errorFrame(err.Error()))
		return
	}

	c.Send(ctx, WSMessage{Type: "batch_complete", Data: WSBatchSummary{
		Main:   batch.Main,
		Order:  batch.Order,
		Errors: batch.Errors,
	}})
}

// Send queues a frame for the write pump, giving up when the connection's
// context is gone.
func (c *wsConn) Send(ctx context.Context, msg WSMessage) {
	select {
	case c.send <- msg:
	case <-ctx.Done():
	}
}

func (c *wsConn) tryStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return false
	}
	c.running = true
	return true
}

func (c *wsConn) finish() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// writePump pumps queued frames to the WebSocket connection and keeps it
// alive with pings. A failed write cancels the connection context, which
// aborts any batch still running.
func (c *wsConn) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("WebSocket marshal error: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorFrame(msg string) WSMessage {
	return WSMessage{Type: "error", Data: map[string]string{"message": msg}}
}
