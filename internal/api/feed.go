package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// FeedHub fans confirmed-order events out to the staff dashboards
// subscribed to each restaurant's feed.
type FeedHub struct {
	mu   sync.Mutex
	subs map[string]map[*feedConn]bool
}

// NewFeedHub creates an empty hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{
		subs: make(map[string]map[*feedConn]bool),
	}
}

// feedConn maintains one staff WebSocket connection.
type feedConn struct {
	conn *websocket.Conn
	send chan []byte
	hub  *FeedHub
	slug string
}

// Broadcast sends an event to every subscriber of a restaurant's feed.
// Slow subscribers drop the event rather than block the order flow.
func (h *FeedHub) Broadcast(slug string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling feed event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[slug] {
		select {
		case c.send <- data:
		default:
			log.Println("Feed buffer full, dropping event")
		}
	}
}

func (h *FeedHub) subscribe(c *feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[c.slug] == nil {
		h.subs[c.slug] = make(map[*feedConn]bool)
	}
	h.subs[c.slug][c] = true
}

func (h *FeedHub) unsubscribe(c *feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subs[c.slug]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.subs, c.slug)
		}
	}
}

// Feed handles the staff order-feed WebSocket for one restaurant.
func (s *Server) Feed(c *gin.Context) {
	slug, ok := s.resolveSlug(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	fc := &feedConn{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  s.feeds,
		slug: slug,
	}
	s.feeds.subscribe(fc)

	// Start the read and write pumps
	go fc.writePump()
	go fc.readPump()
}

// readPump drains client messages to keep pong handling alive; the
// feed is one-way, so incoming payloads are discarded.
func (c *feedConn) readPump() {
	defer func() {
		c.hub.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps events from the hub to the WebSocket connection.
func (c *feedConn) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
