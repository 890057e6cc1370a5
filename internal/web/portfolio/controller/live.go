package controller

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
	liveSendBuffer = 16
	liveReadLimit  = 512
)

type liveClient struct {
	send chan []byte
}

// LiveHub pushes content store changes to connected admin clients
// over websocket, so open dashboards refresh without polling.
type LiveHub struct {
	upgrader websocket.Upgrader
	logger   logSDK.Logger
	cancel   func()

	mu      sync.Mutex
	closed  bool
	clients map[*liveClient]struct{}
}

// NewLiveHub subscribes to store. checkOrigin may be nil,
// which only accepts same-origin upgrades.
func NewLiveHub(store *dao.Store, checkOrigin func(r *http.Request) bool, logger logSDK.Logger) (*LiveHub, error) {
	if store == nil {
		return nil, errors.New("content store is required")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	h := &LiveHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:  logger,
		clients: map[*liveClient]struct{}{},
	}
	h.cancel = store.Subscribe(h.broadcast)
	return h, nil
}

// broadcast runs inside the store's notify, it never blocks.
// Slow clients miss changes instead of stalling writers.
func (h *LiveHub) broadcast(change dao.Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("marshal change", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			h.logger.Debug("drop change for slow client", zap.String("collection", string(change.Collection)))
		}
	}
}

// Clients returns the number of connected clients
func (h *LiveHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *LiveHub) register() (*liveClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}

	cl := &liveClient{send: make(chan []byte, liveSendBuffer)}
	h.clients[cl] = struct{}{}
	return cl, true
}

func (h *LiveHub) unregister(cl *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// Serve upgrades the request and streams changes until the client leaves
func (h *LiveHub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already replied
		h.logger.Debug("upgrade websocket", zap.Error(err))
		return
	}

	cl, ok := h.register()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(liveWriteWait))
		_ = conn.Close()
		return
	}

	h.logger.Debug("live client connected", zap.String("ip", c.ClientIP()))
	go h.writeLoop(conn, cl)
	h.readLoop(conn)
	h.unregister(cl)
}

// readLoop only keeps the connection alive, clients send nothing
func (h *LiveHub) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(liveReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("live client read", zap.Error(err))
			}
			return
		}
	}
}

func (h *LiveHub) writeLoop(conn *websocket.Conn, cl *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("live client write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close stops listening to the store and disconnects every client
func (h *LiveHub) Close() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}
