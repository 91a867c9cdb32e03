package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/go-storefront/httpx"
	"github.com/diewo77/go-storefront/internal/notify"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// NotificationHandler hands queued toasts to the browser, by polling or over
// a websocket.
type NotificationHandler struct {
	center   *notify.Center
	logger   *zap.Logger
	upgrader websocket.Upgrader

	quit     chan struct{}
	quitOnce sync.Once
	conns    sync.WaitGroup
}

func NewNotificationHandler(center *notify.Center, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		center: center,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		quit: make(chan struct{}),
	}
}

// Poll returns and clears the session's pending toasts.
func (h *NotificationHandler) Poll(w http.ResponseWriter, r *http.Request) {
	toasts := h.center.Drain(session.ID(r))
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": toasts})
}

// Stream upgrades to a websocket and pushes each toast as a JSON message as
// soon as it is queued.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.conns.Add(1)
	defer h.conns.Done()

	sid := session.ID(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	wake, unsubscribe := h.center.Subscribe(sid)
	defer unsubscribe()

	closed := make(chan struct{})
	go h.readPump(conn, closed)
	h.writePump(conn, sid, wake, closed)
	_ = conn.Close()
	<-closed
}

// readPump discards client frames and tracks liveness through pongs. It
// closes done once the connection is gone.
func (h *NotificationHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
	}
}

func (h *NotificationHandler) writePump(conn *websocket.Conn, sid string, wake <-chan struct{}, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	flush := func() bool {
		for _, t := range h.center.Drain(sid) {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(t); err != nil {
				return false
			}
		}
		return true
	}
	if !flush() {
		return
	}
	for {
		select {
		case <-wake:
			if !flush() {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-h.quit:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// Close ends every open stream and waits for them to finish.
func (h *NotificationHandler) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
	h.conns.Wait()
}
