package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"billingx/internal/models"
	"billingx/internal/services"
)

const (
	hubReadTimeout  = 60 * time.Second
	hubWriteTimeout = 5 * time.Second
)

// PurchaseUpdateEvent is the message pushed to /ws/purchases subscribers.
type PurchaseUpdateEvent struct {
	Type         string         `json:"type"`
	ResponseCode int            `json:"response_code"`
	Response     string         `json:"response"`
	Purchases    *[]purchaseDTO `json:"purchases"`
}

// HubMetrics is the part of the metrics registry the hub reports to.
type HubMetrics interface {
	PurchasesUpdatedInc()
	WSClientsSet(n int)
}

// PurchaseHub streams purchase updates to websocket clients.
type PurchaseHub struct {
	upgrader websocket.Upgrader
	logger   services.Logger
	metrics  HubMetrics

	mu    sync.RWMutex
	conns map[string]*websocket.Conn
	wmu   map[string]*sync.Mutex
}

func NewPurchaseHub(logger services.Logger, metrics HubMetrics) *PurchaseHub {
	return &PurchaseHub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
		metrics:  metrics,
		conns:    make(map[string]*websocket.Conn),
		wmu:      make(map[string]*sync.Mutex),
	}
}

// ServeWS handles GET /ws/purchases.
func (h *PurchaseHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.errorf("purchase ws upgrade failed: %v", err)
		return
	}
	id := uuid.New().String()

	h.mu.Lock()
	h.conns[id] = conn
	h.wmu[id] = &sync.Mutex{}
	n := len(h.conns)
	h.mu.Unlock()
	h.reportClients(n)

	go h.readLoop(id, conn)
}

func (h *PurchaseHub) readLoop(id string, conn *websocket.Conn) {
	defer func() {
		conn.Close()
		h.mu.Lock()
		delete(h.conns, id)
		delete(h.wmu, id)
		n := len(h.conns)
		h.mu.Unlock()
		h.reportClients(n)
	}()

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(hubReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(hubReadTimeout))
		return nil
	})

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(hubReadTimeout))

		if mt == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			h.safeWrite(id, func(c *websocket.Conn) error {
				return c.WriteMessage(websocket.TextMessage, []byte("pong"))
			})
		}
	}
}

func (h *PurchaseHub) safeWrite(id string, writer func(*websocket.Conn) error) {
	h.mu.RLock()
	conn := h.conns[id]
	mu := h.wmu[id]
	h.mu.RUnlock()
	if conn == nil || mu == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
	if err := writer(conn); err != nil {
		h.errorf("purchase ws %s write failed: %v", id, err)
	}
}

// OnPurchasesUpdated satisfies services.PurchasesUpdatedListener.
func (h *PurchaseHub) OnPurchasesUpdated(code models.ResponseCode, purchases []models.Purchase) {
	if h.metrics != nil {
		h.metrics.PurchasesUpdatedInc()
	}
	data, err := json.Marshal(PurchaseUpdateEvent{
		Type:         "purchases_updated",
		ResponseCode: int(code),
		Response:     code.String(),
		Purchases:    toPurchaseDTOs(purchases),
	})
	if err != nil {
		h.errorf("marshal purchase update: %v", err)
		return
	}

	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	if h.logger != nil {
		h.logger.Infof("WS → %d purchase subscribers: %s", len(ids), data)
	}
	for _, id := range ids {
		h.safeWrite(id, func(c *websocket.Conn) error {
			return c.WriteMessage(websocket.TextMessage, data)
		})
	}
}

// Clients returns the number of open sockets.
func (h *PurchaseHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *PurchaseHub) reportClients(n int) {
	if h.metrics != nil {
		h.metrics.WSClientsSet(n)
	}
}

func (h *PurchaseHub) errorf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Errorf(format, args...)
	}
}
