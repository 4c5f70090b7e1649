package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
)

const wsWriteWait = 5 * time.Second

type WSClient struct {
	UserID string
	Conn   *websocket.Conn

	writeMu sync.Mutex
}

func (c *WSClient) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.Conn.WriteMessage(websocket.TextMessage, msg)
}

// RealtimeHub fans events out to every open socket of a user.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[string]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Connections is the number of open sockets for userID.
func (h *RealtimeHub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *RealtimeHub) Broadcast(userID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal realtime payload", "user_id", userID, "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			slog.Debug("drop websocket client", "user_id", userID, "err", err)
			h.Unregister(c)
		}
	}
}

func (h *RealtimeHub) BroadcastAlert(userID string, alert *models.Alert) {
	h.Broadcast(userID, map[string]any{
		"kind":  "alert.created",
		"alert": alert,
	})
}

// StatsChanged pushes the new aggregate; a nil row means the day has no meals left.
func (h *RealtimeHub) StatsChanged(_ context.Context, userID, date string, stats *models.DailyStats) {
	if stats == nil {
		stats = &models.DailyStats{UserID: userID, Date: date}
	}
	h.Broadcast(userID, map[string]any{
		"kind":  "stats.updated",
		"date":  date,
		"stats": stats,
	})
}
