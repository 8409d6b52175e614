package handler

import (
	"context"
	"net/http"

	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/ws"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// LiveHandler рассылает фреймы send_message всем подключённым клиентам.
// Ничего из этого не сохраняется.
type LiveHandler struct {
	hub      *ws.Hub
	upgrader *websocket.Upgrader
	log      logging.Logger
}

func NewLiveHandler(hub *ws.Hub, upgrader *websocket.Upgrader, log logging.Logger) *LiveHandler {
	return &LiveHandler{hub: hub, upgrader: upgrader, log: log}
}

func (h *LiveHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.serveWS)
}

func (h *LiveHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// апгрейдер уже ответил клиенту
		h.log.Warn(r.Context(), "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(context.Background(), conn)
	log := h.log.With("conn_id", client.ID)

	if !h.hub.Register(client) {
		client.Close()
		return
	}
	log.Info(r.Context(), "client connected", "remote", r.RemoteAddr)

	go func() {
		if err := client.WritePump(); err != nil {
			log.Debug(context.Background(), "write pump stopped", "error", err)
		}
	}()

	if err := client.ReadPump(h.handleFrame); err != nil {
		log.Debug(r.Context(), "read pump stopped", "error", err)
	}

	h.hub.Unregister(client)
	log.Info(r.Context(), "client disconnected")
}

func (h *LiveHandler) handleFrame(c *ws.Client, frame ws.Frame) {
	h.hub.CountReceived()

	if frame.Event != ws.EventSendMessage {
		return
	}

	if _, err := h.hub.BroadcastEvent(ws.EventReceiveMessage, frame.Data); err != nil {
		h.log.Warn(context.Background(), "broadcast failed", "conn_id", c.ID, "error", err)
	}
}
