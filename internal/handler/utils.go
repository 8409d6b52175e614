package handler

import (
	"net/http"

	"tush00nka/chitchat/internal/pkg/httputils"
	"tush00nka/chitchat/internal/ws"
)

type PongResponse struct {
	Message     string `json:"message"`
	Connections int    `json:"connections"`
}

// Ping
// @Summary Пингануть сервер
// @Description Пингануть сервер, заодно узнать число живых соединений
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Router /ping [get]
func Ping(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputils.ResponseJSON(w, http.StatusOK, PongResponse{
			Message:     "Pong",
			Connections: hub.Count(),
		})
	}
}
