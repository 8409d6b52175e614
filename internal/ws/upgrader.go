package ws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader создаёт апгрейдер для заданных origin. В development
// разрешён любой origin.
func NewUpgrader(allowedOrigins []string, development bool) *websocket.Upgrader {
	allowAll := development || slices.Contains(allowedOrigins, "*")

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// не браузер
			if origin == "" || allowAll {
				return true
			}

			return slices.Contains(allowedOrigins, origin)
		},
	}
}
