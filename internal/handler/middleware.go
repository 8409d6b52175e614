package handler

import (
	"net/http"
	"strings"

	"tush00nka/chitchat/internal/pkg/auth"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/service"

	"github.com/gorilla/mux"
)

// RequireSession пропускает запросы с валидным bearer токеном и кладёт
// id пользователя в контекст запроса
func RequireSession(authService service.AuthService, log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authService.Authenticate(bearerToken(r))
			if err != nil {
				respondError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken принимает "Bearer <token>" или голый токен
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	return header
}
