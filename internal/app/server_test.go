package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "tush00nka/chitchat/docs"
	"tush00nka/chitchat/internal/config"
	"tush00nka/chitchat/internal/handler"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/ws"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type echoRoutes struct{}

func (echoRoutes) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST", "OPTIONS")
}

func newTestServer(origins []string) *Server {
	hub := ws.NewHub()
	log := logging.Discard()
	live := handler.NewLiveHandler(hub, ws.NewUpgrader(origins, false), log)
	return NewServer(log, origins, hub, live, echoRoutes{})
}

func TestCORSPreflightRequest(t *testing.T) {
	server := newTestServer([]string{"*"})

	req := httptest.NewRequest("OPTIONS", "/api/echo", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	// gorilla/handlers echoes the requested headers back
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSWithActualRequest(t *testing.T) {
	server := newTestServer([]string{"http://app.example"})

	req := httptest.NewRequest("POST", "/api/echo", nil)
	req.Header.Set("Origin", "http://app.example")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://app.example", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("POST", "/api/echo", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRoutes(t *testing.T) {
	server := newTestServer([]string{"*"})

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/ping", http.StatusOK},
		{"GET", "/swagger/doc.json", http.StatusOK},
		{"GET", "/api/nope", http.StatusNotFound},
		{"GET", "/echo", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestNew_RejectsUnknownBackends(t *testing.T) {
	cfg := &config.Config{StoreDriver: "sqlite", JWTSecret: "s"}

	_, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")

	a := &App{cfg: &config.Config{MailProvider: "pigeon"}, log: logging.Discard()}
	_, err = a.openMailer()
	assert.Error(t, err)

	mailer, err := (&App{cfg: &config.Config{MailProvider: config.MailLog}, log: logging.Discard()}).openMailer()
	require.NoError(t, err)
	assert.NotNil(t, mailer)
}

func TestOpenHistoryCache_DisabledWithoutRedis(t *testing.T) {
	a := &App{cfg: &config.Config{}, log: logging.Discard()}

	cache, err := a.openHistoryCache(context.Background())
	require.NoError(t, err)

	_, _, ok, err := cache.Get(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, a.closers)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("DEBUG"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
}
