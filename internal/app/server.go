package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"tush00nka/chitchat/internal/handler"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/ws"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

const shutdownTimeout = 10 * time.Second

// RouteRegistrar реализуют все REST обработчики под /api
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	log     logging.Logger
}

func NewServer(
	log logging.Logger,
	origins []string,
	hub *ws.Hub,
	live *handler.LiveHandler,
	apiHandlers ...RouteRegistrar,
) *Server {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ping", handler.Ping(hub)).Methods("GET", "OPTIONS")
	for _, h := range apiHandlers {
		h.RegisterRoutes(api)
	}

	live.RegisterRoutes(router)

	// Настройка Swagger, doc.json отдаётся из реестра swag
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)

	return &Server{
		router:  router,
		handler: handlers.CustomLoggingHandler(io.Discard, cors(router), accessLog(log)),
		log:     log,
	}
}

// accessLog пишет одну структурированную строку на запрос
func accessLog(log logging.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Info(p.Request.Context(), "http request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp),
			"remote", p.Request.RemoteAddr,
		)
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает порт до отмены ctx, затем корректно завершается
func (s *Server) Run(ctx context.Context, port string) error {
	srv := &http.Server{
		Handler:           s.handler,
		Addr:              ":" + port,
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info(context.Background(), "server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
