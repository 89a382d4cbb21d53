package socket

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spec-kit/account-service/internal/config"
)

// NewRouter mounts the gateway at /socket.
func NewRouter(gateway *Gateway) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/socket", gateway.ServeHTTP)
	return r
}

// NewServer wraps handler in an HTTP server on the socket address.
// Hijacked connections are not covered by Shutdown; call Hub.CloseAll too.
func NewServer(cfg config.SocketConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
