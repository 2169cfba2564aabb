// Package health exposes the liveness endpoint some hosting platforms require
// from always-on workers.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Addr is fixed: hosting platforms probe this port.
const Addr = ":10000"

// Server is the liveness HTTP endpoint.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// New builds the server; Start brings it up.
func New(log zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         Addr,
			Handler:      newRouter(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		log: log.With().Str("component", "health").Logger(),
	}
}

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", handleRoot).Methods(http.MethodGet)
	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("Anti-duplicate link bot is running"))
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", Addr).Msg("liveness endpoint listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("liveness endpoint failed")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
