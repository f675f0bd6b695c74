package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Server wraps the HTTP server with graceful shutdown. Cleanup hooks run
// after in-flight requests drain, so the realtime hub keeps serving pushes
// until the listener closes.
type Server struct {
	httpServer *http.Server
	port       string
	cleanups   []func()
}

func NewServer(port string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		port: port,
	}
}

// OnShutdown registers a hook to run during graceful shutdown, in
// registration order. Websocket connections are hijacked from the HTTP
// server, so the hub hook is what actually closes them.
func (s *Server) OnShutdown(fn func()) {
	s.cleanups = append(s.cleanups, fn)
}

// Start runs the server until an error or an interrupt signal.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Printf("Server starting on port %s", s.port)
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Printf("Server shutting down: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		err := s.httpServer.Shutdown(ctx)
		for _, fn := range s.cleanups {
			fn()
		}
		if err != nil {
			s.httpServer.Close()
			return fmt.Errorf("could not gracefully shutdown server: %w", err)
		}

		log.Println("Server stopped gracefully")
	}

	return nil
}
