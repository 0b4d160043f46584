// Package web serves the console over HTTP: the catalog, one-shot dispatch
// and a WebSocket stream that watches a list operation.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"

	"xconsole/internal/catalog"
	"xconsole/internal/console"
	"xconsole/internal/watch"
)

type Options struct {
	PollInterval  time.Duration
	OriginAllowed string
}

type Server struct {
	catalog    *catalog.Catalog
	dispatcher console.Dispatcher
	opts       Options
}

func New(cat *catalog.Catalog, d console.Dispatcher, opts Options) *Server {
	if opts.PollInterval <= 0 {
		opts.PollInterval = watch.DefaultInterval
	}
	return &Server{catalog: cat, dispatcher: d, opts: opts}
}

// Handler builds the router. Compression is left off the WebSocket route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	// Without an allowed origin no CORS headers are sent at all, so browsers
	// keep other sites out.
	if s.opts.OriginAllowed != "" {
		r.Use(handlers.CORS(s.corsOptions()...))
	}

	r.Get("/api/watch/{id}", s.watchOperation)

	r.Group(func(r chi.Router) {
		r.Use(handlers.CompressHandler)
		r.Get("/healthz", s.health)
		r.Route("/api/operations", func(r chi.Router) {
			r.Get("/", s.listOperations)
			r.Get("/{id}", s.describeOperation)
			// A JSON content type forces browsers into a preflight.
			r.With(middleware.AllowContentType("application/json")).Post("/{id}/dispatch", s.dispatchOperation)
		})
	})
	return r
}

func (s *Server) corsOptions() []handlers.CORSOption {
	return []handlers.CORSOption{
		handlers.AllowedHeaders([]string{"Accept-Encoding", "Content-Encoding", "X-Requested-With", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "OPTIONS"}),
		handlers.AllowedOrigins([]string{s.opts.OriginAllowed}),
	}
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listen addr = %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed":    time.Since(start).String(),
		}).Debug("web: request")
	})
}
