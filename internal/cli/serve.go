package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpage/pkg/buildinfo"
	apperrors "github.com/matzehuels/graphpage/pkg/errors"
	"github.com/matzehuels/graphpage/pkg/graphctx"
	"github.com/matzehuels/graphpage/pkg/pipeline"
)

const (
	requestIDHeader   = "X-Request-Id"
	layoutCacheHeader = "X-Layout-Cache"
	shutdownTimeout   = 10 * time.Second
)

type ctxKey int

const requestIDKey ctxKey = 0

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		flags pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve render and resolve over HTTP",
		Long: `Serve exposes the pipeline over HTTP:

  POST /render    graph description in, HTML page out
  POST /resolve   graph description in, resolved context JSON out
  GET  /healthz   liveness and build information

Each request is rendered independently; only the layout cache is shared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			opts := flags.options(cmd.Flags(), c.Config.Pipeline)
			return c.runServe(cmd.Context(), opts, flags.noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	flags.register(cmd.Flags())
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, opts, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	addr := c.Config.Server.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(runner, c.Logger, c.Config.Server.MaxBodyBytes).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.Logger.Debug("starting server", "build", buildinfo.String(), "max_body_bytes", c.Config.Server.MaxBodyBytes)
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	printSuccess("Listening on %s", addr)
	printKeyValue("engine", runner.Layouter.Name())
	printKeyValue("cache", c.Config.Cache.Backend)
	if strings.HasPrefix(addr, ":") {
		printNextStep("Try", fmt.Sprintf("curl --data-binary @graph.json http://localhost%s/render", addr))
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrCodeIO, err, "listen %s", addr)
	case <-ctx.Done():
		c.Logger.Info("shutting down", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	}
}

// server handles HTTP requests with a shared runner.
type server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
}

func newServer(runner *pipeline.Runner, logger *log.Logger, maxBody int64) *server {
	return &server{runner: runner, logger: logger.WithPrefix("serve"), maxBody: maxBody}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)
	r.Post("/resolve", s.handleResolve)
	return r
}

// requestID propagates the caller's X-Request-Id or assigns a new UUID.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", requestIDFrom(r.Context()))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"engine":  s.runner.Layouter.Name(),
	})
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	d, err := s.decode(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.runner.Execute(r.Context(), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cacheStatus := "miss"
	if result.LayoutCached {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(result.HTML)))
	w.Header().Set(layoutCacheHeader, cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.HTML))
}

func (s *server) handleResolve(w http.ResponseWriter, r *http.Request) {
	d, err := s.decode(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resolved, err := s.runner.Resolve(r.Context(), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func (s *server) decode(w http.ResponseWriter, r *http.Request) (*graphctx.Description, error) {
	return graphctx.Decode(http.MaxBytesReader(w, r.Body, s.maxBody))
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code      apperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

// fail maps input errors to 400, oversized bodies to 413 and everything else
// to 500.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case apperrors.IsInputError(err):
		status = http.StatusBadRequest
	}

	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	id := requestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", id)
	} else {
		s.logger.Debug("rejected request", "err", err, "request_id", id)
	}

	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   apperrors.UserMessage(err),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
