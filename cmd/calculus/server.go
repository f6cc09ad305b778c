package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gocalculus "github.com/njchilds90/gocalculus"
	"github.com/njchilds90/gocalculus/internal/config"
)

const requestIDHeader = "X-Request-ID"

type server struct {
	calc    *gocalculus.Calculator
	logger  *zap.Logger
	maxBody int64
}

// serve listens on the configured address until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, calc *gocalculus.Calculator, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	return runServer(ctx, ln, cfg, calc, logger)
}

// runServer serves on ln and shuts down gracefully when ctx is done.
func runServer(ctx context.Context, ln net.Listener, cfg *config.Config, calc *gocalculus.Calculator, logger *zap.Logger) error {
	s := &server{calc: calc, logger: logger, maxBody: cfg.Server.MaxBodyBytes}
	srv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: cfg.GetReadHeaderTimeout(),
		ReadTimeout:       cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       cfg.GetIdleTimeout(),
	}

	logger.Info("calculus server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Strings("routes", []string{
			"GET /test", "GET /health", "GET /schema", "POST /tool",
			"POST /calculate-integral", "POST /calculate-derivative",
			"POST /critical-points", "POST /calculate-limit",
		}))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		logger.Info("shutting down calculus server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/test", s.get(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Backend is working!"})
	}))

	mux.HandleFunc("/health", s.get(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}))

	mux.HandleFunc("/schema", s.get(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, gocalculus.MCPToolSpec())
	}))

	mux.HandleFunc("/tool", s.post(s.handleTool))
	mux.HandleFunc("/calculate-integral", s.post(s.handleIntegral))
	mux.HandleFunc("/calculate-derivative", s.post(s.handleDerivative))
	mux.HandleFunc("/critical-points", s.post(s.handleCriticalPoints))
	mux.HandleFunc("/calculate-limit", s.post(s.handleLimit))

	return s.withRequestLog(s.withRecover(mux))
}

// ============================================================
// Middleware
// ============================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				writeDetail(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *server) get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

func (s *server) post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		defer r.Body.Close()
		h(w, r)
	}
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// decode reads a single JSON value from the body. Trailing data is an error.
func decode(r *http.Request, dst interface{}, strict bool) error {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

// requestError maps a Compute* failure to a status code. Malformed
// expressions and bad parameters are client errors.
func requestError(w http.ResponseWriter, err error) {
	var pe *gocalculus.ParseError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, gocalculus.ErrInvalidBounds),
		errors.Is(err, gocalculus.ErrInvalidDirection):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func required(fields map[string]bool) error {
	for _, name := range []string{"function_string", "start_x", "end_x", "approach"} {
		if present, ok := fields[name]; ok && !present {
			return fmt.Errorf("field required: %s", name)
		}
	}
	return nil
}

// ============================================================
// Handlers
// ============================================================

type rangeRequest struct {
	FunctionString *string  `json:"function_string"`
	StartX         *float64 `json:"start_x"`
	EndX           *float64 `json:"end_x"`
}

func (req rangeRequest) validate() error {
	return required(map[string]bool{
		"function_string": req.FunctionString != nil,
		"start_x":         req.StartX != nil,
		"end_x":           req.EndX != nil,
	})
}

type derivativeRequest struct {
	FunctionString *string  `json:"function_string"`
	XValue         *float64 `json:"x_value"`
	StartX         *float64 `json:"start_x"`
	EndX           *float64 `json:"end_x"`
}

type limitRequest struct {
	FunctionString *string  `json:"function_string"`
	Approach       *float64 `json:"approach"`
	Direction      string   `json:"direction"`
}

func (s *server) handleIntegral(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decode(r, &req, false); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := s.calc.ComputeIntegral(*req.FunctionString, *req.StartX, *req.EndX)
	if err != nil {
		requestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleDerivative(w http.ResponseWriter, r *http.Request) {
	var req derivativeRequest
	if err := decode(r, &req, false); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := required(map[string]bool{"function_string": req.FunctionString != nil}); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := s.calc.ComputeDerivative(*req.FunctionString, req.XValue, req.StartX, req.EndX)
	if err != nil {
		requestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleCriticalPoints(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decode(r, &req, false); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := s.calc.ComputeCriticalPoints(*req.FunctionString, *req.StartX, *req.EndX)
	if err != nil {
		requestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := decode(r, &req, false); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := required(map[string]bool{
		"function_string": req.FunctionString != nil,
		"approach":        req.Approach != nil,
	}); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := s.calc.ComputeLimit(*req.FunctionString, *req.Approach, req.Direction)
	if err != nil {
		requestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req gocalculus.ToolRequest
	if err := decode(r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.calc.HandleToolCall(req))
}
