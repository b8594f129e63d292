package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/employee-desk/desk"
	"github.com/SaiNageswarS/employee-desk/observability"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ChatHandler interface {
	Chat(ctx context.Context, req desk.ChatRequest) (*desk.ChatResponse, error)
}

type Server struct {
	desk    ChatHandler
	metrics *observability.Metrics
	timeout time.Duration
}

func New(d ChatHandler, metrics *observability.Metrics, timeout time.Duration) *Server {
	return &Server{desk: d, metrics: metrics, timeout: timeout}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/v1/status", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.With(withTimeout(s.timeout)).Post("/employeedesk/chat", s.handleChat)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Service is running",
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req desk.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.ObserveRequest("invalid")
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := s.desk.Chat(r.Context(), req)
	s.metrics.ObserveRequest(observability.OutcomeLabel(err))
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			respondError(w, http.StatusBadRequest, "invalid_request", status.Convert(err).Message())
			return
		}
		logger.Error("Chat request failed", zap.String("requestId", middleware.GetReqID(r.Context())), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// withTimeout bounds the request context; cancellation reaches in-flight
// model, search and store calls.
func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
