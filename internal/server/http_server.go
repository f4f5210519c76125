package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/crushconnect/internal/config"
	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
)

// QueueAdmin is the operator surface of the announcement scheduler.
type QueueAdmin interface {
	GetDueItems(ctx context.Context) ([]db.QueueItem, error)
	GetAllPending(ctx context.Context) ([]db.QueueItem, error)
	GetStuckItems(ctx context.Context) ([]db.QueueItem, error)
	DeleteItem(ctx context.Context, id uint64) error
	ForcePost(ctx context.Context, id uint64) error
	ReleaseItem(ctx context.Context, id uint64) error
}

type queueHandler struct {
	admin QueueAdmin
	log   *slog.Logger
}

// NewHTTPHandler builds the operator API.
//
// Routes:
//   - GET    /health
//   - GET    /api/queue/{due|pending|stuck}
//   - DELETE /api/queue/{id}
//   - POST   /api/queue/{id}/force-post
//   - POST   /api/queue/{id}/release
//
// Everything under /api requires "Authorization: Bearer <token>" matching
// cfg.Admin.TokenHash, unless the hash is empty.
func NewHTTPHandler(cfg *config.Config, log *slog.Logger, admin QueueAdmin) http.Handler {
	h := &queueHandler{admin: admin, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireToken(cfg.Admin.TokenHash))

	queue := api.PathPrefix("/queue").Subrouter()
	queue.HandleFunc("/due", h.list(admin.GetDueItems)).Methods(http.MethodGet)
	queue.HandleFunc("/pending", h.list(admin.GetAllPending)).Methods(http.MethodGet)
	queue.HandleFunc("/stuck", h.list(admin.GetStuckItems)).Methods(http.MethodGet)
	queue.HandleFunc("/{id:[0-9]+}", h.act("deleted", admin.DeleteItem)).Methods(http.MethodDelete)
	queue.HandleFunc("/{id:[0-9]+}/force-post", h.act("posted", admin.ForcePost)).Methods(http.MethodPost)
	queue.HandleFunc("/{id:[0-9]+}/release", h.act("released", admin.ReleaseItem)).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

// StartHTTPServer serves handler until ctx is done, then shuts down gracefully.
func StartHTTPServer(ctx context.Context, cfg *config.Config, log *slog.Logger, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("HTTP operator API listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

func requireToken(hash string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *queueHandler) list(fetch func(context.Context) ([]db.QueueItem, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fetch(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if items == nil {
			items = []db.QueueItem{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	}
}

func (h *queueHandler) act(done string, op func(context.Context, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusBadRequest, "id must be a positive integer")
			return
		}
		if err := op(r.Context(), id); err != nil {
			h.fail(w, r, err)
			return
		}
		h.log.Info("operator action", "path", r.URL.Path, "queue_id", id)
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": done})
	}
}

func (h *queueHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, svcErr.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		code = http.StatusNotFound
	case errors.Is(err, svcErr.ErrAlreadySent), errors.Is(err, svcErr.ErrInFlight):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		h.log.Error("operator request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
