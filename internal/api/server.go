package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chmura-plikow/internal/blobstore"
	"chmura-plikow/internal/config"
	"chmura-plikow/internal/database"
	"chmura-plikow/internal/files"
	"chmura-plikow/internal/notifier"
	"chmura-plikow/internal/websocket"

	"go.uber.org/zap"
)

type Server struct {
	config     *config.Config
	store      *database.Store
	files      *files.Service
	localBlobs *blobstore.LocalStore
	wsHub      *websocket.Hub
	notifier   notifier.Notifier
	logger     *zap.SugaredLogger
}

// NewServer składa warstwę HTTP. localBlobs jest nie-nilowe tylko przy
// backendzie "local". Wtedy serwer sam wydaje treść pod /blobs/{key}.
func NewServer(cfg *config.Config, store *database.Store, filesSvc *files.Service, localBlobs *blobstore.LocalStore, wsHub *websocket.Hub, mailer notifier.Notifier, logger *zap.SugaredLogger) *Server {
	return &Server{
		config:     cfg,
		store:      store,
		files:      filesSvc,
		localBlobs: localBlobs,
		wsHub:      wsHub,
		notifier:   mailer,
		logger:     logger,
	}
}

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

func parsePagination(r *http.Request) (int, int) {
	limit := defaultPageLimit
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

// publishEvent dopisuje zdarzenie do dziennika i wypycha je do podłączonych
// klientów WebSocket. Awaria nigdy nie wpływa na wynik właściwej operacji.
func (s *Server) publishEvent(r *http.Request, userID int64, eventType string, payload interface{}) {
	eventBytes, err := s.store.LogEvent(r.Context(), userID, eventType, payload)
	if err != nil {
		s.logger.Warnw("failed to journal event", "user_id", userID, "event_type", eventType, "error", err)
		return
	}
	s.wsHub.PublishEvent(userID, eventBytes)
}

// @Summary      Health check
// @Description  Reports service and database health.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {string}  string "Service Unavailable"
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.GetPool().Ping(r.Context()); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
