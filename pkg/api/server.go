package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/ledgerreplay/params"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/transaction"
	"github.com/uhyunpark/ledgerreplay/pkg/app/engine"
	"github.com/uhyunpark/ledgerreplay/pkg/csvio"
)

// Server exposes the replay engine over HTTP
// Every request replays its own CSV body into a fresh ledger and tx store;
// nothing is shared between requests.
type Server struct {
	cfg    params.Config
	router *mux.Router
	logger *zap.SugaredLogger
}

// NewServer creates a new API server
func NewServer(cfg params.Config, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		logger: logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/replay", s.handleReplay).Methods("POST")

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.API.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	})
	return c.Handler(s.router)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.API.MaxBodyBytes)
	defer body.Close()

	reader, err := csvio.NewReader(body)
	if err != nil {
		s.respondReadError(w, err)
		return
	}

	store, err := transaction.OpenStore(s.cfg.Store.Backend, s.cfg.Store.Dir)
	if err != nil {
		s.logger.Errorw("tx_store_open_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "store unavailable", "")
		return
	}
	defer store.Close()

	proc, err := engine.Run(r.Context(), reader, store,
		engine.WithLogger(s.logger),
		engine.WithFreezeLocked(s.cfg.Ledger.FreezeLocked))
	if err != nil {
		s.respondReadError(w, err)
		return
	}

	stats := proc.Stats()
	s.logger.Infow("replay_served",
		"events", stats.Events(),
		"applied", stats.Applied,
		"skipped", stats.SkippedTotal(),
		"accounts", len(proc.Accounts()))

	if strings.Contains(r.Header.Get("Accept"), "text/csv") {
		w.Header().Set("Content-Type", "text/csv")
		if err := csvio.WriteAccounts(w, proc.Accounts()); err != nil {
			s.logger.Warnw("csv_response_failed", "err", err)
		}
		return
	}

	respondJSON(w, ReplayResponse{
		Accounts: proc.Accounts(),
		Stats:    stats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) respondReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err.Error())
	case errors.Is(err, csvio.ErrMissingHeader):
		respondError(w, http.StatusBadRequest, "invalid csv", err.Error())
	default:
		s.logger.Warnw("replay_failed", "err", err)
		respondError(w, http.StatusBadRequest, "replay failed", err.Error())
	}
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
