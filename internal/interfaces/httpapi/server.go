package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aavetx/internal/application"
	"aavetx/internal/chains"
	"aavetx/internal/config"
	"aavetx/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type LookupService interface {
	Lookup(ctx context.Context, hash string) (domain.Resolution, error)
}

type LookupHistory interface {
	RecentLookups(ctx context.Context, limit int) ([]domain.LookupRecord, error)
}

type LookupAudit interface {
	QueryLookups(ctx context.Context, filter application.LookupQueryFilter) ([]domain.LookupRecord, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Dependencies wires the server. History, Audit and Readiness are optional.
type Dependencies struct {
	Lookups   LookupService
	Registry  *chains.Registry
	History   LookupHistory
	Audit     LookupAudit
	Readiness map[string]Pinger
	Metrics   *Metrics
}

type Server struct {
	cfg       config.Config
	deps      Dependencies
	metrics   *Metrics
	buildInfo BuildInfo
	now       func() time.Time
}

const dashboardRecentLimit = 10

func NewServer(cfg config.Config, deps Dependencies, buildInfo BuildInfo) (*Server, error) {
	if deps.Lookups == nil || deps.Registry == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{cfg: cfg, deps: deps, metrics: metrics, buildInfo: buildInfo, now: time.Now}, nil
}

func (s *Server) MetricsObserver() *Metrics {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/transactions/{hash}", s.handleTransaction).Methods(http.MethodGet)
	api.HandleFunc("/chains", s.handleChains).Methods(http.MethodGet)
	api.HandleFunc("/lookups", s.handleLookups).Methods(http.MethodGet)
	api.HandleFunc("/lookups/recent", s.handleRecentLookups).Methods(http.MethodGet)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		Debug:          s.cfg.CORSDebug,
	}).Handler(router)
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := newDashboardView()
	hash := strings.TrimSpace(r.URL.Query().Get("hash"))
	status := http.StatusOK
	if hash != "" {
		res, err := s.lookup(r.Context(), hash)
		switch {
		case err == nil, errors.Is(err, application.ErrNotFound):
			entry, _ := s.deps.Registry.Lookup(res.Chain)
			view.applyResolution(res, entry, s.now())
		default:
			view.Hash = hash
			view.Error = "Lookup failed: " + err.Error()
			status = http.StatusBadGateway
		}
	}
	if s.deps.History != nil {
		recent, err := s.deps.History.RecentLookups(r.Context(), dashboardRecentLimit)
		if err != nil {
			slog.Warn("recent lookups unavailable", "err", err)
		}
		view.Recent = recent
	}

	var body bytes.Buffer
	if err := dashboardTemplate.Execute(&body, view); err != nil {
		slog.Error("render dashboard", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body.Bytes())
}

type transactionResponse struct {
	domain.Resolution
	FailedChains []domain.Chain `json:"failed_chains,omitempty"`
	TxLink       string         `json:"tx_link,omitempty"`
	UserLink     string         `json:"user_link,omitempty"`
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimSpace(mux.Vars(r)["hash"])
	if hash == "" {
		respondError(w, http.StatusBadRequest, "hash is required")
		return
	}
	res, err := s.lookup(r.Context(), hash)
	if err != nil && !errors.Is(err, application.ErrNotFound) {
		respondError(w, lookupErrorStatus(err), err.Error())
		return
	}

	response := transactionResponse{Resolution: res, FailedChains: res.FailedChains()}
	if res.Found {
		if entry, lookupErr := s.deps.Registry.Lookup(res.Chain); lookupErr == nil {
			response.TxLink = entry.TxLink(res.Hash)
			if user, ok := res.User(); ok {
				response.UserLink = entry.AddressLink(user)
			}
		}
		respondJSON(w, http.StatusOK, response)
		return
	}
	respondJSON(w, http.StatusNotFound, map[string]any{
		"error":         err.Error(),
		"hash":          res.Hash,
		"probes":        res.Probes,
		"failed_chains": response.FailedChains,
	})
}

func (s *Server) lookup(ctx context.Context, hash string) (domain.Resolution, error) {
	res, err := s.deps.Lookups.Lookup(ctx, hash)
	if err != nil && res.ID == uuid.Nil {
		// the resolver never started, so no resolution was observed
		s.metrics.ObserveLookupError()
	}
	return res, err
}

func lookupErrorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Registry.Entries())
}

func (s *Server) handleLookups(w http.ResponseWriter, r *http.Request) {
	if s.deps.Audit == nil {
		respondError(w, http.StatusNotFound, "lookup audit log is disabled")
		return
	}
	filter, err := s.parseLookupFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.deps.Audit.QueryLookups(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleRecentLookups(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		respondError(w, http.StatusNotFound, "lookup history is disabled")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.deps.History.RecentLookups(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history read failed")
		return
	}
	respondJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.Readiness))
	ready := true
	for name, pinger := range s.deps.Readiness {
		if err := pinger.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "err", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}
	if !ready {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": checks})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func (s *Server) parseLookupFilter(r *http.Request) (application.LookupQueryFilter, error) {
	limit, err := parseLimit(r)
	if err != nil {
		return application.LookupQueryFilter{}, err
	}
	query := r.URL.Query()
	filter := application.LookupQueryFilter{
		Hash:  strings.TrimSpace(query.Get("hash")),
		Limit: limit,
	}
	if raw := strings.TrimSpace(query.Get("chain")); raw != "" {
		entry, err := s.deps.Registry.Lookup(domain.Chain(raw))
		if err != nil {
			return application.LookupQueryFilter{}, err
		}
		filter.Chain = entry.Chain
	}
	if raw := query.Get("found"); raw != "" {
		found, err := strconv.ParseBool(raw)
		if err != nil {
			return application.LookupQueryFilter{}, errors.New("invalid found")
		}
		filter.FoundOnly = found
	}
	return filter, nil
}

func parseLimit(r *http.Request) (int, error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return 0, errors.New("invalid limit")
		}
		return value, nil
	}
	return 0, nil
}

func nonNil(records []domain.LookupRecord) []domain.LookupRecord {
	if records == nil {
		return []domain.LookupRecord{}
	}
	return records
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
