// Package server exposes the scrape pipeline and the dataset over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/aggregate"
	"github.com/sichef/sichef/internal/enrich"
	"github.com/sichef/sichef/internal/metrics"
	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/pipeline"
)

// Scraper runs the pipeline for one request.
type Scraper interface {
	Run(ctx context.Context, req pipeline.Request) ([]model.ScrapedData, error)
}

// Geocoder resolves a venue to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, name, location string) model.GeocodeResult
}

// Dataset is the stored dataset as seen by the browser client.
type Dataset interface {
	Dataset(ctx context.Context) ([]model.ScrapedData, error)
	MergeBatch(ctx context.Context, batch []model.ScrapedData) ([]model.ScrapedData, error)
	Backfill(ctx context.Context) (aggregate.BackfillResult, error)
}

// Favorites persists favorite record ids.
type Favorites interface {
	Favorites(ctx context.Context) ([]string, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)
}

// Describer writes short venue descriptions.
type Describer interface {
	Describe(ctx context.Context, items []enrich.Item) map[string]string
}

// Deps groups the handlers' collaborators. Nil collaborators make their
// routes answer 503.
type Deps struct {
	Scraper   Scraper
	Geocoder  Geocoder
	Dataset   Dataset
	Favorites Favorites
	Describer Describer
	Metrics   *metrics.Metrics
}

// Config configures the router.
type Config struct {
	AllowedOrigins []string
}

type server struct {
	deps Deps
}

// New builds the router.
func New(deps Deps, cfg Config) http.Handler {
	s := &server{deps: deps}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", s.scrape)
		r.Post("/geocode", s.geocode)
		r.Post("/enrich", s.describe)

		r.Route("/dataset", func(r chi.Router) {
			r.Get("/", s.listDataset)
			r.Get("/stats", s.datasetStats)
			r.Post("/merge", s.mergeDataset)
			r.Post("/backfill", s.backfill)
		})

		r.Get("/favorites", s.listFavorites)
		r.Post("/favorites/{id}", s.toggleFavorite)
	})

	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) scrape(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scraper == nil {
		writeError(w, http.StatusServiceUnavailable, "scraping is not configured")
		return
	}
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	records, err := s.deps.Scraper.Run(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrTimeout) {
			status = http.StatusGatewayTimeout
		}
		zap.L().Error("scrape failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, status, err.Error())
		return
	}
	if records == nil {
		records = []model.ScrapedData{}
	}
	writeJSON(w, http.StatusOK, records)
}

type geocodeRequest struct {
	RestaurantName     string `json:"restaurantName"`
	RestaurantLocation string `json:"restaurantLocation"`
}

func (s *server) geocode(w http.ResponseWriter, r *http.Request) {
	if s.deps.Geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}
	var req geocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.RestaurantName) == "" || strings.TrimSpace(req.RestaurantLocation) == "" {
		writeError(w, http.StatusBadRequest, "restaurantName and restaurantLocation are required")
		return
	}

	res := s.deps.Geocoder.Lookup(r.Context(), req.RestaurantName, req.RestaurantLocation)
	if !res.Found() {
		msg := res.Error
		if msg == "" {
			msg = "No results found"
		}
		writeError(w, http.StatusNotFound, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type enrichRequest struct {
	Items []enrich.Item `json:"items"`
}

func (s *server) describe(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || s.deps.Describer == nil {
		writeJSON(w, http.StatusOK, map[string]any{"descriptions": map[string]string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"descriptions": s.deps.Describer.Describe(r.Context(), req.Items)})
}

func (s *server) listDataset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Dataset == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset is not configured")
		return
	}
	order, err := aggregate.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.deps.Dataset.Dataset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	q := r.URL.Query()
	if q.Has("search") || q.Has("sort") {
		records = aggregate.Sort(aggregate.Search(records, q.Get("search")), order)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *server) datasetStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Dataset == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset is not configured")
		return
	}
	records, err := s.deps.Dataset.Dataset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, aggregate.Summarize(records))
}

func (s *server) mergeDataset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Dataset == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset is not configured")
		return
	}
	var batch []model.ScrapedData
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	merged, err := s.deps.Dataset.MergeBatch(r.Context(), batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *server) backfill(w http.ResponseWriter, r *http.Request) {
	if s.deps.Dataset == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset is not configured")
		return
	}
	res, err := s.deps.Dataset.Backfill(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) listFavorites(w http.ResponseWriter, r *http.Request) {
	if s.deps.Favorites == nil {
		writeError(w, http.StatusServiceUnavailable, "favorites are not configured")
		return
	}
	ids, err := s.deps.Favorites.Favorites(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	if s.deps.Favorites == nil {
		writeError(w, http.StatusServiceUnavailable, "favorites are not configured")
		return
	}
	id := chi.URLParam(r, "id")
	fav, err := s.deps.Favorites.ToggleFavorite(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": fav})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
