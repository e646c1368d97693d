package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"
	sloghttp "github.com/samber/slog-http"

	"feedsensor/internal/modules/sensor/domain"
	sensorService "feedsensor/internal/modules/sensor/service"
	"feedsensor/internal/shared/config"
	sherrors "feedsensor/internal/shared/errors"
)

// Server handles HTTP requests for feed sensors
type Server struct {
	cfg     *config.Config
	sensors *sensorService.Service
	logger  *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, sensors *sensorService.Service) *Server {
	return &Server{
		cfg:     cfg,
		sensors: sensors,
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the routed handler with logging and recovery middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /sensors", s.handleListSensors)
	mux.HandleFunc("POST /sensors", s.handleCreateSensor)
	mux.HandleFunc("GET /sensors/{sensorID}", s.handleGetSensor)
	mux.HandleFunc("PATCH /sensors/{sensorID}", s.handleUpdateSensor)
	mux.HandleFunc("DELETE /sensors/{sensorID}", s.handleDeleteSensor)
	mux.HandleFunc("POST /sensors/{sensorID}/refresh", s.handleRefreshSensor)
	mux.HandleFunc("GET /sensors/{sensorID}/rss", s.handleSensorRSS)

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Root endpoint with instructions
	mux.HandleFunc("GET /", s.handleRoot)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Sensor server starting", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

type sensorSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	State  *int   `json:"state"`
	Status string `json:"status"`
}

type sensorDocument struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	FeedURL    string           `json:"feed_url"`
	State      *int             `json:"state"`
	Status     string           `json:"status"`
	Attributes sensorAttributes `json:"attributes"`
	FetchedAt  *time.Time       `json:"fetched_at,omitempty"`
}

// sensorAttributes mirrors the entity attribute surface: channel metadata
// and the shaped entry records.
type sensorAttributes struct {
	Channel map[string]any       `json:"channel"`
	Entries []domain.EntryRecord `json:"entries"`
}

// sensorRequest is the create/update payload. Inclusions and exclusions
// accept both JSON lists and comma-separated strings, matching the UI layer.
type sensorRequest struct {
	Name               string     `json:"name"`
	FeedURL            string     `json:"feed_url"`
	DateFormat         string     `json:"date_format"`
	ShowTopN           int        `json:"show_topn"`
	LocalTime          bool       `json:"local_time"`
	RemoveSummaryImage bool       `json:"remove_summary_image"`
	Inclusions         stringList `json:"inclusions"`
	Exclusions         stringList `json:"exclusions"`
	ScanInterval       int        `json:"scan_interval"`
}

// stringList unmarshals either ["a","b"] or "a, b".
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*l = asList
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	*l = config.ParseList(asString)
	return nil
}

func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	views := s.sensors.List()
	summaries := lo.Map(views, func(view *domain.View, _ int) sensorSummary {
		return sensorSummary{
			ID:     view.Sensor.ID,
			Name:   view.Sensor.Name,
			State:  snapshotState(view.Snapshot),
			Status: view.Status.String(),
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{"sensors": summaries})
}

func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupSensor(w, r)
	if !ok {
		return
	}

	doc := sensorDocument{
		ID:      view.Sensor.ID,
		Name:    view.Sensor.Name,
		FeedURL: view.Sensor.FeedURL,
		State:   snapshotState(view.Snapshot),
		Status:  view.Status.String(),
		Attributes: sensorAttributes{
			Channel: map[string]any{},
			Entries: []domain.EntryRecord{},
		},
	}
	if view.Snapshot != nil {
		doc.Attributes.Channel = view.Snapshot.Channel
		doc.Attributes.Entries = view.Snapshot.Entries
		fetchedAt := view.Snapshot.FetchedAt
		doc.FetchedAt = &fetchedAt
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sensor := &domain.Sensor{
		Name:               req.Name,
		FeedURL:            req.FeedURL,
		DateFormat:         req.DateFormat,
		ShowTopN:           req.ShowTopN,
		LocalTime:          req.LocalTime,
		RemoveSummaryImage: req.RemoveSummaryImage,
		Inclusions:         req.Inclusions,
		Exclusions:         req.Exclusions,
		ScanInterval:       req.ScanInterval,
	}

	if err := s.sensors.Create(r.Context(), sensor); err != nil {
		switch {
		case errors.Is(err, sherrors.ErrMissingName), errors.Is(err, sherrors.ErrMissingFeedURL):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, sherrors.ErrAlreadyConfigured):
			writeError(w, http.StatusConflict, "already_configured")
		case errors.Is(err, sherrors.ErrCannotConnect):
			writeError(w, http.StatusUnprocessableEntity, "cannot_connect")
		default:
			s.logger.Error("Error creating sensor", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create sensor")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": sensor.ID})
}

func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	sensorID := r.PathValue("sensorID")

	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	options := config.SensorDef{
		DateFormat:         req.DateFormat,
		ShowTopN:           req.ShowTopN,
		LocalTime:          req.LocalTime,
		RemoveSummaryImage: req.RemoveSummaryImage,
		Inclusions:         req.Inclusions,
		Exclusions:         req.Exclusions,
		ScanInterval:       req.ScanInterval,
	}

	if err := s.sensors.UpdateOptions(r.Context(), sensorID, options); err != nil {
		if errors.Is(err, sherrors.ErrSensorNotFound) {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}
		s.logger.Error("Error updating sensor", "sensor_id", sensorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update sensor")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": sensorID})
}

func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	sensorID := r.PathValue("sensorID")
	if err := s.sensors.Delete(sensorID); err != nil {
		if errors.Is(err, sherrors.ErrSensorNotFound) {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}
		s.logger.Error("Error deleting sensor", "sensor_id", sensorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete sensor")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshSensor(w http.ResponseWriter, r *http.Request) {
	sensorID := r.PathValue("sensorID")
	if err := s.sensors.Refresh(r.Context(), sensorID); err != nil {
		if errors.Is(err, sherrors.ErrSensorNotFound) {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}
		s.logger.Error("Error refreshing sensor", "sensor_id", sensorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh sensor")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": sensorID})
}

// handleSensorRSS re-exports a sensor snapshot as RSS
func (s *Server) handleSensorRSS(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupSensor(w, r)
	if !ok {
		return
	}
	if view.Snapshot == nil {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}

	feed := &feeds.Feed{
		Title:       view.Sensor.Name,
		Link:        &feeds.Link{Href: view.Sensor.FeedURL},
		Description: stringAttr(view.Snapshot.Channel, "subtitle"),
		Created:     view.Snapshot.FetchedAt,
	}
	if title := stringAttr(view.Snapshot.Channel, "title"); title != "" {
		feed.Title = title
	}
	if link := stringAttr(view.Snapshot.Channel, "link"); link != "" {
		feed.Link = &feeds.Link{Href: link}
	}

	feed.Items = lo.Map(view.Snapshot.Entries, func(entry domain.EntryRecord, _ int) *feeds.Item {
		return &feeds.Item{
			Title:       stringAttr(entry, "title"),
			Link:        &feeds.Link{Href: stringAttr(entry, "link")},
			Description: stringAttr(entry, "summary"),
			Id:          stringAttr(entry, "id"),
			Enclosure:   entryEnclosure(entry),
		}
	})

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate RSS")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300") // Cache for 5 minutes
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Feed Sensor</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>Feed Sensor Service</h1>
    <div class="info">
        <p>This service polls RSS/Atom feeds and exposes them as sensors.</p>
        <p>List sensors: <code>GET /sensors</code></p>
        <p>Sensor state and attributes: <code>GET /sensors/{sensorID}</code></p>
        <p>Sensor snapshot as RSS: <code>GET /sensors/{sensorID}/rss</code></p>
    </div>
    <p><a href="/health">Health Check</a></p>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (s *Server) lookupSensor(w http.ResponseWriter, r *http.Request) (*domain.View, bool) {
	sensorID := r.PathValue("sensorID")
	view, err := s.sensors.Get(sensorID)
	if err != nil {
		writeError(w, http.StatusNotFound, "sensor not found")
		return nil, false
	}
	return view, true
}

func snapshotState(snapshot *domain.Snapshot) *int {
	if snapshot == nil {
		return nil
	}
	return snapshot.State
}

func stringAttr(record map[string]any, key string) string {
	value, _ := record[key].(string)
	return value
}

func entryEnclosure(entry domain.EntryRecord) *feeds.Enclosure {
	if audio := stringAttr(entry, "audio"); audio != "" {
		return &feeds.Enclosure{Url: audio, Type: "audio/mpeg", Length: "0"}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
