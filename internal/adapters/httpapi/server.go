package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/application"
	"github.com/stoik/mailshield/internal/domain"
)

const maxBodyBytes = 1 << 20

// Server exposes the scan service over HTTP
type Server struct {
	service *application.ScanService
	auto    *application.AutoScanner
	logger  *zap.Logger
	router  *mux.Router
}

// NewServer creates the API and registers its routes. gatherer backs /metrics.
func NewServer(service *application.ScanService, auto *application.AutoScanner, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		auto:    auto,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.setupRoutes(gatherer)
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Scoring
	api.HandleFunc("/scan-email", s.handleScanEmail).Methods(http.MethodPost)
	api.HandleFunc("/scan-url", s.handleScanURL).Methods(http.MethodPost)
	api.HandleFunc("/recent-urls", s.handleRecentURLs).Methods(http.MethodGet)

	// Subjects
	api.HandleFunc("/subjects", s.handleListSubjects).Methods(http.MethodGet)
	api.HandleFunc("/subjects", s.handleRegisterSubject).Methods(http.MethodPost)
	api.HandleFunc("/subjects/{subject_id}/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{subject_id}/scan", s.handleScanSubject).Methods(http.MethodPost)
	api.HandleFunc("/subjects/{subject_id}/auto-scan", s.handleStartAutoScan).Methods(http.MethodPost)
	api.HandleFunc("/subjects/{subject_id}/auto-scan", s.handleStopAutoScan).Methods(http.MethodDelete)
	api.HandleFunc("/subjects/{subject_id}/auto-scan", s.handleAutoScanStatus).Methods(http.MethodGet)

	// Feedback
	api.HandleFunc("/subjects/{subject_id}/mark-safe", s.handleMarkSafe).Methods(http.MethodPost)
	api.HandleFunc("/subjects/{subject_id}/report-phishing", s.handleReportPhishing).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

type scanEmailRequest struct {
	Sender          string            `json:"sender"`
	Subject         string            `json:"subject"`
	Headers         map[string]string `json:"headers"`
	AttachmentNames []string          `json:"attachment_names"`
	Links           []string          `json:"links"`
}

func (s *Server) handleScanEmail(w http.ResponseWriter, r *http.Request) {
	var req scanEmailRequest
	if !s.decode(w, r, &req) {
		return
	}
	signal := domain.NewSignal(req.Sender, req.Subject, req.Headers, req.AttachmentNames, req.Links)
	s.writeJSON(w, http.StatusOK, s.service.ScanEmail(signal))
}

type scanURLRequest struct {
	URL       string     `json:"url"`
	SubjectID *uuid.UUID `json:"subject_id,omitempty"`
}

func (s *Server) handleScanURL(w http.ResponseWriter, r *http.Request) {
	var req scanURLRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.ScanURL(r.Context(), req.URL, req.SubjectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecentURLs(w http.ResponseWriter, r *http.Request) {
	var subjectID *uuid.UUID
	if raw := r.URL.Query().Get("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid subject_id")
			return
		}
		subjectID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	scans, err := s.service.RecentURLScans(r.Context(), subjectID, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"scans": scans})
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.service.ListSubjects(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"subjects": subjects})
}

type registerSubjectRequest struct {
	Email                string                   `json:"email"`
	DisplayName          string                   `json:"display_name"`
	Credentials          string                   `json:"credentials"`
	NotificationsEnabled *bool                    `json:"notifications_enabled"`
	NotificationLevel    domain.NotificationLevel `json:"notification_level"`
}

func (s *Server) handleRegisterSubject(w http.ResponseWriter, r *http.Request) {
	var req registerSubjectRequest
	if !s.decode(w, r, &req) {
		return
	}

	subject := &domain.Subject{
		Email:                req.Email,
		DisplayName:          req.DisplayName,
		Credentials:          req.Credentials,
		NotificationsEnabled: req.NotificationsEnabled == nil || *req.NotificationsEnabled,
		NotificationLevel:    req.NotificationLevel,
	}
	if err := s.service.RegisterSubject(r.Context(), subject); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, subject)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := s.subjectID(w, r)
	if !ok {
		return
	}

	dashboard, err := s.service.Dashboard(r.Context(), subjectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleScanSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := s.subjectID(w, r)
	if !ok {
		return
	}

	report, err := s.service.ScanSubject(r.Context(), subjectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStartAutoScan(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := s.subjectID(w, r)
	if !ok {
		return
	}
	if _, err := s.service.GetSubject(r.Context(), subjectID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	started := s.auto.Start(subjectID)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"running": true, "started": started})
}

func (s *Server) handleStopAutoScan(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := s.subjectID(w, r)
	if !ok {
		return
	}
	stopped := s.auto.Stop(subjectID)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"running": false, "stopped": stopped})
}

func (s *Server) handleAutoScanStatus(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := s.subjectID(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"running": s.auto.Running(subjectID)})
}

type feedbackRequest struct {
	MessageID string `json:"message_id"`
}

func (s *Server) handleMarkSafe(w http.ResponseWriter, r *http.Request) {
	s.handleFeedback(w, r, s.service.MarkSafe)
}

func (s *Server) handleReportPhishing(w http.ResponseWriter, r *http.Request) {
	s.handleFeedback(w, r, s.service.ReportPhishing)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request, apply func(context.Context, uuid.UUID, string) error) {
	subjectID, ok := s.subjectID(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.MessageID == "" {
		s.writeError(w, http.StatusBadRequest, "Missing required field: message_id")
		return
	}

	if err := apply(r.Context(), subjectID, req.MessageID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// subjectID parses the subject_id path variable, answering 400 when malformed
func (s *Server) subjectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["subject_id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid subject_id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON request body")
		return false
	}
	return true
}

// writeServiceError maps service errors to status codes
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSubjectNotFound), errors.Is(err, domain.ErrScanNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrInvalidURL), errors.Is(err, application.ErrInvalidSubject):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]interface{}{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
