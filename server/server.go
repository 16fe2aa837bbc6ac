// Package server exposes the map service over the REST API used by the editor.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"map-editor/logger"
	"map-editor/metrics"
	"map-editor/models"
	"map-editor/repositories"
	"map-editor/services"
)

const maxImageBytes = 10 << 20

// Server holds the handlers of the map API
type Server struct {
	svc    services.MapServiceInterface
	auth   *Authenticator
	logger *slog.Logger
}

// New creates the API server. An empty jwtSecret disables authentication.
func New(svc services.MapServiceInterface, jwtSecret string) *Server {
	return &Server{
		svc:    svc,
		auth:   NewAuthenticator(jwtSecret),
		logger: logger.L(),
	}
}

// Routes builds the mux with every endpoint mounted under apiBase and wraps it in the access log
func (s *Server) Routes(apiBase string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+apiBase+"/areas", s.listAreas)
	mux.HandleFunc("POST "+apiBase+"/areas", s.auth.RequireAdmin(s.createArea))
	mux.HandleFunc("GET "+apiBase+"/areas/search", s.searchAreas)
	mux.HandleFunc("GET "+apiBase+"/areas/at", s.areasAt)
	mux.HandleFunc("DELETE "+apiBase+"/areas/{id}", s.auth.RequireAdmin(s.deleteArea))

	mux.HandleFunc("GET "+apiBase+"/landmarks", s.listLandmarks)
	mux.HandleFunc("POST "+apiBase+"/landmarks", s.auth.RequireAdmin(s.createLandmark))
	mux.HandleFunc("DELETE "+apiBase+"/landmarks/{id}", s.auth.RequireAdmin(s.deleteLandmark))
	mux.HandleFunc("POST "+apiBase+"/landmarks/{id}/image", s.auth.RequireAdmin(s.uploadLandmarkImage))

	mux.HandleFunc("PUT "+apiBase+"/batch-update", s.auth.RequireAdmin(s.batchUpdate))

	mux.Handle("GET "+apiBase+"/metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	return logger.AccessMiddleware(s.logger)(mux)
}

func (s *Server) listAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.svc.ListAreas(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if areas == nil {
		areas = []models.AreaRecord{}
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) listLandmarks(w http.ResponseWriter, r *http.Request) {
	landmarks, err := s.svc.ListLandmarks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if landmarks == nil {
		landmarks = []models.LandmarkRecord{}
	}
	writeJSON(w, http.StatusOK, landmarks)
}

func (s *Server) createArea(w http.ResponseWriter, r *http.Request) {
	var rec models.AreaRecord
	if !decodeBody(w, r, &rec) {
		return
	}
	created, err := s.svc.CreateArea(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) createLandmark(w http.ResponseWriter, r *http.Request) {
	var rec models.LandmarkRecord
	if !decodeBody(w, r, &rec) {
		return
	}
	created, err := s.svc.CreateLandmark(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.BatchUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.BatchUpdate(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"areas":     len(req.Areas),
		"landmarks": len(req.Landmarks),
	})
}

func (s *Server) deleteArea(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteArea(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteLandmark(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteLandmark(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadLandmarkImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing image file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read image"))
		return
	}
	updated, err := s.svc.UploadLandmarkImage(r.Context(), r.PathValue("id"), header.Filename, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) searchAreas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing q"))
		return
	}
	areas, err := s.svc.SearchAreas(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if areas == nil {
		areas = []models.AreaRecord{}
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) areasAt(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("lat and lng must be numbers"))
		return
	}
	areas, err := s.svc.AreasAt(r.Context(), lat, lng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if areas == nil {
		areas = []models.AreaRecord{}
	}
	writeJSON(w, http.StatusOK, areas)
}

// writeError maps service errors onto status codes. Unknown errors are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(vErr.Error()))
	case errors.Is(err, repositories.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, services.ErrImagesDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		s.logger.Error("request_failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
	}
}

// decodeBody strictly decodes the request body, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := models.DecodeStrict(r.Body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
