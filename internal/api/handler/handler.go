package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"attendance.service/internal/core/model"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// AttendanceCore is the slice of the attendance service the handler needs.
type AttendanceCore interface {
	SignIn(ctx context.Context, eventID, userID string, loc *model.Location) (model.SignInResult, error)
	SignOut(ctx context.Context, eventID, userID string, accuracyMeters *float64) (model.SignOutResult, error)
	Status(ctx context.Context, eventID, userID string) (model.StatusView, error)
}

// StatsCore is the slice of the stats service the handler needs.
type StatsCore interface {
	VolunteerStats(ctx context.Context, userID string) (model.VolunteerStats, error)
}

type AttendanceHandler struct {
	Service AttendanceCore
	Stats   StatsCore
}

type signInRequest struct {
	UserID         string   `json:"userId"`
	Lon            *float64 `json:"lon"`
	Lat            *float64 `json:"lat"`
	AccuracyMeters *float64 `json:"accuracyMeters"`
}

type signOutRequest struct {
	UserID         string   `json:"userId"`
	AccuracyMeters *float64 `json:"accuracyMeters"`
}

type forbiddenResponse struct {
	Message string                 `json:"message"`
	Status  model.AttendanceStatus `json:"status"`
}

type statusResponse struct {
	Status model.AttendanceStatus `json:"status"`
}

// SignIn handles POST /events/{eventId}/attendance/sign-in.
func (h *AttendanceHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	// A coordinate is only forwarded when both components are present; the
	// core treats a missing coordinate as an invalid-location refusal.
	var loc *model.Location
	if req.Lon != nil && req.Lat != nil {
		loc = &model.Location{Lon: *req.Lon, Lat: *req.Lat, AccuracyMeters: req.AccuracyMeters}
	}

	res, err := h.Service.SignIn(r.Context(), eventID, req.UserID, loc)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Sign-in failed")
		http.Error(w, "Service error processing sign-in", http.StatusInternalServerError)
		return
	}

	if res.Forbidden != nil {
		writeJSON(w, http.StatusForbidden, forbiddenResponse{Message: res.Forbidden.Message, Status: res.Status})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: res.Status})
}

// SignOut handles POST /events/{eventId}/attendance/sign-out.
func (h *AttendanceHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	var req signOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	res, err := h.Service.SignOut(r.Context(), eventID, req.UserID, req.AccuracyMeters)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Sign-out failed")
		http.Error(w, "Service error processing sign-out", http.StatusInternalServerError)
		return
	}

	if res.Forbidden != nil {
		writeJSON(w, http.StatusForbidden, forbiddenResponse{Message: res.Forbidden.Message, Status: res.Status})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: res.Status})
}

// Status handles GET /events/{eventId}/attendance/status?userId=...
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	view, err := h.Service.Status(r.Context(), eventID, userID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Status lookup failed")
		http.Error(w, "Service error computing status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// VolunteerStats handles GET /volunteers/{userId}/stats.
func (h *AttendanceHandler) VolunteerStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	stats, err := h.Stats.VolunteerStats(r.Context(), userID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Stats computation failed")
		http.Error(w, "Service error computing stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
