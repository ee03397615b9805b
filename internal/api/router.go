package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service handler.AttendanceCore, stats handler.StatsCore) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{
		Service: service,
		Stats:   stats,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/events/{eventId}/attendance/sign-in", attendanceHandler.SignIn).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventId}/attendance/sign-out", attendanceHandler.SignOut).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventId}/attendance/status", attendanceHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/volunteers/{userId}/stats", attendanceHandler.VolunteerStats).Methods(http.MethodGet)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
