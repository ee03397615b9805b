package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// A simple struct to capture the incoming event data
type HoursEvent struct {
	RecordID     string    `json:"recordId"`
	EventID      string    `json:"eventId"`
	UserID       string    `json:"userId"`
	TotalMinutes int64     `json:"totalMinutes"`
	SignOutTime  time.Time `json:"signOutTime"`
}

func hoursHandler(w http.ResponseWriter, r *http.Request) {
	var event HoursEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	log.Printf("Received hours for UserID: %s, Event: %s, Minutes: %d", event.UserID, event.EventID, event.TotalMinutes)
	w.WriteHeader(http.StatusOK)
}

func main() {
	http.HandleFunc("/", hoursHandler)
	log.Println("Reporting API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
