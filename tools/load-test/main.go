package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	// Configuration
	// The target event must exist with a geofence covering the test coordinate.
	baseURL := "http://localhost:8080/api/v1/events/load-test-event/attendance"
	contentType := "application/json"

	numVolunteers := 5000
	requestsPerVolunteer := 2 // one sign-in, one sign-out
	totalRequests := numVolunteers * requestsPerVolunteer
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d volunteers (%d requests each) to %s with concurrency %d\n", numVolunteers, requestsPerVolunteer, baseURL, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	for i := 0; i < numVolunteers; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		userID := fmt.Sprintf("load-test-user-%d", i)

		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			signIn := []byte(fmt.Sprintf(`{"userId": "%s", "lon": 13.4049, "lat": 52.5200, "accuracyMeters": 8}`, userID))
			signOut := []byte(fmt.Sprintf(`{"userId": "%s"}`, userID))

			for _, req := range []struct {
				path string
				body []byte
			}{
				{baseURL + "/sign-in", signIn},
				{baseURL + "/sign-out", signOut},
			} {
				resp, err := http.Post(req.path, contentType, bytes.NewBuffer(req.body))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(userID)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}
