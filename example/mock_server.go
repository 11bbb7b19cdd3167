package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// StartMockDashboard runs a stand-in for the hosted dashboard.
//
// Projects behave differently so every widget outcome shows up in the demo:
//   - tamar-valley-centre never answers, so its widget times out
//   - cornish-essential-oils fails twice before it loads, so retry recovers it
//   - every other project loads after a short delay
//
// Call this in a goroutine before starting the host.
func StartMockDashboard(addr string) {
	var (
		failures = make(map[string]int)
		mu       sync.Mutex
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		project := r.URL.Query().Get("project")

		switch project {
		case "tamar-valley-centre":
			<-r.Context().Done()
			return

		case "cornish-essential-oils":
			mu.Lock()
			failures[project]++
			n := failures[project]
			mu.Unlock()
			if n <= 2 {
				slog.Info("mock dashboard failing", "project", project, "attempt", n)
				http.Error(w, "dashboard warming up", http.StatusServiceUnavailable)
				return
			}
		}

		// simulate render time
		time.Sleep(time.Duration(200+rand.Intn(800)) * time.Millisecond)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><h1>%s</h1><p>theme=%s</p></body></html>",
			project, r.URL.Query().Get("theme"))
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock dashboard error", "error", err)
	}
}
