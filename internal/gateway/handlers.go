package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/wirereport/wirereport/pkg/feed"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers,omitempty"`
}

// handleHealth reports liveness and the configured provider chain.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if g.chain != nil {
			resp.Providers = g.chain.Names()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64    `json:"uptime_seconds"`
	Channels      []string `json:"channels"`
	Subscribers   int      `json:"ws_subscribers"`
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt).Seconds()),
			Subscribers:   g.hub.Len(),
		}
		if g.summaries != nil {
			resp.Channels = g.summaries.Channels()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleListChannels returns the channels eligible for reporting, from the
// live source when available, otherwise from the on-disk partitions.
func (g *Gateway) handleListChannels() http.HandlerFunc {
	type channelEntry struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []channelEntry
		if g.src != nil {
			channels, err := g.src.ListChannels(r.Context())
			if err != nil {
				http.Error(w, "source unavailable", http.StatusBadGateway)
				return
			}
			for _, ch := range channels {
				entries = append(entries, channelEntry{ID: ch.ID, Name: ch.Name})
			}
		} else if g.summaries != nil {
			for _, name := range g.summaries.Channels() {
				entries = append(entries, channelEntry{Name: name})
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"channels": entries})
	}
}

const defaultReportLimit = 10

// handleListReports returns stored summaries for ?channel=...&timeframe=...
// newest first, capped by ?limit=.
func (g *Gateway) handleListReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.summaries == nil {
			http.Error(w, "summary store unavailable", http.StatusServiceUnavailable)
			return
		}

		channel := r.URL.Query().Get("channel")
		if channel == "" {
			http.Error(w, "channel parameter is required", http.StatusBadRequest)
			return
		}
		tf, err := feed.ParseTimeframe(r.URL.Query().Get("timeframe"))
		if err != nil {
			http.Error(w, "invalid timeframe", http.StatusBadRequest)
			return
		}

		limit := defaultReportLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		summaries := g.summaries.Recent(channel, tf, limit)
		if summaries == nil {
			summaries = []feed.Summary{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
