package api

import (
	"net/http"

	"github.com/seenimoa/futuresagent/internal/config"
)

// ConfigView is the non-secret part of the running configuration.
type ConfigView struct {
	Model        string   `json:"model"`
	SearchEngine string   `json:"search_engine"`
	Lookback     int      `json:"lookback"`
	ReportDir    string   `json:"report_dir"`
	SplitReports bool     `json:"split_reports"`
	HTMLReports  bool     `json:"html_reports"`
	WatchCron    string   `json:"watch_cron,omitempty"`
	WatchSymbols []string `json:"watch_symbols,omitempty"`
}

// handleGetConfig returns the running configuration without credentials.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration not loaded")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigView{
			Model:        s.cfg.LLM.Model,
			SearchEngine: s.cfg.Search.Engine,
			Lookback:     s.cfg.Market.Lookback,
			ReportDir:    s.cfg.Report.Dir,
			SplitReports: s.cfg.Report.Split,
			HTMLReports:  s.cfg.Report.HTML,
			WatchCron:    s.cfg.Watch.Cron,
			WatchSymbols: s.cfg.Watch.Symbols,
		},
	})
}

// handleGetConfigKeys returns the status of API keys (masked).
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration not loaded")
		return
	}
	keys := config.CheckAPIKeys(s.cfg)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"keys":    keys,
			"missing": config.MissingRequired(keys),
		},
	})
}
