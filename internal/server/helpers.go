package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON serializes v to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// applyConfigDefaults fills unset fields of a submitted job config.
func applyConfigDefaults(cfg JobConfig) JobConfig {
	if cfg.Objective == "" {
		cfg.Objective = "sphere"
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "de"
	}
	if cfg.Algorithm == "de" && cfg.Strategy == 0 {
		cfg.Strategy = 1
	}
	if cfg.Pop <= 0 {
		if cfg.Algorithm == "de" {
			cfg.Pop = 400
		} else {
			cfg.Pop = 200
		}
	}
	if cfg.Task == "" {
		cfg.Task = "maxgen"
		cfg.TaskValue = 200
	}
	if cfg.Rpt <= 0 {
		cfg.Rpt = 50
	}
	return cfg
}
