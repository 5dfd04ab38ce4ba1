package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"notely/notely/config"
)

// Pinger checks that the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	cfg config.Config
	db  Pinger
}

type HealthStatus struct {
	Status         string   `json:"status"`
	MissingEnvVars []string `json:"missing_env_vars"`
	Database       string   `json:"database"`
}

// NewHealthController accepts a nil db for processes started without one.
func NewHealthController(cfg config.Config, db Pinger) *HealthController {
	return &HealthController{cfg: cfg, db: db}
}

func (h *HealthController) Status(ctx context.Context) HealthStatus {
	missing := h.cfg.MissingEnv()
	if missing == nil {
		missing = []string{}
	}
	res := HealthStatus{Status: "healthy", MissingEnvVars: missing, Database: "not_configured"}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			res.Database = "unavailable"
		} else {
			res.Database = "ok"
		}
	}
	switch {
	case len(missing) > 0:
		res.Status = "configuration_incomplete"
	case res.Database != "ok":
		res.Status = "degraded"
	}
	return res
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(h.Status(r.Context()))
}
