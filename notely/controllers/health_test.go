package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"notely/notely/config"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func completeConfig() config.Config {
	return config.Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		JWTSecret:          "jwt",
		DatabaseURL:        "postgres://localhost/notely",
		MinIOEndpoint:      "localhost:9000",
	}
}

func TestHealthCheck(t *testing.T) {
	hc := NewHealthController(completeConfig(), fakePinger{})
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %v", rr.Header().Get("Content-Type"))
	}

	var body HealthStatus
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.Database != "ok" || len(body.MissingEnvVars) != 0 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHealthReportsMissingConfiguration(t *testing.T) {
	hc := NewHealthController(config.Config{}, nil)
	status := hc.Status(context.Background())

	if status.Status != "configuration_incomplete" {
		t.Errorf("expected configuration_incomplete, got %s", status.Status)
	}
	if len(status.MissingEnvVars) == 0 {
		t.Error("expected missing env vars to be listed")
	}
	if status.Database != "not_configured" {
		t.Errorf("expected not_configured, got %s", status.Database)
	}
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	hc := NewHealthController(completeConfig(), fakePinger{err: errors.New("down")})
	status := hc.Status(context.Background())
	if status.Status != "degraded" || status.Database != "unavailable" {
		t.Errorf("unexpected status %+v", status)
	}
}
