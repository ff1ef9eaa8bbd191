// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/fieldbridge/internal/metrics"
)

// TestPrometheusMetrics_RecordsRequest verifies the wrapped handler still
// answers normally and the request counter picks up method, path and status.
func TestPrometheusMetrics_RecordsRequest(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/api/status", "200"))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/api/status", "200"))
	if after != before+1 {
		t.Errorf("api_requests_total = %v, want %v", after, before+1)
	}
}

// TestPrometheusMetrics_CapturesErrorStatus verifies explicit error codes
// land in the status_code label rather than the default 200.
func TestPrometheusMetrics_CapturesErrorStatus(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("POST", "/api/inbox", "503"))

	req := httptest.NewRequest(http.MethodPost, "/api/inbox", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("POST", "/api/inbox", "503"))
	if after != before+1 {
		t.Errorf("api_requests_total{503} = %v, want %v", after, before+1)
	}
}

// TestPrometheusMetrics_DefaultStatusIs200 verifies a handler that never
// calls WriteHeader is recorded as 200.
func TestPrometheusMetrics_DefaultStatusIs200(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Fatalf("write: %v", err)
		}
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/health", "200"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/health", "200"))
	if after != before+1 {
		t.Errorf("api_requests_total = %v, want %v", after, before+1)
	}
}

// TestPrometheusMetrics_ActiveRequestsBalanced verifies the active-request
// gauge returns to its starting value after the handler finishes.
func TestPrometheusMetrics_ActiveRequestsBalanced(t *testing.T) {
	var during float64
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.ToFloat64(metrics.APIActiveRequests)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if during != before+1 {
		t.Errorf("active requests during handler = %v, want %v", during, before+1)
	}

	after := testutil.ToFloat64(metrics.APIActiveRequests)
	if after != before {
		t.Errorf("active requests after handler = %v, want %v", after, before)
	}
}
