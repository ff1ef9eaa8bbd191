// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fieldbridge/internal/config"
	"github.com/tomtom215/fieldbridge/internal/device"
	"github.com/tomtom215/fieldbridge/internal/protocol"
	"github.com/tomtom215/fieldbridge/internal/store"
	"github.com/tomtom215/fieldbridge/internal/watchdog"
)

// testEnv wires a Handler and its router over a real temp-file store, a
// watchdog with no probes (reports up) and simulator adapters for all three
// channels.
type testEnv struct {
	cfg     *config.Config
	store   *store.Store
	handler *Handler
	router  http.Handler
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			ListenAddr:    ":0",
			ReadTimeoutS:  15,
			WriteTimeoutS: 30,
			MaxBodyBytes:  64 * 1024,
		},
		Store: config.StoreConfig{
			Path:    filepath.Join(t.TempDir(), "bridge.db"),
			LogKeep: 100,
		},
		Peer: config.PeerConfig{
			BaseURL:      "https://192.168.1.10",
			HTTPTimeoutS: 5,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	st, err := store.Open(store.Config{Path: cfg.Store.Path, LogKeep: cfg.Store.LogKeep}, nil)
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	wd := watchdog.New(watchdog.Config{}, nil, nil)

	registry := device.NewRegistry(
		device.NewSimulator(protocol.ChannelESPPLC, st, nil),
		device.NewSimulator(protocol.ChannelVJ3350, st, nil),
		device.NewSimulator(protocol.ChannelVJ6530, st, nil),
	)

	handler := NewHandler(cfg, st, wd, registry)
	router := NewRouter(handler, NewChiMiddleware(nil)).SetupChi()

	return &testEnv{
		cfg:     cfg,
		store:   st,
		handler: handler,
		router:  router,
	}
}

// do runs one request through the assembled router.
func (env *testEnv) do(t *testing.T, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a JSON response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}
