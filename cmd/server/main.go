// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

// Package main is the entry point for the Fieldbridge bridge daemon.
//
// Fieldbridge sits between a shop-floor host and the line devices (ESP-PLC,
// VideoJet printers), turning the host's fire-and-forget command posts into
// durable queued work: commands land in a SQLite inbox, the router loop
// executes them against device adapters, and the sender loop delivers the
// reply lines back to the host with retry and backoff.
//
// The daemon initializes components in the following order:
//
//  1. Configuration: Koanf v2 layering defaults, YAML file, FIELDBRIDGE_* env
//  2. Logging: zerolog with JSON/console output modes
//  3. Queue store: SQLite inbox/outbox, crashed-claim recovery on open
//  4. Peer client: shared outbound HTTP client (sender + health probe)
//  5. Watchdog: ICMP/HTTP peer reachability probes gating the sender
//  6. Device registry: one adapter per channel, simulated or live TCP
//  7. Supervisor tree: Suture v4 with data/messaging/api layers
//  8. HTTP server: Chi router serving ingress, status, and metrics
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server stops
// accepting connections, the loops finish their in-flight message, and the
// queue store closes. Unfinished work stays in SQLite and is recovered on
// the next start.
//
// # Example Usage
//
// Bench mode (all devices simulated, no host required):
//
//	export FIELDBRIDGE_PEER_BASE_URL=http://localhost:9999
//	./fieldbridge
//
// Production with a live ESP-PLC:
//
//	export FIELDBRIDGE_PEER_BASE_URL=http://microtom:8080
//	export FIELDBRIDGE_ESP_SIMULATION=false
//	export FIELDBRIDGE_ESP_HOST=10.0.0.50 FIELDBRIDGE_ESP_PORT=9100
//	export FIELDBRIDGE_SHARED_SECRET=$(openssl rand -hex 16)
//	./fieldbridge
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/tomtom215/fieldbridge/internal/api"
	"github.com/tomtom215/fieldbridge/internal/bridge"
	"github.com/tomtom215/fieldbridge/internal/config"
	"github.com/tomtom215/fieldbridge/internal/device"
	"github.com/tomtom215/fieldbridge/internal/logging"
	"github.com/tomtom215/fieldbridge/internal/metrics"
	"github.com/tomtom215/fieldbridge/internal/peer"
	"github.com/tomtom215/fieldbridge/internal/protocol"
	"github.com/tomtom215/fieldbridge/internal/store"
	"github.com/tomtom215/fieldbridge/internal/supervisor"
	"github.com/tomtom215/fieldbridge/internal/supervisor/services"
	"github.com/tomtom215/fieldbridge/internal/watchdog"
)

// version is stamped by the build with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Resolve the config file once so the reload watcher targets the same
	// file Load used.
	cfgPath := config.FindConfigFile()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Fieldbridge with supervisor tree")
	logging.Info().
		Str("listen_addr", cfg.Server.ListenAddr).
		Str("peer_url", cfg.Peer.BaseURL).
		Str("db_path", cfg.Store.Path).
		Bool("ingress_auth", cfg.Auth.SharedSecret != "").
		Msg("Configuration loaded")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	// Durable queues. Open runs the migrations; requeueing right after
	// returns any message stranded in processing by a previous crash to
	// pending before the loops start claiming.
	st, err := store.Open(store.Config{Path: cfg.Store.Path, LogKeep: cfg.Store.LogKeep}, nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open queue store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing queue store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requeued, err := st.RequeueProcessing(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to recover in-flight messages")
	}
	if requeued > 0 {
		logging.Info().Int64("count", requeued).Msg("Requeued messages stranded by previous run")
	}

	peerClient, err := peer.New(peerConfig(cfg))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build peer client")
	}

	wd := buildWatchdog(cfg, peerClient)
	devices := buildDeviceRegistry(cfg, st)

	router := bridge.NewRouter(routerConfig(cfg), st, devices, nil)
	sender := bridge.NewSender(senderConfig(cfg), st, peerClient, wd, nil)

	handler := api.NewHandler(cfg, st, wd, devices)
	apiRouter := api.NewRouter(handler, api.NewChiMiddleware(nil))

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      apiRouter.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ASSEMBLY ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build supervisor tree")
	}
	loops, err := supervisor.NewLoopManager(tree, 0)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build loop manager")
	}

	// Data layer services
	tree.AddDataService(services.NewQueueStatsService(st, 0, nil))

	// Messaging layer services. The loops go through the manager so a config
	// reload can swap them; the watchdog is rebuilt only on process restart.
	tree.AddMessagingService(wd)
	if err := loops.Start("router-loop", router); err != nil {
		logging.Fatal().Err(err).Msg("Failed to start router loop")
	}
	if err := loops.Start("sender-loop", sender); err != nil {
		logging.Fatal().Err(err).Msg("Failed to start sender loop")
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	watchConfig(cfgPath, st, wd, devices, loops)

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// peerConfig maps the loaded configuration onto the outbound client.
func peerConfig(cfg *config.Config) peer.Config {
	return peer.Config{
		Timeout:      cfg.Peer.HTTPTimeout(),
		BindSourceIP: cfg.Peer.BindSourceIP,
		TLSVerify:    cfg.Peer.TLSVerify,
	}
}

// routerConfig maps the loaded configuration onto the inbox router loop.
func routerConfig(cfg *config.Config) bridge.RouterConfig {
	return bridge.RouterConfig{
		PollInterval:  cfg.Bridge.PollInterval(),
		DeviceTimeout: cfg.Bridge.DeviceTimeout(),
		CallbackURL:   cfg.Peer.CallbackURL(),
		SharedSecret:  cfg.Auth.OutboundSharedSecret,
	}
}

// senderConfig maps the loaded configuration onto the outbox sender loop.
func senderConfig(cfg *config.Config) bridge.SenderConfig {
	return bridge.SenderConfig{
		PollInterval: cfg.Bridge.SenderPollInterval(),
		RetryBase:    cfg.Retry.Base(),
		RetryCap:     cfg.Retry.Cap(),
	}
}

// buildWatchdog assembles the peer reachability watchdog. The ICMP probe
// targets the dedicated watchdog host when one is configured; the HTTP probe
// reuses the peer client so it sees the same source binding and TLS settings
// the sender does. With neither configured the watchdog reports the peer as
// always up and the sender is never gated.
func buildWatchdog(cfg *config.Config, peerClient *peer.Client) *watchdog.Watchdog {
	var probers []watchdog.Prober
	if cfg.Peer.WatchdogHost != "" {
		probers = append(probers, watchdog.ICMPProber(cfg.Peer.WatchdogHost, cfg.Watchdog.PrivilegedICMP))
		logging.Info().Str("host", cfg.Peer.WatchdogHost).Msg("ICMP watchdog probe enabled")
	}
	if url := cfg.Peer.HealthURL(); url != "" {
		probers = append(probers, watchdog.HTTPProber(peerClient.HTTPClient(), url))
		logging.Info().Str("url", url).Msg("HTTP watchdog probe enabled")
	}

	return watchdog.New(watchdog.Config{
		Interval:  cfg.Watchdog.Interval(),
		Timeout:   cfg.Watchdog.Timeout(),
		DownAfter: cfg.Watchdog.DownAfter,
	}, probers, nil)
}

// buildDeviceRegistry wires one adapter per device channel plus the raspi
// loopback, which always simulates.
func buildDeviceRegistry(cfg *config.Config, st *store.Store) *device.Registry {
	return device.NewRegistry(
		buildAdapter(protocol.ChannelESPPLC, cfg.Devices.ESP, cfg, st),
		buildAdapter(protocol.ChannelVJ3350, cfg.Devices.VJ3350, cfg, st),
		buildAdapter(protocol.ChannelVJ6530, cfg.Devices.VJ6530, cfg, st),
		device.NewSimulator(protocol.ChannelRaspi, st, nil),
	)
}

// buildAdapter picks simulated or live mode for one channel. Live adapters
// run the stock TCP line transport; the store mirrors device-confirmed
// values either way.
func buildAdapter(channel string, dc config.DeviceConfig, cfg *config.Config, st *store.Store) device.Adapter {
	if dc.Simulation {
		logging.Info().Str("channel", channel).Msg("Device in simulation mode")
		return device.NewSimulator(channel, st, dc.SimDefaults)
	}

	logging.Info().
		Str("channel", channel).
		Str("host", dc.Host).
		Int("port", dc.Port).
		Msg("Device in live mode")
	return device.NewLive(channel, device.NewTCPLine(dc.Host, dc.Port, cfg.Bridge.DeviceTimeout()), st)
}

// watchConfig arms the hot-reload watcher. A change event reloads and
// revalidates the file; on success the router and sender loops are rebuilt
// from the new settings and swapped into the supervisor one at a time, so
// two routers never poll the inbox together. The store, watchdog, device
// registry, and HTTP listener are not rebuilt: the API handler and the
// sender gate hold references to them, so those settings take effect on
// process restart.
func watchConfig(path string, st *store.Store, wd *watchdog.Watchdog, devices *device.Registry, loops *supervisor.LoopManager) {
	if path == "" {
		logging.Info().Msg("No config file found, hot reload disabled (environment-only configuration)")
		return
	}

	// WatchConfigFile leaves reload serialization to the caller.
	var reloadMu sync.Mutex
	err := config.WatchConfigFile(path, func() {
		reloadMu.Lock()
		defer reloadMu.Unlock()

		newCfg, err := config.Load(path)
		if err != nil {
			logging.Error().Err(err).Msg("Config reload failed, keeping running config")
			return
		}

		// The sender gets a fresh outbound client so peer timeout and TLS
		// changes land with the swap.
		newPeer, err := peer.New(peerConfig(newCfg))
		if err != nil {
			logging.Error().Err(err).Msg("Config reload failed building peer client, keeping running config")
			return
		}

		if err := loops.Replace("router-loop", bridge.NewRouter(routerConfig(newCfg), st, devices, nil)); err != nil {
			logging.Error().Err(err).Msg("Config reload failed replacing router loop")
			return
		}
		if err := loops.Replace("sender-loop", bridge.NewSender(senderConfig(newCfg), st, newPeer, wd, nil)); err != nil {
			logging.Error().Err(err).Msg("Config reload failed replacing sender loop")
			return
		}

		logging.Info().Str("path", path).Msg("Configuration reloaded, router and sender loops restarted")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to watch config file, hot reload disabled")
	} else {
		logging.Info().Str("path", path).Msg("Config hot reload armed")
	}
}
