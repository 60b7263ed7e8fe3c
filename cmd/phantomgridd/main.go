// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// phantomgridd is Phantom Grid's daemon: it loads the HCL config, attaches
// the XDP ingress and TC egress programs, runs the dynamic-SPA control
// plane and metrics sync loop, and serves the HTTP status surface, all
// until SIGINT/SIGTERM. SIGHUP re-reads the HCL config and re-applies the
// spa_config slots without detaching the kernel programs; the secret bundle
// is read only at startup. Grounded on
// grimm-is-flywall/cmd/flywall-sim/server.go's signal.Notify shutdown
// pattern, scaled up from an HTTP-only demo server to the full daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haidang24/phantom-grid/internal/clock"
	"github.com/haidang24/phantom-grid/internal/config"
	"github.com/haidang24/phantom-grid/internal/controlplane"
	"github.com/haidang24/phantom-grid/internal/ebpf/loader"
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/logging"
	"github.com/haidang24/phantom-grid/internal/metrics"
	"github.com/haidang24/phantom-grid/internal/spa"
)

func main() {
	configPath := flag.String("config", "/etc/phantom-grid/phantom-grid.hcl", "Path to the HCL config file")
	secretPath := flag.String("secrets", "/etc/phantom-grid/secrets.cbor", "Path to the CBOR SPA secret bundle (dynamic/asymmetric modes)")
	statusAddr := flag.String("status-addr", "127.0.0.1:9944", "Address the HTTP status surface listens on")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := logging.New(logging.Config{Level: parseLevel(*logLevel), Prefix: "phantomgridd"})

	if err := run(*configPath, *secretPath, *statusAddr, logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func run(configPath, secretPath, statusAddr string, logger *logging.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateInterface(); err != nil {
		return fmt.Errorf("validate interface: %w", err)
	}
	cfg.WarnOnPortOverlap(logger)

	ld, err := loader.New()
	if err != nil {
		return fmt.Errorf("load kernel programs: %w", err)
	}
	defer ld.Close()

	if err := ld.AttachIngress(cfg.Interface); err != nil {
		return fmt.Errorf("attach ingress: %w", err)
	}
	if err := ld.AttachEgress(cfg.Interface); err != nil {
		return fmt.Errorf("attach egress: %w", err)
	}
	logger.Info("kernel programs attached", "interface", cfg.Interface)

	reload := controlplane.NewReloadManager(configPath, cfg, ld.Maps, logger)
	if err := reload.Reload(); err != nil {
		return fmt.Errorf("apply spa config slots: %w", err)
	}

	var authenticator *spa.Authenticator
	if cfg.SPAMode() != spa.ModeStatic {
		if err := reload.ReloadSecrets(secretPath); err != nil {
			return fmt.Errorf("load secret bundle: %w", err)
		}
		bundle, err := controlplane.LoadSecretBundle(secretPath)
		if err != nil {
			return fmt.Errorf("load secret bundle: %w", err)
		}
		hmacSecret, err := bundle.HMACSecret()
		if err != nil {
			return fmt.Errorf("derive hmac secret: %w", err)
		}
		authenticator = spa.NewAuthenticator(
			hmacSecret,
			bundle.Ed25519PublicKey(),
			uint64(cfg.SPA.TOTPStepSeconds),
			uint64(cfg.SPA.TOTPTolerance),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if authenticator != nil {
		listener, err := controlplane.NewSPAListener(
			uint16(cfg.Ports.SPAMagic),
			authenticator,
			ld.Maps,
			clock.System{},
			logger,
			time.Duration(cfg.WhitelistTTLSeconds)*time.Second,
			nil,
		)
		if err != nil {
			return fmt.Errorf("start spa listener: %w", err)
		}
		defer listener.Close()
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Error("spa listener stopped", "err", err)
			}
		}()
	}

	metricsHandle := metrics.NewMetrics()
	metricsHandle.RegisterMetrics()
	go syncMetricsLoop(ctx, metricsHandle, ld.Maps)

	status := controlplane.NewStatusServer(reload, ld.Maps, logger)
	httpServer := &http.Server{Addr: statusAddr, Handler: status.Router()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed", "err", err)
		}
	}()
	logger.Info("status server listening", "addr", statusAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for s := range sig {
		if s == syscall.SIGHUP {
			if err := reload.Reload(); err != nil {
				logger.Error("config reload failed", "err", err)
			}
			continue
		}
		break
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func syncMetricsLoop(ctx context.Context, m *metrics.Metrics, maps ebpfmaps.Maps) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sync(maps)
		}
	}
}
