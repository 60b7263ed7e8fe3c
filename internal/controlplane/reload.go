// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controlplane

import (
	"fmt"
	"sync"

	"github.com/haidang24/phantom-grid/internal/config"
	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/logging"
)

// ReloadManager re-reads the HCL config file (Reload) or the secret bundle
// (ReloadSecrets) and pushes the result into the shared maps, generalized from
// grimm-is-flywall/internal/ctlplane.ConfigManager's stage/apply split down
// to what Phantom Grid hot-reloads: the spa_config slots and the secret
// blobs. The static token is compiled into the kernel program's header by
// cmd/gen-ports and is not changed by a reload. Interface/port-set changes are
// left for a restart, matching assumption that attach points are
// not reconfigured live.
type ReloadManager struct {
	mu         sync.Mutex
	configPath string
	maps       ebpfmaps.Maps
	logger     *logging.Logger

	current *config.Config
}

// NewReloadManager builds a ReloadManager already holding the config that
// was loaded at startup.
func NewReloadManager(configPath string, initial *config.Config, maps ebpfmaps.Maps, logger *logging.Logger) *ReloadManager {
	return &ReloadManager{configPath: configPath, maps: maps, logger: logger, current: initial}
}

// Current returns the most recently applied configuration.
func (r *ReloadManager) Current() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg := *r.current
	return &cfg
}

// Reload re-decodes the config file, applies the spa_config slots it
// affects, and swaps it in as current. It does not touch the secret bundle;
// call ReloadSecrets separately if the bundle file itself changed.
func (r *ReloadManager) Reload() error {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return fmt.Errorf("controlplane: reload %s: %w", r.configPath, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyConfigSlots(cfg)
	r.current = cfg
	r.logger.Info("configuration reloaded", "path", r.configPath, "spa_mode", cfg.SPA.Mode)
	cfg.WarnOnPortOverlap(r.logger)
	return nil
}

// ReloadSecrets re-reads the secret bundle at bundlePath and installs it.
func (r *ReloadManager) ReloadSecrets(bundlePath string) error {
	bundle, err := LoadSecretBundle(bundlePath)
	if err != nil {
		return fmt.Errorf("controlplane: reload secrets: %w", err)
	}
	if err := InstallSecrets(r.maps, bundle); err != nil {
		return fmt.Errorf("controlplane: reload secrets: %w", err)
	}
	r.logger.Info("spa secrets rotated", "bundle", bundlePath)
	return nil
}

func (r *ReloadManager) applyConfigSlots(cfg *config.Config) {
	r.maps.ConfigSet(ebpfmaps.ConfigTOTPStep, uint32(cfg.SPA.TOTPStepSeconds))
	r.maps.ConfigSet(ebpfmaps.ConfigTOTPTolerance, uint32(cfg.SPA.TOTPTolerance))
	r.maps.ConfigSet(ebpfmaps.ConfigReplayWindowSec, uint32(cfg.SPA.ReplayWindowSeconds))

	var modeVal uint32
	switch cfg.SPAMode() {
	case 1:
		modeVal = ebpfmaps.SPAModeDynamic
	case 2:
		modeVal = ebpfmaps.SPAModeAsymmetric
	default:
		modeVal = ebpfmaps.SPAModeStatic
	}
	r.maps.ConfigSet(ebpfmaps.ConfigSPAMode, modeVal)
}
