// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controlplane

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/logging"
)

// StatusServer exposes a small read-only HTTP surface over the daemon's
// counters and running config, grounded on grimm-is-flywall's
// internal/api.EBPFStatsHandlers route layout (/stats, /features, /maps)
// generalized down to Phantom Grid's single counter catalog, plus a
// websocket push channel gravwell-gravwell's client.DialWebsocket shows is
// the pack's one real consumer of gorilla/websocket.
type StatusServer struct {
	instanceID string
	reload     *ReloadManager
	maps       ebpfmaps.Maps
	logger     *logging.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[*websocket.Conn]struct{}
}

// NewStatusServer builds a StatusServer. instanceID is always a fresh UUID,
// used to tag this daemon instance in status responses when
// several run behind a shared dashboard.
func NewStatusServer(reload *ReloadManager, maps ebpfmaps.Maps, logger *logging.Logger) *StatusServer {
	return &StatusServer{
		instanceID: uuid.NewString(),
		reload:     reload,
		maps:       maps,
		logger:     logger,
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		watchers:   make(map[*websocket.Conn]struct{}),
	}
}

// Router builds the mux.Router serving this instance's routes.
func (s *StatusServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/status/counters", s.handleCounters).Methods(http.MethodGet)
	r.HandleFunc("/status/config", s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/status/ws", s.handleWebsocket).Methods(http.MethodGet)
	return r
}

type statusResponse struct {
	InstanceID string    `json:"instance_id"`
	Timestamp  time.Time `json:"timestamp"`
	SPAMode    string    `json:"spa_mode"`
	Interface  string    `json:"interface"`
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.reload.Current()
	writeJSON(w, http.StatusOK, statusResponse{
		InstanceID: s.instanceID,
		Timestamp:  time.Now().UTC(),
		SPAMode:    cfg.SPA.Mode,
		Interface:  cfg.Interface,
	})
}

type countersResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	AttackStats      uint64            `json:"attack_stats"`
	StealthDrops     uint64            `json:"stealth_drops"`
	OSMutations      uint64            `json:"os_mutations"`
	SPAAuthSuccess   uint64            `json:"spa_auth_success"`
	SPAAuthFailed    uint64            `json:"spa_auth_failed"`
	SPAReplayBlocked uint64            `json:"spa_replay_blocked"`
	EgressBlocks     uint64            `json:"egress_blocks"`
	PatternHits      map[string]uint64 `json:"pattern_hits"`
}

func (s *StatusServer) snapshot() countersResponse {
	return countersResponse{
		Timestamp:        time.Now().UTC(),
		AttackStats:      s.maps.CounterValue(ebpfmaps.MapAttackStats),
		StealthDrops:     s.maps.CounterValue(ebpfmaps.MapStealthDrops),
		OSMutations:      s.maps.CounterValue(ebpfmaps.MapOSMutations),
		SPAAuthSuccess:   s.maps.CounterValue(ebpfmaps.MapSPAAuthSuccess),
		SPAAuthFailed:    s.maps.CounterValue(ebpfmaps.MapSPAAuthFailed),
		SPAReplayBlocked: s.maps.CounterValue(ebpfmaps.MapSPAReplayBlocked),
		EgressBlocks:     s.maps.CounterValue(ebpfmaps.MapEgressBlocks),
		PatternHits: map[string]uint64{
			"passwd":       s.maps.PatternCounterValue(1),
			"pem_key":      s.maps.PatternCounterValue(2),
			"base64_dense": s.maps.PatternCounterValue(3),
			"sql_dump":     s.maps.PatternCounterValue(4),
			"pan_digits":   s.maps.PatternCounterValue(5),
		},
	}
}

func (s *StatusServer) handleCounters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

// handleConfig returns the running config as JSON; config.SecureString's
// MarshalJSON already masks secret fields, so no redaction step is needed
// here.
func (s *StatusServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reload.Current())
}

// handleWebsocket upgrades the connection and registers it to receive a
// counters snapshot every 2 seconds until the client disconnects.
func (s *StatusServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	s.watchers[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.watchers, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
