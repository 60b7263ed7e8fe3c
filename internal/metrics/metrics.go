// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes Phantom Grid's counter catalog as
// Prometheus collectors, grounded on grimm-is-flywall's
// internal/metrics.Metrics / NewMetrics() naming and Describe/Collect
// structure. grimm-is-flywall's counters are incremented directly in-process;
// Phantom Grid's live in kernel maps, so a Sync step bridges the two by
// polling ebpfmaps.Maps and setting Prometheus counters/gauges to match.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
)

const namespace = "phantom_grid"

// Metrics mirrors counter catalog one field per map/slot.
type Metrics struct {
	AttackStats      prometheus.Counter
	StealthDrops     prometheus.Counter
	OSMutations      prometheus.Counter
	SPAAuthSuccess   prometheus.Counter
	SPAAuthFailed    prometheus.Counter
	SPAReplayBlocked prometheus.Counter
	EgressBlocks     prometheus.Counter

	// SuspiciousPatterns is indexed by pattern id (egress.PatternPasswd..
	// PatternPANDigits) via the "pattern" label, one value per id.
	SuspiciousPatterns *prometheus.GaugeVec

	// WhitelistEntries and ReplayEntries are occupancy gauges for the two
	// LRU maps, gauges rather than counters since occupancy has no natural
	// "total" semantics. Sync does not update them (ebpfmaps.Maps has no
	// occupancy read), so they stay at 0.
	WhitelistEntries prometheus.Gauge
	ReplayEntries    prometheus.Gauge

	// last* caches let Sync turn cumulative kernel counters into
	// monotonically-increasing Prometheus counters even though
	// prometheus.Counter only exposes Add, not Set.
	lastAttackStats      uint64
	lastStealthDrops     uint64
	lastOSMutations      uint64
	lastSPAAuthSuccess   uint64
	lastSPAAuthFailed    uint64
	lastSPAReplayBlocked uint64
	lastEgressBlocks     uint64
}

// NewMetrics constructs every collector, following grimm-is-flywall's
// prometheus.NewCounter(prometheus.CounterOpts{Name, Help}) idiom.
func NewMetrics() *Metrics {
	return &Metrics{
		AttackStats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attack_stats_total",
			Help:      "Packets redirected to the honeypot or addressed to a fake port, as counted by the ingress classifier.",
		}),
		StealthDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stealth_drops_total",
			Help:      "Packets dropped for matching a stealth TCP scan flag pattern.",
		}),
		OSMutations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "os_mutations_total",
			Help:      "Redirected packets passed through OS-fingerprint deception (TTL and TCP window set), counted even when the values were unchanged.",
		}),
		SPAAuthSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spa_auth_success_total",
			Help:      "Single Packet Authorization attempts that admitted a source IP.",
		}),
		SPAAuthFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spa_auth_failed_total",
			Help:      "Single Packet Authorization attempts rejected at the static token check.",
		}),
		SPAReplayBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spa_replay_blocked_total",
			Help:      "Dynamic-mode SPA packets rejected as replays of a previously seen signature.",
		}),
		EgressBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "egress_blocks_total",
			Help:      "Honeypot egress packets blocked by the DLP scanner.",
		}),
		SuspiciousPatterns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suspicious_pattern_hits",
			Help:      "Egress DLP pattern match counts by pattern id.",
		}, []string{"pattern"}),
		WhitelistEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spa_whitelist_entries",
			Help:      "Occupancy of the SPA whitelist LRU map (not updated by Sync; stays 0).",
		}),
		ReplayEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spa_replay_protection_entries",
			Help:      "Occupancy of the dynamic-SPA anti-replay LRU map (not updated by Sync; stays 0).",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.AttackStats.Describe(ch)
	m.StealthDrops.Describe(ch)
	m.OSMutations.Describe(ch)
	m.SPAAuthSuccess.Describe(ch)
	m.SPAAuthFailed.Describe(ch)
	m.SPAReplayBlocked.Describe(ch)
	m.EgressBlocks.Describe(ch)
	m.SuspiciousPatterns.Describe(ch)
	m.WhitelistEntries.Describe(ch)
	m.ReplayEntries.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.AttackStats.Collect(ch)
	m.StealthDrops.Collect(ch)
	m.OSMutations.Collect(ch)
	m.SPAAuthSuccess.Collect(ch)
	m.SPAAuthFailed.Collect(ch)
	m.SPAReplayBlocked.Collect(ch)
	m.EgressBlocks.Collect(ch)
	m.SuspiciousPatterns.Collect(ch)
	m.WhitelistEntries.Collect(ch)
	m.ReplayEntries.Collect(ch)
}

// RegisterMetrics registers the full collector set with the default
// Prometheus registry.
func (m *Metrics) RegisterMetrics() {
	prometheus.MustRegister(m)
}

// patternNames maps egress DLP pattern ids to the "pattern" label value.
var patternNames = map[uint32]string{
	1: "passwd",
	2: "pem_key",
	3: "base64_dense",
	4: "sql_dump",
	5: "pan_digits",
}

// Sync reads the current value of every kernel counter from maps and folds
// the delta into the matching Prometheus collector. Kernel counters are
// cumulative and never reset under us, so Sync tracks the last
// observed value per counter and adds only the delta, keeping semantics
// correct even if Sync is called from multiple goroutines serially (it is
// not safe for concurrent calls; the control plane runs one ticker).
func (m *Metrics) Sync(maps ebpfmaps.Maps) {
	m.AttackStats.Add(delta(&m.lastAttackStats, maps.CounterValue(ebpfmaps.MapAttackStats)))
	m.StealthDrops.Add(delta(&m.lastStealthDrops, maps.CounterValue(ebpfmaps.MapStealthDrops)))
	m.OSMutations.Add(delta(&m.lastOSMutations, maps.CounterValue(ebpfmaps.MapOSMutations)))
	m.SPAAuthSuccess.Add(delta(&m.lastSPAAuthSuccess, maps.CounterValue(ebpfmaps.MapSPAAuthSuccess)))
	m.SPAAuthFailed.Add(delta(&m.lastSPAAuthFailed, maps.CounterValue(ebpfmaps.MapSPAAuthFailed)))
	m.SPAReplayBlocked.Add(delta(&m.lastSPAReplayBlocked, maps.CounterValue(ebpfmaps.MapSPAReplayBlocked)))
	m.EgressBlocks.Add(delta(&m.lastEgressBlocks, maps.CounterValue(ebpfmaps.MapEgressBlocks)))

	for id, name := range patternNames {
		m.SuspiciousPatterns.WithLabelValues(name).Set(float64(maps.PatternCounterValue(id)))
	}
}

// delta returns v minus the value last observed in *last, then updates
// *last to v. Guards against a negative delta (map reset, counter wrap)
// by clamping to 0 rather than feeding Counter.Add a negative value, which
// panics.
func delta(last *uint64, v uint64) float64 {
	if v < *last {
		*last = v
		return 0
	}
	d := v - *last
	*last = v
	return float64(d)
}
