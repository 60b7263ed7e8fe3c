// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haidang24/phantom-grid/internal/ebpfmaps"
	"github.com/haidang24/phantom-grid/internal/metrics"
)

func counterValue(t *testing.T, c interface {
	Write(*dto.Metric) error
}) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g interface {
	Write(*dto.Metric) error
}) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestSyncReflectsCounterValues(t *testing.T) {
	maps := ebpfmaps.NewSimMaps()
	maps.CounterInc(ebpfmaps.MapAttackStats)
	maps.CounterInc(ebpfmaps.MapAttackStats)
	maps.CounterInc(ebpfmaps.MapSPAAuthFailed)

	m := metrics.NewMetrics()
	m.Sync(maps)

	assert.Equal(t, float64(2), counterValue(t, m.AttackStats))
	assert.Equal(t, float64(1), counterValue(t, m.SPAAuthFailed))
	assert.Equal(t, float64(0), counterValue(t, m.StealthDrops))
}

func TestSyncAccumulatesAcrossMultipleCalls(t *testing.T) {
	maps := ebpfmaps.NewSimMaps()
	m := metrics.NewMetrics()

	maps.CounterInc(ebpfmaps.MapEgressBlocks)
	m.Sync(maps)
	assert.Equal(t, float64(1), counterValue(t, m.EgressBlocks))

	maps.CounterInc(ebpfmaps.MapEgressBlocks)
	maps.CounterInc(ebpfmaps.MapEgressBlocks)
	m.Sync(maps)
	assert.Equal(t, float64(3), counterValue(t, m.EgressBlocks))
}

func TestSyncPopulatesPatternGaugeByID(t *testing.T) {
	maps := ebpfmaps.NewSimMaps()
	maps.PatternCounterInc(1)
	maps.PatternCounterInc(1)
	maps.PatternCounterInc(5)

	m := metrics.NewMetrics()
	m.Sync(maps)

	assert.Equal(t, float64(2), gaugeValue(t, m.SuspiciousPatterns.WithLabelValues("passwd")))
	assert.Equal(t, float64(1), gaugeValue(t, m.SuspiciousPatterns.WithLabelValues("pan_digits")))
	assert.Equal(t, float64(0), gaugeValue(t, m.SuspiciousPatterns.WithLabelValues("sql_dump")))
}

func TestRegistersCleanlyWithoutDuplicateDescriptors(t *testing.T) {
	m := metrics.NewMetrics()
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		require.NoError(t, reg.Register(m))
	})
}
