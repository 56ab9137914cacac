package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	assert.Equal(t, "steady", ParsePattern("steady").Name())
	assert.Equal(t, "daily", ParsePattern("daily").Name())
	assert.Equal(t, "weekly", ParsePattern("weekly").Name())
	assert.Equal(t, "random", ParsePattern("random").Name())
	assert.Equal(t, "gradual_rise", ParsePattern("gradual_rise").Name())
	assert.Equal(t, "sine_wave", ParsePattern("sine_wave").Name())
	assert.Equal(t, "steady", ParsePattern("unknown").Name())
}

func TestResourceSim_Sample(t *testing.T) {
	res := NewResourceSim("web-1", ResourceSimConfig{
		BaseCPU:    50,
		BaseMemory: 60,
		Variance:   5,
	})

	payload := res.Sample()
	assert.Equal(t, "web-1", payload.ResourceID)

	names := make(map[string]float64)
	for _, m := range payload.Metrics {
		names[m.Name] = m.Value
	}
	require.Contains(t, names, "cpu_usage")
	require.Contains(t, names, "memory_usage")
	require.Contains(t, names, "disk_usage")
	require.Contains(t, names, "request_rate")
	require.Contains(t, names, "error_rate")

	assert.InDelta(t, 50, names["cpu_usage"], 6)
	assert.GreaterOrEqual(t, names["error_rate"], 0.0)
}

func TestResourceSim_SpikeRaisesCPU(t *testing.T) {
	res := NewResourceSim("web-1", ResourceSimConfig{BaseCPU: 30, Variance: 1})
	res.InjectSpike(95, time.Minute, 0)

	payload := res.Sample()
	var cpu float64
	for _, m := range payload.Metrics {
		if m.Name == "cpu_usage" {
			cpu = m.Value
		}
	}
	assert.Greater(t, cpu, 85.0)

	status := res.Status()
	assert.Contains(t, status, "spike_target")
}

func TestSimulator_GetOrCreateResource(t *testing.T) {
	sim := New(Config{})

	first := sim.GetOrCreateResource("web-1")
	second := sim.GetOrCreateResource("web-1")
	assert.Same(t, first, second)

	_, exists := sim.GetResource("missing")
	assert.False(t, exists)
}
