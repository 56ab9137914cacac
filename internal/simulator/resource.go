package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/vigilops/vigil/pkg/models"
)

type ResourceSimConfig struct {
	BaseCPU    float64
	BaseMemory float64
	BaseDisk   float64
	Variance   float64
}

// ResourceSim models a single monitored resource. CPU follows the
// configured pattern; memory and error rate are derived from CPU so
// injected spikes ripple through related metrics the way they do on
// real hosts.
type ResourceSim struct {
	id                string
	baseCPU           float64
	baseMemory        float64
	baseDisk          float64
	variance          float64
	pattern           Pattern
	spike             *Spike
	memoryCorrelation float64
	errorFloor        float64
	createdAt         time.Time
	mu                sync.RWMutex
}

// Spike temporarily drives CPU toward a target with a linear ramp-up.
type Spike struct {
	TargetCPU   float64
	StartTime   time.Time
	Duration    time.Duration
	RampUp      time.Duration
	OriginalCPU float64
}

func NewResourceSim(id string, cfg ResourceSimConfig) *ResourceSim {
	if cfg.BaseCPU <= 0 {
		cfg.BaseCPU = 50.0
	}
	if cfg.BaseMemory <= 0 {
		cfg.BaseMemory = 60.0
	}
	if cfg.BaseDisk <= 0 {
		cfg.BaseDisk = 40.0
	}
	if cfg.Variance <= 0 {
		cfg.Variance = 10.0
	}

	return &ResourceSim{
		id:                id,
		baseCPU:           cfg.BaseCPU,
		baseMemory:        cfg.BaseMemory,
		baseDisk:          cfg.BaseDisk,
		variance:          cfg.Variance,
		pattern:           PatternSteady,
		memoryCorrelation: 0.6,
		errorFloor:        0.5,
		createdAt:         time.Now(),
	}
}

// Sample produces the current metric set in the agent wire format.
func (r *ResourceSim) Sample() *AgentPayload {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpu := r.currentCPU()
	memory := r.currentMemory(cpu)
	disk := r.baseDisk

	// Error rate stays near the floor until CPU saturates.
	errorRate := r.errorFloor
	if cpu > 85 {
		errorRate += (cpu - 85) * 0.4
	}

	// Request rate scales with load level relative to the base.
	requestRate := 100.0 * (cpu / r.baseCPU)

	return &AgentPayload{
		ResourceID: r.id,
		Timestamp:  time.Now().Format(time.RFC3339),
		Metrics: []AgentMetric{
			{Name: "cpu_usage", Value: r.jitter(cpu, r.variance), Type: string(models.MetricTypeGauge), Unit: "percent", Help: "CPU utilization"},
			{Name: "memory_usage", Value: r.jitter(memory, r.variance/2), Type: string(models.MetricTypeGauge), Unit: "percent", Help: "Memory utilization"},
			{Name: "disk_usage", Value: r.jitter(disk, r.variance/4), Type: string(models.MetricTypeGauge), Unit: "percent", Help: "Disk utilization"},
			{Name: "request_rate", Value: math.Max(0, r.jitter(requestRate, 30)), Type: string(models.MetricTypeGauge), Unit: "rps", Help: "Requests per second"},
			{Name: "error_rate", Value: math.Max(0, r.jitter(errorRate, 0.3)), Type: string(models.MetricTypeGauge), Unit: "percent", Help: "Request error rate"},
		},
	}
}

func (r *ResourceSim) currentCPU() float64 {
	cpu := r.pattern.Apply(r.baseCPU)

	if r.spike != nil {
		elapsed := time.Since(r.spike.StartTime)
		switch {
		case elapsed > r.spike.Duration:
			r.spike = nil
		case elapsed < r.spike.RampUp:
			progress := float64(elapsed) / float64(r.spike.RampUp)
			cpu = r.spike.OriginalCPU + (r.spike.TargetCPU-r.spike.OriginalCPU)*progress
		default:
			cpu = r.spike.TargetCPU
		}
	}

	return cpu
}

func (r *ResourceSim) currentMemory(cpu float64) float64 {
	memory := r.baseMemory + (cpu-r.baseCPU)*r.memoryCorrelation
	if memory < 10 {
		memory = 10
	}
	if memory > 100 {
		memory = 100
	}
	return memory
}

func (r *ResourceSim) jitter(base, variance float64) float64 {
	value := base + (rand.Float64()*2-1)*variance
	if value < 0 {
		value = 0
	}
	return math.Round(value*100) / 100
}

func (r *ResourceSim) SetBaseCPU(cpu float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseCPU = cpu
}

func (r *ResourceSim) SetBaseMemory(memory float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseMemory = memory
}

func (r *ResourceSim) SetVariance(variance float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variance = variance
}

func (r *ResourceSim) SetPattern(pattern Pattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pattern = pattern
}

func (r *ResourceSim) GetPattern() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pattern.Name()
}

func (r *ResourceSim) InjectSpike(targetCPU float64, duration, rampUp time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spike = &Spike{
		TargetCPU:   targetCPU,
		StartTime:   time.Now(),
		Duration:    duration,
		RampUp:      rampUp,
		OriginalCPU: r.baseCPU,
	}
}

func (r *ResourceSim) Status() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := map[string]interface{}{
		"id":          r.id,
		"base_cpu":    r.baseCPU,
		"base_memory": r.baseMemory,
		"base_disk":   r.baseDisk,
		"variance":    r.variance,
		"pattern":     r.pattern.Name(),
		"created_at":  r.createdAt.Format(time.RFC3339),
	}
	if r.spike != nil {
		status["spike_target"] = r.spike.TargetCPU
		status["spike_ends_at"] = r.spike.StartTime.Add(r.spike.Duration).Format(time.RFC3339)
	}
	return status
}
