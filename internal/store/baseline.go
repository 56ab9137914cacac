package store

import (
	"math"
	"time"
)

// Baseline is the rolling statistical expectation for one resource
// metric. It is refreshed incrementally (Welford's algorithm) and never
// regresses except by explicit reset.
type Baseline struct {
	Count     int64
	Mean      float64
	m2        float64
	UpdatedAt time.Time
}

func (b *Baseline) Update(value float64) {
	b.Count++
	delta := value - b.Mean
	b.Mean += delta / float64(b.Count)
	b.m2 += delta * (value - b.Mean)
	b.UpdatedAt = time.Now()
}

func (b *Baseline) Variance() float64 {
	if b.Count < 2 {
		return 0
	}
	return b.m2 / float64(b.Count)
}

func (b *Baseline) StdDev() float64 {
	return math.Sqrt(b.Variance())
}

func (b *Baseline) Reset() {
	b.Count = 0
	b.Mean = 0
	b.m2 = 0
	b.UpdatedAt = time.Now()
}

// Seed initializes the baseline to a known mean/stddev, used for
// administrative warm starts. Count must be at least 2 for the variance
// to be retained.
func (b *Baseline) Seed(mean, stddev float64, count int64) {
	if count < 2 {
		count = 2
	}
	b.Count = count
	b.Mean = mean
	b.m2 = stddev * stddev * float64(count)
	b.UpdatedAt = time.Now()
}

// BaselineStats is the read-only view of a baseline.
type BaselineStats struct {
	Count     int64     `json:"count"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"stddev"`
	UpdatedAt time.Time `json:"updated_at"`
}
