package models

import (
	"sort"
	"strings"
	"time"
)

type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// MetricData is a single metric observation as submitted by a collector
// or an ad-hoc observe call.
type MetricData struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Type      MetricType        `json:"type,omitempty"`
	Unit      string            `json:"unit,omitempty"`
	Help      string            `json:"help,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// Sample is one recorded point in a metric's bounded history.
type Sample struct {
	Timestamp time.Time         `json:"timestamp"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// MetricStats holds the running aggregates for one metric series.
type MetricStats struct {
	Current float64 `json:"current"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Sum     float64 `json:"sum"`
	Count   int64   `json:"count"`
}

func (s MetricStats) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// SeriesKey builds the unique identity of a metric series from its name
// and label set. Labels are sorted so equal sets produce equal keys.
func SeriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

// ResourceMetrics is one collection cycle's worth of observations for a
// monitored resource.
type ResourceMetrics struct {
	ResourceID string       `json:"resource_id"`
	Timestamp  time.Time    `json:"timestamp"`
	Metrics    []MetricData `json:"metrics"`
}
