package store

import (
	"sort"
	"time"

	"github.com/vigilops/vigil/pkg/models"
)

// SeriesPoint is one label combination's current value in a snapshot.
type SeriesPoint struct {
	Labels    map[string]string
	Value     float64
	Timestamp time.Time
}

// Family groups all series of one metric name with its metadata.
type Family struct {
	Name   string
	Help   string
	Type   models.MetricType
	Series []SeriesPoint
}

// Snapshot returns the current value of every series, grouped by metric
// name and sorted for deterministic exposition. Each point carries a
// "resource" label identifying the owning resource.
func (s *Store) Snapshot() []Family {
	s.mu.RLock()
	resourceIDs := make([]string, 0, len(s.resources))
	for id := range s.resources {
		resourceIDs = append(resourceIDs, id)
	}
	meta := make(map[string]*family, len(s.families))
	for name, f := range s.families {
		meta[name] = f
	}
	s.mu.RUnlock()
	sort.Strings(resourceIDs)

	byName := make(map[string]*Family)
	for _, resourceID := range resourceIDs {
		rs := s.resourceState(resourceID)
		rs.mu.Lock()
		for _, sr := range rs.series {
			if sr.stats.Count == 0 {
				continue
			}
			fam, ok := byName[sr.name]
			if !ok {
				fam = &Family{Name: sr.name, Type: models.MetricTypeGauge}
				if f, ok := meta[sr.name]; ok {
					fam.Help = f.help
					fam.Type = f.typ
				}
				byName[sr.name] = fam
			}

			labels := make(map[string]string, len(sr.labels)+1)
			for k, v := range sr.labels {
				labels[k] = v
			}
			labels["resource"] = resourceID

			ts := time.Time{}
			if n := len(sr.samples); n > 0 {
				ts = sr.samples[n-1].Timestamp
			}
			fam.Series = append(fam.Series, SeriesPoint{
				Labels:    labels,
				Value:     sr.stats.Current,
				Timestamp: ts,
			})
		}
		rs.mu.Unlock()
	}

	out := make([]Family, 0, len(byName))
	for _, fam := range byName {
		sort.Slice(fam.Series, func(i, j int) bool {
			return labelKey(fam.Series[i].Labels) < labelKey(fam.Series[j].Labels)
		})
		out = append(out, *fam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func labelKey(labels map[string]string) string {
	return models.SeriesKey("", labels)
}
