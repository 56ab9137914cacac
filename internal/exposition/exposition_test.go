package exposition

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/internal/store"
	"github.com/vigilops/vigil/pkg/models"
)

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/plain; version=0.0.4; charset=utf-8", ContentType)
}

func TestRender_FamilyStructure(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	families := []store.Family{
		{
			Name: "cpu_usage",
			Help: "CPU utilization",
			Type: models.MetricTypeGauge,
			Series: []store.SeriesPoint{
				{Labels: map[string]string{"resource": "web-1"}, Value: 42.5, Timestamp: ts},
			},
		},
	}

	out := Render(families)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "# HELP cpu_usage CPU utilization", lines[0])
	assert.Equal(t, "# TYPE cpu_usage gauge", lines[1])
	assert.Equal(t, `cpu_usage{resource="web-1"} 42.5 1785585600000`, lines[2])
}

func TestRender_NoTimestamp(t *testing.T) {
	out := Render([]store.Family{{
		Name:   "requests_total",
		Type:   models.MetricTypeCounter,
		Series: []store.SeriesPoint{{Value: 17}},
	}})

	assert.Contains(t, out, "# TYPE requests_total counter\n")
	assert.Contains(t, out, "requests_total 17\n")
}

func TestRender_SortedLabels(t *testing.T) {
	out := Render([]store.Family{{
		Name: "http_requests",
		Type: models.MetricTypeGauge,
		Series: []store.SeriesPoint{
			{Labels: map[string]string{"status": "200", "method": "GET", "resource": "api-1"}, Value: 5},
		},
	}})

	assert.Contains(t, out, `http_requests{method="GET",resource="api-1",status="200"} 5`)
}

func TestRender_Escaping(t *testing.T) {
	out := Render([]store.Family{{
		Name: "disk_usage",
		Help: "Utilization of \"data\"\nvolumes",
		Type: models.MetricTypeGauge,
		Series: []store.SeriesPoint{
			{Labels: map[string]string{"path": `C:\data`, "note": "line1\nline2", "q": `say "hi"`}, Value: 1},
		},
	}})

	// Help escapes backslash and newline but not quotes.
	assert.Contains(t, out, `# HELP disk_usage Utilization of "data"\nvolumes`)
	// Label values escape backslash, quote and newline.
	assert.Contains(t, out, `path="C:\\data"`)
	assert.Contains(t, out, `note="line1\nline2"`)
	assert.Contains(t, out, `q="say \"hi\""`)
}

func TestRender_FromStoreSnapshot(t *testing.T) {
	s := store.New(store.Config{})
	require.NoError(t, s.RegisterMetric("cpu_usage", "CPU utilization", models.MetricTypeGauge))

	_, err := s.Observe("web-1", models.MetricData{Name: "cpu_usage", Value: 55})
	require.NoError(t, err)
	_, err = s.Observe("db-1", models.MetricData{Name: "cpu_usage", Value: 30})
	require.NoError(t, err)

	out := Render(s.Snapshot())

	// One HELP/TYPE pair, one line per resource, resources sorted.
	assert.Equal(t, 1, strings.Count(out, "# HELP cpu_usage"))
	assert.Equal(t, 1, strings.Count(out, "# TYPE cpu_usage gauge"))
	dbIdx := strings.Index(out, `cpu_usage{resource="db-1"} 30`)
	webIdx := strings.Index(out, `cpu_usage{resource="web-1"} 55`)
	require.NotEqual(t, -1, dbIdx)
	require.NotEqual(t, -1, webIdx)
	assert.Less(t, dbIdx, webIdx)
}
