package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/pkg/models"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	overview, err := r.Get("system-overview")
	require.NoError(t, err)
	assert.Equal(t, "System Overview", overview.Title)
	assert.NotEmpty(t, overview.Panels)

	_, err = r.Get("alert-activity")
	require.NoError(t, err)
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := NewRegistry()

	d := &models.Dashboard{Title: "Team Dashboard"}
	require.NoError(t, r.Create(d))
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())

	got, err := r.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team Dashboard", got.Title)

	require.NoError(t, r.Delete(d.ID))
	_, err = r.Get(d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_CreateValidation(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Create(&models.Dashboard{}))

	d := &models.Dashboard{ID: "system-overview", Title: "Clone"}
	assert.ErrorIs(t, r.Create(d), ErrDuplicate)
}

func TestRegistry_ListSortedByTitle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create(&models.Dashboard{Title: "AAA First"}))

	list := r.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "AAA First", list[0].Title)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Title, list[i].Title)
	}
}

func TestRegistry_ExportImportRoundTrip(t *testing.T) {
	src := NewRegistry()
	d := &models.Dashboard{
		Title: "Capacity Planning",
		Tags:  []string{"capacity"},
		Panels: []models.Panel{
			{ID: "disk", Title: "Disk Usage", Query: "disk_usage", DisplayType: "graph"},
		},
	}
	require.NoError(t, src.Create(d))

	export, err := src.Export(d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardExportVersion, export.Version)

	// Round-trip through JSON the way the HTTP layer would.
	raw, err := json.Marshal(export)
	require.NoError(t, err)
	var decoded models.DashboardExport
	require.NoError(t, json.Unmarshal(raw, &decoded))

	dst := NewRegistry()
	require.NoError(t, dst.Import(&decoded))

	got, err := dst.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capacity Planning", got.Title)
	require.Len(t, got.Panels, 1)
	assert.Equal(t, "disk_usage", got.Panels[0].Query)
}

func TestRegistry_ImportRejectsBadPayload(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Import(nil))
	assert.Error(t, r.Import(&models.DashboardExport{Version: models.DashboardExportVersion}))
	assert.Error(t, r.Import(&models.DashboardExport{
		Version:   99,
		Dashboard: &models.Dashboard{Title: "X"},
	}))
	assert.Error(t, r.Import(&models.DashboardExport{
		Version:   models.DashboardExportVersion,
		Dashboard: &models.Dashboard{},
	}))
}

func TestRegistry_ImportReplacesExisting(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Import(&models.DashboardExport{
		Version:   models.DashboardExportVersion,
		Dashboard: &models.Dashboard{ID: "system-overview", Title: "Replaced"},
	}))

	got, err := r.Get("system-overview")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.Title)
}
