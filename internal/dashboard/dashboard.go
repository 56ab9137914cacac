package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vigilops/vigil/pkg/models"
)

var (
	ErrNotFound  = errors.New("dashboard not found")
	ErrDuplicate = errors.New("dashboard already exists")
)

// Registry holds dashboard definitions keyed by id. The built-in
// dashboards are seeded at construction and behave like user-created
// ones.
type Registry struct {
	mu         sync.RWMutex
	dashboards map[string]*models.Dashboard
}

func NewRegistry() *Registry {
	r := &Registry{dashboards: make(map[string]*models.Dashboard)}
	for _, d := range builtinDashboards() {
		r.dashboards[d.ID] = d
	}
	return r
}

func (r *Registry) Create(d *models.Dashboard) error {
	if d.ID == "" {
		d.ID = models.NewUUID()
	}
	if d.Title == "" {
		return fmt.Errorf("dashboard %s: title required", d.ID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.dashboards[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, d.ID)
	}
	r.dashboards[d.ID] = d
	return nil
}

func (r *Registry) Get(id string) (*models.Dashboard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dashboards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dashboards[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.dashboards, id)
	return nil
}

// List returns dashboard summaries sorted by title.
func (r *Registry) List() []models.DashboardSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DashboardSummary, 0, len(r.dashboards))
	for _, d := range r.dashboards {
		out = append(out, models.DashboardSummary{ID: d.ID, Title: d.Title, Tags: d.Tags})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Export wraps a dashboard in a versioned envelope suitable for
// sharing and later import.
func (r *Registry) Export(id string) (*models.DashboardExport, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return &models.DashboardExport{
		Version:    models.DashboardExportVersion,
		ExportedAt: time.Now(),
		Dashboard:  d,
	}, nil
}

// Import installs an exported dashboard. A dashboard with the same id
// is replaced.
func (r *Registry) Import(export *models.DashboardExport) error {
	if export == nil || export.Dashboard == nil {
		return errors.New("export payload is empty")
	}
	if export.Version != models.DashboardExportVersion {
		return fmt.Errorf("unsupported export version %d", export.Version)
	}
	d := export.Dashboard
	if d.ID == "" {
		d.ID = models.NewUUID()
	}
	if d.Title == "" {
		return errors.New("imported dashboard requires a title")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboards[d.ID] = d
	return nil
}

func builtinDashboards() []*models.Dashboard {
	return []*models.Dashboard{
		{
			ID:    "system-overview",
			Title: "System Overview",
			Tags:  []string{"builtin"},
			Panels: []models.Panel{
				{
					ID: "cpu", Title: "CPU Usage", Query: "cpu_usage",
					DisplayType: "graph", Unit: "percent",
					Layout: models.PanelLayout{X: 0, Y: 0, Width: 6, Height: 4},
				},
				{
					ID: "memory", Title: "Memory Usage", Query: "memory_usage",
					DisplayType: "graph", Unit: "percent",
					Layout: models.PanelLayout{X: 6, Y: 0, Width: 6, Height: 4},
				},
				{
					ID: "requests", Title: "Request Rate", Query: "request_rate",
					DisplayType: "graph", Unit: "rps",
					Layout: models.PanelLayout{X: 0, Y: 4, Width: 12, Height: 4},
				},
			},
			Alerts: []models.DashboardAlertCondition{
				{Query: "cpu_usage", Threshold: 90, Operator: ">", Channels: []string{"log"}},
			},
		},
		{
			ID:    "alert-activity",
			Title: "Alert Activity",
			Tags:  []string{"builtin"},
			Panels: []models.Panel{
				{
					ID: "active-alerts", Title: "Active Alerts", Query: "vigil_active_alerts",
					DisplayType: "stat",
					Layout:      models.PanelLayout{X: 0, Y: 0, Width: 4, Height: 3},
				},
				{
					ID: "remediations", Title: "Remediations", Query: "vigil_remediations_total",
					DisplayType: "stat",
					Layout:      models.PanelLayout{X: 4, Y: 0, Width: 4, Height: 3},
				},
			},
		},
	}
}
