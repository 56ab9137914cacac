package models

import "time"

// PanelLayout positions a panel on the dashboard grid.
type PanelLayout struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Panel is one visualization on a dashboard.
type Panel struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Query       string      `json:"query"`
	DisplayType string      `json:"display_type"`
	Unit        string      `json:"unit,omitempty"`
	Layout      PanelLayout `json:"layout"`
}

// DashboardAlertCondition is an alert definition embedded in a dashboard
// export, consumable by an external visualization system.
type DashboardAlertCondition struct {
	Query     string            `json:"query"`
	Threshold float64           `json:"threshold"`
	Operator  ConditionOperator `json:"operator"`
	Channels  []string          `json:"channels,omitempty"`
}

// Dashboard is a registered dashboard definition.
type Dashboard struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Description string                    `json:"description,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
	Panels      []Panel                   `json:"panels"`
	Alerts      []DashboardAlertCondition `json:"alerts,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// DashboardSummary is the list representation of a dashboard.
type DashboardSummary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// DashboardExport is the portable document produced by the export
// endpoint and accepted back by import.
type DashboardExport struct {
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exported_at"`
	Dashboard  *Dashboard `json:"dashboard"`
}

const DashboardExportVersion = 1
