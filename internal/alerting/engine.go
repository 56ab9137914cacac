package alerting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vigilops/vigil/internal/events"
	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/notify"
	"github.com/vigilops/vigil/internal/telemetry"
	"github.com/vigilops/vigil/pkg/models"
)

var (
	ErrAlertNotFound     = errors.New("alert not found")
	ErrInvalidTransition = errors.New("invalid alert status transition")
	ErrDuplicateRule     = errors.New("alert rule already registered")
)

// Healer receives issues derived from auto-remediating rules.
type Healer interface {
	Heal(ctx context.Context, issue *models.Issue) (*models.HealingRecord, error)
}

type Config struct {
	CooldownWindow    time.Duration
	CorrelationWindow time.Duration
	DispatchTimeout   time.Duration
	AutoRemediation   bool
	// Dependencies maps a resource to the resources it depends on.
	// Correlation treats the relation as symmetric.
	Dependencies map[string][]string
}

// Engine evaluates classified observations against registered alert
// rules and owns the alert lifecycle.
type Engine struct {
	config   Config
	channels *notify.Registry
	pub      *events.Publisher
	healer   Healer

	mu     sync.RWMutex
	rules  []*models.AlertRule
	byID   map[string]*models.AlertRule
	alerts map[string]*models.Alert
	// latest alert per (ruleID, resourceID), consulted for suppression
	lastFired map[string]*models.Alert

	actions *actionCatalog
}

func NewEngine(cfg Config, channels *notify.Registry, pub *events.Publisher) *Engine {
	if cfg.CooldownWindow == 0 {
		cfg.CooldownWindow = 5 * time.Minute
	}
	if cfg.CorrelationWindow == 0 {
		cfg.CorrelationWindow = 2 * time.Minute
	}
	if cfg.DispatchTimeout == 0 {
		cfg.DispatchTimeout = 5 * time.Second
	}

	return &Engine{
		config:    cfg,
		channels:  channels,
		pub:       pub,
		byID:      make(map[string]*models.AlertRule),
		alerts:    make(map[string]*models.Alert),
		lastFired: make(map[string]*models.Alert),
		actions:   newActionCatalog(),
	}
}

// SetHealer wires the self-healing orchestrator for auto-remediating
// rules. Optional; without it the auto-remediation flag is ignored.
func (e *Engine) SetHealer(h Healer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.healer = h
}

// RegisterRule adds a rule. Rules are immutable once registered.
func (e *Engine) RegisterRule(rule *models.AlertRule) error {
	if rule.ID == "" {
		return errors.New("alert rule requires an id")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byID[rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}
	e.byID[rule.ID] = rule
	e.rules = append(e.rules, rule)

	logger.WithRule(rule.ID).Infof("Alert rule registered: %s", rule.Title)
	return nil
}

// RegisterSuggestedActions associates operator guidance with a rule id.
func (e *Engine) RegisterSuggestedActions(ruleID string, actions []string) {
	e.actions.register(ruleID, actions)
}

func (e *Engine) Rules() []*models.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*models.AlertRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every applicable rule against the observation and
// returns the alerts created. Suppressed matches create nothing.
func (e *Engine) Evaluate(ctx context.Context, obs *models.ClassifiedObservation) []*models.Alert {
	e.mu.RLock()
	rules := make([]*models.AlertRule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()

	var created []*models.Alert
	for _, rule := range rules {
		if !rule.AppliesTo(obs) {
			continue
		}
		if !rule.Condition.Matches(obs) {
			continue
		}

		alert, suppressed := e.fire(rule, obs)
		if suppressed {
			telemetry.Get().IncAlertSuppressed()
			logger.WithRule(rule.ID).Debugf("Alert suppressed for %s (cooldown)", obs.ResourceID)
			continue
		}

		telemetry.Get().IncAlertTriggered(rule.ID)
		e.pub.AlertCreated(alert)
		e.dispatch(ctx, rule, alert)

		if rule.AutoRemediate {
			e.autoRemediate(ctx, rule, alert, obs)
		}

		created = append(created, alert)
	}

	e.updateActiveGauge()
	return created
}

// fire applies suppression and, when the alert survives, records it with
// correlation and suggested actions attached.
func (e *Engine) fire(rule *models.AlertRule, obs *models.ClassifiedObservation) (*models.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := rule.ID + "|" + obs.ResourceID
	if prev, ok := e.lastFired[key]; ok {
		if prev.IsOpen() && time.Since(prev.CreatedAt) < e.config.CooldownWindow {
			return nil, true
		}
	}

	alert := models.NewAlert(rule, obs)
	alert.CorrelatedIDs = e.correlatedLocked(alert)
	alert.SuggestedActions = e.actions.lookup(rule.ID, obs.Category)

	e.alerts[alert.ID] = alert
	e.lastFired[key] = alert
	return alert, false
}

// correlatedLocked finds other open alerts on dependent resources or
// created within the correlation window. Caller holds e.mu.
func (e *Engine) correlatedLocked(alert *models.Alert) []string {
	var out []string
	for id, other := range e.alerts {
		if id == alert.ID || !other.IsOpen() {
			continue
		}
		if e.related(alert.ResourceID, other.ResourceID) ||
			alert.CreatedAt.Sub(other.CreatedAt) < e.config.CorrelationWindow {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (e *Engine) related(a, b string) bool {
	for _, dep := range e.config.Dependencies[a] {
		if dep == b {
			return true
		}
	}
	for _, dep := range e.config.Dependencies[b] {
		if dep == a {
			return true
		}
	}
	return false
}

// dispatch delivers the alert to the rule's channels. Failures are
// logged and counted, never returned.
func (e *Engine) dispatch(ctx context.Context, rule *models.AlertRule, alert *models.Alert) {
	channels := rule.Channels
	if len(channels) == 0 {
		channels = []string{"log"}
	}

	for _, name := range channels {
		ch, err := e.channels.Get(name)
		if err != nil {
			logger.WithRule(rule.ID).Warnf("Unknown notification channel %q", name)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, e.config.DispatchTimeout)
		err = ch.Send(sendCtx, alert)
		cancel()

		if err != nil {
			telemetry.Get().IncChannelFailure(name)
			e.pub.ChannelFailure(name, alert, err)
			logger.WithRule(rule.ID).Warnf("Channel %q delivery failed: %v", name, err)
		}
	}
}

func (e *Engine) autoRemediate(ctx context.Context, rule *models.AlertRule, alert *models.Alert, obs *models.ClassifiedObservation) {
	e.mu.RLock()
	healer := e.healer
	enabled := e.config.AutoRemediation
	e.mu.RUnlock()

	if !enabled || healer == nil {
		return
	}

	issueType := rule.IssueType
	if issueType == "" {
		issueType = "anomaly"
	}

	issue := &models.Issue{
		ID:         models.NewUUID(),
		Type:       issueType,
		ResourceID: alert.ResourceID,
		Severity:   alert.Severity,
		AlertID:    alert.ID,
		Indicators: map[string]float64{
			obs.MetricName: obs.Value,
			"deviation":    obs.Deviation,
		},
		Details:    alert.Message,
		DetectedAt: time.Now(),
	}

	if _, err := healer.Heal(ctx, issue); err != nil {
		logger.WithResource(alert.ResourceID).Warnf("Auto-remediation failed: %v", err)
	}
}

// Acknowledge moves an active alert to acknowledged.
func (e *Engine) Acknowledge(alertID string) (*models.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.alerts[alertID]
	if !ok {
		return nil, ErrAlertNotFound
	}
	if alert.Status != models.AlertStatusActive {
		return nil, fmt.Errorf("%w: %s -> acknowledged", ErrInvalidTransition, alert.Status)
	}

	now := time.Now()
	alert.Status = models.AlertStatusAcknowledged
	alert.AcknowledgedAt = &now

	e.pub.AlertAcknowledged(alert)
	return alert, nil
}

// Resolve moves an alert to its terminal state. A recurrence requires a
// fresh alert; resolved alerts never reactivate.
func (e *Engine) Resolve(alertID string) (*models.Alert, error) {
	e.mu.Lock()
	alert, ok := e.alerts[alertID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrAlertNotFound
	}
	if alert.Status == models.AlertStatusResolved {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: resolved is terminal", ErrInvalidTransition)
	}

	now := time.Now()
	alert.Status = models.AlertStatusResolved
	alert.ResolvedAt = &now
	e.mu.Unlock()

	e.pub.AlertResolved(alert)
	e.updateActiveGauge()
	return alert, nil
}

// Get returns one alert by id.
func (e *Engine) Get(alertID string) (*models.Alert, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	alert, ok := e.alerts[alertID]
	if !ok {
		return nil, ErrAlertNotFound
	}
	return alert, nil
}

// Alerts lists alerts, optionally filtered by status, newest first.
func (e *Engine) Alerts(status models.AlertStatus) []*models.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.Alert, 0, len(e.alerts))
	for _, a := range e.alerts {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (e *Engine) updateActiveGauge() {
	e.mu.RLock()
	n := 0
	for _, a := range e.alerts {
		if a.IsOpen() {
			n++
		}
	}
	e.mu.RUnlock()
	telemetry.Get().SetActiveAlerts(n)
}
