package healing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vigilops/vigil/internal/events"
	"github.com/vigilops/vigil/internal/logger"
	"github.com/vigilops/vigil/internal/telemetry"
	"github.com/vigilops/vigil/pkg/models"
)

var (
	// ErrNoApplicableRemediation means no rule matched the issue type.
	// The orchestrator records nothing in that case.
	ErrNoApplicableRemediation = errors.New("no applicable remediation")

	ErrDuplicateRule   = errors.New("healing rule already registered")
	ErrUnknownExecutor = errors.New("no executor for action type")
)

// Executor carries out one remediation action. Implementations must
// honor the context deadline.
type Executor interface {
	Execute(ctx context.Context, issue *models.Issue, action models.RemediationAction) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, issue *models.Issue, action models.RemediationAction) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, issue *models.Issue, action models.RemediationAction) (string, error) {
	return f(ctx, issue, action)
}

// StateProber samples system indicators before and after a remediation
// so its effect can be validated.
type StateProber interface {
	Probe(ctx context.Context, resourceID string) (models.SystemSnapshot, error)
}

type Config struct {
	// ActionTimeout bounds a single action attempt when the action does
	// not carry its own timeout.
	ActionTimeout time.Duration
	// RetryDelay is the pause between attempts of a failed action.
	RetryDelay time.Duration
	// MaxRecords caps the retained remediation history.
	MaxRecords int
}

func DefaultConfig() Config {
	return Config{
		ActionTimeout: 30 * time.Second,
		RetryDelay:    2 * time.Second,
		MaxRecords:    200,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = def.ActionTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = def.MaxRecords
	}
}

// Orchestrator matches issues to healing rules and runs their actions.
// Healing for the same resource is serialized; distinct resources heal
// in parallel.
type Orchestrator struct {
	cfg    Config
	pub    *events.Publisher
	prober StateProber

	mu        sync.RWMutex
	rules     []*models.HealingRule
	byID      map[string]*models.HealingRule
	executors map[string]Executor
	records   []*models.HealingRecord
	locks     map[string]*sync.Mutex
}

func NewOrchestrator(cfg Config, pub *events.Publisher) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:       cfg,
		pub:       pub,
		byID:      make(map[string]*models.HealingRule),
		executors: make(map[string]Executor),
		locks:     make(map[string]*sync.Mutex),
	}
}

// SetProber installs the before/after state prober. Optional; without
// one, records carry no validation verdict.
func (o *Orchestrator) SetProber(p StateProber) {
	o.mu.Lock()
	o.prober = p
	o.mu.Unlock()
}

// RegisterExecutor binds an action type to its executor.
func (o *Orchestrator) RegisterExecutor(actionType string, e Executor) {
	o.mu.Lock()
	o.executors[actionType] = e
	o.mu.Unlock()
}

// RegisterRule adds a healing rule. Rules are kept ordered by priority,
// highest first; ties keep registration order.
func (o *Orchestrator) RegisterRule(rule *models.HealingRule) error {
	if rule.ID == "" {
		rule.ID = models.NewUUID()
	}
	if rule.TriggerType == "" {
		return fmt.Errorf("healing rule %s: trigger type required", rule.ID)
	}
	if len(rule.Actions) == 0 {
		return fmt.Errorf("healing rule %s: at least one action required", rule.ID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.byID[rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}
	o.byID[rule.ID] = rule
	o.rules = append(o.rules, rule)
	sort.SliceStable(o.rules, func(i, j int) bool { return o.rules[i].Priority > o.rules[j].Priority })
	return nil
}

// Rules returns registered rules ordered by descending priority.
func (o *Orchestrator) Rules() []*models.HealingRule {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*models.HealingRule, len(o.rules))
	copy(out, o.rules)
	return out
}

// Heal runs the single highest-priority rule matching the issue type.
// Lower-priority matches never run, even if the chosen rule fails.
func (o *Orchestrator) Heal(ctx context.Context, issue *models.Issue) (*models.HealingRecord, error) {
	rule := o.match(issue.Type)
	if rule == nil {
		logger.WithResource(issue.ResourceID).Debugf("No healing rule for issue type %s", issue.Type)
		return nil, fmt.Errorf("%w: issue type %s", ErrNoApplicableRemediation, issue.Type)
	}

	lock := o.resourceLock(issue.ResourceID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	if o.pub != nil {
		o.pub.HealingStarted(issue, rule.ID)
	}
	logger.WithResource(issue.ResourceID).WithFields(map[string]interface{}{
		"rule_id":    rule.ID,
		"issue_id":   issue.ID,
		"issue_type": issue.Type,
	}).Info("Remediation started")

	record := &models.HealingRecord{
		ID:         models.NewUUID(),
		RuleID:     rule.ID,
		IssueID:    issue.ID,
		IssueType:  issue.Type,
		ResourceID: issue.ResourceID,
		StartedAt:  started,
	}
	record.Before = o.probe(ctx, issue.ResourceID)

	success := true
	for _, action := range rule.Actions {
		result := o.runAction(ctx, issue, action, rule.RetryCount)
		record.Actions = append(record.Actions, result)
		if !result.Success {
			success = false
		}
	}

	record.After = o.probe(ctx, issue.ResourceID)
	record.Validated = record.Before != nil && record.After != nil
	if record.Validated {
		record.Improved = improved(issue, record.Before, record.After)
	}
	record.Success = success
	now := time.Now()
	record.CompletedAt = now

	o.appendRecord(record)
	telemetry.Get().IncRemediation(issue.Type, !success)
	telemetry.Get().SetHealingLatency(now.Sub(started))

	if o.pub != nil {
		if success {
			o.pub.HealingComplete(record)
		} else {
			o.pub.HealingFailed(issue, "one or more actions failed", nil)
		}
	}
	logger.WithResource(issue.ResourceID).WithFields(map[string]interface{}{
		"rule_id":  rule.ID,
		"success":  success,
		"improved": record.Improved,
		"duration": now.Sub(started).String(),
	}).Info("Remediation finished")

	return record, nil
}

// runAction executes one action with retries. A timed-out attempt
// counts as a failure like any other error.
func (o *Orchestrator) runAction(ctx context.Context, issue *models.Issue, action models.RemediationAction, retries int) models.ActionResult {
	result := models.ActionResult{Action: action.Name, Type: action.Type}

	o.mu.RLock()
	executor, ok := o.executors[action.Type]
	o.mu.RUnlock()
	if !ok {
		result.Error = fmt.Sprintf("%v: %s", ErrUnknownExecutor, action.Type)
		return result
	}

	timeout := action.Timeout
	if timeout <= 0 {
		timeout = o.cfg.ActionTimeout
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		result.Attempts = attempt + 1
		if attempt > 0 {
			select {
			case <-time.After(o.cfg.RetryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = retries
			}
			if lastErr != nil && ctx.Err() != nil {
				break
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		output, err := executor.Execute(attemptCtx, issue, action)
		cancel()
		if err == nil {
			result.Success = true
			result.Output = output
			break
		}
		lastErr = err
	}
	result.Duration = time.Since(start)

	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
		logger.WithResource(issue.ResourceID).Warnf(
			"Remediation action %s failed after %d attempts: %v",
			action.Name, result.Attempts, lastErr,
		)
	}
	return result
}

// Records returns retained remediation records, oldest first.
func (o *Orchestrator) Records() []*models.HealingRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*models.HealingRecord, len(o.records))
	copy(out, o.records)
	return out
}

// RecordsFor filters records by resource id, oldest first.
func (o *Orchestrator) RecordsFor(resourceID string) []*models.HealingRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var out []*models.HealingRecord
	for _, r := range o.records {
		if r.ResourceID == resourceID {
			out = append(out, r)
		}
	}
	return out
}

func (o *Orchestrator) match(issueType string) *models.HealingRule {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, rule := range o.rules {
		if rule.TriggerType == issueType {
			return rule
		}
	}
	return nil
}

func (o *Orchestrator) resourceLock(resourceID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[resourceID] = lock
	}
	return lock
}

func (o *Orchestrator) probe(ctx context.Context, resourceID string) *models.SystemSnapshot {
	o.mu.RLock()
	prober := o.prober
	o.mu.RUnlock()
	if prober == nil {
		return nil
	}

	snap, err := prober.Probe(ctx, resourceID)
	if err != nil {
		logger.WithResource(resourceID).Warnf("State probe failed: %v", err)
		return nil
	}
	return &snap
}

func (o *Orchestrator) appendRecord(record *models.HealingRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	if len(o.records) > o.cfg.MaxRecords {
		o.records = o.records[len(o.records)-o.cfg.MaxRecords:]
	}
}

// improved checks whether the indicators implicated in the issue moved
// down between the snapshots.
func improved(issue *models.Issue, before, after *models.SystemSnapshot) bool {
	var deltas, matched int
	for name := range issue.Indicators {
		b, okB := before.Indicators[name]
		a, okA := after.Indicators[name]
		if !okB || !okA {
			continue
		}
		matched++
		if a < b {
			deltas++
		}
	}
	if matched == 0 {
		return false
	}
	return deltas*2 > matched
}
