package healing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilops/vigil/pkg/models"
)

func testIssue(issueType string) *models.Issue {
	return &models.Issue{
		ID:         models.NewUUID(),
		Type:       issueType,
		ResourceID: "web-1",
		Severity:   models.SeverityHigh,
		Indicators: map[string]float64{"cpu_usage": 95},
		DetectedAt: time.Now(),
	}
}

func logAction() models.RemediationAction {
	return models.RemediationAction{Name: "record-intent", Type: "log"}
}

func TestOrchestrator_NoApplicableRemediation(t *testing.T) {
	o := NewOrchestrator(Config{}, nil)

	record, err := o.Heal(context.Background(), testIssue("unknown_type"))
	assert.ErrorIs(t, err, ErrNoApplicableRemediation)
	assert.Nil(t, record)

	// No record is kept for unmatched issues.
	assert.Empty(t, o.Records())
}

func TestOrchestrator_HighestPriorityRuleWins(t *testing.T) {
	o := NewOrchestrator(Config{}, nil)

	var executed []string
	o.RegisterExecutor("log", ExecutorFunc(func(_ context.Context, _ *models.Issue, action models.RemediationAction) (string, error) {
		executed = append(executed, action.Name)
		return "ok", nil
	}))

	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "low", TriggerType: "anomaly", Priority: 10,
		Actions: []models.RemediationAction{{Name: "low-action", Type: "log"}},
	}))
	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "high", TriggerType: "anomaly", Priority: 50,
		Actions: []models.RemediationAction{{Name: "high-action", Type: "log"}},
	}))

	record, err := o.Heal(context.Background(), testIssue("anomaly"))
	require.NoError(t, err)

	assert.Equal(t, "high", record.RuleID)
	assert.Equal(t, []string{"high-action"}, executed)
}

func TestOrchestrator_ActionFailureMarksRecord(t *testing.T) {
	o := NewOrchestrator(Config{RetryDelay: time.Millisecond}, nil)

	o.RegisterExecutor("log", ExecutorFunc(func(_ context.Context, _ *models.Issue, _ models.RemediationAction) (string, error) {
		return "ok", nil
	}))
	o.RegisterExecutor("http", ExecutorFunc(func(_ context.Context, _ *models.Issue, _ models.RemediationAction) (string, error) {
		return "", errors.New("endpoint unreachable")
	}))

	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "mixed", TriggerType: "anomaly", Priority: 1,
		Actions: []models.RemediationAction{
			logAction(),
			{Name: "restart", Type: "http"},
		},
	}))

	record, err := o.Heal(context.Background(), testIssue("anomaly"))
	require.NoError(t, err)

	assert.False(t, record.Success)
	require.Len(t, record.Actions, 2)
	assert.True(t, record.Actions[0].Success)
	assert.False(t, record.Actions[1].Success)
	assert.Contains(t, record.Actions[1].Error, "endpoint unreachable")
}

func TestOrchestrator_RetriesFailedAction(t *testing.T) {
	o := NewOrchestrator(Config{RetryDelay: time.Millisecond}, nil)

	calls := 0
	o.RegisterExecutor("log", ExecutorFunc(func(_ context.Context, _ *models.Issue, _ models.RemediationAction) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}))

	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "retry", TriggerType: "anomaly", Priority: 1, RetryCount: 2,
		Actions: []models.RemediationAction{logAction()},
	}))

	record, err := o.Heal(context.Background(), testIssue("anomaly"))
	require.NoError(t, err)

	assert.True(t, record.Success)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, record.Actions[0].Attempts)
}

func TestOrchestrator_ActionTimeout(t *testing.T) {
	o := NewOrchestrator(Config{ActionTimeout: 20 * time.Millisecond, RetryDelay: time.Millisecond}, nil)

	o.RegisterExecutor("log", ExecutorFunc(func(ctx context.Context, _ *models.Issue, _ models.RemediationAction) (string, error) {
		select {
		case <-time.After(time.Second):
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}))

	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "slow", TriggerType: "anomaly", Priority: 1,
		Actions: []models.RemediationAction{logAction()},
	}))

	record, err := o.Heal(context.Background(), testIssue("anomaly"))
	require.NoError(t, err)

	// A timed-out action counts as a failure.
	assert.False(t, record.Success)
	assert.Contains(t, record.Actions[0].Error, context.DeadlineExceeded.Error())
}

func TestOrchestrator_UnknownExecutor(t *testing.T) {
	o := NewOrchestrator(Config{}, nil)

	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "unwired", TriggerType: "anomaly", Priority: 1,
		Actions: []models.RemediationAction{{Name: "scale", Type: "kubernetes"}},
	}))

	record, err := o.Heal(context.Background(), testIssue("anomaly"))
	require.NoError(t, err)

	assert.False(t, record.Success)
	assert.Contains(t, record.Actions[0].Error, "no executor")
}

type fakeProber struct {
	snapshots []models.SystemSnapshot
	calls     int
}

func (p *fakeProber) Probe(_ context.Context, _ string) (models.SystemSnapshot, error) {
	snap := p.snapshots[p.calls]
	if p.calls < len(p.snapshots)-1 {
		p.calls++
	}
	return snap, nil
}

func TestOrchestrator_ValidatesImprovement(t *testing.T) {
	tests := []struct {
		name     string
		before   float64
		after    float64
		improved bool
	}{
		{name: "indicator dropped", before: 95, after: 60, improved: true},
		{name: "indicator unchanged", before: 95, after: 95, improved: false},
		{name: "indicator worsened", before: 95, after: 99, improved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(Config{}, nil)
			o.SetProber(&fakeProber{snapshots: []models.SystemSnapshot{
				{TakenAt: time.Now(), Indicators: map[string]float64{"cpu_usage": tt.before}},
				{TakenAt: time.Now(), Indicators: map[string]float64{"cpu_usage": tt.after}},
			}})
			o.RegisterExecutor("log", ExecutorFunc(func(_ context.Context, _ *models.Issue, _ models.RemediationAction) (string, error) {
				return "ok", nil
			}))
			require.NoError(t, o.RegisterRule(&models.HealingRule{
				ID: "r", TriggerType: "anomaly", Priority: 1,
				Actions: []models.RemediationAction{logAction()},
			}))

			record, err := o.Heal(context.Background(), testIssue("anomaly"))
			require.NoError(t, err)

			assert.True(t, record.Validated)
			assert.Equal(t, tt.improved, record.Improved)
		})
	}
}

func TestOrchestrator_RecordsFor(t *testing.T) {
	o := NewOrchestrator(Config{}, nil)
	o.RegisterExecutor("log", ExecutorFunc(func(_ context.Context, _ *models.Issue, _ models.RemediationAction) (string, error) {
		return "ok", nil
	}))
	require.NoError(t, o.RegisterRule(&models.HealingRule{
		ID: "r", TriggerType: "anomaly", Priority: 1,
		Actions: []models.RemediationAction{logAction()},
	}))

	issueA := testIssue("anomaly")
	issueB := testIssue("anomaly")
	issueB.ResourceID = "db-1"

	_, err := o.Heal(context.Background(), issueA)
	require.NoError(t, err)
	_, err = o.Heal(context.Background(), issueB)
	require.NoError(t, err)

	assert.Len(t, o.Records(), 2)
	require.Len(t, o.RecordsFor("db-1"), 1)
	assert.Equal(t, issueB.ID, o.RecordsFor("db-1")[0].IssueID)
}

func TestOrchestrator_LoadRuleFileValidation(t *testing.T) {
	o := NewOrchestrator(Config{}, nil)

	_, err := o.LoadRuleFile("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NotEmpty(t, rules)

	o := NewOrchestrator(Config{}, nil)
	for _, rule := range rules {
		require.NoError(t, o.RegisterRule(rule))
	}

	// Default set covers the issue types the alert engine produces.
	assert.NotNil(t, findByTrigger(o.Rules(), "anomaly"))
	assert.NotNil(t, findByTrigger(o.Rules(), "resource_exhaustion"))
}

func findByTrigger(rules []*models.HealingRule, trigger string) *models.HealingRule {
	for _, r := range rules {
		if r.TriggerType == trigger {
			return r
		}
	}
	return nil
}
