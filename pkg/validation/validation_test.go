package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateResourceID(t *testing.T) {
	assert.NoError(t, ValidateResourceID("web-1"))
	assert.NoError(t, ValidateResourceID("db.primary_01"))

	assert.Error(t, ValidateResourceID(""))
	assert.Error(t, ValidateResourceID("-leading-dash"))
	assert.Error(t, ValidateResourceID("has spaces"))
	assert.Error(t, ValidateResourceID("semi;colon"))
}

func TestValidateMetricName(t *testing.T) {
	assert.NoError(t, ValidateMetricName("cpu_usage"))
	assert.NoError(t, ValidateMetricName("_private"))
	assert.NoError(t, ValidateMetricName("ns:subsystem:metric"))

	assert.Error(t, ValidateMetricName(""))
	assert.Error(t, ValidateMetricName("2fast"))
	assert.Error(t, ValidateMetricName("has-dash"))
}

func TestValidateLabelName(t *testing.T) {
	assert.NoError(t, ValidateLabelName("status"))
	assert.NoError(t, ValidateLabelName("_hidden"))

	assert.Error(t, ValidateLabelName("__reserved"))
	assert.Error(t, ValidateLabelName("with:colon"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "hello", SanitizeString("he\x00llo"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "ab", SanitizeString("a\x01b"))
}
