package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "streamlog/pkg/domain-errors"
)

func TestParseRecordID(t *testing.T) {
	recordID, err := ParseRecordID("42")
	require.NoError(t, err)
	assert.Equal(t, RecordID(42), recordID)
	assert.Equal(t, "42", recordID.String())
	assert.False(t, recordID.IsNil())

	for _, input := range []string{"", "0", "-1", "abc", "42.5"} {
		_, err := ParseRecordID(input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
	}
}

func TestParseUserID(t *testing.T) {
	userID, err := ParseUserID("5")
	require.NoError(t, err)
	assert.Equal(t, UserID(5), userID)

	// Zero is the system user, accepted at the boundary.
	userID, err = ParseUserID("0")
	require.NoError(t, err)
	assert.True(t, userID.IsNil())

	for _, input := range []string{"", "-1", "editor"} {
		_, err := ParseUserID(input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
	}
}

func TestParseAlertID(t *testing.T) {
	alertID := NewAlertID()
	require.False(t, alertID.IsNil())

	parsed, err := ParseAlertID(alertID.String())
	require.NoError(t, err)
	assert.Equal(t, alertID, parsed)

	for _, input := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		_, err := ParseAlertID(input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
	}
}

func TestParseRuleID(t *testing.T) {
	ruleID := NewRuleID()
	require.False(t, ruleID.IsNil())

	parsed, err := ParseRuleID(ruleID.String())
	require.NoError(t, err)
	assert.Equal(t, ruleID, parsed)

	for _, input := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		_, err := ParseRuleID(input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
	}
}
