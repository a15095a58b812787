package subscription

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReasons(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"default list", DefaultReasons, []string{"amzn_abuse", "user_unknown", "user_disabled", "domain_error", "spam"}},
		{"empty", "", []string{}},
		{"blanks and spaces", " spam, ,user_unknown ,", []string{"spam", "user_unknown"}},
		{"repeats", "spam,spam,amzn_abuse", []string{"spam", "amzn_abuse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReasons(tt.in))
		})
	}
}

func TestNewPolicy_NegativeThreshold(t *testing.T) {
	_, err := NewPolicy("spam", -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidThreshold))
}

func TestSelectCandidates_Example(t *testing.T) {
	p, err := NewPolicy("spam,amzn_abuse", 3)
	require.NoError(t, err)

	// The query only returns active subscriptions, so address C (already
	// bounced) never shows up as a group.
	groups := []BounceGroup{
		{EmailAddress: "a@example.com", StdReason: "spam", Count: 4},
		{EmailAddress: "b@example.com", StdReason: "amzn_abuse", Count: 1},
		{EmailAddress: "d@example.com", StdReason: "spam", Count: 2},
	}

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, SelectCandidates(groups, p))
}

func TestSelectCandidates_Deduplicates(t *testing.T) {
	p, err := NewPolicy(DefaultReasons, 1)
	require.NoError(t, err)

	groups := []BounceGroup{
		{EmailAddress: "x@example.com", StdReason: "amzn_abuse", Count: 1},
		{EmailAddress: "x@example.com", StdReason: "spam", Count: 9},
		{EmailAddress: "x@example.com", StdReason: "user_unknown", Count: 2},
		{EmailAddress: "y@example.com", StdReason: "spam", Count: 2},
	}

	assert.Equal(t, []string{"x@example.com", "y@example.com"}, SelectCandidates(groups, p))
}

func TestSelectCandidates_EdgeCases(t *testing.T) {
	groups := []BounceGroup{
		{EmailAddress: "a@example.com", StdReason: "spam", Count: 1},
		{EmailAddress: "b@example.com", StdReason: "mystery", Count: 50},
		{EmailAddress: "c@example.com", StdReason: "amzn_abuse", Count: 1},
	}

	t.Run("empty allow-list", func(t *testing.T) {
		p, err := NewPolicy("", 0)
		require.NoError(t, err)
		assert.Empty(t, SelectCandidates(groups, p))
	})

	t.Run("threshold zero", func(t *testing.T) {
		p, err := NewPolicy("spam", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com"}, SelectCandidates(groups, p))
	})

	t.Run("unknown reason ignored", func(t *testing.T) {
		p, err := NewPolicy("spam,amzn_abuse", 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"c@example.com"}, SelectCandidates(groups, p))
	})

	t.Run("abuse not allow-listed", func(t *testing.T) {
		p, err := NewPolicy("spam", 7)
		require.NoError(t, err)
		assert.Empty(t, SelectCandidates(groups, p))
	})

	t.Run("count equal to threshold", func(t *testing.T) {
		p, err := NewPolicy("spam", 1)
		require.NoError(t, err)
		assert.Empty(t, SelectCandidates(groups, p))
	})
}
