package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatch(t *testing.T) {
	text := `noise before
TIH5CRR635 Confirmed. Ksh65.00 paid to Anthony. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00.
c: food
r: lunch
something unrelated

TIH6CSP6KA Confirmed. Ksh40.00 sent to Divinah on 17/9/25 at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.
Category: travel`

	entries := SplitBatch(text)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "TIH5CRR635")
	assert.Equal(t, []string{"c: food", "r: lunch"}, entries[0].Metadata)
	assert.Equal(t, []string{"Category: travel"}, entries[1].Metadata)
}

func TestParseMetadata(t *testing.T) {
	cases := []struct {
		lines    []string
		category string
		reason   string
	}{
		{nil, "uncategorized", ""},
		{[]string{"c: food", "r: lunch"}, "food", "lunch"},
		{[]string{" Category: travel ", "Reason: bus to town"}, "travel", "bus to town"},
		{[]string{"c:savings"}, "savings", ""},
	}
	for _, c := range cases {
		category, reason := ParseMetadata(c.lines)
		assert.Equal(t, c.category, category)
		assert.Equal(t, c.reason, reason)
	}
}

func TestIsConfirmation(t *testing.T) {
	assert.True(t, IsConfirmation("X Confirmed. Ksh1 sent to Y"))
	assert.True(t, IsConfirmation("X Confirmed. You have received Ksh1"))
	assert.False(t, IsConfirmation("sent to Y"))
	assert.False(t, IsConfirmation("X Confirmed. balance"))
}
