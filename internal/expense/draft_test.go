package expense

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftValidate(t *testing.T) {
	cases := []struct {
		name    string
		draft   Draft
		missing []string
	}{
		{"valid", Draft{Amount: 10, Description: "coffee", Category: "food"}, nil},
		{"zero amount", Draft{Description: "coffee", Category: "food"}, []string{"amount"}},
		{"nan amount", Draft{Amount: math.NaN(), Description: "coffee", Category: "food"}, []string{"amount"}},
		{"blank description", Draft{Amount: 3, Description: "  ", Category: "food"}, []string{"description"}},
		{"everything missing", Draft{}, []string{"amount", "description", "category"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.draft.Validate()
			if c.missing == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, c.missing, verr.Fields)
		})
	}
}

func TestDraftRecord(t *testing.T) {
	now := time.Date(2025, 9, 17, 18, 56, 0, 0, time.UTC)

	r := Draft{Amount: 10, Description: " coffee ", Category: "food"}.Record("l1", now)
	assert.Equal(t, "l1", r.LocalID)
	assert.Empty(t, r.RemoteID)
	assert.Equal(t, "coffee", r.Description)
	assert.Equal(t, Pending, r.State)
	assert.True(t, r.OccurredAt.Equal(now))

	earlier := now.Add(-time.Hour)
	r = Draft{Amount: 10, Description: "coffee", Category: "food", OccurredAt: earlier}.Record("l2", now)
	assert.True(t, r.OccurredAt.Equal(earlier))
}

func TestRecordIdentity(t *testing.T) {
	assert.Equal(t, "l1", Record{LocalID: "l1"}.Identity())
	assert.Equal(t, "r1", Record{LocalID: "l1", RemoteID: "r1"}.Identity())
	assert.Equal(t, "r1", Record{RemoteID: "r1"}.Identity())
}
