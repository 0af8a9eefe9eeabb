package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		period string
		want   time.Time
	}{
		{"today", midnight},
		{"week", midnight.AddDate(0, 0, -7)},
		{"month", midnight.AddDate(0, -1, 0)},
		{"year", midnight.AddDate(-1, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.period, func(t *testing.T) {
			got, err := periodStart(tc.period, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPeriodStartInvalid(t *testing.T) {
	for _, period := range []string{"", "quarter", "TODAY", "yesterday"} {
		_, err := periodStart(period, time.Now())
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "period %q", period)
	}
}
