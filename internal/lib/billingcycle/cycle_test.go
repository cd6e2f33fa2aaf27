package billingcycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current time.Time
		cycle   Cycle
		want    time.Time
	}{
		{
			name:    "monthly adds 30 days",
			current: start,
			cycle:   Monthly,
			want:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "quarterly adds 90 days",
			current: start,
			cycle:   Quarterly,
			want:    time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "yearly adds 365 days",
			current: start,
			cycle:   Yearly,
			want:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "unknown cycle returns current unchanged",
			current: start,
			cycle:   Cycle("weekly"),
			want:    start,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.current, tt.cycle))
		})
	}
}

// Фиксированные смещения означают дрейф относительно календарного месяца:
// после 12 ежемесячных списаний проходит 360 дней, а не год.
func TestNext_MonthlyDrift(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for range 12 {
		date = Next(date, Monthly)
	}
	assert.Equal(t, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), date)
}

func TestCycle_Valid(t *testing.T) {
	assert.True(t, Monthly.Valid())
	assert.True(t, Quarterly.Valid())
	assert.True(t, Yearly.Valid())
	assert.False(t, Cycle("").Valid())
	assert.False(t, Cycle("weekly").Valid())
}
