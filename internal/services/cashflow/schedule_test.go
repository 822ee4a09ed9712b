package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthlySchedule_ClampsToMonthEnd(t *testing.T) {
	got := MonthlySchedule(day(2024, 1, 31), day(2024, 5, 31))
	want := []time.Time{
		day(2024, 1, 31),
		day(2024, 2, 29),
		day(2024, 3, 31),
		day(2024, 4, 30),
		day(2024, 5, 31),
	}
	assert.Equal(t, want, got)
}

func TestMonthlySchedule_StopsAtEnd(t *testing.T) {
	got := MonthlySchedule(day(2023, 11, 15), day(2024, 2, 10))
	assert.Equal(t, []time.Time{day(2023, 11, 15), day(2023, 12, 15), day(2024, 1, 15)}, got)
}

func TestMonthlySchedule_SameDay(t *testing.T) {
	assert.Equal(t, []time.Time{day(2024, 3, 1)}, MonthlySchedule(day(2024, 3, 1), day(2024, 3, 1)))
}

func TestMonthlySchedule_EndBeforeStart(t *testing.T) {
	assert.Empty(t, MonthlySchedule(day(2024, 3, 1), day(2024, 2, 1)))
}
