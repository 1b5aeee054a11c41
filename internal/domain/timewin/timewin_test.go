package timewin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndEndOfDay(t *testing.T) {
	d := time.Date(2025, 3, 10, 14, 33, 12, 500, time.Local)

	start := StartOfDay(d)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 0, start.Second())
	assert.Equal(t, 0, start.Nanosecond())

	end := EndOfDay(d)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 59, end.Second())
	assert.Equal(t, int(999*time.Millisecond), end.Nanosecond())
}

func TestWeekStartsMondayAndClosesSunday(t *testing.T) {
	// 2025-03-12 es miércoles
	wed := time.Date(2025, 3, 12, 10, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-03-10T00:00:00", Format(StartOfWeek(wed)))
	assert.Equal(t, "2025-03-16T23:59:59", Format(EndOfWeek(wed)))

	// El domingo cierra la semana anterior, no abre una nueva
	sun := time.Date(2025, 3, 16, 8, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-03-10T00:00:00", Format(StartOfWeek(sun)))
	assert.Equal(t, "2025-03-16T23:59:59", Format(EndOfWeek(sun)))

	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-03-10T00:00:00", Format(StartOfWeek(mon)))
}

func TestWindowsContainTheirInput(t *testing.T) {
	days := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 2, 28, 23, 59, 59, 0, time.Local),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.Local), // bisiesto
		time.Date(2025, 12, 31, 6, 30, 0, 0, time.Local),
	}

	for _, d := range days {
		assert.False(t, d.Before(StartOfDay(d)), "startOfDay(%v)", d)
		assert.False(t, d.After(EndOfDay(d)), "endOfDay(%v)", d)
		assert.False(t, d.Before(StartOfWeek(d)), "startOfWeek(%v)", d)
		assert.False(t, d.After(EndOfWeek(d)), "endOfWeek(%v)", d)
		assert.False(t, d.Before(StartOfMonth(d)), "startOfMonth(%v)", d)
		assert.False(t, d.After(EndOfMonth(d)), "endOfMonth(%v)", d)
		assert.False(t, d.Before(StartOfYear(d)), "startOfYear(%v)", d)
		assert.False(t, d.After(EndOfYear(d)), "endOfYear(%v)", d)
	}
}

func TestEndOfMonthHandlesShortMonths(t *testing.T) {
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-02-28", FormatDate(EndOfMonth(feb)))

	febLeap := time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-02-29", FormatDate(EndOfMonth(febLeap)))

	apr := time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-04-30", FormatDate(EndOfMonth(apr)))
}

func TestFormatIsIdempotentWithParse(t *testing.T) {
	in := "2025-03-10T09:30:00"
	parsed, err := Parse(in)
	require.NoError(t, err)
	assert.Equal(t, in, Format(parsed))

	// Con offset/zona no es un timestamp naive válido
	_, err = Parse("2025-03-10T09:30:00Z")
	assert.Error(t, err)
	_, err = Parse("2025-03-10T09:30:00-05:00")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", FormatDate(d))

	_, err = ParseDate("2025-06-15T00:00:00")
	assert.Error(t, err)
}
