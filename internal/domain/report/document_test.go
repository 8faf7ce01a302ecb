package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/pkg/types/common"
)

func TestAttainmentPercent(t *testing.T) {
	tests := []struct {
		actual int
		target int
		want   float64
	}{
		{50, 50, 100.0},
		{25, 50, 50.0},
		{1, 3, 33.3},   // 33.33.. rounds down
		{2, 3, 66.7},   // 66.66.. rounds up
		{1, 8, 12.5},   // exact one decimal
		{5, 40, 12.5},  // 12.5 stays 12.5 (half-up keeps exact halves)
		{7, 40, 17.5},  // 17.5
		{63, 40, 157.5}, // over-attainment allowed
		{0, 50, 0.0},
		{10, 0, 0.0}, // no target yields zero
		{10, -5, 0.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, AttainmentPercent(tt.actual, tt.target), 1e-9,
			"%d of %d", tt.actual, tt.target)
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short note", Excerpt("short note", 40))
	assert.Equal(t, "collapses inner whitespace", Excerpt("collapses\n\tinner   whitespace", 40))
	assert.Equal(t, "a long note that...", Excerpt("a long note that keeps going and going", 16))
	assert.Equal(t, "", Excerpt("   ", 10))
	assert.Equal(t, "unchanged", Excerpt("unchanged", 0), "non-positive max means no limit")
}

func TestWeekdayIndex(t *testing.T) {
	monday, err := common.ParseDate("2026-03-09")
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		assert.Equal(t, i, WeekdayIndex(monday.AddDays(i)))
	}
}

func TestWeeklyReport_Title(t *testing.T) {
	from, _ := common.ParseDate("2026-03-09")
	r := &WeeklyReport{Week: common.DateRange{From: from, To: from.AddDays(6)}}
	assert.Equal(t, "Weekly Report 2026-03-09 to 2026-03-15 (2026-W11)", r.Title())
}

func TestDailyReport_Title(t *testing.T) {
	d, _ := common.ParseDate("2026-03-10")
	r := &DailyReport{Date: d}
	assert.Equal(t, "Daily Report 2026-03-10", r.Title())
}
