package report

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// DayCell is one weekday's counts inside a weekly row.
type DayCell struct {
	Fetched int `json:"fetched"`
	Applied int `json:"applied"`
}

// WeeklyRow is one user-profile pair's week.
type WeeklyRow struct {
	UserID      common.ID `json:"user_id"`
	UserName    string    `json:"user_name"`
	ProfileID   common.ID `json:"profile_id"`
	ProfileName string    `json:"profile_name"`

	// Days runs Monday through Sunday.
	Days         [7]DayCell `json:"days"`
	TotalFetched int        `json:"total_fetched"`
	TotalApplied int        `json:"total_applied"`

	HasTarget   bool    `json:"has_target"`
	TargetFetch int     `json:"target_fetch,omitempty"`
	TargetApply int     `json:"target_apply,omitempty"`
	FetchAttain float64 `json:"fetch_attainment,omitempty"`
	ApplyAttain float64 `json:"apply_attainment,omitempty"`

	// LeadCounts is filled for pairs with sales activity in the week.
	LeadCounts map[lead.Status]int64 `json:"lead_counts,omitempty"`
}

// PairRef names a pair in the summary section.
type PairRef struct {
	UserName    string  `json:"user_name"`
	ProfileName string  `json:"profile_name"`
	FetchAttain float64 `json:"fetch_attainment"`
	ApplyAttain float64 `json:"apply_attainment"`
}

// WeeklySummary is the team-level footer of a weekly report.
type WeeklySummary struct {
	PairCount       int       `json:"pair_count"`
	TeamFetched     int       `json:"team_fetched"`
	TeamApplied     int       `json:"team_applied"`
	TeamTargetFetch int       `json:"team_target_fetch"`
	TeamTargetApply int       `json:"team_target_apply"`
	TopPerformer    string    `json:"top_performer,omitempty"`
	BelowTarget     []PairRef `json:"below_target,omitempty"`
}

// WeeklyReport is the assembled weekly document before rendering.
type WeeklyReport struct {
	Week            common.DateRange `json:"week"`
	FilterUserID    common.ID        `json:"filter_user_id,omitempty"`
	FilterProfileID common.ID        `json:"filter_profile_id,omitempty"`
	Rows            []WeeklyRow      `json:"rows"`
	Summary         WeeklySummary    `json:"summary"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// Title returns the document heading.
func (r *WeeklyReport) Title() string {
	year, week := r.Week.From.ISOWeek()
	return fmt.Sprintf("Weekly Report %s to %s (%d-W%02d)", r.Week.From, r.Week.To, year, week)
}

// DailyRow is one user-profile pair's day.
type DailyRow struct {
	UserID        common.ID `json:"user_id"`
	UserName      string    `json:"user_name"`
	ProfileID     common.ID `json:"profile_id"`
	ProfileName   string    `json:"profile_name"`
	JobsFetched   int       `json:"jobs_fetched"`
	JobsApplied   int       `json:"jobs_applied"`
	LeadsRecorded int       `json:"leads_recorded"`
	NotesExcerpt  string    `json:"notes_excerpt,omitempty"`
}

// DailyTotals is the footer of a daily report.
type DailyTotals struct {
	JobsFetched   int `json:"jobs_fetched"`
	JobsApplied   int `json:"jobs_applied"`
	LeadsRecorded int `json:"leads_recorded"`
}

// DailyReport is the assembled daily document before rendering.
type DailyReport struct {
	Date            common.Date `json:"date"`
	FilterUserID    common.ID   `json:"filter_user_id,omitempty"`
	FilterProfileID common.ID   `json:"filter_profile_id,omitempty"`
	Rows            []DailyRow  `json:"rows"`
	Totals          DailyTotals `json:"totals"`
	GeneratedAt     time.Time   `json:"generated_at"`
}

// Title returns the document heading.
func (r *DailyReport) Title() string {
	return "Daily Report " + r.Date.String()
}

// AttainmentPercent returns actual/target as a percentage rounded half-up to
// one decimal place. A non-positive target yields zero; display layers show
// pairs without a target as blank instead.
func AttainmentPercent(actual, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := float64(actual) / float64(target) * 100
	return math.Floor(pct*10+0.5) / 10
}

// Excerpt shortens free text for a report cell, collapsing newlines and
// cutting at max runes with an ellipsis.
func Excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// WeekdayIndex maps a date to its Monday-based index 0..6.
func WeekdayIndex(d common.Date) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}
