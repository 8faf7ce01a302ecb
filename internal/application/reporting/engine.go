// Package reporting assembles weekly and daily performance documents from
// progress, target, and lead data, renders them to CSV, DOCX, or HTML, and
// stores the results as artifacts in object storage.
package reporting

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// notesExcerptRunes bounds the notes column in daily rows.
const notesExcerptRunes = 80

// WeekOf returns the ISO week containing d, Monday through Sunday.
func WeekOf(d common.Date) common.DateRange {
	monday := d.StartOfWeek()
	return common.DateRange{From: monday, To: monday.AddDays(6)}
}

// Engine joins the tracking tables into report documents. It reads
// repositories directly rather than going through the application services;
// reports cover the whole team, so row-level scoping does not apply.
type Engine struct {
	progress progress.Repository
	targets  target.Repository
	leads    lead.Repository
	users    user.Repository
	profiles profile.Repository
	logger   logging.Logger
}

func NewEngine(
	progressRepo progress.Repository,
	targetRepo target.Repository,
	leadRepo lead.Repository,
	userRepo user.Repository,
	profileRepo profile.Repository,
	logger logging.Logger,
) *Engine {
	return &Engine{
		progress: progressRepo,
		targets:  targetRepo,
		leads:    leadRepo,
		users:    userRepo,
		profiles: profileRepo,
		logger:   logger,
	}
}

type pairKey struct {
	user    common.ID
	profile common.ID
}

// BuildWeekly assembles the weekly document for the ISO week containing day.
// A pair appears when it has progress, lead activity, or a target covering
// the week; optional filters narrow the pair set. An empty week produces a
// valid document with no rows.
func (e *Engine) BuildWeekly(ctx context.Context, day common.Date, filterUserID, filterProfileID common.ID) (*report.WeeklyReport, error) {
	if day.IsZero() {
		return nil, errors.New(errors.ErrCodeReportPeriodInvalid, "report date is required")
	}
	week := WeekOf(day)

	var (
		updates []*progress.ProgressUpdate
		targs   []*target.Target
		counts  []lead.StatusCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		updates, err = e.progress.ListInRange(gctx, week)
		return err
	})
	g.Go(func() error {
		var err error
		targs, err = e.targets.ListInRange(gctx, week)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = e.leads.CountByStatus(gctx, week)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	skip := func(userID, profileID common.ID) bool {
		if filterUserID != "" && userID != filterUserID {
			return true
		}
		return filterProfileID != "" && profileID != filterProfileID
	}

	byPair := make(map[pairKey]*report.WeeklyRow)
	rowFor := func(k pairKey) *report.WeeklyRow {
		if r, ok := byPair[k]; ok {
			return r
		}
		r := &report.WeeklyRow{UserID: k.user, ProfileID: k.profile}
		byPair[k] = r
		return r
	}

	for _, p := range updates {
		if skip(p.UserID, p.ProfileID) {
			continue
		}
		r := rowFor(pairKey{p.UserID, p.ProfileID})
		idx := report.WeekdayIndex(p.WorkDate)
		r.Days[idx].Fetched += p.JobsFetched
		r.Days[idx].Applied += p.JobsApplied
		r.TotalFetched += p.JobsFetched
		r.TotalApplied += p.JobsApplied
	}

	// A week straddling two consecutive target periods reports the one
	// covering more of it; ties go to the earlier period.
	bestTarget := make(map[pairKey]*target.Target)
	bestCover := make(map[pairKey]int)
	for _, t := range targs {
		if skip(t.UserID, t.ProfileID) {
			continue
		}
		cover := overlapDays(t.Period(), week)
		if cover == 0 {
			continue
		}
		k := pairKey{t.UserID, t.ProfileID}
		cur, ok := bestTarget[k]
		if !ok || cover > bestCover[k] || (cover == bestCover[k] && t.PeriodStart.Before(cur.PeriodStart)) {
			bestTarget[k] = t
			bestCover[k] = cover
		}
	}
	for k, t := range bestTarget {
		r := rowFor(k)
		r.HasTarget = true
		r.TargetFetch = t.JobsToFetch
		r.TargetApply = t.JobsToApply
	}

	for _, sc := range counts {
		if skip(sc.UserID, sc.ProfileID) {
			continue
		}
		r := rowFor(pairKey{sc.UserID, sc.ProfileID})
		if r.LeadCounts == nil {
			r.LeadCounts = make(map[lead.Status]int64)
		}
		r.LeadCounts[sc.Status] += sc.Count
	}

	rows := make([]report.WeeklyRow, 0, len(byPair))
	for _, r := range byPair {
		if r.HasTarget {
			r.FetchAttain = report.AttainmentPercent(r.TotalFetched, r.TargetFetch)
			r.ApplyAttain = report.AttainmentPercent(r.TotalApplied, r.TargetApply)
		}
		rows = append(rows, *r)
	}

	if err := e.resolveNames(ctx, rows, nil); err != nil {
		return nil, err
	}
	sortWeekly(rows)

	doc := &report.WeeklyReport{
		Week:            week,
		FilterUserID:    filterUserID,
		FilterProfileID: filterProfileID,
		Rows:            rows,
		Summary:         summarize(rows),
		GeneratedAt:     time.Time(common.NewTimestamp()),
	}
	return doc, nil
}

// BuildDaily assembles the document for one date: every pair with progress
// or lead activity on that day.
func (e *Engine) BuildDaily(ctx context.Context, day common.Date, filterUserID, filterProfileID common.ID) (*report.DailyReport, error) {
	if day.IsZero() {
		return nil, errors.New(errors.ErrCodeReportPeriodInvalid, "report date is required")
	}
	period := common.DateRange{From: day, To: day}

	var (
		updates []*progress.ProgressUpdate
		entries []*lead.LeadEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		updates, err = e.progress.ListInRange(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = e.leads.ListInRange(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	skip := func(userID, profileID common.ID) bool {
		if filterUserID != "" && userID != filterUserID {
			return true
		}
		return filterProfileID != "" && profileID != filterProfileID
	}

	byPair := make(map[pairKey]*report.DailyRow)
	rowFor := func(k pairKey) *report.DailyRow {
		if r, ok := byPair[k]; ok {
			return r
		}
		r := &report.DailyRow{UserID: k.user, ProfileID: k.profile}
		byPair[k] = r
		return r
	}

	for _, p := range updates {
		if skip(p.UserID, p.ProfileID) {
			continue
		}
		r := rowFor(pairKey{p.UserID, p.ProfileID})
		r.JobsFetched += p.JobsFetched
		r.JobsApplied += p.JobsApplied
		if r.NotesExcerpt == "" {
			r.NotesExcerpt = report.Excerpt(p.Notes, notesExcerptRunes)
		}
	}
	for _, l := range entries {
		if skip(l.UserID, l.ProfileID) {
			continue
		}
		rowFor(pairKey{l.UserID, l.ProfileID}).LeadsRecorded++
	}

	rows := make([]report.DailyRow, 0, len(byPair))
	var totals report.DailyTotals
	for _, r := range byPair {
		totals.JobsFetched += r.JobsFetched
		totals.JobsApplied += r.JobsApplied
		totals.LeadsRecorded += r.LeadsRecorded
		rows = append(rows, *r)
	}

	if err := e.resolveNames(ctx, nil, rows); err != nil {
		return nil, err
	}
	sortDaily(rows)

	doc := &report.DailyReport{
		Date:            day,
		FilterUserID:    filterUserID,
		FilterProfileID: filterProfileID,
		Rows:            rows,
		Totals:          totals,
		GeneratedAt:     time.Time(common.NewTimestamp()),
	}
	return doc, nil
}

// resolveNames fills display names on whichever row slice is non-nil. Rows
// outlive accounts; a user or profile deleted since renders under its raw ID.
func (e *Engine) resolveNames(ctx context.Context, weekly []report.WeeklyRow, daily []report.DailyRow) error {
	userIDs := make(map[common.ID]struct{})
	profileIDs := make(map[common.ID]struct{})
	for i := range weekly {
		userIDs[weekly[i].UserID] = struct{}{}
		profileIDs[weekly[i].ProfileID] = struct{}{}
	}
	for i := range daily {
		userIDs[daily[i].UserID] = struct{}{}
		profileIDs[daily[i].ProfileID] = struct{}{}
	}

	userNames := make(map[common.ID]string, len(userIDs))
	profileNames := make(map[common.ID]string, len(profileIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for id := range userIDs {
			u, err := e.users.GetByID(gctx, id)
			if err != nil {
				if !errors.IsNotFound(err) {
					return err
				}
				e.logger.Warn("report references missing user",
					logging.String("user_id", string(id)))
				userNames[id] = string(id)
				continue
			}
			userNames[id] = u.FullName
		}
		return nil
	})
	g.Go(func() error {
		for id := range profileIDs {
			p, err := e.profiles.GetByID(gctx, id)
			if err != nil {
				if !errors.IsNotFound(err) {
					return err
				}
				e.logger.Warn("report references missing profile",
					logging.String("profile_id", string(id)))
				profileNames[id] = string(id)
				continue
			}
			profileNames[id] = p.FullName
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range weekly {
		weekly[i].UserName = userNames[weekly[i].UserID]
		weekly[i].ProfileName = profileNames[weekly[i].ProfileID]
	}
	for i := range daily {
		daily[i].UserName = userNames[daily[i].UserID]
		daily[i].ProfileName = profileNames[daily[i].ProfileID]
	}
	return nil
}

func sortWeekly(rows []report.WeeklyRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserName != rows[j].UserName {
			return rows[i].UserName < rows[j].UserName
		}
		if rows[i].ProfileName != rows[j].ProfileName {
			return rows[i].ProfileName < rows[j].ProfileName
		}
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].ProfileID < rows[j].ProfileID
	})
}

func sortDaily(rows []report.DailyRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserName != rows[j].UserName {
			return rows[i].UserName < rows[j].UserName
		}
		if rows[i].ProfileName != rows[j].ProfileName {
			return rows[i].ProfileName < rows[j].ProfileName
		}
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].ProfileID < rows[j].ProfileID
	})
}

func summarize(rows []report.WeeklyRow) report.WeeklySummary {
	sum := report.WeeklySummary{PairCount: len(rows)}

	var topScore float64
	var topApplied int
	for i := range rows {
		r := &rows[i]
		sum.TeamFetched += r.TotalFetched
		sum.TeamApplied += r.TotalApplied
		if !r.HasTarget {
			continue
		}
		sum.TeamTargetFetch += r.TargetFetch
		sum.TeamTargetApply += r.TargetApply

		// Ranked on apply attainment, falling back to fetch for pairs
		// without an apply target.
		score := r.ApplyAttain
		if r.TargetApply == 0 {
			score = r.FetchAttain
		}
		if sum.TopPerformer == "" || score > topScore || (score == topScore && r.TotalApplied > topApplied) {
			sum.TopPerformer = r.UserName + " / " + r.ProfileName
			topScore = score
			topApplied = r.TotalApplied
		}

		under := (r.TargetFetch > 0 && r.FetchAttain < 100) ||
			(r.TargetApply > 0 && r.ApplyAttain < 100)
		if under {
			sum.BelowTarget = append(sum.BelowTarget, report.PairRef{
				UserName:    r.UserName,
				ProfileName: r.ProfileName,
				FetchAttain: r.FetchAttain,
				ApplyAttain: r.ApplyAttain,
			})
		}
	}
	return sum
}

func overlapDays(a, b common.DateRange) int {
	from := a.From
	if b.From.After(from) {
		from = b.From
	}
	to := a.To
	if b.To.Before(to) {
		to = b.To
	}
	if from.After(to) {
		return 0
	}
	return len(common.DateRange{From: from, To: to}.Days())
}
