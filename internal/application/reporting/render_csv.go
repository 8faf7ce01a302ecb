package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/pkg/errors"
)

// CSVRenderer writes reports as flat tables. The title and summary travel as
// extra records so the file stands alone when opened in a spreadsheet.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Format() report.Format { return report.FormatCSV }

func (r *CSVRenderer) RenderWeekly(doc *report.WeeklyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{doc.Title()},
		{},
		weeklyHeader(),
	}
	for i := range doc.Rows {
		records = append(records, weeklyRecord(&doc.Rows[i]))
	}
	records = append(records, []string{})
	records = append(records, weeklySummaryRecords(&doc.Summary)...)

	if err := w.WriteAll(records); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to write weekly csv")
	}
	return buf.Bytes(), nil
}

func (r *CSVRenderer) RenderDaily(doc *report.DailyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{doc.Title()},
		{},
		{"User", "Profile", "Jobs Fetched", "Jobs Applied", "Leads Recorded", "Notes"},
	}
	for i := range doc.Rows {
		row := &doc.Rows[i]
		records = append(records, []string{
			row.UserName,
			row.ProfileName,
			strconv.Itoa(row.JobsFetched),
			strconv.Itoa(row.JobsApplied),
			strconv.Itoa(row.LeadsRecorded),
			row.NotesExcerpt,
		})
	}
	records = append(records,
		[]string{},
		[]string{"Totals", "",
			strconv.Itoa(doc.Totals.JobsFetched),
			strconv.Itoa(doc.Totals.JobsApplied),
			strconv.Itoa(doc.Totals.LeadsRecorded),
			""},
	)

	if err := w.WriteAll(records); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to write daily csv")
	}
	return buf.Bytes(), nil
}

func weeklyHeader() []string {
	header := []string{"User", "Profile"}
	for _, day := range weekdayNames {
		header = append(header, day+" Fetched", day+" Applied")
	}
	header = append(header,
		"Total Fetched", "Total Applied",
		"Target Fetch", "Target Apply",
		"Fetch %", "Apply %",
	)
	for _, status := range pipelineOrder {
		header = append(header, "Leads "+string(status))
	}
	return header
}

func weeklyRecord(row *report.WeeklyRow) []string {
	rec := []string{row.UserName, row.ProfileName}
	for _, cell := range row.Days {
		rec = append(rec, strconv.Itoa(cell.Fetched), strconv.Itoa(cell.Applied))
	}
	rec = append(rec,
		strconv.Itoa(row.TotalFetched), strconv.Itoa(row.TotalApplied),
		targetCell(row.HasTarget, row.TargetFetch), targetCell(row.HasTarget, row.TargetApply),
		attainCell(row.HasTarget, row.TargetFetch, row.FetchAttain),
		attainCell(row.HasTarget, row.TargetApply, row.ApplyAttain),
	)
	for _, status := range pipelineOrder {
		rec = append(rec, leadCell(row.LeadCounts, status))
	}
	return rec
}

func weeklySummaryRecords(sum *report.WeeklySummary) [][]string {
	records := [][]string{
		{"Pairs", strconv.Itoa(sum.PairCount)},
		{"Team Fetched", strconv.Itoa(sum.TeamFetched)},
		{"Team Applied", strconv.Itoa(sum.TeamApplied)},
		{"Team Target Fetch", strconv.Itoa(sum.TeamTargetFetch)},
		{"Team Target Apply", strconv.Itoa(sum.TeamTargetApply)},
	}
	if sum.TopPerformer != "" {
		records = append(records, []string{"Top Performer", sum.TopPerformer})
	}
	for _, ref := range sum.BelowTarget {
		records = append(records, []string{
			"Below Target",
			ref.UserName + " / " + ref.ProfileName,
			strconv.FormatFloat(ref.FetchAttain, 'f', 1, 64) + "%",
			strconv.FormatFloat(ref.ApplyAttain, 'f', 1, 64) + "%",
		})
	}
	return records
}
