package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/report"
)

// Renderer turns an assembled document into one output format.
type Renderer interface {
	Format() report.Format
	RenderWeekly(doc *report.WeeklyReport) ([]byte, error)
	RenderDaily(doc *report.DailyReport) ([]byte, error)
}

// weekdayNames runs Monday through Sunday, matching WeeklyRow.Days.
var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// pipelineOrder fixes the lead status column order across formats.
var pipelineOrder = []lead.Status{
	lead.StatusNew,
	lead.StatusContacted,
	lead.StatusInterviewing,
	lead.StatusOffer,
	lead.StatusPlaced,
	lead.StatusDead,
}

// attainCell formats an attainment percentage, blank for pairs without a
// target on that metric.
func attainCell(hasTarget bool, targetCount int, pct float64) string {
	if !hasTarget || targetCount == 0 {
		return ""
	}
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// targetCell formats a target number, blank for pairs without a target.
func targetCell(hasTarget bool, count int) string {
	if !hasTarget {
		return ""
	}
	return strconv.Itoa(count)
}

func leadCell(counts map[lead.Status]int64, status lead.Status) string {
	if counts == nil {
		return ""
	}
	n, ok := counts[status]
	if !ok {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// leadCountsLine renders non-zero pipeline counts as a single line, in
// pipeline order.
func leadCountsLine(counts map[lead.Status]int64) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for _, status := range pipelineOrder {
		if n, ok := counts[status]; ok && n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", status, n))
		}
	}
	return strings.Join(parts, ", ")
}
