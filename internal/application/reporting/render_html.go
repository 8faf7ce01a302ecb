package reporting

import (
	"bytes"
	"html/template"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// templateGlob matches override files inside the template directory.
const templateGlob = "*.gohtml"

// HTMLRenderer executes the built-in report layouts, optionally overridden by
// files in a template directory. With watching enabled the directory is
// observed and edits take effect on the next render without a restart; a
// file that fails to parse is logged and the previous set stays live.
type HTMLRenderer struct {
	dir     string
	logger  logging.Logger
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	tmpl *template.Template
}

func NewHTMLRenderer(dir string, watch bool, logger logging.Logger) (*HTMLRenderer, error) {
	r := &HTMLRenderer{dir: dir, logger: logger}
	if err := r.reload(); err != nil {
		return nil, err
	}

	if watch && dir != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to start template watcher")
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to watch template directory "+dir)
		}
		r.watcher = w
		go r.watchLoop()
	}
	return r, nil
}

func (r *HTMLRenderer) Format() report.Format { return report.FormatHTML }

func (r *HTMLRenderer) RenderWeekly(doc *report.WeeklyReport) ([]byte, error) {
	return r.execute("weekly", doc)
}

func (r *HTMLRenderer) RenderDaily(doc *report.DailyReport) ([]byte, error) {
	return r.execute("daily", doc)
}

// Close stops the directory watcher if one is running.
func (r *HTMLRenderer) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}

func (r *HTMLRenderer) execute(name string, data any) ([]byte, error) {
	r.mu.RLock()
	t := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to execute template "+name)
	}
	return buf.Bytes(), nil
}

// reload parses the built-in layouts and any overrides into a fresh set,
// swapping it in only when everything parsed.
func (r *HTMLRenderer) reload() error {
	t, err := template.New("reports").Funcs(htmlFuncs()).Parse(builtinWeeklyHTML)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to parse built-in weekly template")
	}
	if _, err := t.Parse(builtinDailyHTML); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to parse built-in daily template")
	}

	if r.dir != "" {
		pattern := filepath.Join(r.dir, templateGlob)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "bad template glob "+pattern)
		}
		if len(matches) > 0 {
			if _, err := t.ParseGlob(pattern); err != nil {
				return errors.Wrap(err, errors.CodeInternal, "failed to parse templates in "+r.dir)
			}
		}
	}

	r.mu.Lock()
	r.tmpl = t
	r.mu.Unlock()
	return nil
}

func (r *HTMLRenderer) watchLoop() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if match, _ := filepath.Match(templateGlob, filepath.Base(ev.Name)); !match {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := r.reload(); err != nil {
				r.logger.Warn("report template reload failed, keeping previous set",
					logging.String("trigger", ev.Name),
					logging.Err(err))
				continue
			}
			r.logger.Info("report templates reloaded",
				logging.String("trigger", ev.Name))
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("report template watcher error", logging.Err(err))
		}
	}
}

func htmlFuncs() template.FuncMap {
	return template.FuncMap{
		"weekdays": func() []string { return weekdayNames[:] },
		"targetNum": func(hasTarget bool, count int) string {
			return targetCell(hasTarget, count)
		},
		"attain": func(hasTarget bool, targetCount int, pct float64) string {
			return attainCell(hasTarget, targetCount, pct)
		},
		"pct": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64) + "%"
		},
		"leads": func(counts map[lead.Status]int64) string {
			return leadCountsLine(counts)
		},
	}
}

const builtinWeeklyHTML = `{{define "weekly"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #999; padding: 0.25rem 0.6rem; text-align: right; }
th:nth-child(-n+2), td:nth-child(-n+2), td:last-child { text-align: left; }
thead th { background: #eee; }
.below { color: #a00; }
footer { margin-top: 2rem; color: #777; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Rows}}
<table>
<thead>
<tr><th>User</th><th>Profile</th>{{range $d := weekdays}}<th>{{$d}} F</th><th>{{$d}} A</th>{{end}}<th>Total F</th><th>Total A</th><th>Target F</th><th>Target A</th><th>Fetch %</th><th>Apply %</th><th>Leads</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.UserName}}</td><td>{{.ProfileName}}</td>
{{range .Days}}<td>{{.Fetched}}</td><td>{{.Applied}}</td>{{end}}
<td>{{.TotalFetched}}</td><td>{{.TotalApplied}}</td>
<td>{{targetNum .HasTarget .TargetFetch}}</td><td>{{targetNum .HasTarget .TargetApply}}</td>
<td>{{attain .HasTarget .TargetFetch .FetchAttain}}</td><td>{{attain .HasTarget .TargetApply .ApplyAttain}}</td>
<td>{{leads .LeadCounts}}</td>
</tr>{{end}}
</tbody>
</table>
<h2>Summary</h2>
<p>{{.Summary.PairCount}} pair(s). Team fetched {{.Summary.TeamFetched}}, applied {{.Summary.TeamApplied}}. Targets: fetch {{.Summary.TeamTargetFetch}}, apply {{.Summary.TeamTargetApply}}.</p>
{{if .Summary.TopPerformer}}<p>Top performer: {{.Summary.TopPerformer}}</p>{{end}}
{{if .Summary.BelowTarget}}<ul>
{{range .Summary.BelowTarget}}<li class="below">{{.UserName}} / {{.ProfileName}} (fetch {{pct .FetchAttain}}, apply {{pct .ApplyAttain}})</li>
{{end}}</ul>{{end}}
{{else}}
<p>No activity recorded for this week.</p>
{{end}}
<footer>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</footer>
</body>
</html>
{{end}}`

const builtinDailyHTML = `{{define "daily"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #999; padding: 0.25rem 0.6rem; text-align: right; }
th:nth-child(-n+2), td:nth-child(-n+2), td:last-child { text-align: left; }
thead th { background: #eee; }
tfoot td { font-weight: bold; }
footer { margin-top: 2rem; color: #777; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Rows}}
<table>
<thead>
<tr><th>User</th><th>Profile</th><th>Fetched</th><th>Applied</th><th>Leads</th><th>Notes</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.UserName}}</td><td>{{.ProfileName}}</td>
<td>{{.JobsFetched}}</td><td>{{.JobsApplied}}</td><td>{{.LeadsRecorded}}</td>
<td>{{.NotesExcerpt}}</td>
</tr>{{end}}
</tbody>
<tfoot>
<tr><td>Totals</td><td></td><td>{{.Totals.JobsFetched}}</td><td>{{.Totals.JobsApplied}}</td><td>{{.Totals.LeadsRecorded}}</td><td></td></tr>
</tfoot>
</table>
{{else}}
<p>No activity recorded for this date.</p>
{{end}}
<footer>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</footer>
</body>
</html>
{{end}}`
