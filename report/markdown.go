package report

import (
	"bytes"
	"html/template"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var (
	mdOnce sync.Once
	mdConv *converter.Converter
)

// markdownConverter returns the shared converter. Converters are safe for
// concurrent use, so one per process is enough.
func markdownConverter() *converter.Converter {
	mdOnce.Do(func() {
		mdConv = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		)
	})
	return mdConv
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"evidence": formatEvidence,
	"mark":     statusMark,
}).Parse(`<h1>{{if .Passed}}PASS{{else}}FAIL{{end}}: {{.URL}}</h1>
{{if .Title}}<p><em>{{.Title}}</em></p>{{end}}
<p>{{.Summary.Passed}} passed, {{.Summary.Failed}} failed, {{.Summary.Skipped}} skipped of {{.Summary.Total}} checks.</p>
{{if .Failures}}<h2>Failures</h2>
<ul>{{range .Failures}}<li><strong>{{.Region}} {{.Category}}</strong>: {{.Reason}}</li>{{end}}</ul>{{end}}
<h2>Checks</h2>
<table>
<thead><tr><th>Region</th><th>Category</th><th>Status</th><th>Reason</th><th>Evidence</th></tr></thead>
<tbody>{{range .Outcomes}}<tr><td>{{.Region}}</td><td>{{.Category}}</td><td>{{mark .Status}}</td><td>{{.Reason}}</td><td>{{evidence .Evidence}}</td></tr>{{end}}</tbody>
</table>`))

// Markdown renders the report as a Markdown document: a verdict heading,
// the failures, then one table row per outcome.
func (r *Report) Markdown() (string, error) {
	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, struct {
		URL, Title string
		Passed     bool
		Summary    Summary
		Failures   []Outcome
		Outcomes   []Outcome
	}{r.URL, r.Title, r.AllPassed(), r.Summary(), r.Failures(), r.Outcomes()})
	if err != nil {
		return "", err
	}
	return markdownConverter().ConvertString(buf.String())
}

func statusMark(s Status) string {
	switch s {
	case StatusPass:
		return "✔ pass"
	case StatusFail:
		return "✘ fail"
	default:
		return "– skip"
	}
}

func formatEvidence(ev map[string]float64) string {
	if len(ev) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ev))
	for k := range ev {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.FormatFloat(ev[k], 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}
