package services

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	LateHighlight = "#FFCCCB"
	PageBreak     = `<div style="page-break-before: always;"></div>`
	Legend        = "❌: Chưa ghi nhận dữ liệu chấm công | S1, S2: Chấm công sáng | C1, C2: Chấm công chiều"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pageBreak": func() template.HTML { return PageBreak },
	"cellStyle": func(c SlotCell) template.CSS {
		if c.Status.Flagged() {
			return template.CSS("background-color: " + LateHighlight + ";")
		}
		return ""
	},
}).Parse(`<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Times New Roman", serif; font-size: 12px; }
h2 { text-align: center; font-size: 16px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #000; padding: 4px; text-align: center; }
.legend { font-style: italic; margin: 8px 0; }
.signatures { display: flex; justify-content: space-around; margin-top: 40px; font-weight: bold; }
.signatures div { width: 45%; text-align: center; height: 80px; }
</style>
</head>
<body>
{{- range .Sections}}
{{if .PageBreakBefore}}{{pageBreak}}{{end}}
<section>
<h2>Bảng công từ ngày {{.From}} đến ngày {{.To}} - Bộ phận: {{.Department}}</h2>
<table>
<thead><tr>{{range $.Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>
<td>{{.No}}</td><td>{{.EmployeeName}}</td><td>{{.Department}}</td><td>{{.Date}}</td><td>{{.Weekday}}</td>
{{- with index .Slots 0}}<td style="{{cellStyle .}}">{{.Text}}</td>{{end}}
{{- with index .Slots 1}}<td style="{{cellStyle .}}">{{.Text}}</td>{{end}}
<td>{{.ReasonMorning}}</td>
{{- with index .Slots 2}}<td style="{{cellStyle .}}">{{.Text}}</td>{{end}}
{{- with index .Slots 3}}<td style="{{cellStyle .}}">{{.Text}}</td>{{end}}
<td>{{.ReasonAfternoon}}</td>
</tr>
{{- end}}
</tbody>
</table>
<p class="legend">{{$.Legend}}</p>
<div class="signatures">{{range .Signatures}}<div>{{.}}</div>{{end}}</div>
</section>
{{- end}}
</body>
</html>
`))

// HTML renders the printable document: one table per section, page breaks between sections
func (r Report) HTML() (string, error) {
	if len(r.Sections) == 0 {
		return "", ErrNothingToPrint
	}
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Report
		Headers []string
		Legend  string
	}{r, ExportHeaders, Legend})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
