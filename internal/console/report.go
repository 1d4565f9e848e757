// Package console renders preflight reports for terminals.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/aquasecurity/table"
	"github.com/charmbracelet/lipgloss"

	"preflight/internal/preflight"
)

// Renderer writes human-readable reports. With color disabled the output is plain text.
type Renderer struct {
	w     io.Writer
	color bool

	title    lipgloss.Style
	category lipgloss.Style
	severity map[preflight.Severity]lipgloss.Style
	muted    lipgloss.Style
}

func NewRenderer(w io.Writer, color bool) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:        w,
		color:    color,
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		category: r.NewStyle().Bold(true),
		severity: map[preflight.Severity]lipgloss.Style{
			preflight.SeverityInfo:    r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
			preflight.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
			preflight.SeverityError:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		},
		muted: r.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Report writes the header, one table per category in display order and the summary line.
func (r *Renderer) Report(file string, consensus preflight.ConsensusResult, report preflight.Report) {
	fmt.Fprintln(r.w, r.style(r.title, "Preflight "+file))
	camera := consensus.DefaultCamera
	if consensus.Tied {
		camera += " (tied)"
	}
	fmt.Fprintln(r.w, r.style(r.muted, "default camera: "+camera))
	fmt.Fprintln(r.w)

	for _, group := range report.ByCategory() {
		fmt.Fprintln(r.w, r.style(r.category, string(group.Category)))

		tbl := r.table()
		tbl.SetColumnMaxWidth(72)
		tbl.SetHeaders("Severity", "Subject", "Message")
		for _, issue := range group.Issues {
			tbl.AddRow(r.severityLabel(issue.Severity), subject(issue), issue.Message)
		}
		tbl.Render()
		fmt.Fprintln(r.w)
	}

	fmt.Fprintln(r.w, r.Summary(report.Summary()))
}

// Summary is the one-line count of issues by severity.
func (r *Renderer) Summary(s preflight.Summary) string {
	parts := []string{
		r.style(r.severity[preflight.SeverityError], plural(s.Error, "error")),
		r.style(r.severity[preflight.SeverityWarning], plural(s.Warning, "warning")),
		r.style(r.severity[preflight.SeverityInfo], fmt.Sprintf("%d info", s.Info)),
	}
	return strings.Join(parts, ", ")
}

// Rules lists the rules of a rule set with their category.
func (r *Renderer) Rules(rules []preflight.Rule) {
	tbl := r.table()
	tbl.SetHeaders("Category", "Description")
	for _, rule := range rules {
		tbl.AddRow(string(rule.Category()), rule.Description())
	}
	tbl.Render()
}

func (r *Renderer) table() *table.Table {
	tbl := table.New(r.w)
	tbl.SetBorders(false)
	tbl.SetRowLines(false)
	if !r.color {
		tbl.SetHeaderStyle(table.StyleNormal)
	}
	return tbl
}

func (r *Renderer) severityLabel(s preflight.Severity) string {
	return r.style(r.severity[s], strings.ToUpper(s.String()))
}

func subject(issue preflight.ValidationIssue) string {
	if issue.SubjectID == "" {
		return "-"
	}
	return issue.SubjectID
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
