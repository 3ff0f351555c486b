package applywizard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/tui/theme"
)

// renderHeader draws the title line, step indicator and completion bar.
func renderHeader(v apply.View, width int, busy string) string {
	st := theme.Current().S()

	title := st.HeaderTitle.Render(fmt.Sprintf("Scholarship application #%d", v.ScholarshipID))
	status := st.SavedAt.Render(saveStatus(v))
	if busy != "" {
		status = busy + " " + status
	}
	gap := max(width-lipgloss.Width(title)-lipgloss.Width(status), 1)
	top := title + strings.Repeat(" ", gap) + status

	cur := v.Current()
	stepLine := st.HeaderMeta.Render(fmt.Sprintf("Step %d/%d · %s", v.Step, v.Total, cur.Title))

	lines := []string{top, stepLine, progressBar(v.Completion, width)}
	if cur.Description != "" {
		lines = append(lines, st.StepDesc.Render(cur.Description))
	}
	return strings.Join(lines, "\n")
}

func saveStatus(v apply.View) string {
	switch {
	case v.Saving:
		return "Saving…"
	case v.Dirty:
		return "Unsaved changes"
	case !v.LastSavedAt.IsZero():
		return "Saved " + v.LastSavedAt.Local().Format("15:04")
	}
	return ""
}

// progressBar renders pct as a gradient bar followed by the percentage.
func progressBar(pct, width int) string {
	th := theme.Current()
	label := fmt.Sprintf(" %3d%% complete", pct)
	barWidth := max(width-lipgloss.Width(label), 10)
	filled := min(max(pct, 0), 100) * barWidth / 100

	var b strings.Builder
	for _, c := range theme.Gradient(th.Primary, th.Info, filled) {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("█"))
	}
	b.WriteString(th.S().ProgressEmpty.Render(strings.Repeat("░", barWidth-filled)))
	b.WriteString(th.S().HeaderMeta.Render(label))
	return b.String()
}
