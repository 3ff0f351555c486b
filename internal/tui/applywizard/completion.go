package applywizard

import (
	"fmt"
	"strings"

	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/tui/theme"
	"github.com/mark3labs/applywiz/internal/tui/wizard"
)

// renderCompletion is shown once the application has been submitted.
func renderCompletion(v apply.View, bar *wizard.ButtonBar, width int) string {
	st := theme.Current().S()
	lines := []string{
		st.SuccessTitle.Render("✓ Application submitted"),
		"",
		fmt.Sprintf("Scholarship #%d", v.ScholarshipID),
		st.HeaderMeta.Render("Application ID: ") + string(v.ApplicationID),
		"",
		st.StepDesc.Width(width).Render("Your answers have been sent for review. The draft has been cleared."),
		"",
		bar.Render(),
		wizard.RenderHintBar("enter", "exit"),
	}
	return strings.Join(lines, "\n")
}
