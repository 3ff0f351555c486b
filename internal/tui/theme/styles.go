package theme

import "charm.land/lipgloss/v2"

// Styles contains the pre-built lipgloss styles shared by the wizard screens.
type Styles struct {
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	Label         lipgloss.Style
	LabelFocused  lipgloss.Style
	RequiredMark  lipgloss.Style
	FieldHint     lipgloss.Style
	FieldError    lipgloss.Style
	StepDesc      lipgloss.Style
	SavedAt       lipgloss.Style
	ProgressEmpty lipgloss.Style

	ModalContainer lipgloss.Style
	ModalTitle     lipgloss.Style
	ErrorTitle     lipgloss.Style
	SuccessTitle   lipgloss.Style

	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style

	Toast      lipgloss.Style
	ToastError lipgloss.Style

	DiffInsert lipgloss.Style
	DiffDelete lipgloss.Style
	DiffHunk   lipgloss.Style
}

// buildStyles constructs the pre-built styles from theme colors.
func (t *Theme) buildStyles() *Styles {
	c := lipgloss.Color
	return &Styles{
		HeaderTitle: lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		HeaderMeta:  lipgloss.NewStyle().Foreground(c(t.FgSubtle)),

		Label:         lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
		LabelFocused:  lipgloss.NewStyle().Foreground(c(t.Secondary)).Bold(true),
		RequiredMark:  lipgloss.NewStyle().Foreground(c(t.Error)),
		FieldHint:     lipgloss.NewStyle().Foreground(c(t.FgMuted)).Italic(true),
		FieldError:    lipgloss.NewStyle().Foreground(c(t.Error)),
		StepDesc:      lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
		SavedAt:       lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		ProgressEmpty: lipgloss.NewStyle().Foreground(c(t.BgSurface1)),

		ModalContainer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.Secondary)).
			Padding(1, 2),
		ModalTitle:   lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		ErrorTitle:   lipgloss.NewStyle().Foreground(c(t.Error)).Bold(true),
		SuccessTitle: lipgloss.NewStyle().Foreground(c(t.Success)).Bold(true),

		HintKey:       lipgloss.NewStyle().Foreground(c(t.FgSubtle)).Bold(true),
		HintDesc:      lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		HintSeparator: lipgloss.NewStyle().Foreground(c(t.BgSurface2)),

		Toast: lipgloss.NewStyle().
			Foreground(c(t.BgBase)).
			Background(c(t.Success)).
			Padding(0, 1).
			Bold(true),
		ToastError: lipgloss.NewStyle().
			Foreground(c(t.BgBase)).
			Background(c(t.Warning)).
			Padding(0, 1).
			Bold(true),

		DiffInsert: lipgloss.NewStyle().Background(c(t.DiffInsertBg)),
		DiffDelete: lipgloss.NewStyle().Background(c(t.DiffDeleteBg)),
		DiffHunk:   lipgloss.NewStyle().Foreground(c(t.Info)),
	}
}
