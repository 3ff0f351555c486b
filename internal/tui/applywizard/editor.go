package applywizard

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/editor"

	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/logger"
)

// openEditor edits content in $EDITOR and reports the result as a
// StatementEditedMsg.
func openEditor(ref form.Ref, content string) tea.Cmd {
	tmp, err := os.CreateTemp("", "applywiz_"+ref.Field+"_*.md")
	if err != nil {
		return editorFailed(ref, err)
	}
	path := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(path)
		return editorFailed(ref, err)
	}
	_ = tmp.Close()

	cmd, err := editor.Command("applywiz", path)
	if err != nil {
		_ = os.Remove(path)
		return editorFailed(ref, err)
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer func() { _ = os.Remove(path) }()
		if err != nil {
			logger.Warn("Editor exited with error: %v", err)
			return StatementEditedMsg{Ref: ref, Err: fmt.Errorf("editor: %w", err)}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return StatementEditedMsg{Ref: ref, Err: err}
		}
		return StatementEditedMsg{Ref: ref, Content: string(data)}
	})
}

func editorFailed(ref form.Ref, err error) tea.Cmd {
	return func() tea.Msg {
		return StatementEditedMsg{Ref: ref, Err: fmt.Errorf("editor: %w", err)}
	}
}
