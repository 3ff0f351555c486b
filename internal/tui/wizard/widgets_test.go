package wizard

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

func TestButtonBarFocusSkipsDisabled(t *testing.T) {
	bar := NewButtonBar(NavigationButtons(true, false, false))

	if bar.Focused() {
		t.Fatal("new bar should be blurred")
	}
	if !bar.FocusFirst() || bar.FocusedButton() != ButtonSave {
		t.Fatalf("first enabled button should be Save, got %v", bar.FocusedButton())
	}
	if !bar.FocusNext() || bar.FocusedButton() != ButtonNext {
		t.Fatalf("expected Next, got %v", bar.FocusedButton())
	}
	if bar.FocusNext() {
		t.Fatal("moving past the last button should leave the bar")
	}
	if bar.Focused() {
		t.Fatal("bar should be blurred after leaving it")
	}
	if !bar.FocusLast() || bar.FocusedButton() != ButtonNext {
		t.Fatalf("expected Next, got %v", bar.FocusedButton())
	}
	bar.FocusPrev()
	if bar.FocusPrev() {
		t.Fatal("Back is disabled on the first step")
	}
}

func TestButtonBarSetButtonsKeepsFocus(t *testing.T) {
	bar := NewButtonBar(NavigationButtons(false, false, false))
	bar.FocusLast()

	bar.SetButtons(NavigationButtons(false, false, false))
	if bar.FocusedButton() != ButtonNext {
		t.Errorf("focus lost, got %v", bar.FocusedButton())
	}

	// Next turns into Submit on the last step.
	bar.SetButtons(NavigationButtons(false, true, false))
	if bar.FocusedButton() != ButtonBack {
		t.Errorf("expected focus to fall back to the first button, got %v", bar.FocusedButton())
	}

	bar.SetButtons(NavigationButtons(false, true, true))
	if !bar.Focused() || bar.FocusedButton() != ButtonNone {
		t.Error("a busy bar keeps focus on a button that cannot be activated")
	}

	bar.SetButtons(NavigationButtons(false, true, false))
	if bar.FocusedButton() != ButtonBack {
		t.Errorf("focus should return to Back, got %v", bar.FocusedButton())
	}
}

func TestButtonBarRender(t *testing.T) {
	bar := NewButtonBar(NavigationButtons(false, true, false))
	bar.SetWidth(60)
	out := ansi.Strip(bar.Render())
	for _, want := range []string{"← Back", "Save draft", "Submit"} {
		if !strings.Contains(out, want) {
			t.Errorf("render %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "Next") {
		t.Error("last step should not offer Next")
	}
	if NewButtonBar(nil).Render() != "" {
		t.Error("empty bar should render nothing")
	}
}

func TestRenderHintBar(t *testing.T) {
	if got := ansi.Strip(RenderHintBar("tab", "next", "ctrl+s", "save")); got != "tab next • ctrl+s save" {
		t.Errorf("unexpected hint bar %q", got)
	}
	if RenderHintBar("odd") != "" {
		t.Error("odd pairs should render nothing")
	}
}

func TestToast(t *testing.T) {
	toast := NewToast()
	if toast.Visible() || toast.View(80) != "" {
		t.Fatal("new toast should be hidden")
	}

	if cmd := toast.Show("Draft saved", false); cmd == nil {
		t.Fatal("Show should schedule dismissal")
	}
	first := ToastDismissMsg{seq: toast.seq}
	toast.Show("Save failed", true)

	// The first timer must not hide the second toast.
	toast.Update(first)
	if toast.Message() != "Save failed" {
		t.Fatalf("toast dismissed early: %q", toast.Message())
	}
	if !strings.Contains(ansi.Strip(toast.View(80)), "Save failed") {
		t.Error("view should contain the message")
	}

	toast.Update(ToastDismissMsg{seq: toast.seq})
	if toast.Visible() {
		t.Error("toast should be dismissed")
	}
}

func TestModal(t *testing.T) {
	out := ansi.Strip(Modal("Submission failed", "server unavailable", 40))
	if !strings.Contains(out, "Submission failed") || !strings.Contains(out, "server unavailable") {
		t.Errorf("unexpected modal %q", out)
	}
	placed := Overlay(out, 80, 20)
	if lipgloss.Height(placed) != 20 {
		t.Errorf("overlay height = %d", lipgloss.Height(placed))
	}
}
