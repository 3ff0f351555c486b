package main

import (
	"context"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/tui/theme"
)

const (
	logoText1 = "▄▀█ █▀█ █▀█ █   █▄█ █ █ █ █ ▀█"
	logoText2 = "█▀█ █▀▀ █▀▀ █▄▄  █  ▀▄▀▄▀ █ █▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "applywiz",
	Short: "Scholarship application wizard with draft autosave",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.Current()
	return strings.Join([]string{
		gradientText(logoText1, t.Primary, t.Secondary),
		gradientText(logoText2, t.Primary, t.Secondary),
	}, "\n")
}

func gradientText(s, from, to string) string {
	runes := []rune(s)
	colors := theme.Gradient(from, to, len(runes))
	var b strings.Builder
	for i, r := range runes {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Render(string(r)))
	}
	return b.String()
}

func init() {
	// Set Long description with logo
	rootCmd.Long = renderLogo() + `

applywiz walks a student through a multi-step scholarship application in the
terminal. Answers are validated step by step, saved as a draft on the
backend (automatically every few seconds and on every step change) and
submitted once at the end. A local backup keeps unsaved answers safe when
the backend is unreachable.

applywiz serve runs a reference backend with embedded NATS JetStream storage.`

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(draftCmd)
}
