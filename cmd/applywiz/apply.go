package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/auth"
	"github.com/mark3labs/applywiz/internal/config"
	"github.com/mark3labs/applywiz/internal/hooks"
	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/state"
	"github.com/mark3labs/applywiz/internal/tui/applywizard"
)

var applyFlags struct {
	scholarship int
	mcp         bool
	noBackup    bool
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Fill in and submit a scholarship application",
	Long: `Open the application wizard for a scholarship.

Progress is saved as a draft on the backend every autosave_interval and on
every step change, so the wizard resumes where you left off. Unsaved answers
are also kept in a local backup under data_dir.

With --mcp, a local MCP server exposes the live form to assistants through the
form-status, form-set-field and form-validate-step tools.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().IntVarP(&applyFlags.scholarship, "scholarship", "s", 0, "Scholarship ID to apply for (required)")
	applyCmd.Flags().BoolVar(&applyFlags.mcp, "mcp", false, "Expose the form over a local MCP server")
	applyCmd.Flags().BoolVar(&applyFlags.noBackup, "no-backup", false, "Do not keep a local backup of unsaved drafts")
	_ = applyCmd.MarkFlagRequired("scholarship")
}

// loadEnv loads configuration, applies logging settings and builds the
// session and API client shared by the client-side commands.
func loadEnv() (*config.Config, auth.Session, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, auth.Session{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, auth.Session{}, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	sess, err := auth.FromConfig(cfg.UserID, cfg.UserName, cfg.UserEmail, cfg.UserRole, cfg.Token)
	if err != nil {
		return nil, auth.Session{}, nil, fmt.Errorf("invalid user settings: %w", err)
	}
	return cfg, sess, api.New(cfg.APIURL, sess, cfg.RequestTimeout), nil
}

func runApply(cmd *cobra.Command, args []string) error {
	if applyFlags.scholarship <= 0 {
		return fmt.Errorf("--scholarship must be a positive ID")
	}

	cfg, sess, client, err := loadEnv()
	if err != nil {
		return err
	}

	opts := apply.Options{
		ScholarshipID:    applyFlags.scholarship,
		Session:          sess,
		AutosaveInterval: cfg.AutosaveInterval,
	}
	if !applyFlags.noBackup {
		opts.Backup = state.NewStore(cfg.DataDir, sess.OwnerKey())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting application wizard for scholarship %d", applyFlags.scholarship)
	res, err := applywizard.Run(ctx, client, opts, applywizard.RunOptions{MCP: applyFlags.mcp})
	if err != nil {
		return err
	}

	if !res.Submitted {
		fmt.Printf("Draft kept. Run 'applywiz apply --scholarship %d' to continue.\n", applyFlags.scholarship)
		return nil
	}

	fmt.Printf("Application submitted. Application ID: %s\n", res.ApplicationID)
	runPostSubmitHook(ctx, sess, res.ApplicationID)
	return nil
}

// runPostSubmitHook runs the post_submit hook from .applywiz.hooks.yml, if any.
func runPostSubmitHook(ctx context.Context, sess auth.Session, id api.ApplicationID) {
	workDir, err := os.Getwd()
	if err != nil {
		logger.Warn("Skipping post-submit hook: %v", err)
		return
	}
	hookCfg, err := hooks.LoadConfig(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if hookCfg == nil || hookCfg.Hooks.PostSubmit == nil {
		return
	}

	userName := ""
	if u, ok := sess.User(); ok {
		userName = u.Name
	}
	out, err := hooks.Execute(ctx, hookCfg.Hooks.PostSubmit, workDir, hooks.Variables{
		ApplicationID: string(id),
		ScholarshipID: strconv.Itoa(applyFlags.scholarship),
		User:          userName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Post-submit hook cancelled: %v\n", err)
		return
	}
	if out != "" {
		fmt.Println(out)
	}
}
