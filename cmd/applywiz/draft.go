package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/apply"
	"github.com/mark3labs/applywiz/internal/form"
	"github.com/mark3labs/applywiz/internal/state"
	"github.com/mark3labs/applywiz/internal/tui/applywizard"
)

var draftFlags struct {
	scholarship int
	json        bool
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect and manage saved drafts",
	Long: `Inspect the draft stored on the backend and the local backup kept
for unsaved changes.`,
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved draft and its completion",
	RunE:  runDraftShow,
}

var draftDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show unsaved local changes against the server draft",
	RunE:  runDraftDiff,
}

var draftDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Delete the local backup of a draft",
	Long: `Delete the local backup of a draft. The draft stored on the backend
is left untouched.`,
	RunE: runDraftDiscard,
}

func init() {
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftDiffCmd)
	draftCmd.AddCommand(draftDiscardCmd)

	draftCmd.PersistentFlags().IntVarP(&draftFlags.scholarship, "scholarship", "s", 0, "Scholarship ID (required)")
	_ = draftCmd.MarkPersistentFlagRequired("scholarship")
	draftShowCmd.Flags().BoolVar(&draftFlags.json, "json", false, "Print the draft as JSON")
}

// draftOutput is the --json shape of draft show.
type draftOutput struct {
	ScholarshipID int            `json:"scholarship_id"`
	Source        string         `json:"source"`
	CurrentStep   int            `json:"current_step"`
	SavedAt       time.Time      `json:"saved_at"`
	Completion    int            `json:"completion"`
	Sections      map[string]int `json:"sections"`
	Data          form.State     `json:"data"`
}

func runDraftShow(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := loadEnv()
	if err != nil {
		return err
	}
	id := draftFlags.scholarship

	out := draftOutput{ScholarshipID: id, Source: "server"}
	blob := ""
	draft, err := client.LoadDraft(cmd.Context(), id)
	switch {
	case err == nil:
		out.CurrentStep, out.SavedAt, blob = draft.CurrentStep, draft.LastSavedAt, draft.DraftData
	case errors.Is(err, api.ErrDraftNotFound):
	default:
		return fmt.Errorf("failed to load draft: %w", err)
	}

	backup, err := state.NewStore(cfg.DataDir, sess.OwnerKey()).Load(id)
	if err != nil {
		return fmt.Errorf("failed to read local backup: %w", err)
	}
	if backup != nil && (blob == "" || backup.SavedAt.After(out.SavedAt)) {
		out.Source, out.CurrentStep, out.SavedAt, blob = "local", backup.CurrentStep, backup.SavedAt, backup.DraftData
	}
	if blob == "" {
		return fmt.Errorf("no draft for scholarship %d", id)
	}

	data, err := form.Decode(blob)
	if err != nil {
		return fmt.Errorf("failed to decode draft: %w", err)
	}
	out.Data = data
	out.Completion = data.Completion()
	out.Sections = make(map[string]int, len(form.Sections))
	for _, sec := range form.Sections {
		out.Sections[string(sec)] = data.SectionCompletion(sec)
	}

	if draftFlags.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Scholarship:  %d\n", id)
	fmt.Printf("Source:       %s\n", out.Source)
	fmt.Printf("Current step: %d\n", out.CurrentStep)
	if !out.SavedAt.IsZero() {
		fmt.Printf("Saved at:     %s\n", out.SavedAt.Local().Format(time.DateTime))
	}
	fmt.Printf("Completion:   %d%%\n\n", out.Completion)
	for _, sec := range form.Sections {
		fmt.Printf("  %-16s %3d%%\n", sec, out.Sections[string(sec)])
	}
	return nil
}

func runDraftDiff(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := loadEnv()
	if err != nil {
		return err
	}
	id := draftFlags.scholarship

	backup, err := state.NewStore(cfg.DataDir, sess.OwnerKey()).Load(id)
	if err != nil {
		return fmt.Errorf("failed to read local backup: %w", err)
	}
	if backup == nil {
		fmt.Println("No local changes.")
		return nil
	}
	local, err := form.Decode(backup.DraftData)
	if err != nil {
		return fmt.Errorf("failed to decode local backup: %w", err)
	}

	server := form.Default()
	draft, err := client.LoadDraft(cmd.Context(), id)
	switch {
	case err == nil:
		if server, err = form.Decode(draft.DraftData); err != nil {
			return fmt.Errorf("failed to decode server draft: %w", err)
		}
	case errors.Is(err, api.ErrDraftNotFound):
	default:
		return fmt.Errorf("failed to load draft: %w", err)
	}

	diff := apply.Diff("server", "local", server, local)
	if diff == "" {
		fmt.Println("Local backup matches the server draft.")
		return nil
	}
	fmt.Print(applywizard.HighlightDiff(diff))
	return nil
}

func runDraftDiscard(cmd *cobra.Command, args []string) error {
	cfg, sess, _, err := loadEnv()
	if err != nil {
		return err
	}
	store := state.NewStore(cfg.DataDir, sess.OwnerKey())
	if err := store.Clear(draftFlags.scholarship); err != nil {
		return fmt.Errorf("failed to discard local backup: %w", err)
	}
	fmt.Printf("Local backup for scholarship %d discarded.\n", draftFlags.scholarship)
	return nil
}
