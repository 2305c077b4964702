package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/session"
	"github.com/llama-chat/llama-chat/internal/ui"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse archived chat sessions",
	Long: `List, search, show, and export archived chat sessions. Chats are only
archived when session.enabled is set in the config.

Examples:
  llama-chat sessions                     # List recent sessions
  llama-chat sessions search "kubernetes"
  llama-chat sessions show <id>
  llama-chat sessions export <id> [path.md]`,
	RunE: runSessionsList, // Default to list
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE:  runSessionsList,
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsSearch,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show session details",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <id> [path]",
	Short: "Export session as markdown",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSessionsExport,
}

// Flags
var (
	sessionsLimit int
	sessionsJSON  bool
)

func init() {
	sessionsCmd.PersistentFlags().IntVar(&sessionsLimit, "limit", 20, "Maximum number of results")
	sessionsShowCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)

	rootCmd.AddCommand(sessionsCmd)
}

func getSessionStore() (session.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Session.Enabled {
		return nil, fmt.Errorf("session storage is disabled in config (set session.enabled: true)")
	}
	return session.Open(session.Config{Enabled: true, Path: cfg.Session.Path})
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(cmd.Context(), sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	printSessionList(cmd.OutOrStdout(), summaries, time.Now())
	return nil
}

func printSessionList(w io.Writer, summaries []session.Summary, now time.Time) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}

	fmt.Fprintf(w, "%-24s %-14s %-10s %-6s %s\n", "ID", "Provider", "Updated", "Turns", "Preview")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range summaries {
		preview := strings.Join(strings.Fields(s.Preview), " ")
		fmt.Fprintf(w, "%-24s %-14s %-10s %-6d %s\n",
			s.ID, s.Provider, formatRelativeTime(s.UpdatedAt, now), s.TurnCount, ui.Truncate(preview, 30))
	}
}

func runSessionsSearch(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	query := strings.Join(args, " ")
	results, err := store.Search(cmd.Context(), query, sessionsLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(w, "No results found for '%s'\n", query)
		return nil
	}
	fmt.Fprintf(w, "Found %d matches for '%s':\n\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(w, "%s #%d (%s)\n", session.ShortID(r.SessionID), r.Sequence, r.Role)
		fmt.Fprintf(w, "  %s\n\n", r.Snippet)
	}
	return nil
}

func loadSession(ctx context.Context, store session.Store, id string) (*session.Session, []conversation.Turn, error) {
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	turns, err := store.Turns(ctx, sess.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get turns: %w", err)
	}
	return sess, turns, nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sess, turns, err := loadSession(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if sessionsJSON {
		data := struct {
			Session *session.Session    `json:"session"`
			Turns   []conversation.Turn `json:"turns"`
		}{
			Session: sess,
			Turns:   turns,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	printSession(w, sess, turns)
	return nil
}

func printSession(w io.Writer, sess *session.Session, turns []conversation.Turn) {
	fmt.Fprintf(w, "Session: %s\n", sess.ID)
	fmt.Fprintf(w, "Provider: %s\n", sess.Provider)
	fmt.Fprintf(w, "Model: %s\n", sess.Model)
	fmt.Fprintf(w, "Created: %s\n", sess.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated: %s\n", sess.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Turns: %d\n\n", len(turns))

	for _, t := range turns {
		marker := "🦙"
		switch {
		case t.IsUser():
			marker = ui.PromptIcon
		case t.Failed:
			marker = ui.FailIcon
		}
		fmt.Fprintf(w, "%s %s\n\n", marker, ui.Truncate(t.Text, 200))
	}
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sess, turns, err := loadSession(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}

	outputPath := session.ShortID(sess.ID) + ".md"
	if len(args) > 1 {
		outputPath = args[1]
	}
	if err := os.WriteFile(outputPath, []byte(session.ExportToMarkdown(sess, turns)), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d turns to %s\n", len(turns), outputPath)
	return nil
}

// formatRelativeTime returns a human-readable relative time string
func formatRelativeTime(t, now time.Time) string {
	dur := now.Sub(t)
	switch {
	case dur < time.Minute:
		return "just now"
	case dur < time.Hour:
		return fmt.Sprintf("%dm ago", int(dur.Minutes()))
	case dur < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(dur.Hours()))
	case dur < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(dur.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
