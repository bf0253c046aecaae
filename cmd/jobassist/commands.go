package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kalambet/jobassist/internal/api"
	"github.com/kalambet/jobassist/internal/config"
	"github.com/kalambet/jobassist/internal/ingest"
	"github.com/kalambet/jobassist/internal/matching"
	"github.com/kalambet/jobassist/internal/storage"
)

var roles = []string{storage.RoleApplicant, storage.RoleEmployer, storage.RoleAdmin}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant",
	Long: `Talk to the assistant through the running server.

Without --message an interactive session is started. When --role is not
given the role is picked from a list first.

Examples:
  jobassist chat --user u1 --role applicant
  jobassist chat --user e1 --role employer -m "find candidates with Go"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		message, _ := cmd.Flags().GetString("message")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if message != "" {
			if role == "" {
				role = storage.RoleApplicant
			}
			reply, err := sendChat(cmd.Context(), client.as(user, role), message)
			if err != nil {
				return err
			}
			renderReply(os.Stdout, reply)
			return nil
		}

		if role == "" {
			sel := promptui.Select{Label: "Role", Items: roles}
			_, role, err = sel.Run()
			if err != nil {
				return err
			}
		}
		return chatLoop(cmd.Context(), client.as(user, role))
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent assistant turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		turns, err := fetchHistory(cmd.Context(), client.as(user, storage.RoleApplicant), limit)
		if err != nil {
			return err
		}
		renderHistory(os.Stdout, turns)
		return nil
	},
}

func init() {
	chatCmd.Flags().String("user", "local", "user id to chat as")
	chatCmd.Flags().String("role", "", "account role (applicant, employer or admin)")
	chatCmd.Flags().StringP("message", "m", "", "send a single message and exit")

	chatHistoryCmd.Flags().String("user", "local", "user id whose turns to list")
	chatHistoryCmd.Flags().Int("limit", 20, "maximum number of turns")
	chatCmd.AddCommand(chatHistoryCmd)
}

func chatLoop(ctx context.Context, client *apiClient) error {
	printStep("chatting as %s (%s), Ctrl+D to quit", client.userID, client.role)
	for {
		prompt := promptui.Prompt{Label: "you"}
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, err := sendChat(ctx, client, line)
		if err != nil {
			printError("%v", err)
			continue
		}
		renderReply(os.Stdout, reply)
	}
}

func sendChat(ctx context.Context, client *apiClient, message string) (chatReply, error) {
	resp, err := client.post(ctx, "/v1/chat", api.ChatRequest{Message: message})
	if err != nil {
		return chatReply{}, err
	}
	var reply chatReply
	if err := decodeJSON(resp, &reply); err != nil {
		return chatReply{}, err
	}
	return reply, nil
}

func fetchHistory(ctx context.Context, client *apiClient, limit int) ([]api.TurnView, error) {
	resp, err := client.get(ctx, fmt.Sprintf("/v1/chat/history?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var turns []api.TurnView
	if err := decodeJSON(resp, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func renderHistory(w io.Writer, turns []api.TurnView) {
	if len(turns) == 0 {
		fmt.Fprintln(w, "No turns found.")
		return
	}
	for _, t := range turns {
		status := colorize(successStyle, "ok")
		if !t.Success {
			status = colorize(errorStyle, "failed")
		}
		input := t.Input
		if len(input) > 80 {
			input = input[:80] + "..."
		}
		fmt.Fprintf(w, "%s  %-20s %-6s %s\n",
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
			colorize(stepStyle, t.Intent),
			status,
			input,
		)
	}
}

// --- match ---

var matchCmd = &cobra.Command{
	Use:   "match <resume-id>",
	Short: "Rank active jobs against one of your resumes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		matches, err := fetchMatches(cmd.Context(), client.as(user, storage.RoleApplicant), args[0])
		if err != nil {
			return err
		}
		renderMatches(os.Stdout, matches)
		return nil
	},
}

func init() {
	matchCmd.Flags().String("user", "local", "user id owning the resume")
}

func fetchMatches(ctx context.Context, client *apiClient, resumeID string) ([]matching.MatchResult, error) {
	resp, err := client.get(ctx, "/v1/resumes/"+url.PathEscape(resumeID)+"/matches")
	if err != nil {
		return nil, err
	}
	var matches []matching.MatchResult
	if err := decodeJSON(resp, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// --- resume ---

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage resumes",
}

var resumeImportCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Upload a PDF resume to be parsed and indexed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		makeDefault, _ := cmd.Flags().GetBool("default")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		view, err := uploadResume(cmd.Context(), client.as(user, storage.RoleApplicant), args[0], makeDefault)
		if err != nil {
			return err
		}

		printSuccess("Imported resume %s", view.ID)
		if view.Parsed != nil && len(view.Parsed.Skills) > 0 {
			printStatus("Skills", "%s", strings.Join(view.Parsed.Skills, ", "))
		}
		if view.IsDefault {
			printStatus("Default", "yes")
		}
		return nil
	},
}

func init() {
	resumeImportCmd.Flags().String("user", "local", "user id owning the resume")
	resumeImportCmd.Flags().Bool("default", false, "make this the default resume")
	resumeCmd.AddCommand(resumeImportCmd)
}

func uploadResume(ctx context.Context, client *apiClient, path string, makeDefault bool) (api.ResumeView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.ResumeView{}, fmt.Errorf("reading resume: %w", err)
	}

	resp, err := client.post(ctx, "/v1/resumes", api.ResumeRequest{
		FileName: filepath.Base(path),
		Default:  makeDefault,
		File:     base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return api.ResumeView{}, err
	}
	var view api.ResumeView
	if err := decodeJSON(resp, &view); err != nil {
		return api.ResumeView{}, err
	}
	return view, nil
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load users, jobs, resumes and applications into the local store",
	Long: `Load a YAML fixture into the local store and compute the embeddings
for every job and resume it contains.

The command opens the store directly, so run it while the server is stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := ingest.LoadFixture(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		a, err := buildApp(cmd.Context(), cfg, log, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("seeding %s", cfg.Storage.DataDir)
		st, err := a.catalog.Seed(cmd.Context(), fixture)
		if err != nil {
			return err
		}
		printStatus("Users", "%d", st.Users)
		printStatus("Jobs", "%d", st.Jobs)
		printStatus("Resumes", "%d", st.Resumes)
		printStatus("Applications", "%d", st.Applications)

		printStep("computing embeddings")
		n, err := a.worker.Drain(cmd.Context())
		if err != nil {
			return fmt.Errorf("embedding seeded records: %w", err)
		}
		// Postings whose task failed are retried here in one batch.
		m, err := a.worker.Backfill(cmd.Context())
		if err != nil {
			printWarning("some postings have no embedding yet: %v", err)
		}
		printSuccess("Seed complete, %d embedding tasks processed, %d postings backfilled", n, m)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (secrets hidden)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		renderConfig(os.Stdout, cfg)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func renderConfig(w io.Writer, cfg config.Config) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range config.ShowAll(cfg) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Key, k.Value, colorize(mutedStyle, k.EnvVar))
	}
	tw.Flush()
}
