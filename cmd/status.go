package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/shell"
	"github.com/chris-regnier/daybook/internal/ui"
)

var (
	statusFormat  string
	statusEnv     bool
	statusFish    bool
	statusRefresh bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether you wrote today and your current streak",
	Long: `Show the number of entries, whether today has one, and how many days in a
row with entries end today.

Use --format with a Go template over the JSON fields for custom output.
Use --env to print shell variable assignments for prompts; this reads a
cache in the data directory while it is fresh (shell.cache_ttl) so prompts
stay fast. Any change to the diary drops the cache.`,
	Example: `  daybook status
  daybook status --json
  daybook status --env
  daybook status --format "{{if .TodayMarked}}✓{{else}}✗{{end}} {{.Streak}}"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if statusEnv {
			ttl, err := time.ParseDuration(appConfig.Shell.CacheTTL)
			if err != nil {
				ttl = 5 * time.Minute
			}
			cache := shell.ReadCache(appConfig.DataDir)
			if statusRefresh || !cache.IsFresh(appConfig.Storage, ttl, now) {
				if err := openDiary(false); err != nil {
					return err
				}
				cache = refreshPromptCache(now)
			}
			writeEnv(cmd.OutOrStdout(), cache, statusFish)
			return nil
		}

		if err := openDiary(false); err != nil {
			return err
		}
		refreshPromptCache(now)
		return statusRun(cmd.OutOrStdout(), statusFormat, now)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "", "Go template for the output")
	statusCmd.Flags().BoolVar(&statusEnv, "env", false, "print shell variable assignments")
	statusCmd.Flags().BoolVar(&statusFish, "fish", false, "with --env, use fish syntax")
	statusCmd.Flags().BoolVar(&statusRefresh, "refresh", false, "with --env, ignore the cache")
	rootCmd.AddCommand(statusCmd)
}

func currentStatus(now time.Time) ui.Status {
	p := shell.Compute(diary.Entries(), appConfig.Storage, now)
	s := ui.Status{
		Backend:     p.Backend,
		Entries:     p.Entries,
		TodayMarked: p.TodayMarked,
		Streak:      p.Streak,
	}
	if authClient != nil {
		if u := authClient.CurrentUser(); u != nil {
			s.User = u.Email
		}
	}
	if sess := currentSession(); sess != nil {
		s.Live = sess.Live()
	}
	return s
}

// refreshPromptCache recomputes the prompt status and stores it. A failed
// write only costs speed, so it is logged.
func refreshPromptCache(now time.Time) *shell.PromptCache {
	c := shell.Compute(diary.Entries(), appConfig.Storage, now)
	if err := shell.WriteCache(appConfig.DataDir, c); err != nil {
		logger.Warnw("writing prompt cache", "error", err)
	}
	return c
}

func writeEnv(w io.Writer, c *shell.PromptCache, fish bool) {
	today := 0
	if c.TodayMarked {
		today = 1
	}
	vars := [][2]string{
		{"DAYBOOK_TODAY", fmt.Sprint(today)},
		{"DAYBOOK_STREAK", fmt.Sprint(c.Streak)},
		{"DAYBOOK_ENTRIES", fmt.Sprint(c.Entries)},
	}
	for _, v := range vars {
		if fish {
			fmt.Fprintf(w, "set -gx %s %s\n", v[0], v[1])
		} else {
			fmt.Fprintf(w, "export %s=%s\n", v[0], v[1])
		}
	}
}

func statusRun(w io.Writer, format string, now time.Time) error {
	s := currentStatus(now)
	switch {
	case format != "":
		tmpl, err := template.New("status").Parse(format)
		if err != nil {
			return userError(fmt.Errorf("invalid format template: %w", err))
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, s); err != nil {
			return userError(fmt.Errorf("executing format template: %w", err))
		}
		fmt.Fprintln(w, b.String())
		return nil
	case jsonOutput:
		return ui.FormatJSON(w, s)
	default:
		ui.FormatStatus(w, s)
		return nil
	}
}
