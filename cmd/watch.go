package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the diary every time it changes",
	Long: `Follow the storage backend and print a line for every change, including
changes made by other processes or devices. With --json each change prints the
full entry list on one line. Stop with Ctrl+C.`,
	Example: `  daybook watch
  daybook watch --json --storage redis`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(true); err != nil {
			return err
		}
		if sess := currentSession(); sess == nil || !sess.Live() {
			return userError(fmt.Errorf("storage backend %s cannot push changes", appConfig.Storage))
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchRun(ctx, cmd.OutOrStdout(), time.Now)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchRun(ctx context.Context, w io.Writer, now func() time.Time) error {
	var mu sync.Mutex
	report := func(entries []entry.Entry) {
		mu.Lock()
		defer mu.Unlock()
		if jsonOutput {
			json.NewEncoder(w).Encode(ui.ToJSONList(entries))
			return
		}
		fmt.Fprintf(w, "%s  %d entries\n", now().Format("15:04:05"), len(entries))
	}

	cancel := diary.OnChange(report)
	defer cancel()
	report(diary.Entries())

	<-ctx.Done()
	return nil
}
