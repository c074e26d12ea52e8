package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/backup"
	"github.com/chris-regnier/daybook/internal/ui"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export the diary to a timestamped JSON file",
	Long: `Write an export of every entry into the backup directory
(serve.backup_dir, default <data_dir>/backups), keeping the newest
serve.backup_keep files.`,
	Example: `  daybook backup
  daybook backup list
  daybook backup restore ~/.daybook/backups/daybook-20250603T200000.000Z.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		return backupRun(cmd.OutOrStdout())
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List export files, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return backupListRun(cmd.OutOrStdout())
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Write every entry of an export back into the diary",
	Long: `Save every entry of an export file. Entries with the same ID are
overwritten; entries missing from the export are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openDiary(false); err != nil {
			return err
		}
		return backupRestoreRun(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

func backupDir() string {
	if appConfig.Serve.BackupDir != "" {
		return appConfig.Serve.BackupDir
	}
	return filepath.Join(appConfig.DataDir, "backups")
}

func newExporter() *backup.Exporter {
	return &backup.Exporter{
		Source: diary,
		Dir:    backupDir(),
		Keep:   appConfig.Serve.BackupKeep,
		Log:    logger,
	}
}

func backupRun(w io.Writer) error {
	path, err := newExporter().Export()
	if err != nil {
		return systemError(err)
	}
	if jsonOutput {
		return ui.FormatJSON(w, map[string]string{"path": path})
	}
	fmt.Fprintf(w, "Exported %d entries to %s\n", len(diary.Entries()), path)
	return nil
}

func backupListRun(w io.Writer) error {
	files, err := (&backup.Exporter{Dir: backupDir()}).List()
	if err != nil {
		return systemError(err)
	}
	if jsonOutput {
		if files == nil {
			files = []string{}
		}
		return ui.FormatJSON(w, files)
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "No backups found.")
		return nil
	}
	for _, f := range files {
		fmt.Fprintln(w, f)
	}
	return nil
}

func backupRestoreRun(ctx context.Context, w io.Writer, path string) error {
	entries, err := backup.Read(path)
	if err != nil {
		return userError(err)
	}
	for _, e := range entries {
		if _, err := diary.Upsert(ctx, e); err != nil {
			return systemError(fmt.Errorf("restoring %s: %w", e.ID, err))
		}
	}
	if err := diary.Flush(ctx); err != nil {
		return systemError(err)
	}
	fmt.Fprintf(w, "Restored %d entries from %s\n", len(entries), path)
	return nil
}
