package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/daybook/internal/api"
	"github.com/chris-regnier/daybook/internal/backup"
)

var (
	serveAddr     string
	serveSchedule string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diary over HTTP",
	Long: `Serve a JSON API for the diary and, if a backup schedule is set, write
scheduled exports while running. The journal follows backend pushes so
changes made elsewhere show up in responses.

Routes:
  GET    /health
  GET    /api/v1/entries?date=&q=&limit=
  POST   /api/v1/entries
  GET    /api/v1/entries/:id
  PUT    /api/v1/entries/:id
  DELETE /api/v1/entries/:id
  GET    /api/v1/calendar?month=`,
	Example: `  daybook serve
  daybook serve --addr 127.0.0.1:9000 --backup-schedule "@daily"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			appConfig.Serve.Addr = serveAddr
		}
		if cmd.Flags().Changed("backup-schedule") {
			appConfig.Serve.BackupSchedule = serveSchedule
		}
		if err := openDiary(true); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		srv := api.NewServer(appConfig.Serve.Addr, api.NewHandler(diary, logger))
		g.Go(func() error { return srv.Run(ctx) })

		if spec := appConfig.Serve.BackupSchedule; spec != "" {
			sched, err := backup.NewScheduler(spec, newExporter())
			if err != nil {
				return userError(err)
			}
			logger.Infow("backups scheduled", "schedule", spec, "dir", backupDir())
			g.Go(func() error { return sched.Run(ctx) })
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from serve.addr)")
	serveCmd.Flags().StringVar(&serveSchedule, "backup-schedule", "", `cron spec for exports, e.g. "@daily" or "0 3 * * *"`)
	rootCmd.AddCommand(serveCmd)
}
