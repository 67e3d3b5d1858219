package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	memsheet "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	var backfillUser string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Export new transactions to Google Sheets from the change queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			return runWorker(cmd.Context(), cfg, SetupLogger(cfg.LogLevel), backfillUser)
		},
	}
	cmd.Flags().StringVar(&backfillUser, "backfill-user", "", "export this user's missing transactions before consuming")

	return cmd
}

func runWorker(parent context.Context, cfg *config.Config, logger *applog.Logger, backfillUser string) error {
	if parent == nil {
		parent = context.Background()
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to run the worker")
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting fintrack worker")

	res, err := OpenBackend(parent, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	if cfg.DataBackend == "memory" {
		logger.Warn("Worker is using the memory backend; it cannot see transactions written by the server")
	}

	sheet, err := openSheet(parent, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, done := GracefulShutdown(parent, logger, 30*time.Second, nil)

	export := worker.NewExportWorker(res.Store, sheet, logger.Logger)
	if backfillUser != "" {
		n, err := export.Backfill(ctx, backfillUser)
		if err != nil {
			logger.Error("Backfill failed", applog.FieldUserID, backfillUser, applog.FieldError, err)
		} else {
			logger.Info("Backfill complete", applog.FieldUserID, backfillUser, applog.FieldCount, n)
		}
	}

	logger.Info("Consuming transaction changes", "queue", cfg.AMQPQueue, "prefetch", cfg.WorkerPrefetch)
	err = client.ConsumeChanges(ctx, cfg.WorkerPrefetch, export.HandleChange)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
	return nil
}

// openSheet returns the Google spreadsheet when one is configured and an
// in-memory sheet otherwise.
func openSheet(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set; exporting to an in-memory sheet")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
