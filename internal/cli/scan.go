package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-project-finance/internal/database"
	"go-project-finance/internal/logger"
	"go-project-finance/internal/models"
	"go-project-finance/internal/notify"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the notification scan once and exit",
	Long: `Runs every enabled notification rule against the current records, exactly as the
daily scheduler does. Running it twice for the same date creates nothing new.`,
	Example: `  # Scan as of today
  finance scan

  # Re-run for a past day
  finance scan --date 2024-03-10`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("date", "", "Reference date (format: YYYY-MM-DD, default: today)")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	ref := time.Now()
	if s, _ := cmd.Flags().GetString("date"); s != "" {
		parsed, err := time.ParseInLocation(models.DedupDayLayout, s, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
		}
		ref = parsed
	}

	if err := database.Connect(cfg.Database, cfg.Log.Level); err != nil {
		return err
	}

	scheduler := notify.NewScheduler(newScanner(), cfg.Scan.Interval, cfg.Scan.Timeout)
	result, err := scheduler.RunNow(context.Background(), ref)
	if err != nil {
		return err
	}

	log.Info().Str("date", ref.Format(models.DedupDayLayout)).Int("created", result.Created).Msg("scan finished")
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
