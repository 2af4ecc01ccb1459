package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spec-kit/sla-reporting/internal/worker"
)

func newScheduleCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Deliver the weekly report to every active tenant on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			scheduler := worker.NewReportScheduler(rt.tenants, rt.reports, rt.ledger, cfg.Report.Interval(), cfg.Report.Concurrency, logger)
			if once {
				_, err := scheduler.RunOnce(ctx)
				return err
			}
			scheduler.Start(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run one pass now and exit; tenants already sent this window are skipped")
	return cmd
}
