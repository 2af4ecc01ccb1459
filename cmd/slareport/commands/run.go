package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/report"
)

type runOptions struct {
	tenantID string
	from     string
	to       string
	send     bool
	format   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute one tenant's compliance report and optionally mail it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			window, err := resolveWindow(opts.from, opts.to, rt.reports.Now())
			if err != nil {
				return err
			}

			if opts.send {
				result, err := rt.reports.Deliver(cmd.Context(), opts.tenantID, window)
				if err != nil {
					return err
				}
				if result.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "no recipients configured; report not sent")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report sent to %d recipient(s) via %s after %d attempt(s)\n",
					len(result.Recipients), result.Transport, result.Attempts)
				return nil
			}

			generated, doc, err := rt.reports.Render(cmd.Context(), opts.tenantID, window)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), opts.format, generated.Report, doc)
		},
	}
	cmd.Flags().StringVar(&opts.tenantID, "tenant", "", "tenant ID (required)")
	cmd.Flags().StringVar(&opts.from, "from", "", "window start, RFC 3339 or YYYY-MM-DD (default: last week)")
	cmd.Flags().StringVar(&opts.to, "to", "", "window end, exclusive")
	cmd.Flags().BoolVar(&opts.send, "send", false, "mail the report to the tenant's recipients")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: json, text or html")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func validateFormat(format string) error {
	switch format {
	case "json", "text", "html":
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeReport(w io.Writer, format string, r domain.ComplianceReport, doc report.Document) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "html":
		_, err := io.WriteString(w, doc.HTML)
		return err
	default:
		_, err := io.WriteString(w, doc.Text)
		return err
	}
}

func resolveWindow(from, to string, now time.Time) (domain.ReportWindow, error) {
	if from == "" && to == "" {
		return domain.WeeklyWindow(now), nil
	}
	if from == "" || to == "" {
		return domain.ReportWindow{}, fmt.Errorf("--from and --to must be given together")
	}
	start, err := parseTime(from)
	if err != nil {
		return domain.ReportWindow{}, fmt.Errorf("invalid --from: %w", err)
	}
	end, err := parseTime(to)
	if err != nil {
		return domain.ReportWindow{}, fmt.Errorf("invalid --to: %w", err)
	}
	window := domain.ReportWindow{Start: start, End: end}
	return window, window.Validate()
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, v)
}
