package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edi-sejahtera/sejahtera/internal/invoices"
)

func newNextNumberCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:     "next-number",
		Short:   "Tampilkan nomor faktur berikutnya",
		Example: "  sejahtera next-number --date 2023-12-05",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var at time.Time
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date, use YYYY-MM-DD: %w", err)
				}
				at = parsed
			}
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			pool, err := rt.connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := invoices.NewService(invoices.NewRepository(pool), rt.cfg.InvoiceConfig(), rt.logger, nil)
			number, err := svc.NextNumber(cmd.Context(), at)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "tanggal faktur (default hari ini)")
	return cmd
}
