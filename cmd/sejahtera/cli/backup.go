package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/edi-sejahtera/sejahtera/internal/backup"
)

func newBackupCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Tulis snapshot JSON seluruh tabel ke disk",
		Long: `backup membaca semua tabel bisnis dalam satu transaksi dan menulis
snapshot JSON ke direktori backup tanpa melewati antrean job.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = rt.cfg.BackupDir
			}
			pool, err := rt.connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			path, snap, err := backup.NewService(backup.NewRepository(pool)).WriteFile(cmd.Context(), dir)
			if err != nil {
				return err
			}
			rt.logger.Info("backup written", slog.String("path", path), slog.Any("rows", snap.Counts()))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "direktori tujuan (default BACKUP_DIR)")
	return cmd
}
