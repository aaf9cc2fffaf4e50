// Package cli holds the sejahtera command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/edi-sejahtera/sejahtera/internal/app"
	"github.com/edi-sejahtera/sejahtera/internal/platform/db"
)

var version = "dev"

// NewRootCommand builds the command tree. Every subcommand reads its settings
// from the environment through app.LoadConfig.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sejahtera",
		Short: "Back office PT. EDI SEJAHTERA",
		Long: `sejahtera menjalankan API back office: master barang dan pelanggan,
faktur dengan rekonsiliasi stok, dokumen PDF, dan backup data.

Konfigurasi dibaca dari environment dan file .env bila ada.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newJobsCommand(),
		newBackupCommand(),
		newNextNumberCommand(),
	)
	return root
}

// runtime bundles what most commands need after loading configuration.
type runtime struct {
	cfg    *app.Config
	logger *slog.Logger
}

func loadRuntime() (*runtime, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &runtime{cfg: cfg, logger: app.NewLogger(cfg)}, nil
}

func (rt *runtime) connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.New(ctx, rt.cfg.PGDSN, db.PoolOptions{MaxConns: rt.cfg.PGMaxConns})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}
