package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `create the kv table and the contact inbox table, then purge expired sessions`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(context.Background()); err != nil {
			log.Logger.Panic("migrate", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}

func runMigrate(ctx context.Context) error {
	logger := log.Logger.Named("migrate")

	// sql backends create their kv table on open
	backend, err := storage.Open(ctx, storageConfig())
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer func() { _ = backend.Close(ctx) }()

	if purger, ok := backend.(storage.Purger); ok {
		n, err := purger.PurgeExpired(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		logger.Info("purged expired keys", zap.Int64("rows", n))
	}

	if _, err = openInbox(ctx); err != nil {
		return errors.WithStack(err)
	}

	logger.Info("migrate done")
	return nil
}
