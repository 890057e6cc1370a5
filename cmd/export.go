package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/library/log"
)

var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "export content as json",
	Long: `Write every persisted collection and the page view counter as one json
document. The output can be loaded back with "import --snapshot".

Example:
  go run main.go export -c settings.yml --out portfolio.json`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runExport(context.Background(), cmd.Flag("out").Value.String()); err != nil {
			log.Logger.Panic("export", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(exportCMD)
	exportCMD.Flags().StringP("out", "o", "", "output file, stdout when empty")
}

func runExport(ctx context.Context, out string) error {
	store, backend, err := openHydratedStore(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		_ = store.Close(ctx)
		_ = backend.Close(ctx)
	}()

	var w io.Writer = os.Stdout
	if out != "" {
		fp, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "create %q", out)
		}
		defer func() { _ = fp.Close() }()
		w = fp
	}

	if err = writeSnapshot(ctx, store, w); err != nil {
		return errors.WithStack(err)
	}

	if out != "" {
		log.Logger.Info("content exported", zap.String("file", out))
	}
	return nil
}

// writeSnapshot encodes the store's export as indented json
func writeSnapshot(ctx context.Context, store *dao.Store, w io.Writer) error {
	snap, err := store.Export(ctx)
	if err != nil {
		return errors.Wrap(err, "export store")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(snap), "encode snapshot")
}
