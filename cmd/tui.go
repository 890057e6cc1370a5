package cmd

import (
	"context"
	"fmt"
	"os"

	errors "github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/cmd/tui"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/library/log"
)

var tuiCMD = &cobra.Command{
	Use:   "tui",
	Short: "Browse content in the terminal",
	Long: `Launch an interactive Terminal User Interface (TUI) over the configured storage.

The TUI lists projects, blog posts, skills and the profile exactly as
they are stored, drafts included. It never writes.

Example:
  go run main.go tui -c settings.yml

Keyboard shortcuts:
  ↑/↓ or j/k  Navigate
  Enter       Open
  /           Filter the current list
  r           Reload from storage
  Esc         Go back
  q           Quit`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTUI(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCMD.AddCommand(tuiCMD)
}

// runTUI starts the interactive Terminal User Interface and returns any start/run error.
func runTUI(ctx context.Context) error {
	store, backend, err := openStore(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() { _ = backend.Close(ctx) }()

	p := tea.NewProgram(
		tui.NewModel(storeLoader(store)),
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	_, err = p.Run()
	return errors.WithStack(err)
}

// storeLoader re-reads storage on every call so edits made by a running
// server show up on reload
func storeLoader(store *dao.Store) tui.Loader {
	return func(ctx context.Context) (*dto.Snapshot, error) {
		if err := store.Hydrate(ctx); err != nil {
			return nil, errors.WithStack(err)
		}
		return store.Export(ctx)
	}
}
