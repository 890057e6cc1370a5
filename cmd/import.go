package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/adrg/frontmatter"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// postFrontmatter is the yaml header of an imported markdown post
type postFrontmatter struct {
	Title    string `yaml:"title"`
	Excerpt  string `yaml:"excerpt"`
	Category string `yaml:"category"`
	Status   string `yaml:"status"`
	Image    string `yaml:"image"`
	ReadTime string `yaml:"readTime"`
}

// importStats counts the outcome of a posts import
type importStats struct {
	Imported int
	Skipped  int
}

var importCMD = &cobra.Command{
	Use:   "import",
	Short: "import content",
	Long: `Load content into the configured storage.

  --snapshot file.json  replaces everything with an "export" document
  --posts dir/          adds every *.md file as a blog post

Markdown posts carry a yaml header:

  ---
  title: Hello world
  excerpt: First post
  category: Web Development
  status: published
  readTime: 3 min read
  ---
  # Hello

Example usage:
  go run main.go import -c settings.yml --posts ./posts --dry`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		snapshot := cmd.Flag("snapshot").Value.String()
		postsDir := cmd.Flag("posts").Value.String()
		dryRun := cmd.Flag("dry").Value.String() == "true"

		if err := runImport(context.Background(), snapshot, postsDir, dryRun); err != nil {
			log.Logger.Panic("import", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(importCMD)
	importCMD.Flags().String("snapshot", "", "json document written by export")
	importCMD.Flags().String("posts", "", "directory of markdown posts")
	importCMD.Flags().Bool("dry", false, "parse only, write nothing")
	importCMD.MarkFlagsMutuallyExclusive("snapshot", "posts")
	importCMD.MarkFlagsOneRequired("snapshot", "posts")
}

func runImport(ctx context.Context, snapshot, postsDir string, dryRun bool) error {
	logger := log.Logger.Named("import")

	store, backend, err := openHydratedStore(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.Error("close store", zap.Error(err))
		}
		_ = backend.Close(ctx)
	}()

	if snapshot != "" {
		if err = importSnapshot(ctx, store, snapshot, dryRun); err != nil {
			return errors.WithStack(err)
		}
		logger.Info("snapshot imported", zap.String("file", snapshot), zap.Bool("dry_run", dryRun))
		return nil
	}

	svc, err := service.New(store, nil, logger, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	stats, err := importPosts(ctx, svc, postsDir, dryRun)
	if err != nil {
		return errors.WithStack(err)
	}
	if !dryRun {
		if err = store.Flush(ctx); err != nil {
			return errors.Wrap(err, "flush store")
		}
	}

	logger.Info("posts imported",
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
		zap.Bool("dry_run", dryRun),
	)
	return nil
}

// importSnapshot replaces the store content with the document in path
func importSnapshot(ctx context.Context, store *dao.Store, path string, dryRun bool) error {
	fp, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %q", path)
	}
	defer func() { _ = fp.Close() }()

	snap := new(dto.Snapshot)
	if err = json.NewDecoder(fp).Decode(snap); err != nil {
		return errors.Wrapf(err, "decode snapshot %q", path)
	}
	if dryRun {
		return nil
	}

	return errors.Wrap(store.Restore(ctx, snap), "restore snapshot")
}

// importPosts adds every markdown file in dir, in name order.
// Files that fail to parse or validate are skipped and logged.
func importPosts(ctx context.Context, svc *service.Service, dir string, dryRun bool) (importStats, error) {
	logger := log.Logger.Named("import")
	var stats importStats

	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return stats, errors.Wrapf(err, "list %q", dir)
	}
	sort.Strings(paths)

	for _, path := range paths {
		draft, err := parsePostFile(path)
		if err == nil {
			err = draft.Validate()
		}
		if err != nil {
			logger.Warn("skip post", zap.String("file", path), zap.Error(err))
			stats.Skipped++
			continue
		}

		if !dryRun {
			if _, err = svc.AddBlogPost(ctx, draft); err != nil {
				return stats, errors.Wrapf(err, "add post %q", path)
			}
		}
		stats.Imported++
	}

	return stats, nil
}

func parsePostFile(path string) (dto.BlogPostDraft, error) {
	fp, err := os.Open(path)
	if err != nil {
		return dto.BlogPostDraft{}, errors.Wrapf(err, "open %q", path)
	}
	defer func() { _ = fp.Close() }()

	return parsePost(fp)
}

// parsePost reads a yaml header and a markdown body into a draft.
// An empty title is left for Validate to reject.
func parsePost(r io.Reader) (dto.BlogPostDraft, error) {
	var meta postFrontmatter
	body, err := frontmatter.Parse(r, &meta)
	if err != nil {
		return dto.BlogPostDraft{}, errors.Wrap(err, "parse frontmatter")
	}

	return dto.BlogPostDraft{
		Title:    meta.Title,
		Excerpt:  meta.Excerpt,
		Category: meta.Category,
		Status:   normalizeStatus(meta.Status),
		Image:    meta.Image,
		ReadTime: meta.ReadTime,
		Content:  strings.TrimSpace(string(body)),
	}, nil
}

// normalizeStatus matches status names case-insensitively
func normalizeStatus(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, st := range []model.Status{model.StatusDraft, model.StatusPublished} {
		if strings.EqualFold(raw, string(st)) {
			return string(st)
		}
	}
	return raw
}
