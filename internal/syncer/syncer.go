package syncer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mnemohq/mnemo/internal/deck"
	"github.com/mnemohq/mnemo/internal/fsrs"
	"github.com/mnemohq/mnemo/internal/gitsource"
	"github.com/mnemohq/mnemo/internal/parser"
	"github.com/mnemohq/mnemo/internal/storage"
)

// Syncer reconciles configured sources with the card database: new cards
// are inserted with fresh scheduling state, cards that disappeared from
// their source are deleted, and everything else keeps its review history.
type Syncer struct {
	db       *storage.DB
	reposDir string
}

// New creates a Syncer that checks out git sources under reposDir.
func New(db *storage.DB, reposDir string) *Syncer {
	return &Syncer{db: db, reposDir: reposDir}
}

// Run reconciles every configured source. Per-source failures are logged
// and skipped so one broken source does not block the rest.
func (s *Syncer) Run(ctx context.Context) error {
	slog.Info("starting sync for all sources")
	sources, err := s.db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(s.reposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		localPath := source.Path
		if source.Type == "git" {
			localPath, err = gitURLToLocalPath(s.reposDir, source.Path)
			if err != nil {
				slog.Error("could not determine local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(ctx, source.Path, localPath); err != nil {
				slog.Error("failed to sync git repo", "url", source.Path, "error", err)
				continue
			}
		}

		if err := s.reconcile(source, localPath); err != nil {
			slog.Error("failed to reconcile source", "id", source.ID, "error", err)
		}
	}
	slog.Info("sync complete")
	return nil
}

// reconcile walks one source directory and settles the database against it.
func (s *Syncer) reconcile(source storage.Source, dir string) error {
	var parsed, inserted int
	var parseErrors []error
	foundHashes := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range fileCards {
			card.Hash = deck.HashCard(card)
			parsed++
			foundHashes[card.Hash] = true

			existing, findErr := s.db.FindCardByHash(card.Hash)
			if findErr != nil {
				parseErrors = append(parseErrors, fmt.Errorf("db check for %s: %w", card.Hash, findErr))
				continue
			}
			if existing == nil {
				slog.Info("new card found, inserting", "hash", card.Hash)
				if insertErr := s.db.InsertCard(card, fsrs.NewCard(), source.ID); insertErr != nil {
					parseErrors = append(parseErrors, fmt.Errorf("db insert for %s: %w", card.Hash, insertErr))
					continue
				}
				inserted++
			}
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %s: %w", dir, walkErr)
	}

	dbCards, err := s.db.GetCardsBySourceID(source.ID)
	if err != nil {
		return fmt.Errorf("getting cards for source %d: %w", source.ID, err)
	}

	var orphaned int
	for _, dbCard := range dbCards {
		if !foundHashes[dbCard.Hash] {
			slog.Info("orphaned card, deleting", "hash", dbCard.Hash)
			orphaned++
			if err := s.db.DeleteCardByHash(dbCard.Hash); err != nil {
				slog.Warn("failed to delete orphaned card", "hash", dbCard.Hash, "error", err)
			}
		}
	}

	if err := s.db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", dir,
		"parsed_cards", parsed,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", len(parseErrors),
	)
	return nil
}

// SourceType guesses whether a path is a git URL or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return "git"
	}
	return "local"
}

// gitURLToLocalPath maps a git URL (https or scp-like ssh) to a stable
// checkout path under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
