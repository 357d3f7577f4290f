package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rhuss/xsltfn/pkg/config"
	"github.com/rhuss/xsltfn/pkg/storage/postgres"
)

// preparePostgres applies the stylesheet schema and loads seed files when
// the configured store is postgres. Other stores are left alone.
func preparePostgres(ctx context.Context, cfg *config.Config, source config.Source, seedDir string) error {
	dsn := source.Lookup(config.KeyConnectionString)
	if !(postgres.Driver{}).Accepts(dsn) {
		if seedDir != "" {
			return fmt.Errorf("--seed requires a postgres connection string")
		}
		return nil
	}
	if !cfg.Storage.MigrateOnStart && seedDir == "" {
		return nil
	}

	store, err := postgres.New(ctx, postgres.Config{
		DSN:            dsn,
		MaxConns:       2,
		MigrateOnStart: cfg.Storage.MigrateOnStart,
	})
	if err != nil {
		return fmt.Errorf("preparing postgres store: %w", err)
	}
	defer store.Close()

	if seedDir == "" {
		return nil
	}
	container := source.Lookup(config.KeyContainerName)
	if container == "" {
		return fmt.Errorf("--seed requires %s", config.KeyContainerName)
	}
	return seed(ctx, store, container, seedDir)
}

// seed uploads every .xsl and .xslt file under dir, keyed by its path
// relative to dir.
func seed(ctx context.Context, store *postgres.Store, container, dir string) error {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".xsl" && ext != ".xslt") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, container, filepath.ToSlash(rel), content); err != nil {
			return fmt.Errorf("seeding %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("stylesheets seeded", "container", container, "count", count)
	return nil
}
