// Package cmd provides common initialization functions for the propflow
// command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/propflow/propflow/pkg/persistence"
	"github.com/propflow/propflow/pkg/persistence/file"
	"github.com/propflow/propflow/pkg/persistence/postgresql"
)

// NewPersistence creates the persistence layer for a database URL. A
// postgres:// or postgresql:// URL selects PostgreSQL; anything else is
// treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch provider {
	case "postgres", "postgresql":
		return "postgresql"
	default:
		return "file"
	}
}
