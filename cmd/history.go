package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytstream/internal/formatter"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/repositories"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyFor resolves the --user flag to a user and returns a history store over the same repository.
func (r *Runner) historyFor(ctx context.Context, cmd *cli.Command) (*repositories.HistoryStore, *models.User, error) {
	r.loadConfig(cmd)
	users, err := r.users()
	if err != nil {
		return nil, nil, err
	}

	user, err := r.findUser(ctx, users, cmd.String("user"))
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewHistoryStore(users, time.Now), user, nil
}

// HistoryList prints a user's watch history, most recent first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	store, user, err := r.historyFor(ctx, cmd)
	if err != nil {
		return err
	}

	entries, err := store.List(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}
	return formatter.RenderHistory(r.output, entries)
}

// HistoryClear removes every entry from a user's watch history.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	store, user, err := r.historyFor(ctx, cmd)
	if err != nil {
		return err
	}

	if err := store.Clear(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	r.logger.Info("watch history cleared", "user", user.ID)
	return r.writePlain("✓ Watch history cleared for %s\n", user.Email)
}

// HistoryExport writes a user's watch history as CSV or Markdown.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseExportFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	store, user, err := r.historyFor(ctx, cmd)
	if err != nil {
		return err
	}

	entries, err := store.List(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	path, err := formatter.WriteHistoryExport(entries, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("history exported", "user", user.ID, "entries", len(entries), "path", path)
	return r.writePlain("✓ Exported %d entries to %s\n", len(entries), path)
}
